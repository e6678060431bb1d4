// internal/app/features/posts/handler.go
package posts

import (
	"github.com/dalemusser/studytrack/internal/app/membership"
	"go.uber.org/zap"
)

// Handler serves the /api/posts routes.
type Handler struct {
	Svc *membership.Service
	Log *zap.Logger
}

// NewHandler constructs a posts Handler.
func NewHandler(svc *membership.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Svc: svc,
		Log: logger,
	}
}
