// internal/app/features/communities/handler.go
package communities

import (
	"github.com/dalemusser/studytrack/internal/app/membership"
	"github.com/dalemusser/studytrack/internal/app/system/auditlog"
	"go.uber.org/zap"
)

// Handler serves the /api/communities routes. Every mutation goes through
// the membership service; this layer only decodes, authenticates and
// writes the envelope.
type Handler struct {
	Svc   *membership.Service
	Audit *auditlog.Logger
	Log   *zap.Logger
}

// NewHandler constructs a communities Handler.
func NewHandler(svc *membership.Service, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:   svc,
		Audit: audit,
		Log:   logger,
	}
}
