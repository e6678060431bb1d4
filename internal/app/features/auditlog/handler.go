// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/dalemusser/studytrack/internal/app/membership"
	"github.com/dalemusser/studytrack/internal/app/store/audit"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves read-only views of the audit trail: a caller's own
// events, and a community's events for its creator.
type Handler struct {
	Events *audit.Store
	Svc    *membership.Service
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, svc *membership.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Events: audit.New(db),
		Svc:    svc,
		Log:    logger,
	}
}
