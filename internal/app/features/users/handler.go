// internal/app/features/users/handler.go
package users

import (
	"github.com/dalemusser/studytrack/internal/app/membership"
	userstore "github.com/dalemusser/studytrack/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the /api/users routes.
type Handler struct {
	Users *userstore.Store
	Svc   *membership.Service
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, svc *membership.Service, logger *zap.Logger) *Handler {
	return &Handler{
		Users: userstore.New(db),
		Svc:   svc,
		Log:   logger,
	}
}
