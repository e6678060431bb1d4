// internal/app/features/tasks/handler.go
package tasks

import (
	taskstore "github.com/dalemusser/studytrack/internal/app/store/tasks"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the /api/tasks routes. Every route is scoped to the caller.
type Handler struct {
	Tasks *taskstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Tasks: taskstore.New(db),
		Log:   logger,
	}
}
