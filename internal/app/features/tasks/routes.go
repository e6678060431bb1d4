// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/studytrack/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/tasks.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/{id}", h.ServeGet)
	r.Patch("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)

	return r
}
