// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/studytrack/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/audit.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireSignedIn)

	r.Get("/me", h.ServeMine)
	r.Get("/communities/{id}", h.ServeCommunity)

	return r
}
