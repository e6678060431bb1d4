// internal/app/features/communities/routes.go
package communities

import (
	"github.com/dalemusser/studytrack/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/communities. Reads are public; mutations need a
// signed-in user and the service enforces creator-only rules.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeGet)
	r.Get("/{id}/stats", h.ServeStats)
	r.Get("/{id}/members", h.ServeMembers)
	r.Post("/{id}/members", h.ServeMembers)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Post("/", h.HandleCreate)
		pr.Patch("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Post("/{id}/join", h.HandleJoin)
		pr.Post("/{id}/leave", h.HandleLeave)
		pr.Get("/{id}/membership", h.ServeMembership)
	})

	return r
}
