// internal/app/features/users/routes.go
package users

import (
	"github.com/dalemusser/studytrack/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/users. /me is matched before /{id}.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.ServeProfile)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/me", h.ServeMe)
		pr.Patch("/me", h.HandleUpdateMe)
		pr.Get("/me/communities", h.ServeMyCommunities)
	})

	return r
}
