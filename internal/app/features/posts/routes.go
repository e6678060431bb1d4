// internal/app/features/posts/routes.go
package posts

import (
	"github.com/dalemusser/studytrack/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/posts.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/community/{communityId}", h.ServeByCommunity)
	r.Get("/{id}", h.ServeGet)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Post("/", h.HandleCreate)
		pr.Patch("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Post("/{id}/like", h.HandleToggleLike)
		pr.Post("/{id}/comment", h.HandleAddComment)
		pr.Delete("/{id}/comment/{commentId}", h.HandleRemoveComment)
	})

	return r
}
