// internal/app/features/authapi/routes.go
package authapi

import (
	"github.com/dalemusser/studytrack/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts under /api/auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Post("/forgot-password", h.HandleForgotPassword)
	r.Post("/reset-password", h.HandleResetPassword)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Post("/logout", h.HandleLogout)
		pr.Get("/me", h.ServeMe)
	})

	return r
}
