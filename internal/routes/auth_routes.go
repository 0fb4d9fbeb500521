package routes

import (
	"github.com/go-chi/chi/v5"
	"todo/internal/handlers"
	"todo/internal/middleware"
	"todo/internal/ratelimit"
)

// RegisterAuthRoutes mounts /auth. Credential endpoints share one per-IP
// bucket when a limiter is configured.
func RegisterAuthRoutes(router chi.Router, h *handlers.AuthHandler, limiter *ratelimit.Limiter) {
	router.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(middleware.RateLimit(limiter))
			}
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/reset-password", h.ResetPassword)
		})
		r.Get("/verify-email", h.VerifyEmail)
		r.Post("/verify-email", h.VerifyEmail)
		r.Post("/logout", h.Logout)
	})
}
