package routes

import (
	"github.com/go-chi/chi/v5"
	"todo/internal/handlers"
	"todo/internal/middleware"
	"todo/internal/models"
)

func RegisterUserRoutes(router chi.Router, h *handlers.UserHandler) {
	router.Route("/user", func(r chi.Router) {
		r.Put("/update-profile", h.UpdateProfile)
		r.Put("/updatePassword/{id}", h.ChangePassword)
		r.Post("/uploadImage/{id}", h.UploadImage)
	})

	router.Route("/users", func(r chi.Router) {
		r.With(middleware.RequireRoles(models.RoleAdmin)).Get("/", h.List)
		r.Get("/{id}", h.Get)
	})
}
