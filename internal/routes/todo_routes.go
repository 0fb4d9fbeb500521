package routes

import (
	"github.com/go-chi/chi/v5"
	"todo/internal/handlers"
	"todo/internal/middleware"
	"todo/internal/models"
)

// RegisterTodoRoutes expects an authenticated router. Ownership on /{id}
// is enforced by the todo service.
func RegisterTodoRoutes(router chi.Router, h *handlers.TodoHandler) {
	router.Route("/todos", func(r chi.Router) {
		r.With(middleware.RequireRoles(models.RoleAdmin)).Get("/", h.ListAll)
		r.With(middleware.RequireRoles(models.RoleUser, models.RoleAdmin)).Post("/", h.Create)
		r.With(middleware.RequireRoles(models.RoleUser, models.RoleAdmin)).Get("/mine", h.ListMine)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
		})
	})
}
