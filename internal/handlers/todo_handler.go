package handlers

import (
	"context"
	"fmt"
	"net/http"

	"todo/internal/auth"
	"todo/internal/middleware"
	"todo/internal/models"
	"todo/internal/response"
	"todo/internal/validation"
)

type todoService interface {
	Create(ctx context.Context, caller auth.Subject, req *models.CreateTodoRequest) (*models.Todo, error)
	ListAll(ctx context.Context, caller auth.Subject, page models.PageRequest, status models.TodoStatus) (models.Page[*models.Todo], error)
	ListMine(ctx context.Context, caller auth.Subject, page models.PageRequest, status models.TodoStatus) (models.Page[*models.Todo], error)
	Get(ctx context.Context, caller auth.Subject, id string) (*models.Todo, error)
	Update(ctx context.Context, caller auth.Subject, id string, req *models.UpdateTodoRequest) (*models.Todo, error)
	Delete(ctx context.Context, caller auth.Subject, id string) error
}

type TodoHandler struct {
	svc todoService
	v   *validation.Validator
}

func NewTodoHandler(svc todoService, v *validation.Validator) *TodoHandler {
	return &TodoHandler{svc: svc, v: v}
}

// @Tags Todos
// @Summary Create a todo
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body models.CreateTodoRequest true "Todo"
// @Success 201 {object} response.Envelope{data=models.Todo}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/v1/todos [post]
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTodoRequest
	if err := decodeAndValidate(r, h.v, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	todo, err := h.svc.Create(r.Context(), middleware.SubjectFromContext(r.Context()), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, "Todo created successfully", todo)
}

// @Tags Todos
// @Summary List every todo (admin)
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Param status query string false "Status filter" Enums(pending, on_track, off_track, done)
// @Success 200 {object} response.Envelope{data=models.Page[models.Todo]}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /api/v1/todos [get]
func (h *TodoHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.ListAll, "Todos retrieved successfully")
}

// @Tags Todos
// @Summary List the caller's todos
// @Security BearerAuth
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(10)
// @Param status query string false "Status filter" Enums(pending, on_track, off_track, done)
// @Success 200 {object} response.Envelope{data=models.Page[models.Todo]}
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/v1/todos/mine [get]
func (h *TodoHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.svc.ListMine, "Your todos retrieved successfully")
}

type listFunc func(context.Context, auth.Subject, models.PageRequest, models.TodoStatus) (models.Page[*models.Todo], error)

func (h *TodoHandler) list(w http.ResponseWriter, r *http.Request, fn listFunc, message string) {
	page, err := parsePagination(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	status, err := parseStatus(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	result, err := fn(r.Context(), middleware.SubjectFromContext(r.Context()), page, status)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, message, result)
}

// @Tags Todos
// @Summary Get a todo
// @Security BearerAuth
// @Produce json
// @Param id path string true "Todo ID"
// @Success 200 {object} response.Envelope{data=models.Todo}
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/v1/todos/{id} [get]
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	todo, err := h.svc.Get(r.Context(), middleware.SubjectFromContext(r.Context()), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, fmt.Sprintf("Todo with ID %s retrieved successfully", id), todo)
}

// @Tags Todos
// @Summary Update a todo
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Todo ID"
// @Param body body models.UpdateTodoRequest true "Fields to change"
// @Success 200 {object} response.Envelope{data=models.Todo}
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/v1/todos/{id} [put]
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	var req models.UpdateTodoRequest
	if err := decodeAndValidate(r, h.v, &req); err != nil {
		response.FromError(w, r, err)
		return
	}

	todo, err := h.svc.Update(r.Context(), middleware.SubjectFromContext(r.Context()), id, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, fmt.Sprintf("Todo with ID %s updated successfully", id), todo)
}

// @Tags Todos
// @Summary Delete a todo
// @Security BearerAuth
// @Produce json
// @Param id path string true "Todo ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/v1/todos/{id} [delete]
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.FromError(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), middleware.SubjectFromContext(r.Context()), id); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, fmt.Sprintf("Todo with ID %s deleted successfully", id), nil)
}
