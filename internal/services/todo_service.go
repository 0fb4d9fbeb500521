package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"todo/internal/auth"
	"todo/internal/interfaces"
	"todo/internal/models"
)

type TodoService struct {
	todos  interfaces.TodoRepository
	policy *auth.Policy
	now    func() time.Time
}

func NewTodoService(todos interfaces.TodoRepository, policy *auth.Policy) *TodoService {
	return &TodoService{todos: todos, policy: policy, now: time.Now}
}

// Create stores a todo owned by the caller. Titles are unique across all
// users.
func (s *TodoService) Create(ctx context.Context, caller auth.Subject, req *models.CreateTodoRequest) (*models.Todo, error) {
	if !s.policy.CanAccess(caller, auth.ActionCreate, auth.Resource{Kind: auth.ResourceTodo}) {
		return nil, interfaces.Forbidden("You are not allowed to create todos")
	}

	title := strings.TrimSpace(req.Title)
	if err := s.ensureTitleFree(ctx, title, ""); err != nil {
		return nil, err
	}

	todo := &models.Todo{
		ID:          uuid.NewString(),
		Title:       title,
		Description: req.Description,
		Deadline:    req.Deadline.UTC(),
		Status:      models.ResolveStatus("", req.Status, req.Deadline, s.now()),
		User:        models.TodoOwner{ID: caller.UserID, Role: caller.Role},
	}
	if err := s.todos.Create(ctx, todo); err != nil {
		if errors.Is(err, interfaces.ErrTitleTaken) {
			return nil, titleConflict(title)
		}
		return nil, interfaces.Internal(err)
	}
	return todo, nil
}

// ListAll is the admin view across every owner.
func (s *TodoService) ListAll(ctx context.Context, caller auth.Subject, page models.PageRequest, status models.TodoStatus) (models.Page[*models.Todo], error) {
	if !s.policy.CanAccess(caller, auth.ActionList, auth.Resource{Kind: auth.ResourceTodo}) {
		return models.Page[*models.Todo]{}, interfaces.Forbidden("Forbidden resource")
	}
	return s.list(ctx, interfaces.TodoFilter{Status: status}, page)
}

func (s *TodoService) ListMine(ctx context.Context, caller auth.Subject, page models.PageRequest, status models.TodoStatus) (models.Page[*models.Todo], error) {
	if !s.policy.CanAccess(caller, auth.ActionList, auth.Resource{Kind: auth.ResourceTodo, OwnerID: caller.UserID}) {
		return models.Page[*models.Todo]{}, interfaces.Forbidden("Forbidden resource")
	}
	return s.list(ctx, interfaces.TodoFilter{UserID: caller.UserID, Status: status}, page)
}

func (s *TodoService) list(ctx context.Context, filter interfaces.TodoFilter, page models.PageRequest) (models.Page[*models.Todo], error) {
	filter.Limit = page.Limit
	filter.Offset = page.Offset()

	items, err := s.todos.List(ctx, filter)
	if err != nil {
		return models.Page[*models.Todo]{}, interfaces.Internal(err)
	}
	total, err := s.todos.Count(ctx, filter)
	if err != nil {
		return models.Page[*models.Todo]{}, interfaces.Internal(err)
	}
	return models.NewPage(items, page, total), nil
}

func (s *TodoService) Get(ctx context.Context, caller auth.Subject, id string) (*models.Todo, error) {
	todo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanAccess(caller, auth.ActionRead, ownedTodo(todo)) {
		return nil, interfaces.Forbidden("You are not allowed to view this todo")
	}
	return todo, nil
}

func (s *TodoService) Update(ctx context.Context, caller auth.Subject, id string, req *models.UpdateTodoRequest) (*models.Todo, error) {
	todo, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanAccess(caller, auth.ActionUpdate, ownedTodo(todo)) {
		return nil, interfaces.Forbidden("You are not allowed to update this todo")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title != todo.Title {
			if err := s.ensureTitleFree(ctx, title, todo.ID); err != nil {
				return nil, err
			}
		}
		todo.Title = title
	}
	if req.Description != nil {
		todo.Description = *req.Description
	}
	if req.Deadline != nil {
		todo.Deadline = req.Deadline.UTC()
	}
	var requested models.TodoStatus
	if req.Status != nil {
		requested = *req.Status
	}
	todo.Status = models.ResolveStatus(todo.Status, requested, todo.Deadline, s.now())

	if err := s.todos.Update(ctx, todo); err != nil {
		switch {
		case errors.Is(err, interfaces.ErrTitleTaken):
			return nil, titleConflict(todo.Title)
		case errors.Is(err, interfaces.ErrTodoNotFound):
			return nil, todoNotFound(id)
		}
		return nil, interfaces.Internal(err)
	}
	return todo, nil
}

func (s *TodoService) Delete(ctx context.Context, caller auth.Subject, id string) error {
	todo, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !s.policy.CanAccess(caller, auth.ActionDelete, ownedTodo(todo)) {
		return interfaces.Forbidden("You are not allowed to delete this todo")
	}
	if err := s.todos.Delete(ctx, id); err != nil {
		if errors.Is(err, interfaces.ErrTodoNotFound) {
			return todoNotFound(id)
		}
		return interfaces.Internal(err)
	}
	return nil
}

// MarkOverdue moves unfinished todos past their deadline to off_track.
func (s *TodoService) MarkOverdue(ctx context.Context) (int64, error) {
	return s.todos.MarkOverdue(ctx, s.now().UTC())
}

func (s *TodoService) load(ctx context.Context, id string) (*models.Todo, error) {
	todo, err := s.todos.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, interfaces.ErrTodoNotFound) {
			return nil, todoNotFound(id)
		}
		return nil, interfaces.Internal(err)
	}
	return todo, nil
}

func (s *TodoService) ensureTitleFree(ctx context.Context, title, selfID string) error {
	existing, err := s.todos.GetByTitle(ctx, title)
	switch {
	case errors.Is(err, interfaces.ErrTodoNotFound):
		return nil
	case err != nil:
		return interfaces.Internal(err)
	case existing.ID != selfID:
		return titleConflict(title)
	}
	return nil
}

func ownedTodo(t *models.Todo) auth.Resource {
	return auth.Resource{Kind: auth.ResourceTodo, OwnerID: t.User.ID}
}

func titleConflict(title string) *interfaces.AppError {
	return interfaces.Conflict(fmt.Sprintf("Todo with title '%s' already exists", title))
}

func todoNotFound(id string) *interfaces.AppError {
	return interfaces.NotFound(fmt.Sprintf("Todo with ID %s not found", id))
}
