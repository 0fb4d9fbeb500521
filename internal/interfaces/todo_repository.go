package interfaces

import (
	"context"
	"errors"
	"time"

	"todo/internal/models"
)

var (
	ErrTodoNotFound = errors.New("todo not found")
	ErrTitleTaken   = errors.New("todo title already exists")
)

// TodoFilter defines the filter criteria for listing todos
type TodoFilter struct {
	UserID string
	Status models.TodoStatus
	Limit  int
	Offset int
}

// TodoRepository defines the interface for todo data operations
type TodoRepository interface {
	Create(ctx context.Context, todo *models.Todo) error
	GetByID(ctx context.Context, id string) (*models.Todo, error)
	GetByTitle(ctx context.Context, title string) (*models.Todo, error)
	List(ctx context.Context, filter TodoFilter) ([]*models.Todo, error)
	Count(ctx context.Context, filter TodoFilter) (int, error)
	Update(ctx context.Context, todo *models.Todo) error
	Delete(ctx context.Context, id string) error
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
}
