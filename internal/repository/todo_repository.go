package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo/internal/interfaces"
	"todo/internal/models"
)

const todoSelect = `
	SELECT t.id, t.title, t.description, t.deadline, t.status, t.user_id, u.role, t.created_at, t.updated_at
	FROM todos t
	JOIN users u ON u.id = t.user_id
`

type todoRepository struct {
	db *sql.DB
}

func NewTodoRepository(db *sql.DB) interfaces.TodoRepository {
	return &todoRepository{db: db}
}

func scanTodo(row rowScanner) (*models.Todo, error) {
	var t models.Todo
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.Deadline,
		&t.Status,
		&t.User.ID,
		&t.User.Role,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *todoRepository) Create(ctx context.Context, todo *models.Todo) error {
	query := `
		INSERT INTO todos (id, user_id, title, description, deadline, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		todo.ID,
		todo.User.ID,
		todo.Title,
		todo.Description,
		todo.Deadline,
		todo.Status,
	).Scan(&todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "todos_title_key") {
			return interfaces.ErrTitleTaken
		}
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

func (r *todoRepository) GetByID(ctx context.Context, id string) (*models.Todo, error) {
	t, err := scanTodo(r.db.QueryRowContext(ctx, todoSelect+` WHERE t.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, interfaces.ErrTodoNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *todoRepository) GetByTitle(ctx context.Context, title string) (*models.Todo, error) {
	t, err := scanTodo(r.db.QueryRowContext(ctx, todoSelect+` WHERE t.title = $1`, title))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, interfaces.ErrTodoNotFound
		}
		return nil, err
	}
	return t, nil
}

func buildTodoWhere(filter interfaces.TodoFilter) (string, []any) {
	var clauses []string
	var args []any
	argPos := 1

	if filter.UserID != "" {
		clauses = append(clauses, fmt.Sprintf("t.user_id = $%d", argPos))
		args = append(args, filter.UserID)
		argPos++
	}
	if filter.Status != "" {
		clauses = append(clauses, fmt.Sprintf("t.status = $%d", argPos))
		args = append(args, filter.Status)
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *todoRepository) List(ctx context.Context, filter interfaces.TodoFilter) ([]*models.Todo, error) {
	where, args := buildTodoWhere(filter)
	query := todoSelect + where + " ORDER BY t.deadline ASC, t.created_at DESC"

	argPos := len(args) + 1
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filter.Limit)
		argPos++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []*models.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func (r *todoRepository) Count(ctx context.Context, filter interfaces.TodoFilter) (int, error) {
	where, args := buildTodoWhere(filter)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM todos t`+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *todoRepository) Update(ctx context.Context, todo *models.Todo) error {
	query := `
		UPDATE todos
		SET title = $1, description = $2, deadline = $3, status = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query, todo.Title, todo.Description, todo.Deadline, todo.Status, todo.ID).
		Scan(&todo.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return interfaces.ErrTodoNotFound
		}
		if isUniqueViolation(err, "todos_title_key") {
			return interfaces.ErrTitleTaken
		}
		return err
	}
	return nil
}

func (r *todoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return interfaces.ErrTodoNotFound
	}
	return nil
}

// MarkOverdue flips every unfinished todo whose deadline has passed to off_track.
func (r *todoRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE todos
		SET status = $1, updated_at = NOW()
		WHERE status IN ($2, $3) AND deadline <= $4
	`
	res, err := r.db.ExecContext(ctx, query,
		models.TodoStatusOffTrack,
		models.TodoStatusPending,
		models.TodoStatusOnTrack,
		now,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
