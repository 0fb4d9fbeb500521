package models

import "time"

type TodoStatus string

const (
	TodoStatusPending  TodoStatus = "pending"
	TodoStatusOnTrack  TodoStatus = "on_track"
	TodoStatusOffTrack TodoStatus = "off_track"
	TodoStatusDone     TodoStatus = "done"
)

func (s TodoStatus) Valid() bool {
	switch s {
	case TodoStatusPending, TodoStatusOnTrack, TodoStatusOffTrack, TodoStatusDone:
		return true
	}
	return false
}

// ResolveStatus picks the stored status for a todo. Done is sticky, an
// explicit request wins, otherwise the deadline decides.
func ResolveStatus(current, requested TodoStatus, deadline, now time.Time) TodoStatus {
	if requested != "" {
		return requested
	}
	if current == TodoStatusDone {
		return TodoStatusDone
	}
	if current == TodoStatusPending && deadline.After(now) {
		return TodoStatusPending
	}
	if deadline.After(now) {
		return TodoStatusOnTrack
	}
	return TodoStatusOffTrack
}

type TodoOwner struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

type Todo struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Deadline    time.Time  `json:"deadline"`
	Status      TodoStatus `json:"status"`
	User        TodoOwner  `json:"user"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type CreateTodoRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description" validate:"required"`
	Deadline    time.Time  `json:"deadline" validate:"required"`
	Status      TodoStatus `json:"status,omitempty" validate:"omitempty,oneof=pending on_track off_track done"`
}

type UpdateTodoRequest struct {
	Title       *string     `json:"title,omitempty" validate:"omitempty,min=1"`
	Description *string     `json:"description,omitempty" validate:"omitempty,min=1"`
	Deadline    *time.Time  `json:"deadline,omitempty"`
	Status      *TodoStatus `json:"status,omitempty" validate:"omitempty,oneof=pending on_track off_track done"`
}
