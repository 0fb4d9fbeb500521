package auth

import "todo/internal/models"

type Action string

const (
	ActionRead   Action = "read"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

type ResourceKind string

const (
	ResourceTodo ResourceKind = "todo"
	ResourceUser ResourceKind = "user"
)

// Subject is the authenticated caller.
type Subject struct {
	UserID string
	Role   models.Role
}

// Resource identifies what is being accessed. OwnerID is empty for
// collection-level actions.
type Resource struct {
	Kind    ResourceKind
	OwnerID string
}

// Policy is the single place where role and ownership rules meet.
//
//	todo: create by any role; list-all admin only; read by owner or admin;
//	      update/delete by owner only.
//	user: list admin only; read by self or admin; update by self only.
type Policy struct{}

func NewPolicy() *Policy { return &Policy{} }

func (p *Policy) CanAccess(s Subject, action Action, r Resource) bool {
	if s.UserID == "" || !s.Role.Valid() {
		return false
	}
	isAdmin := s.Role == models.RoleAdmin
	isOwner := r.OwnerID != "" && r.OwnerID == s.UserID

	switch r.Kind {
	case ResourceTodo:
		switch action {
		case ActionCreate:
			return true
		case ActionList:
			// listing a specific owner's todos is always allowed for that owner
			return isAdmin || isOwner
		case ActionRead:
			return isOwner || isAdmin
		case ActionUpdate, ActionDelete:
			return isOwner
		}
	case ResourceUser:
		switch action {
		case ActionList:
			return isAdmin
		case ActionRead:
			return isOwner || isAdmin
		case ActionUpdate:
			return isOwner
		}
	}
	return false
}

// AllowsRole reports whether role is one of allowed.
func AllowsRole(role models.Role, allowed ...models.Role) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
