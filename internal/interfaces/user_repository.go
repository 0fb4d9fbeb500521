package interfaces

import (
	"context"
	"errors"

	"todo/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already registered")
)

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, limit int, offset int) ([]models.User, error)
	Count(ctx context.Context) (int, error)
	UpdateProfile(ctx context.Context, id string, req *models.UpdateProfileRequest) error
	UpdatePasswordHash(ctx context.Context, id string, passwordHash string) error
	UpdateImageURL(ctx context.Context, id string, imageURL string) error
	MarkEmailVerified(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
