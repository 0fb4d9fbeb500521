package interfaces

import (
	"context"
	"errors"
	"time"

	"todo/internal/models"
)

var ErrResetTokenNotFound = errors.New("reset token not found")

type ResetTokenRepository interface {
	Create(ctx context.Context, token *models.ResetToken) error
	// ConsumeValid deletes the live token with the given hash and returns its
	// owner. Exactly one concurrent caller can succeed for a given token.
	ConsumeValid(ctx context.Context, tokenHash string, now time.Time) (string, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
