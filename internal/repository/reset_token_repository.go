package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"todo/internal/interfaces"
	"todo/internal/models"
)

type resetTokenRepository struct {
	db *sql.DB
}

func NewResetTokenRepository(db *sql.DB) interfaces.ResetTokenRepository {
	return &resetTokenRepository{db: db}
}

func (r *resetTokenRepository) Create(ctx context.Context, token *models.ResetToken) error {
	query := `
		INSERT INTO reset_tokens (id, user_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query, token.ID, token.UserID, token.TokenHash, token.ExpiresAt).
		Scan(&token.CreatedAt, &token.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert reset token: %w", err)
	}
	return nil
}

// ConsumeValid relies on DELETE ... RETURNING so the row lock decides which
// of two concurrent consumers gets the token.
func (r *resetTokenRepository) ConsumeValid(ctx context.Context, tokenHash string, now time.Time) (string, error) {
	query := `
		DELETE FROM reset_tokens
		WHERE token_hash = $1
		AND is_expired = FALSE
		AND expires_at > $2
		RETURNING user_id
	`

	var userID string
	err := r.db.QueryRowContext(ctx, query, tokenHash, now).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", interfaces.ErrResetTokenNotFound
		}
		return "", err
	}
	return userID, nil
}

func (r *resetTokenRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *resetTokenRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE reset_tokens
		SET is_expired = TRUE, updated_at = NOW()
		WHERE is_expired = FALSE AND expires_at <= $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *resetTokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE expires_at <= $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
