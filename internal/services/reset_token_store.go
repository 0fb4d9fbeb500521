package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"todo/internal/interfaces"
	"todo/internal/models"
)

// ErrInvalidOrExpired is returned when a reset or verification token is
// unknown, already consumed, or past its expiry.
var ErrInvalidOrExpired = errors.New("invalid or expired token")

// ResetTokenStore issues single-use opaque tokens. Only their SHA-256 is
// persisted; the raw value goes out in the emailed link.
type ResetTokenStore struct {
	repo interfaces.ResetTokenRepository
	ttl  time.Duration
	now  func() time.Time
}

func NewResetTokenStore(repo interfaces.ResetTokenRepository, ttl time.Duration) *ResetTokenStore {
	return &ResetTokenStore{repo: repo, ttl: ttl, now: time.Now}
}

func (s *ResetTokenStore) Issue(ctx context.Context, userID string) (string, error) {
	raw, hash, err := generateResetToken()
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	tok := &models.ResetToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}
	if err := s.repo.Create(ctx, tok); err != nil {
		return "", err
	}
	return raw, nil
}

// Consume burns the token and returns its owner.
func (s *ResetTokenStore) Consume(ctx context.Context, raw string) (string, error) {
	if raw == "" {
		return "", ErrInvalidOrExpired
	}
	userID, err := s.repo.ConsumeValid(ctx, hashResetToken(raw), s.now().UTC())
	if err != nil {
		if errors.Is(err, interfaces.ErrResetTokenNotFound) {
			return "", ErrInvalidOrExpired
		}
		return "", err
	}
	return userID, nil
}

func (s *ResetTokenStore) PurgeUser(ctx context.Context, userID string) error {
	_, err := s.repo.DeleteByUser(ctx, userID)
	return err
}

func generateResetToken() (rawToken string, tokenHash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	rawToken = hex.EncodeToString(b)
	return rawToken, hashResetToken(rawToken), nil
}

func hashResetToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
