package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"todo/internal/interfaces"
	"todo/internal/models"
)

func TestResetTokenCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	expires := time.Now().UTC().Add(time.Hour)
	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO reset_tokens").
		WithArgs("t1", "u1", "hash", expires).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	tok := &models.ResetToken{ID: "t1", UserID: "u1", TokenHash: "hash", ExpiresAt: expires}
	if err := NewResetTokenRepository(db).Create(context.Background(), tok); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestResetTokenConsumeReturnsOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`DELETE FROM reset_tokens\s+WHERE token_hash = \$1`).
		WithArgs("hash", now).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1"))

	userID, err := NewResetTokenRepository(db).ConsumeValid(context.Background(), "hash", now)
	if err != nil {
		t.Fatalf("ConsumeValid: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("expected u1, got %q", userID)
	}
}

func TestResetTokenConsumeSecondTimeFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("DELETE FROM reset_tokens").
		WithArgs("hash", now).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow("u1"))
	mock.ExpectQuery("DELETE FROM reset_tokens").
		WithArgs("hash", now).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}))

	repo := NewResetTokenRepository(db)
	if _, err := repo.ConsumeValid(context.Background(), "hash", now); err != nil {
		t.Fatalf("first consume: %v", err)
	}
	if _, err := repo.ConsumeValid(context.Background(), "hash", now); !errors.Is(err, interfaces.ErrResetTokenNotFound) {
		t.Fatalf("expected ErrResetTokenNotFound, got %v", err)
	}
}

func TestResetTokenMaintenanceQueries(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	cutoff := now.Add(-24 * time.Hour)
	mock.ExpectExec("UPDATE reset_tokens").WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM reset_tokens WHERE expires_at").WithArgs(cutoff).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM reset_tokens WHERE user_id").WithArgs("u1").WillReturnResult(sqlmock.NewResult(0, 4))

	repo := NewResetTokenRepository(db)
	if n, err := repo.MarkExpired(context.Background(), now); err != nil || n != 3 {
		t.Fatalf("MarkExpired = %d, %v", n, err)
	}
	if n, err := repo.DeleteExpiredBefore(context.Background(), cutoff); err != nil || n != 2 {
		t.Fatalf("DeleteExpiredBefore = %d, %v", n, err)
	}
	if n, err := repo.DeleteByUser(context.Background(), "u1"); err != nil || n != 4 {
		t.Fatalf("DeleteByUser = %d, %v", n, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
