package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"todo/internal/metrics"
)

// ExpiredTokenRetention is how long an expired reset token is kept before it
// is deleted.
const ExpiredTokenRetention = 24 * time.Hour

type tokenSweeper interface {
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type overdueMarker interface {
	MarkOverdue(ctx context.Context) (int64, error)
}

type Maintenance struct {
	tokens  tokenSweeper
	todos   overdueMarker
	log     zerolog.Logger
	timeout time.Duration
	now     func() time.Time
}

func NewMaintenance(tokens tokenSweeper, todos overdueMarker, log zerolog.Logger) *Maintenance {
	return &Maintenance{
		tokens:  tokens,
		todos:   todos,
		log:     log.With().Str("component", "maintenance").Logger(),
		timeout: time.Minute,
		now:     time.Now,
	}
}

// Run performs one sweep. Each task runs even if an earlier one failed; the
// first error is returned.
func (m *Maintenance) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	now := m.now().UTC()
	var firstErr error
	record := func(task string, n int64, err error) {
		if err != nil {
			m.log.Error().Err(err).Str("task", task).Msg("maintenance task failed")
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		metrics.MaintenanceRowsTotal.WithLabelValues(task).Add(float64(n))
		if n > 0 {
			m.log.Info().Str("task", task).Int64("rows", n).Msg("maintenance task done")
		}
	}

	n, err := m.tokens.MarkExpired(ctx, now)
	record("mark_expired_tokens", n, err)

	n, err = m.tokens.DeleteExpiredBefore(ctx, now.Add(-ExpiredTokenRetention))
	record("delete_expired_tokens", n, err)

	n, err = m.todos.MarkOverdue(ctx)
	record("mark_overdue_todos", n, err)

	return firstErr
}
