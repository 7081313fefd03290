package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tundeabiola/surebet/internal/domain"
)

// QuotaStore implements domain.QuotaStore on a single daily_log row plus a
// sent_matches set. Rollover is an idempotent conditional upsert; the
// surface transition is a conditional UPDATE guarded by the stored date and
// count, so two concurrent callers can never both pass the limit check.
type QuotaStore struct {
	pool  *pgxpool.Pool
	limit int
}

// NewQuotaStore creates a QuotaStore enforcing the given daily limit.
func NewQuotaStore(pool *pgxpool.Pool, limit int) *QuotaStore {
	return &QuotaStore{pool: pool, limit: limit}
}

func today() string {
	return time.Now().UTC().Format(domain.DateFormat)
}

// ensureToday performs the rollover transition inside tx: the row is created
// on first use and reset whenever its stored date differs from today.
// Concurrent triggers converge to the same reset state.
func (s *QuotaStore) ensureToday(ctx context.Context, tx pgx.Tx, day string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO daily_log (id, log_date) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE
		SET log_date = EXCLUDED.log_date,
		    surfaced_count = 0,
		    last_match_id = NULL,
		    updated_at = now()
		WHERE daily_log.log_date <> EXCLUDED.log_date`,
		day,
	)
	if err != nil {
		return fmt.Errorf("postgres: rollover daily_log: %w", err)
	}
	// Stale sent sets from previous days are dropped eagerly; the composite
	// primary key already scopes dedup to a single date.
	if _, err := tx.Exec(ctx, `DELETE FROM sent_matches WHERE log_date <> $1`, day); err != nil {
		return fmt.Errorf("postgres: clear stale sent_matches: %w", err)
	}
	return nil
}

func (s *QuotaStore) readSnapshot(ctx context.Context, tx pgx.Tx) (domain.QuotaSnapshot, error) {
	var (
		snap domain.QuotaSnapshot
		last *string
	)
	err := tx.QueryRow(ctx, `
		SELECT to_char(log_date, 'YYYY-MM-DD'), surfaced_count, last_match_id
		FROM daily_log WHERE id = 1`,
	).Scan(&snap.Date, &snap.SurfacedCount, &last)
	if err != nil {
		return domain.QuotaSnapshot{}, fmt.Errorf("postgres: read daily_log: %w", err)
	}
	if last != nil {
		snap.LastSurfacedMatchID = *last
	}
	snap.Limit = s.limit
	return snap, nil
}

// Snapshot returns the current daily log, rolling over first.
func (s *QuotaStore) Snapshot(ctx context.Context) (domain.QuotaSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.QuotaSnapshot{}, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	day := today()
	if err := s.ensureToday(ctx, tx, day); err != nil {
		return domain.QuotaSnapshot{}, err
	}
	snap, err := s.readSnapshot(ctx, tx)
	if err != nil {
		return domain.QuotaSnapshot{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.QuotaSnapshot{}, fmt.Errorf("postgres: commit: %w", err)
	}
	return snap, nil
}

// Seen reports whether matchID was surfaced today.
func (s *QuotaStore) Seen(ctx context.Context, matchID string) (bool, error) {
	var seen bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sent_matches WHERE log_date = $1 AND match_id = $2
		)`,
		today(), matchID,
	).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("postgres: check sent match %s: %w", matchID, err)
	}
	return seen, nil
}

// Record commits a surfacing in one transaction: insert-if-absent into the
// sent set, then a conditional counter increment. Zero rows from the insert
// means the match was already surfaced; zero rows from the update means the
// limit was hit, or the date moved under us (ErrStateConflict, retryable).
func (s *QuotaStore) Record(ctx context.Context, matchID string) (domain.QuotaSnapshot, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.QuotaSnapshot{}, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	day := today()
	if err := s.ensureToday(ctx, tx, day); err != nil {
		return domain.QuotaSnapshot{}, err
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO sent_matches (log_date, match_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		day, matchID,
	)
	if err != nil {
		return domain.QuotaSnapshot{}, fmt.Errorf("postgres: insert sent match %s: %w", matchID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.QuotaSnapshot{}, domain.ErrAlreadySurfaced
	}

	tag, err = tx.Exec(ctx, `
		UPDATE daily_log
		SET surfaced_count = surfaced_count + 1,
		    last_match_id = $2,
		    updated_at = now()
		WHERE id = 1 AND log_date = $1 AND surfaced_count < $3`,
		day, matchID, s.limit,
	)
	if err != nil {
		return domain.QuotaSnapshot{}, fmt.Errorf("postgres: increment daily_log: %w", err)
	}
	if tag.RowsAffected() == 0 {
		snap, readErr := s.readSnapshot(ctx, tx)
		if readErr == nil && snap.Date == day && snap.SurfacedCount >= s.limit {
			return domain.QuotaSnapshot{}, domain.ErrQuotaExhausted
		}
		return domain.QuotaSnapshot{}, domain.ErrStateConflict
	}

	snap, err := s.readSnapshot(ctx, tx)
	if err != nil {
		return domain.QuotaSnapshot{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.QuotaSnapshot{}, fmt.Errorf("postgres: commit record %s: %w", matchID, err)
	}
	return snap, nil
}

// Reset unconditionally clears the log and sent set to the empty-for-today
// state. Operator action.
func (s *QuotaStore) Reset(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	day := today()
	_, err = tx.Exec(ctx, `
		INSERT INTO daily_log (id, log_date) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE
		SET log_date = EXCLUDED.log_date,
		    surfaced_count = 0,
		    last_match_id = NULL,
		    updated_at = now()`,
		day,
	)
	if err != nil {
		return fmt.Errorf("postgres: reset daily_log: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sent_matches`); err != nil {
		return fmt.Errorf("postgres: reset sent_matches: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit reset: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.QuotaStore = (*QuotaStore)(nil)
