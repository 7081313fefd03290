package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tundeabiola/surebet/internal/domain"
)

// OpportunityLog implements domain.OpportunityLog using a JSONB payload
// column. Rows are written once at surface time and read back only by the
// archiver, so no secondary structure beyond the surfaced_at index is kept.
type OpportunityLog struct {
	pool *pgxpool.Pool
}

// NewOpportunityLog creates an OpportunityLog.
func NewOpportunityLog(pool *pgxpool.Pool) *OpportunityLog {
	return &OpportunityLog{pool: pool}
}

// Insert records a surfaced opportunity.
func (l *OpportunityLog) Insert(ctx context.Context, opp domain.Opportunity, surfacedAt time.Time) error {
	payload, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("postgres: marshal opportunity %s: %w", opp.MatchID, err)
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO surfaced_opportunities (match_id, payload, surfaced_at)
		VALUES ($1, $2, $3)`,
		opp.MatchID, payload, surfacedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres: insert surfaced opportunity %s: %w", opp.MatchID, err)
	}
	return nil
}

// ListBefore returns every surfaced opportunity committed strictly before
// the cutoff, oldest first.
func (l *OpportunityLog) ListBefore(ctx context.Context, before time.Time) ([]domain.SurfacedOpportunity, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT payload, surfaced_at
		FROM surfaced_opportunities
		WHERE surfaced_at < $1
		ORDER BY surfaced_at`,
		before.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list surfaced opportunities: %w", err)
	}
	defer rows.Close()

	var out []domain.SurfacedOpportunity
	for rows.Next() {
		var (
			payload []byte
			item    domain.SurfacedOpportunity
		)
		if err := rows.Scan(&payload, &item.SurfacedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan surfaced opportunity: %w", err)
		}
		if err := json.Unmarshal(payload, &item.Opportunity); err != nil {
			return nil, fmt.Errorf("postgres: unmarshal surfaced opportunity: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate surfaced opportunities: %w", err)
	}
	return out, nil
}

// DeleteBefore removes archived rows. Called only after the archive upload
// has succeeded.
func (l *OpportunityLog) DeleteBefore(ctx context.Context, before time.Time) error {
	_, err := l.pool.Exec(ctx, `
		DELETE FROM surfaced_opportunities WHERE surfaced_at < $1`,
		before.UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres: delete surfaced opportunities: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.OpportunityLog = (*OpportunityLog)(nil)
