package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tundeabiola/surebet/internal/domain"
)

// Archiver moves surfaced-opportunity history older than the current day
// out of the hot store into cold storage as JSON lines.
type Archiver struct {
	log    domain.OpportunityLog
	writer domain.BlobWriter
	logger *slog.Logger

	now func() time.Time
}

func NewArchiver(log domain.OpportunityLog, writer domain.BlobWriter, logger *slog.Logger) *Archiver {
	return &Archiver{
		log:    log,
		writer: writer,
		logger: logger.With(slog.String("component", "archiver")),
		now:    time.Now,
	}
}

// RunDaily runs one archive pass at hourUTC every day until the context is
// cancelled. A failed pass is retried at the next scheduled time.
func (a *Archiver) RunDaily(ctx context.Context, hourUTC int) error {
	for {
		next := nextRunAt(a.now().UTC(), hourUTC)
		a.logger.Info("next archive pass scheduled", slog.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := a.Run(ctx); err != nil {
			a.logger.Error("archive pass failed", slog.String("error", err.Error()))
		}
	}
}

// Run archives everything surfaced before today's 00:00 UTC and deletes it
// from the hot store only after the upload succeeded.
func (a *Archiver) Run(ctx context.Context) error {
	now := a.now().UTC()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	rows, err := a.log.ListBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archiver: list history: %w", err)
	}
	if len(rows) == 0 {
		a.logger.Info("nothing to archive", slog.Time("cutoff", cutoff))
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("archiver: encode row %s: %w", row.Opportunity.MatchID, err)
		}
	}

	key := fmt.Sprintf("archive/opportunities/%s.jsonl", cutoff.AddDate(0, 0, -1).Format(domain.DateFormat))
	if err := a.writer.Write(ctx, key, "application/x-ndjson", buf.Bytes()); err != nil {
		return fmt.Errorf("archiver: upload %s: %w", key, err)
	}
	if err := a.log.DeleteBefore(ctx, cutoff); err != nil {
		return fmt.Errorf("archiver: prune history: %w", err)
	}

	a.logger.Info("archive pass complete",
		slog.String("key", key),
		slog.Int("rows", len(rows)),
	)
	return nil
}

// nextRunAt returns the next occurrence of hourUTC:00 strictly after now.
func nextRunAt(now time.Time, hourUTC int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
