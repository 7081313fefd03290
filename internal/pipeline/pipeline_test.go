package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/tundeabiola/surebet/internal/arbitrage"
	cachemem "github.com/tundeabiola/surebet/internal/cache/memory"
	"github.com/tundeabiola/surebet/internal/domain"
	storemem "github.com/tundeabiola/surebet/internal/store/memory"
)

type stubSource struct {
	matches []domain.Match
}

func (s *stubSource) Fetch(ctx context.Context) ([]domain.Match, error) {
	return s.matches, nil
}

type memOppLog struct {
	rows []domain.SurfacedOpportunity
}

func (l *memOppLog) Insert(ctx context.Context, opp domain.Opportunity, surfacedAt time.Time) error {
	l.rows = append(l.rows, domain.SurfacedOpportunity{Opportunity: opp, SurfacedAt: surfacedAt})
	return nil
}

func (l *memOppLog) ListBefore(ctx context.Context, before time.Time) ([]domain.SurfacedOpportunity, error) {
	var out []domain.SurfacedOpportunity
	for _, row := range l.rows {
		if row.SurfacedAt.Before(before) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (l *memOppLog) DeleteBefore(ctx context.Context, before time.Time) error {
	kept := l.rows[:0]
	for _, row := range l.rows {
		if !row.SurfacedAt.Before(before) {
			kept = append(kept, row)
		}
	}
	l.rows = kept
	return nil
}

type capturingWriter struct {
	key         string
	contentType string
	data        []byte
}

func (w *capturingWriter) Write(ctx context.Context, key, contentType string, data []byte) error {
	w.key = key
	w.contentType = contentType
	w.data = append([]byte(nil), data...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScannerCycleWarmsCache(t *testing.T) {
	withArb := domain.Match{
		ID:    "m-0001",
		Teams: "Arsenal vs Chelsea",
		Quotes: []domain.BookmakerQuote{
			{Bookmaker: "BetKing", Home: 2.10, Draw: 3.10, Away: 3.20},
			{Bookmaker: "Betway", Home: 1.95, Draw: 3.80, Away: 3.30},
			{Bookmaker: "SportyBet", Home: 2.00, Draw: 3.50, Away: 4.20},
		},
	}
	without := domain.Match{
		ID:    "m-0002",
		Teams: "Leeds vs Everton",
		Quotes: []domain.BookmakerQuote{
			{Bookmaker: "BetKing", Home: 2.00, Draw: 3.20, Away: 3.40},
			{Bookmaker: "Betway", Home: 1.95, Draw: 3.25, Away: 3.45},
			{Bookmaker: "SportyBet", Home: 2.05, Draw: 3.15, Away: 3.50},
		},
	}

	cache := cachemem.NewOpportunityCache()
	scanner := NewScanner(
		&stubSource{matches: []domain.Match{withArb, without}},
		arbitrage.NewFinder(arbitrage.FinderConfig{MinProfitPercent: 0.5, MaxStakePerBookmaker: 3000, Bankroll: 5250}),
		arbitrage.NewValidator(arbitrage.ValidatorConfig{MinProfitPercent: 0.5, MaxProfitPercent: 8.0, MaxStakePerBookmaker: 3000}),
		cache,
		storemem.NewQuotaStore(12),
		ScannerConfig{Interval: time.Minute, FetchTimeout: time.Second, CacheTTL: time.Minute},
		discardLogger(),
	)

	if err := scanner.Cycle(context.Background()); err != nil {
		t.Fatalf("Cycle: %v", err)
	}
	if got := cache.Len(); got != 1 {
		t.Fatalf("cached entries = %d, want 1", got)
	}
	opp, err := cache.Get(context.Background(), "m-0001")
	if err != nil {
		t.Fatalf("Get m-0001: %v", err)
	}
	if opp.ProfitPercent <= 0 {
		t.Fatalf("cached profit = %v, want > 0", opp.ProfitPercent)
	}
}

func TestArchiverRunMovesOldRowsToColdStorage(t *testing.T) {
	log := &memOppLog{}
	ctx := context.Background()

	yesterday := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)
	today := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	if err := log.Insert(ctx, domain.Opportunity{MatchID: "m-0001"}, yesterday); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := log.Insert(ctx, domain.Opportunity{MatchID: "m-0002"}, today); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	writer := &capturingWriter{}
	archiver := NewArchiver(log, writer, discardLogger())
	archiver.now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }

	if err := archiver.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if writer.key != "archive/opportunities/2026-08-31.jsonl" {
		t.Fatalf("key = %q, want archive/opportunities/2026-08-31.jsonl", writer.key)
	}
	if !strings.Contains(string(writer.data), "m-0001") || strings.Contains(string(writer.data), "m-0002") {
		t.Fatalf("archived payload wrong: %s", writer.data)
	}
	var archived domain.SurfacedOpportunity
	firstLine, _, _ := strings.Cut(string(writer.data), "\n")
	if err := json.Unmarshal([]byte(firstLine), &archived); err != nil {
		t.Fatalf("decode archived row: %v", err)
	}
	if archived.Opportunity.MatchID != "m-0001" || !archived.SurfacedAt.Equal(yesterday) {
		t.Fatalf("archived row = %+v, want m-0001 surfaced %v", archived, yesterday)
	}
	if len(log.rows) != 1 || log.rows[0].Opportunity.MatchID != "m-0002" {
		t.Fatalf("hot store after prune = %+v, want only m-0002", log.rows)
	}
}

func TestArchiverRunNoRowsWritesNothing(t *testing.T) {
	writer := &capturingWriter{}
	archiver := NewArchiver(&memOppLog{}, writer, discardLogger())

	if err := archiver.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if writer.key != "" {
		t.Fatalf("writer called with key %q, want no call", writer.key)
	}
}

func TestNextRunAt(t *testing.T) {
	before := time.Date(2026, 9, 1, 2, 0, 0, 0, time.UTC)
	if got := nextRunAt(before, 3); !got.Equal(time.Date(2026, 9, 1, 3, 0, 0, 0, time.UTC)) {
		t.Fatalf("nextRunAt before hour = %v", got)
	}
	after := time.Date(2026, 9, 1, 4, 0, 0, 0, time.UTC)
	if got := nextRunAt(after, 3); !got.Equal(time.Date(2026, 9, 2, 3, 0, 0, 0, time.UTC)) {
		t.Fatalf("nextRunAt after hour = %v", got)
	}
}
