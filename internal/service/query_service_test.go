package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tundeabiola/surebet/internal/arbitrage"
	cachemem "github.com/tundeabiola/surebet/internal/cache/memory"
	"github.com/tundeabiola/surebet/internal/domain"
	storemem "github.com/tundeabiola/surebet/internal/store/memory"
)

type stubSource struct {
	matches []domain.Match
	err     error
}

func (s *stubSource) Fetch(ctx context.Context) ([]domain.Match, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.Match, len(s.matches))
	copy(out, s.matches)
	return out, nil
}

// arbMatch has a genuine three-way arbitrage across three bookmakers
// (implied sum ~0.977, profit ~2.31%).
func arbMatch(id string) domain.Match {
	return domain.Match{
		ID:     id,
		Teams:  "Arsenal vs Chelsea",
		League: "Premier League",
		Quotes: []domain.BookmakerQuote{
			{Bookmaker: "BetKing", Home: 2.10, Draw: 3.10, Away: 3.20},
			{Bookmaker: "Betway", Home: 1.95, Draw: 3.80, Away: 3.30},
			{Bookmaker: "SportyBet", Home: 2.00, Draw: 3.50, Away: 4.20},
		},
	}
}

// flatMatch carries no arbitrage at all.
func flatMatch(id string) domain.Match {
	return domain.Match{
		ID:     id,
		Teams:  "Leeds vs Everton",
		League: "Premier League",
		Quotes: []domain.BookmakerQuote{
			{Bookmaker: "BetKing", Home: 2.00, Draw: 3.20, Away: 3.40},
			{Bookmaker: "Betway", Home: 1.95, Draw: 3.25, Away: 3.45},
			{Bookmaker: "SportyBet", Home: 2.05, Draw: 3.15, Away: 3.50},
		},
	}
}

func newTestService(t *testing.T, src domain.OddsSource, limit int) (*QueryService, *storemem.QuotaStore) {
	t.Helper()
	finder := arbitrage.NewFinder(arbitrage.FinderConfig{
		MinProfitPercent:     0.5,
		MaxStakePerBookmaker: 3000,
		Bankroll:             5250,
	})
	validator := arbitrage.NewValidator(arbitrage.ValidatorConfig{
		MinProfitPercent:     0.5,
		MaxProfitPercent:     8.0,
		MaxStakePerBookmaker: 3000,
	})
	quota := storemem.NewQuotaStore(limit)
	svc := NewQueryService(
		src,
		finder,
		validator,
		cachemem.NewOpportunityCache(),
		quota,
		cachemem.NewLockManager(),
		nil,
		QueryConfig{CacheTTL: time.Minute},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	return svc, quota
}

func TestNextSurfacesThenReportsLimit(t *testing.T) {
	src := &stubSource{matches: []domain.Match{arbMatch("m-0001"), arbMatch("m-0002")}}
	svc, _ := newTestService(t, src, 1)
	ctx := context.Background()

	first, err := svc.Next(ctx)
	if err != nil {
		t.Fatalf("first Next: %v", err)
	}
	if first.Status != StatusFound {
		t.Fatalf("first status = %q, want %q", first.Status, StatusFound)
	}
	if first.Opportunity == nil || first.Opportunity.MatchID != "m-0001" {
		t.Fatalf("first opportunity = %+v, want match m-0001", first.Opportunity)
	}
	if first.Progress != "1/1" {
		t.Fatalf("first progress = %q, want 1/1", first.Progress)
	}

	second, err := svc.Next(ctx)
	if err != nil {
		t.Fatalf("second Next: %v", err)
	}
	if second.Status != StatusLimit {
		t.Fatalf("second status = %q, want %q", second.Status, StatusLimit)
	}
	if second.Opportunity != nil {
		t.Fatalf("second opportunity = %+v, want nil", second.Opportunity)
	}
}

func TestNextSkipsAlreadySurfacedMatch(t *testing.T) {
	src := &stubSource{matches: []domain.Match{arbMatch("m-0001"), arbMatch("m-0002")}}
	svc, _ := newTestService(t, src, 10)
	ctx := context.Background()

	first, err := svc.Next(ctx)
	if err != nil {
		t.Fatalf("first Next: %v", err)
	}
	second, err := svc.Next(ctx)
	if err != nil {
		t.Fatalf("second Next: %v", err)
	}
	if first.Opportunity.MatchID != "m-0001" || second.Opportunity.MatchID != "m-0002" {
		t.Fatalf("surfaced %s then %s, want m-0001 then m-0002",
			first.Opportunity.MatchID, second.Opportunity.MatchID)
	}

	// Both matches surfaced; the same slate must not yield a third.
	third, err := svc.Next(ctx)
	if err != nil {
		t.Fatalf("third Next: %v", err)
	}
	if third.Status != StatusNone {
		t.Fatalf("third status = %q, want %q", third.Status, StatusNone)
	}
	if third.Progress != "2/10" {
		t.Fatalf("third progress = %q, want 2/10", third.Progress)
	}
}

func TestNextReportsNoneWhenSlateHasNoArbitrage(t *testing.T) {
	src := &stubSource{matches: []domain.Match{flatMatch("m-0001"), flatMatch("m-0002")}}
	svc, _ := newTestService(t, src, 10)

	res, err := svc.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if res.Status != StatusNone {
		t.Fatalf("status = %q, want %q", res.Status, StatusNone)
	}
	if res.Progress != "0/10" {
		t.Fatalf("progress = %q, want 0/10", res.Progress)
	}
}

func TestNextPropagatesSourceFailure(t *testing.T) {
	src := &stubSource{err: fmt.Errorf("feed down: %w", domain.ErrSourceUnavailable)}
	svc, _ := newTestService(t, src, 10)

	_, err := svc.Next(context.Background())
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestNextScansInMatchIDOrder(t *testing.T) {
	// Source returns matches out of order; surfacing must follow the IDs.
	src := &stubSource{matches: []domain.Match{arbMatch("m-0009"), arbMatch("m-0002"), arbMatch("m-0005")}}
	svc, _ := newTestService(t, src, 10)

	res, err := svc.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if res.Opportunity == nil || res.Opportunity.MatchID != "m-0002" {
		t.Fatalf("opportunity = %+v, want match m-0002", res.Opportunity)
	}
}

func TestResetClearsQuotaAndServesAgain(t *testing.T) {
	src := &stubSource{matches: []domain.Match{arbMatch("m-0001")}}
	svc, quota := newTestService(t, src, 1)
	ctx := context.Background()

	if res, err := svc.Next(ctx); err != nil || res.Status != StatusFound {
		t.Fatalf("first Next = (%+v, %v), want found", res, err)
	}
	if err := svc.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	snap, err := quota.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.SurfacedCount != 0 {
		t.Fatalf("surfaced count after reset = %d, want 0", snap.SurfacedCount)
	}
	res, err := svc.Next(ctx)
	if err != nil {
		t.Fatalf("Next after reset: %v", err)
	}
	if res.Status != StatusFound || res.Opportunity.MatchID != "m-0001" {
		t.Fatalf("post-reset result = %+v, want m-0001 found", res)
	}
}
