package arbitrage

import (
	"math"
	"testing"

	"github.com/tundeabiola/surebet/internal/domain"
)

func testFinder(maxStake float64) *Finder {
	return NewFinder(FinderConfig{
		MinProfitPercent:     0.5,
		MaxStakePerBookmaker: maxStake,
		Bankroll:             5250,
	})
}

// scenarioAMatch yields best legs home 2.10 @ BkA, draw 3.80 @ BkB,
// away 4.20 @ BkC (the maximum odds per outcome sit at distinct books).
func scenarioAMatch() domain.Match {
	return domain.Match{
		ID:     "m-0001",
		Teams:  "Rivers United vs Enyimba",
		League: "Nigeria PL",
		Quotes: []domain.BookmakerQuote{
			{Bookmaker: "BkA", Home: 2.10, Draw: 3.40, Away: 3.90},
			{Bookmaker: "BkB", Home: 2.00, Draw: 3.80, Away: 4.00},
			{Bookmaker: "BkC", Home: 2.05, Draw: 3.60, Away: 4.20},
		},
	}
}

func approx(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

func TestFindBest_ScenarioA(t *testing.T) {
	opp, ok := testFinder(3000).FindBest(scenarioAMatch())
	if !ok {
		t.Fatal("expected an opportunity")
	}

	wantSum := 1/2.10 + 1/3.80 + 1/4.20
	if !approx(opp.ImpliedSum, wantSum, 1e-9) {
		t.Fatalf("implied sum = %.6f, want %.6f", opp.ImpliedSum, wantSum)
	}
	if !approx(opp.ProfitPercent, 2.3077, 1e-3) {
		t.Fatalf("profit = %.4f%%, want ~2.3077%%", opp.ProfitPercent)
	}

	wantLegs := map[domain.Outcome]struct {
		bookmaker string
		odd       float64
		stake     float64
	}{
		domain.OutcomeHome: {"BkA", 2.10, 2557.69},
		domain.OutcomeDraw: {"BkB", 3.80, 1413.46},
		domain.OutcomeAway: {"BkC", 4.20, 1278.85},
	}
	for _, leg := range opp.Legs {
		want := wantLegs[leg.Outcome]
		if leg.Bookmaker != want.bookmaker || leg.Odd != want.odd {
			t.Fatalf("leg %s = %s @ %.2f, want %s @ %.2f", leg.Outcome, leg.Bookmaker, leg.Odd, want.bookmaker, want.odd)
		}
		if !approx(leg.Stake, want.stake, 0.02) {
			t.Fatalf("leg %s stake = %.2f, want ~%.2f", leg.Outcome, leg.Stake, want.stake)
		}
	}

	// Stakes were chosen to equalize the payout of all three outcomes.
	payout := opp.Legs[0].Stake * opp.Legs[0].Odd
	for _, leg := range opp.Legs[1:] {
		if !approx(leg.Stake*leg.Odd, payout, 0.10) {
			t.Fatalf("unequal payouts: %.2f vs %.2f", leg.Stake*leg.Odd, payout)
		}
	}
	if !approx(opp.TotalStake, 5250, 0.05) {
		t.Fatalf("total stake = %.2f, want ~5250", opp.TotalStake)
	}
	if !approx(opp.ExpectedReturn, 5250/wantSum, 0.01) {
		t.Fatalf("expected return = %.2f, want %.2f", opp.ExpectedReturn, 5250/wantSum)
	}
}

func TestFindBest_StakeCapRejectsScenarioB(t *testing.T) {
	// Same odds as scenario A, but a 1000 cap: every qualifying triple
	// allocates more than 1000 on the home leg, so nothing survives even
	// though the profit threshold is met.
	if _, ok := testFinder(1000).FindBest(scenarioAMatch()); ok {
		t.Fatal("expected no opportunity under 1000 stake cap")
	}
}

func TestFindBest_FewerThanThreeBookmakers(t *testing.T) {
	m := scenarioAMatch()
	m.Quotes = m.Quotes[:2]
	if _, ok := testFinder(3000).FindBest(m); ok {
		t.Fatal("expected no opportunity with two bookmakers")
	}

	// Duplicate quotes from the same bookmaker do not count as distinct.
	m.Quotes = []domain.BookmakerQuote{
		{Bookmaker: "BkA", Home: 2.10, Draw: 3.80, Away: 4.20},
		{Bookmaker: "BkA", Home: 2.10, Draw: 3.80, Away: 4.20},
		{Bookmaker: "BkB", Home: 2.00, Draw: 3.60, Away: 4.00},
	}
	if _, ok := testFinder(3000).FindBest(m); ok {
		t.Fatal("expected no opportunity with two distinct bookmakers")
	}
}

func TestFindBest_NoArbitrageWhenImpliedSumAboveOne(t *testing.T) {
	m := domain.Match{
		ID: "m-0002",
		Quotes: []domain.BookmakerQuote{
			{Bookmaker: "BkA", Home: 1.90, Draw: 3.20, Away: 3.60},
			{Bookmaker: "BkB", Home: 1.85, Draw: 3.30, Away: 3.50},
			{Bookmaker: "BkC", Home: 1.95, Draw: 3.10, Away: 3.70},
		},
	}
	if _, ok := testFinder(3000).FindBest(m); ok {
		t.Fatal("expected no opportunity when every triple has implied sum >= 1")
	}
}

func TestFindBest_CapCompliantBeatsHigherProfit(t *testing.T) {
	// The max-profit assignment (home BkC, draw BkA, away BkB, ~8.59%)
	// stakes 2714.9 on home; under a 2700 cap it is discarded, not clamped,
	// and the best compliant assignment (home BkC, draw BkB, away BkA,
	// ~7.33%) wins instead.
	m := domain.Match{
		ID: "m-0003",
		Quotes: []domain.BookmakerQuote{
			{Bookmaker: "BkA", Home: 1.80, Draw: 4.60, Away: 4.60},
			{Bookmaker: "BkB", Home: 2.00, Draw: 4.20, Away: 4.40},
			{Bookmaker: "BkC", Home: 2.10, Draw: 4.00, Away: 4.70},
		},
	}

	opp, ok := testFinder(3000).FindBest(m)
	if !ok {
		t.Fatal("expected an opportunity with relaxed cap")
	}
	if !approx(opp.ProfitPercent, 8.5945, 1e-3) {
		t.Fatalf("uncapped profit = %.4f%%, want ~8.5945%%", opp.ProfitPercent)
	}

	opp, ok = testFinder(2700).FindBest(m)
	if !ok {
		t.Fatal("expected a compliant opportunity under 2700 cap")
	}
	if !approx(opp.ProfitPercent, 7.3331, 1e-3) {
		t.Fatalf("capped profit = %.4f%%, want ~7.3331%%", opp.ProfitPercent)
	}
	if opp.Legs[1].Bookmaker != "BkB" || opp.Legs[2].Bookmaker != "BkA" {
		t.Fatalf("capped legs = %s/%s/%s, want BkC/BkB/BkA",
			opp.Legs[0].Bookmaker, opp.Legs[1].Bookmaker, opp.Legs[2].Bookmaker)
	}
	for _, leg := range opp.Legs {
		if leg.Stake > 2700 {
			t.Fatalf("leg %s stake %.2f exceeds cap", leg.Outcome, leg.Stake)
		}
	}
}

func TestFindBest_TieBreaksByEnumerationOrder(t *testing.T) {
	// BkC and BkD carry identical away odds, producing two triples with
	// identical profit. Lexicographic bookmaker order makes BkC the
	// first-encountered winner, every time.
	m := domain.Match{
		ID: "m-0004",
		Quotes: []domain.BookmakerQuote{
			{Bookmaker: "BkA", Home: 2.10, Draw: 3.10, Away: 3.50},
			{Bookmaker: "BkB", Home: 1.90, Draw: 3.80, Away: 3.40},
			{Bookmaker: "BkC", Home: 1.50, Draw: 2.50, Away: 4.20},
			{Bookmaker: "BkD", Home: 1.50, Draw: 2.50, Away: 4.20},
		},
	}
	for i := 0; i < 10; i++ {
		opp, ok := testFinder(3000).FindBest(m)
		if !ok {
			t.Fatal("expected an opportunity")
		}
		if opp.Legs[2].Bookmaker != "BkC" {
			t.Fatalf("run %d: away leg at %s, want BkC", i, opp.Legs[2].Bookmaker)
		}
	}
}

func TestFindBest_LegProfitRoundTrip(t *testing.T) {
	opp, ok := testFinder(3000).FindBest(scenarioAMatch())
	if !ok {
		t.Fatal("expected an opportunity")
	}
	sum := 0.0
	for _, leg := range opp.Legs {
		sum += 1 / leg.Odd
	}
	profit := (1/sum - 1) * 100
	if math.Abs(profit-opp.ProfitPercent) > 1e-6 {
		t.Fatalf("recomputed profit %.8f%% diverges from stored %.8f%%", profit, opp.ProfitPercent)
	}
}

func TestFindBest_MinProfitThreshold(t *testing.T) {
	f := NewFinder(FinderConfig{
		MinProfitPercent:     5.0, // scenario A yields only ~2.31%
		MaxStakePerBookmaker: 3000,
		Bankroll:             5250,
	})
	if _, ok := f.FindBest(scenarioAMatch()); ok {
		t.Fatal("expected no opportunity below the profit threshold")
	}
}
