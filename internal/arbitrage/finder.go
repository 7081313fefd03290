// Package arbitrage implements detection of three-way arbitrage
// opportunities across bookmakers and the business-rule validation of
// detected opportunities. Both pieces are pure: no I/O, deterministic for
// the same inputs and configuration.
package arbitrage

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tundeabiola/surebet/internal/domain"
)

// FinderConfig holds the tunable parameters of the finder.
type FinderConfig struct {
	// MinProfitPercent is the minimum guaranteed margin for a triple to be
	// considered at all.
	MinProfitPercent float64
	// MaxStakePerBookmaker caps the stake of any single leg. Triples whose
	// allocation breaches the cap are discarded, never clamped, so a
	// lower-profit cap-compliant triple can win over a higher-profit one.
	MaxStakePerBookmaker float64
	// Bankroll is the total amount allocated across the three legs.
	Bankroll float64
}

// Finder enumerates bookmaker triples for a match and picks the best
// qualifying arbitrage.
type Finder struct {
	cfg FinderConfig
}

// NewFinder creates a Finder with the given parameters.
func NewFinder(cfg FinderConfig) *Finder {
	return &Finder{cfg: cfg}
}

// FindBest returns the highest-profit arbitrage for the match, or false when
// no qualifying triple exists. Bookmakers are iterated in lexicographic
// order so ties in profit resolve to the first-encountered triple and
// results are reproducible across runs.
func (f *Finder) FindBest(m domain.Match) (domain.Opportunity, bool) {
	quotes := quotesByBookmaker(m.Quotes)
	if len(quotes) < 3 {
		return domain.Opportunity{}, false
	}

	names := make([]string, 0, len(quotes))
	for name := range quotes {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		best      domain.Opportunity
		bestFound bool
	)
	for _, bmHome := range names {
		for _, bmDraw := range names {
			if bmDraw == bmHome {
				continue
			}
			for _, bmAway := range names {
				if bmAway == bmHome || bmAway == bmDraw {
					continue
				}
				oh := quotes[bmHome].Home
				od := quotes[bmDraw].Draw
				oa := quotes[bmAway].Away
				if oh <= 1 || od <= 1 || oa <= 1 {
					continue
				}

				p := 1/oh + 1/od + 1/oa
				if p >= 1.0 {
					continue
				}
				profit := (1/p - 1) * 100
				if profit < f.cfg.MinProfitPercent {
					continue
				}
				if bestFound && profit <= best.ProfitPercent {
					continue
				}

				stakeH := f.stake(oh, p)
				stakeD := f.stake(od, p)
				stakeA := f.stake(oa, p)
				if stakeH > f.cfg.MaxStakePerBookmaker ||
					stakeD > f.cfg.MaxStakePerBookmaker ||
					stakeA > f.cfg.MaxStakePerBookmaker {
					continue
				}

				best = domain.Opportunity{
					MatchID:       m.ID,
					Teams:         m.Teams,
					League:        m.League,
					KickoffAt:     m.KickoffAt,
					ImpliedSum:    p,
					ProfitPercent: profit,
					Legs: [3]domain.Leg{
						{Outcome: domain.OutcomeHome, Bookmaker: bmHome, Odd: oh, Stake: stakeH},
						{Outcome: domain.OutcomeDraw, Bookmaker: bmDraw, Odd: od, Stake: stakeD},
						{Outcome: domain.OutcomeAway, Bookmaker: bmAway, Odd: oa, Stake: stakeA},
					},
					TotalStake:     roundCurrency(stakeH + stakeD + stakeA),
					ExpectedReturn: roundCurrency(f.cfg.Bankroll / p),
					ComputedAt:     time.Now().UTC(),
				}
				bestFound = true
			}
		}
	}

	return best, bestFound
}

// stake allocates the leg stake (1/odd) * bankroll / p, which equalizes the
// payout of all three outcomes at bankroll/p.
func (f *Finder) stake(odd, p float64) float64 {
	return roundCurrency((1 / odd) * f.cfg.Bankroll / p)
}

// roundCurrency rounds to two decimal places using decimal arithmetic so
// stake amounts do not pick up float representation noise.
func roundCurrency(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// quotesByBookmaker deduplicates quotes by bookmaker name, keeping the first
// quote seen for each. Matches are expected to carry one quote per
// bookmaker; duplicates would otherwise let a "triple" collapse onto a
// single book.
func quotesByBookmaker(quotes []domain.BookmakerQuote) map[string]domain.BookmakerQuote {
	out := make(map[string]domain.BookmakerQuote, len(quotes))
	for _, q := range quotes {
		if _, ok := out[q.Bookmaker]; ok {
			continue
		}
		out[q.Bookmaker] = q
	}
	return out
}
