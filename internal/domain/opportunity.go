package domain

import "time"

// Leg is one side of an arbitrage bet: a single outcome staked at a single
// bookmaker. Stake is in account currency, rounded to two decimal places.
type Leg struct {
	Outcome   Outcome `json:"outcome"`
	Bookmaker string  `json:"bookmaker"`
	Odd       float64 `json:"odd"`
	Stake     float64 `json:"stake"`
}

// Opportunity is a fully-allocated three-way arbitrage: exactly three legs
// at pairwise-distinct bookmakers covering Home, Draw and Away, with summed
// implied probabilities below 1.0.
//
// ProfitPercent is (1/ImpliedSum - 1) * 100 and is kept at full float
// precision so it can be recomputed from the legs.
type Opportunity struct {
	MatchID        string    `json:"match_id"`
	Teams          string    `json:"teams"`
	League         string    `json:"league"`
	KickoffAt      time.Time `json:"kickoff_at"`
	ImpliedSum     float64   `json:"implied_sum"`
	ProfitPercent  float64   `json:"profit_percent"`
	Legs           [3]Leg    `json:"legs"`
	TotalStake     float64   `json:"total_stake"`
	ExpectedReturn float64   `json:"expected_return"`
	ComputedAt     time.Time `json:"computed_at"`
}

// SurfacedOpportunity is an Opportunity that was committed against the daily
// quota, with the commit timestamp. Rows older than the current day are
// eligible for cold-storage archival.
type SurfacedOpportunity struct {
	Opportunity Opportunity `json:"opportunity"`
	SurfacedAt  time.Time   `json:"surfaced_at"`
}
