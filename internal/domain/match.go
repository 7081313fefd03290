package domain

import "time"

// Outcome identifies one side of a three-way football market.
type Outcome string

const (
	OutcomeHome Outcome = "Home"
	OutcomeDraw Outcome = "Draw"
	OutcomeAway Outcome = "Away"
)

// BookmakerQuote holds one bookmaker's decimal odds for all three outcomes
// of a match. Odds are decimal multipliers and are always > 1.0. A quote is
// immutable once recorded.
type BookmakerQuote struct {
	Bookmaker string  `json:"bookmaker"`
	Home      float64 `json:"home"`
	Draw      float64 `json:"draw"`
	Away      float64 `json:"away"`
}

// Match is an immutable snapshot of the odds for a single fixture across
// multiple bookmakers. A new scan produces a new Match value; an old one is
// never mutated.
type Match struct {
	ID        string           `json:"id"`
	Teams     string           `json:"teams"`
	League    string           `json:"league"`
	KickoffAt time.Time        `json:"kickoff_at"`
	Quotes    []BookmakerQuote `json:"quotes"`
}
