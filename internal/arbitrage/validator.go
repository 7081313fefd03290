package arbitrage

import (
	"fmt"

	"github.com/tundeabiola/surebet/internal/domain"
)

// ValidatorConfig holds the business-rule thresholds for accepting an
// opportunity.
type ValidatorConfig struct {
	MinProfitPercent float64
	// MaxProfitPercent is a sanity ceiling: margins above it almost always
	// mean a corrupt or stale odds feed, not a real edge.
	MaxProfitPercent     float64
	MaxStakePerBookmaker float64
}

// Validator applies the acceptance rules to a computed opportunity against
// the current quota state. It is stateless; final quota enforcement happens
// at surface time in the QuotaStore.
type Validator struct {
	cfg ValidatorConfig
}

// NewValidator creates a Validator with the given thresholds.
func NewValidator(cfg ValidatorConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Accept returns true when every rule holds. On rejection the returned
// reason names the first failing rule, for logging. A rejected opportunity
// is treated by callers as if no opportunity existed for that match this
// cycle.
func (v *Validator) Accept(opp domain.Opportunity, snap domain.QuotaSnapshot, seen bool) (bool, string) {
	if opp.ProfitPercent < v.cfg.MinProfitPercent {
		return false, fmt.Sprintf("profit %.4f%% below minimum %.2f%%", opp.ProfitPercent, v.cfg.MinProfitPercent)
	}
	if opp.ProfitPercent > v.cfg.MaxProfitPercent {
		return false, fmt.Sprintf("profit %.4f%% above sanity ceiling %.2f%%", opp.ProfitPercent, v.cfg.MaxProfitPercent)
	}
	for _, leg := range opp.Legs {
		if leg.Stake <= 0 {
			return false, fmt.Sprintf("leg %s/%s has non-positive stake", leg.Outcome, leg.Bookmaker)
		}
		if leg.Stake > v.cfg.MaxStakePerBookmaker {
			return false, fmt.Sprintf("leg %s/%s stake %.2f exceeds cap %.2f", leg.Outcome, leg.Bookmaker, leg.Stake, v.cfg.MaxStakePerBookmaker)
		}
	}
	if seen {
		return false, "match already surfaced today"
	}
	if snap.Exhausted() {
		return false, fmt.Sprintf("daily limit %d reached", snap.Limit)
	}
	return true, ""
}
