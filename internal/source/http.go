package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/tundeabiola/surebet/internal/domain"
)

// feedPayload is the JSON shape served by an odds feed endpoint.
type feedPayload struct {
	Matches []feedMatch `json:"matches"`
}

type feedMatch struct {
	ID      string      `json:"id"`
	Teams   string      `json:"teams"`
	League  string      `json:"league"`
	Kickoff time.Time   `json:"kickoff"`
	Quotes  []feedQuote `json:"quotes"`
}

type feedQuote struct {
	Bookmaker string  `json:"bookmaker"`
	Home      float64 `json:"home"`
	Draw      float64 `json:"draw"`
	Away      float64 `json:"away"`
}

// HTTPSource fetches the current slate from an odds feed URL. Any transport
// or decode failure is reported as ErrSourceUnavailable; the caller treats
// it as zero matches this cycle.
type HTTPSource struct {
	url    string
	client *http.Client
	logger *slog.Logger
}

// NewHTTPSource creates an HTTPSource with a bounded request timeout.
func NewHTTPSource(url string, timeout time.Duration, logger *slog.Logger) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(slog.String("component", "http_odds_source")),
	}
}

// Fetch retrieves and normalizes the feed. Malformed or incomplete matches
// are skipped, not fatal.
func (s *HTTPSource) Fetch(ctx context.Context) ([]domain.Match, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("odds feed: build request: %w", domain.ErrSourceUnavailable)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("odds feed: %v: %w", err, domain.ErrSourceUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("odds feed: status %d: %w", resp.StatusCode, domain.ErrSourceUnavailable)
	}

	var payload feedPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("odds feed: decode: %v: %w", err, domain.ErrSourceUnavailable)
	}

	matches := make([]domain.Match, 0, len(payload.Matches))
	for _, fm := range payload.Matches {
		m, ok := normalizeFeedMatch(fm)
		if !ok {
			s.logger.Warn("skipping malformed feed match", slog.String("match_id", fm.ID))
			continue
		}
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches, nil
}

// normalizeFeedMatch converts a feed entry to the canonical Match, rejecting
// entries without an ID or with no usable quote.
func normalizeFeedMatch(fm feedMatch) (domain.Match, bool) {
	if fm.ID == "" {
		return domain.Match{}, false
	}
	quotes := make([]domain.BookmakerQuote, 0, len(fm.Quotes))
	for _, q := range fm.Quotes {
		if q.Bookmaker == "" || q.Home <= 1 || q.Draw <= 1 || q.Away <= 1 {
			continue
		}
		quotes = append(quotes, domain.BookmakerQuote{
			Bookmaker: q.Bookmaker,
			Home:      q.Home,
			Draw:      q.Draw,
			Away:      q.Away,
		})
	}
	if len(quotes) == 0 {
		return domain.Match{}, false
	}
	return domain.Match{
		ID:        fm.ID,
		Teams:     fm.Teams,
		League:    fm.League,
		KickoffAt: fm.Kickoff,
		Quotes:    quotes,
	}, true
}

// Compile-time interface check.
var _ domain.OddsSource = (*HTTPSource)(nil)
