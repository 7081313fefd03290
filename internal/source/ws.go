package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tundeabiola/surebet/internal/domain"
)

// wsEnvelope is one message on the odds stream.
type wsEnvelope struct {
	Type  string    `json:"type"`
	Match feedMatch `json:"match"`
}

// WSFeed subscribes to a streaming odds endpoint and keeps the latest
// snapshot per match in memory. Fetch serves that snapshot, so scan cycles
// stay non-blocking even when the stream is quiet. Run must be started for
// the snapshot to fill; a feed that has not connected yet simply yields an
// empty slate.
type WSFeed struct {
	url    string
	logger *slog.Logger

	mu      sync.RWMutex
	matches map[string]domain.Match

	closeOnce sync.Once
	done      chan struct{}
}

// NewWSFeed creates a feed for the given websocket URL.
func NewWSFeed(url string, logger *slog.Logger) *WSFeed {
	return &WSFeed{
		url:     url,
		logger:  logger.With(slog.String("component", "ws_odds_feed")),
		matches: map[string]domain.Match{},
		done:    make(chan struct{}),
	}
}

// Run connects and consumes odds messages until ctx is cancelled,
// reconnecting with a short backoff on disconnect.
func (f *WSFeed) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.done:
			return nil
		default:
		}

		if err := f.runConnection(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.logger.Warn("odds stream disconnected, reconnecting", slog.String("error", err.Error()))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (f *WSFeed) runConnection(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, f.url, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.url, err)
	}
	defer conn.Close()
	f.logger.Info("odds stream connected", slog.String("url", f.url))

	// Close the connection when ctx ends so ReadMessage unblocks.
	go func() {
		select {
		case <-ctx.Done():
		case <-f.done:
		}
		_ = conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		var env wsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			f.logger.Warn("skipping malformed stream message", slog.String("error", err.Error()))
			continue
		}
		if env.Type != "odds" {
			continue
		}
		m, ok := normalizeFeedMatch(env.Match)
		if !ok {
			continue
		}
		f.mu.Lock()
		f.matches[m.ID] = m
		f.mu.Unlock()
	}
}

// Fetch returns a copy of the latest snapshot, sorted by match ID.
func (f *WSFeed) Fetch(ctx context.Context) ([]domain.Match, error) {
	f.mu.RLock()
	out := make([]domain.Match, 0, len(f.matches))
	for _, m := range f.matches {
		out = append(out, m)
	}
	f.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Close stops the feed.
func (f *WSFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

// Compile-time interface check.
var _ domain.OddsSource = (*WSFeed)(nil)
