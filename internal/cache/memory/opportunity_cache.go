// Package memory implements the cache contracts with in-process state, for
// standalone mode and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tundeabiola/surebet/internal/domain"
)

type entry struct {
	opp       domain.Opportunity
	expiresAt time.Time
}

// OpportunityCache implements domain.OpportunityCache with a mutex-guarded
// map. Expired entries are dropped lazily on Get and eagerly on Purge.
type OpportunityCache struct {
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

// NewOpportunityCache creates an empty cache.
func NewOpportunityCache() *OpportunityCache {
	return &OpportunityCache{
		now:     func() time.Time { return time.Now().UTC() },
		entries: map[string]entry{},
	}
}

// SetClock overrides the time source. Test hook.
func (c *OpportunityCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Put stores an opportunity with the given TTL, overwriting any previous
// entry for the match.
func (c *OpportunityCache) Put(ctx context.Context, opp domain.Opportunity, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[opp.MatchID] = entry{opp: opp, expiresAt: c.now().Add(ttl)}
	return nil
}

// Get returns the cached opportunity, or domain.ErrNotFound when absent or
// expired. Expired entries are deleted on the way out.
func (c *OpportunityCache) Get(ctx context.Context, matchID string) (domain.Opportunity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[matchID]
	if !ok {
		return domain.Opportunity{}, domain.ErrNotFound
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, matchID)
		return domain.Opportunity{}, domain.ErrNotFound
	}
	return e.opp, nil
}

// Purge eagerly drops every expired entry.
func (c *OpportunityCache) Purge(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for id, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, id)
		}
	}
	return nil
}

// Reset drops every entry.
func (c *OpportunityCache) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]entry{}
	return nil
}

// Len returns the number of live entries, expired or not. Test hook.
func (c *OpportunityCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Compile-time interface check.
var _ domain.OpportunityCache = (*OpportunityCache)(nil)
