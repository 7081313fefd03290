package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tundeabiola/surebet/internal/domain"
)

// OpportunityCache implements domain.OpportunityCache using JSON values with
// a native Redis TTL. Per-key last-write-wins is all the consistency the
// contract asks for.
//
// Key schema:
//
//	opp:{matchID} - JSON-serialized Opportunity, expires after TTL
type OpportunityCache struct {
	rdb *redis.Client
}

// NewOpportunityCache creates an OpportunityCache backed by the given Client.
func NewOpportunityCache(c *Client) *OpportunityCache {
	return &OpportunityCache{rdb: c.Underlying()}
}

func oppKey(matchID string) string {
	return "opp:" + matchID
}

// Put stores an opportunity under its match ID with the given TTL,
// overwriting any previous entry.
func (oc *OpportunityCache) Put(ctx context.Context, opp domain.Opportunity, ttl time.Duration) error {
	data, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("redis: marshal opportunity %s: %w", opp.MatchID, err)
	}
	if err := oc.rdb.Set(ctx, oppKey(opp.MatchID), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set opportunity %s: %w", opp.MatchID, err)
	}
	return nil
}

// Get retrieves a cached opportunity by match ID. It returns
// domain.ErrNotFound when the key is absent or has expired.
func (oc *OpportunityCache) Get(ctx context.Context, matchID string) (domain.Opportunity, error) {
	data, err := oc.rdb.Get(ctx, oppKey(matchID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Opportunity{}, domain.ErrNotFound
		}
		return domain.Opportunity{}, fmt.Errorf("redis: get opportunity %s: %w", matchID, err)
	}
	var opp domain.Opportunity
	if err := json.Unmarshal(data, &opp); err != nil {
		return domain.Opportunity{}, fmt.Errorf("redis: unmarshal opportunity %s: %w", matchID, err)
	}
	return opp, nil
}

// Purge is a no-op: Redis evicts expired keys itself.
func (oc *OpportunityCache) Purge(ctx context.Context) error {
	return nil
}

// Reset drops every cached opportunity. Operator action, so the SCAN cost
// is acceptable.
func (oc *OpportunityCache) Reset(ctx context.Context) error {
	iter := oc.rdb.Scan(ctx, 0, oppKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		if err := oc.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis: delete %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis: scan opportunities: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.OpportunityCache = (*OpportunityCache)(nil)
