package memory

import (
	"context"
	"sync"
	"time"

	"github.com/tundeabiola/surebet/internal/domain"
)

// LockManager implements domain.LockManager with an in-process table of
// lock expiries. Locks auto-expire after their TTL, matching the Redis
// implementation's behavior when a holder dies without unlocking.
type LockManager struct {
	now func() time.Time

	mu    sync.Mutex
	locks map[string]time.Time
}

// NewLockManager creates an empty LockManager.
func NewLockManager() *LockManager {
	return &LockManager{
		now:   func() time.Time { return time.Now().UTC() },
		locks: map[string]time.Time{},
	}
}

// Acquire obtains the lock for key, returning domain.ErrLockHeld when it is
// held and unexpired. The returned unlock function is safe to call more
// than once.
func (lm *LockManager) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	now := lm.now()
	if expiry, ok := lm.locks[key]; ok && now.Before(expiry) {
		return nil, domain.ErrLockHeld
	}
	lm.locks[key] = now.Add(ttl)

	released := false
	unlock := func() {
		lm.mu.Lock()
		defer lm.mu.Unlock()
		if released {
			return
		}
		released = true
		delete(lm.locks, key)
	}
	return unlock, nil
}

// Compile-time interface check.
var _ domain.LockManager = (*LockManager)(nil)
