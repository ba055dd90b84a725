package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ScopeLocker serializes check-then-write sequences per receipt line.
// Two concurrent scans of the same line racing past an unlocked quantity
// check could jointly overshoot the expected count, so the lock is
// mandatory, not an optimization.
type ScopeLocker interface {
	// Acquire blocks until the scope lock is held or ctx is done.
	Acquire(ctx context.Context, scope string) (release func(), err error)
}

// LineScope builds the canonical lock key for a document/line pair.
func LineScope(documentID, lineID uint) string {
	return fmt.Sprintf("receipt:%d:%d", documentID, lineID)
}

type localScopeLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocalScopeLocker serializes scopes within a single process. Only
// suitable when one instance writes to the store.
func NewLocalScopeLocker() ScopeLocker {
	return &localScopeLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *localScopeLocker) Acquire(ctx context.Context, scope string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	m, ok := l.locks[scope]
	if !ok {
		m = &sync.Mutex{}
		l.locks[scope] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock, nil
}

var redisUnlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisScopeLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisScopeLocker serializes scopes across processes with a SET NX
// lock. The TTL bounds how long a crashed holder can block a line.
func NewRedisScopeLocker(client *redis.Client, ttl time.Duration) ScopeLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &redisScopeLocker{client: client, ttl: ttl, retry: 25 * time.Millisecond}
}

func (l *redisScopeLocker) Acquire(ctx context.Context, scope string) (func(), error) {
	key := "lock:" + scope
	token := uuid.NewString()
	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire scope lock %q: %w", scope, err)
		}
		if ok {
			release := func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_, _ = redisUnlockScript.Run(ctx, l.client, []string{key}, token).Result()
			}
			return release, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}
