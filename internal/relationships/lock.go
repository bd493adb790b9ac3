package relationships

import (
	"context"
	"errors"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/greenleague-backend/pkg/errors"
	"github.com/angelmondragon/greenleague-backend/pkg/redis"
	"github.com/angelmondragon/greenleague-backend/pkg/types"
)

const lockScope = "relationships"

// ErrDateLocked is returned when another run already owns the statistical date.
var ErrDateLocked = pkgerrors.New(pkgerrors.CodeConflict, "statistical date is being synced by another run")

// ReleaseFunc frees a date lock.
type ReleaseFunc func(ctx context.Context) error

// DateLocker serializes snapshot replacement per statistical date.
// Different dates never block each other.
type DateLocker interface {
	LockDate(ctx context.Context, date types.StatDate) (ReleaseFunc, error)
}

// MemoryDateLocker serializes dates within one process.
type MemoryDateLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewMemoryDateLocker builds an in-process locker.
func NewMemoryDateLocker() *MemoryDateLocker {
	return &MemoryDateLocker{held: make(map[string]struct{})}
}

// LockDate returns ErrDateLocked when the date is already held.
func (l *MemoryDateLocker) LockDate(_ context.Context, date types.StatDate) (ReleaseFunc, error) {
	key := date.String()

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.held[key]; busy {
		return nil, ErrDateLocked
	}
	l.held[key] = struct{}{}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, key)
			l.mu.Unlock()
		})
		return nil
	}, nil
}

// redisLockClient is the subset of *redis.Client the redis locker needs.
type redisLockClient interface {
	redis.LockStore
	LockKey(scope string, parts ...string) string
}

// RedisDateLocker serializes dates across processes through redis.
type RedisDateLocker struct {
	client redisLockClient
	ttl    time.Duration
}

// NewRedisDateLocker builds a locker keyed gl:lock:relationships:<date>.
func NewRedisDateLocker(client redisLockClient, ttl time.Duration) (*RedisDateLocker, error) {
	if client == nil {
		return nil, errors.New("redis client required for date locker")
	}
	return &RedisDateLocker{client: client, ttl: ttl}, nil
}

// LockDate acquires the redis key for the date or returns ErrDateLocked.
func (l *RedisDateLocker) LockDate(ctx context.Context, date types.StatDate) (ReleaseFunc, error) {
	lock, err := redis.NewLock(l.client, l.client.LockKey(lockScope, date.String()), l.ttl)
	if err != nil {
		return nil, err
	}
	acquired, err := lock.Acquire(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire relationship date lock")
	}
	if !acquired {
		return nil, ErrDateLocked
	}
	return lock.Release, nil
}
