package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const defaultLockTTL = 25 * time.Hour

// LockStore defines the operations used by Lock. *Client satisfies it.
type LockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DeleteIfValue(ctx context.Context, key, value string) (bool, error)
}

// Lock is an owner-checked SETNX + TTL lock on a single key.
type Lock struct {
	store LockStore
	key   string
	ttl   time.Duration
	owner string
}

// NewLock constructs a Redis-backed lock. A non-positive ttl uses 25h.
func NewLock(store LockStore, key string, ttl time.Duration) (*Lock, error) {
	if store == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Lock{store: store, key: key, ttl: ttl}, nil
}

// Key returns the redis key guarded by the lock.
func (l *Lock) Key() string {
	return l.key
}

// Acquire tries to own the lock for the configured TTL.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release frees the lock if this holder still owns it. A key that expired or
// was taken over by another owner is left untouched.
func (l *Lock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	owner := l.owner
	l.owner = ""
	if _, err := l.store.DeleteIfValue(ctx, l.key, owner); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}
