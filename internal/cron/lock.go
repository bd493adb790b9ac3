package cron

import (
	"context"
	"sync/atomic"
)

// Lock coordinates exclusive cron runs. *redis.Lock satisfies it.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// LocalLock guards a single process when redis is not configured.
type LocalLock struct {
	held atomic.Bool
}

// Acquire reports false while a previous cycle still holds the lock.
func (l *LocalLock) Acquire(context.Context) (bool, error) {
	return l.held.CompareAndSwap(false, true), nil
}

// Release frees the lock.
func (l *LocalLock) Release(context.Context) error {
	l.held.Store(false)
	return nil
}
