package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"onyx.dev/onyx/internal/onyxerr"
)

// RowLocker is the row-level locking contract used to guard IngestState
// and Connection sync: exactly one caller may hold a given key at a time,
// a contending caller fails fast rather than blocking, and the lock is
// always released via the returned func. A production implementation
// should back this with the relational store's native `SELECT ... FOR
// UPDATE NOWAIT`, or with a Redis-backed advisory lock ahead of it — both
// satisfy this same interface.
type RowLocker interface {
	// TryLock attempts to acquire key. On success it returns a release
	// function that must be called exactly once. On contention it returns
	// a *onyxerr.Error with Kind() == onyxerr.KindResourceBusy.
	TryLock(ctx context.Context, key string) (release func(), err error)
}

// MemoryRowLocker is an in-process RowLocker backed by a set of held keys,
// suitable for unit tests and for a single-process deployment where no
// external coordination store is available.
type MemoryRowLocker struct {
	mu    sync.Mutex
	locks map[string]struct{}
}

// NewMemoryRowLocker returns an empty MemoryRowLocker.
func NewMemoryRowLocker() *MemoryRowLocker {
	return &MemoryRowLocker{locks: make(map[string]struct{})}
}

// TryLock implements RowLocker.
func (l *MemoryRowLocker) TryLock(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.locks[key]; held {
		return nil, onyxerr.New(onyxerr.KindResourceBusy, fmt.Sprintf("row %q is locked", key))
	}
	l.locks[key] = struct{}{}
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.locks, key)
	}, nil
}

// RedisLocker guards RedisRowLocker.TryLock access to a redis.Cmdable
// without committing this package to a single client implementation.
// redis/go-redis/v9 clients return command objects, so they satisfy it
// through a thin adapter (see cmd/onyxd's redisLockerAdapter).
type RedisLocker interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
}

// RedisRowLocker backs RowLocker with a Redis SETNX-with-TTL advisory
// lock, the coordination substrate the teacher fleet already depends on
// (redis/go-redis/v9) for exactly this kind of cross-instance mutual
// exclusion.
type RedisRowLocker struct {
	client RedisLocker
	ttl    time.Duration
	prefix string
}

// NewRedisRowLocker returns a RowLocker backed by client. Locks auto-expire
// after ttl if never released, bounding the blast radius of a crashed
// holder.
func NewRedisRowLocker(client RedisLocker, ttl time.Duration) *RedisRowLocker {
	return &RedisRowLocker{client: client, ttl: ttl, prefix: "onyx:rowlock:"}
}

// TryLock implements RowLocker.
func (l *RedisRowLocker) TryLock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	acquired, err := l.client.SetNX(ctx, redisKey, "1", l.ttl)
	if err != nil {
		return nil, onyxerr.Wrap(onyxerr.KindTransient, err, "row lock backend unavailable")
	}
	if !acquired {
		return nil, onyxerr.New(onyxerr.KindResourceBusy, fmt.Sprintf("row %q is locked", key))
	}
	return func() {
		_ = l.client.Del(context.Background(), redisKey)
	}, nil
}
