package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/logger"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ErrLockBusy 获取锁失败
var ErrLockBusy = errors.New("lock busy")

// UnlockFunc 释放锁
type UnlockFunc func()

// Locker 按 key 串行化写操作
type Locker interface {
	Lock(ctx context.Context, key string) (UnlockFunc, error)
}

// Key 拼接锁 key
func Key(prefix, id string) string {
	return fmt.Sprintf("%s:%s", prefix, strings.TrimSpace(id))
}

type localEntry struct {
	ch   chan struct{}
	refs int
}

// LocalLocker 进程内按 key 的互斥锁
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localEntry
}

// NewLocalLocker 创建进程内锁
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localEntry)}
}

// Lock 获取 key 对应的锁，ctx 取消时放弃等待
func (l *LocalLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &localEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, entry)
		return nil, fmt.Errorf("%w: %s: %v", ErrLockBusy, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.ch
			l.release(key, entry)
		})
	}, nil
}

func (l *LocalLocker) release(key string, entry *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

// RedisLocker 基于 redsync 的分布式锁，多实例部署时使用
type RedisLocker struct {
	rs     *redsync.Redsync
	prefix string
	expiry time.Duration
	tries  int
}

// NewRedisLocker 创建分布式锁
func NewRedisLocker(client *redis.Client, prefix string, expiry time.Duration, tries int) *RedisLocker {
	if expiry <= 0 {
		expiry = 10 * time.Second
	}
	if tries <= 0 {
		tries = 32
	}
	pool := goredis.NewPool(client)
	return &RedisLocker{
		rs:     redsync.New(pool),
		prefix: strings.TrimSpace(prefix),
		expiry: expiry,
		tries:  tries,
	}
}

// Lock 获取分布式锁
func (l *RedisLocker) Lock(ctx context.Context, key string) (UnlockFunc, error) {
	name := key
	if l.prefix != "" {
		name = l.prefix + ":" + key
	}
	mutex := l.rs.NewMutex(
		name,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(l.tries),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLockBusy, key, err)
	}
	return func() {
		if _, err := mutex.UnlockContext(context.Background()); err != nil {
			logger.Warnw("lock_release_failed", "key", name, "error", err)
		}
	}, nil
}
