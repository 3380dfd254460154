package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Store 结算缓存抽象，Redis 与内存实现可互换
type Store interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Incr(ctx context.Context, key string) (int64, error)
	GetInt(ctx context.Context, key string) (int64, error)
}

// NewStore Redis 可用时返回 RedisStore，否则返回进程内缓存
func NewStore() Store {
	if Enabled() {
		return NewRedisStore(Client(), Prefix())
	}
	return NewMemoryStore()
}

// memorySweepInterval 写入时清理过期项的最小间隔
const memorySweepInterval = 30 * time.Second

type memoryItem struct {
	payload   []byte
	expiresAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

// MemoryStore 进程内缓存，值以 JSON 保存，读出的是副本。
// 旧代数的视图 key 不会再被读取，过期项在写入时批量清理。
type MemoryStore struct {
	mu        sync.Mutex
	items     map[string]memoryItem
	counters  map[string]int64
	now       func() time.Time
	nextSweep time.Time
}

// NewMemoryStore 创建进程内缓存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:    make(map[string]memoryItem),
		counters: make(map[string]int64),
		now:      time.Now,
	}
}

// GetJSON 获取缓存，过期视为未命中
func (s *MemoryStore) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	key = strings.TrimSpace(key)
	s.mu.Lock()
	item, ok := s.items[key]
	if ok && item.expired(s.now()) {
		delete(s.items, key)
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(item.payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON 写入缓存，ttl<=0 表示不过期
func (s *MemoryStore) SetJSON(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	now := s.now()
	item := memoryItem{payload: payload}
	if ttl > 0 {
		item.expiresAt = now.Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !now.Before(s.nextSweep) {
		s.sweepLocked(now)
	}
	s.items[strings.TrimSpace(key)] = item
	return nil
}

// sweepLocked 删除全部过期项，调用方需持有 mu
func (s *MemoryStore) sweepLocked(now time.Time) {
	for key, item := range s.items {
		if item.expired(now) {
			delete(s.items, key)
		}
	}
	s.nextSweep = now.Add(memorySweepInterval)
}

// Len 当前保存的缓存项数量，含尚未清理的过期项
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Del 删除缓存与同名计数器
func (s *MemoryStore) Del(_ context.Context, key string) error {
	key = strings.TrimSpace(key)
	s.mu.Lock()
	delete(s.items, key)
	delete(s.counters, key)
	s.mu.Unlock()
	return nil
}

// Incr 自增计数器
func (s *MemoryStore) Incr(_ context.Context, key string) (int64, error) {
	key = strings.TrimSpace(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key]++
	return s.counters[key], nil
}

// GetInt 读取计数器
func (s *MemoryStore) GetInt(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[strings.TrimSpace(key)], nil
}
