package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// sweepEvery is how many Sets pass between scans for expired entries.
// Keys orphaned by an epoch bump are never read again.
const sweepEvery = 256

// Memory is an in-process Store, used when no redis address is configured.
type Memory struct {
	mu   sync.Mutex
	data map[string]memItem
	sets int
	now  func() time.Time
}

type memItem struct {
	value   []byte
	expires time.Time // zero = no ttl
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]memItem), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !item.expires.IsZero() && !m.now().Before(item.expires) {
		delete(m.data, key)
		return nil, ErrCacheMiss
	}
	return item.value, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if m.sets++; m.sets%sweepEvery == 0 {
		m.sweep(now)
	}

	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	m.data[key] = memItem{value: append([]byte(nil), value...), expires: exp}
	return nil
}

func (m *Memory) sweep(now time.Time) {
	for k, item := range m.data {
		if !item.expires.IsZero() && !now.Before(item.expires) {
			delete(m.data, k)
		}
	}
}

func (m *Memory) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	if item, ok := m.data[key]; ok {
		var err error
		if n, err = strconv.ParseInt(string(item.value), 10, 64); err != nil {
			return 0, err
		}
	}
	n++
	m.data[key] = memItem{value: []byte(strconv.FormatInt(n, 10))}
	return n, nil
}
