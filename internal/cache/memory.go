package cache

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"vintagestore/internal/metrics"
)

type item struct {
	value     any
	storedAt  time.Time
	expiresAt time.Time // zero = never
}

func (it item) expired(now time.Time) bool {
	return !it.expiresAt.IsZero() && !now.Before(it.expiresAt)
}

// Memory is an in-process TTL map. Expired entries are treated as absent on
// read and removed by the background sweeper.
type Memory struct {
	mu    sync.RWMutex
	items map[string]item
	now   func() time.Time
	stats Stats

	stop     chan struct{}
	stopOnce sync.Once
}

type Option func(*Memory)

// WithClock replaces time.Now, letting tests drive expiry deterministically.
func WithClock(now func() time.Time) Option {
	return func(m *Memory) { m.now = now }
}

// NewMemory starts a sweeper every sweepEvery; pass 0 to disable it.
func NewMemory(sweepEvery time.Duration, opts ...Option) *Memory {
	m := &Memory{
		items: make(map[string]item),
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	if sweepEvery > 0 {
		go m.sweepLoop(sweepEvery)
	}
	return m
}

// Get copies the stored value into dest. The copy is shallow, so slices and
// maps inside it are shared with the cache and must be treated as read-only.
func (m *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || it.expired(m.now()) || !assign(dest, it.value) {
		atomic.AddUint64(&m.stats.Misses, 1)
		metrics.CacheRequests.WithLabelValues(metrics.KeyFamily(key), "miss").Inc()
		return false, nil
	}
	atomic.AddUint64(&m.stats.Hits, 1)
	metrics.CacheRequests.WithLabelValues(metrics.KeyFamily(key), "hit").Inc()
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	now := m.now()
	it := item{value: value, storedAt: now}
	if ttl > 0 {
		it.expiresAt = now.Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = it
	m.mu.Unlock()
	atomic.AddUint64(&m.stats.Sets, 1)
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		if _, ok := m.items[k]; ok {
			delete(m.items, k)
			atomic.AddUint64(&m.stats.Deletes, 1)
		}
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
			atomic.AddUint64(&m.stats.Deletes, 1)
		}
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) Stats() StatsSnapshot {
	s := m.stats.snapshot()
	m.mu.RLock()
	s.Entries = len(m.items)
	m.mu.RUnlock()
	return s
}

// Sweep drops expired entries and returns how many were removed.
func (m *Memory) Sweep() int {
	now := m.now()
	n := 0
	m.mu.Lock()
	for k, it := range m.items {
		if it.expired(now) {
			delete(m.items, k)
			n++
		}
	}
	m.mu.Unlock()
	return n
}

func (m *Memory) sweepLoop(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-t.C:
			m.Sweep()
		}
	}
}

// Close stops the sweeper. The cache stays usable.
func (m *Memory) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	return nil
}

// assign copies v into the value dest points to when the types line up.
func assign(dest, v any) bool {
	dv := reflect.ValueOf(dest)
	if dv.Kind() != reflect.Pointer || dv.IsNil() {
		return false
	}
	vv := reflect.ValueOf(v)
	if !vv.IsValid() {
		return false
	}
	target := dv.Elem()
	switch {
	case vv.Type().AssignableTo(target.Type()):
		target.Set(vv)
	case vv.Kind() == reflect.Pointer && !vv.IsNil() && vv.Elem().Type().AssignableTo(target.Type()):
		target.Set(vv.Elem())
	default:
		return false
	}
	return true
}
