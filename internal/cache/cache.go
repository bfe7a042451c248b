// Package cache holds hot catalog reads for a bounded time.
//
// Two backends share one interface: Memory (default, per process) and Redis
// (shared between instances). Values are written by Set and copied into dest
// by Get; an expired entry is indistinguishable from a missing one.
package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

type Cache interface {
	// Get copies the cached value into dest (a non-nil pointer) and reports a hit.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set stores value until now+ttl. A ttl <= 0 keeps it until deleted.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix drops every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	Stats() StatsSnapshot
}

// Key families and TTLs used by the catalog.
const (
	KeyProductsAll    = "products:all"
	KeyProductsPublic = "products:public"
	KeyProductPrefix  = "product:"
	keyProductByID    = KeyProductPrefix + "%d"
	keyProductBySKU   = KeyProductPrefix + "sku:%s"

	TTLList = 120 * time.Second
	TTLItem = 300 * time.Second
)

func ProductByIDKey(id int64) string    { return fmt.Sprintf(keyProductByID, id) }
func ProductBySKUKey(sku string) string { return fmt.Sprintf(keyProductBySKU, sku) }

// Stats tracks cache statistics.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Sets    uint64
	Deletes uint64
	Errors  uint64
}

type StatsSnapshot struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Sets      uint64  `json:"sets"`
	Deletes   uint64  `json:"deletes"`
	Errors    uint64  `json:"errors"`
	HitRate   float64 `json:"hit_rate"`
	TotalGets uint64  `json:"total_gets"`
	Entries   int     `json:"entries,omitempty"`
}

func (s *Stats) snapshot() StatsSnapshot {
	hits := atomic.LoadUint64(&s.Hits)
	misses := atomic.LoadUint64(&s.Misses)
	total := hits + misses
	var rate float64
	if total > 0 {
		rate = float64(hits) / float64(total) * 100
	}
	return StatsSnapshot{
		Hits:      hits,
		Misses:    misses,
		Sets:      atomic.LoadUint64(&s.Sets),
		Deletes:   atomic.LoadUint64(&s.Deletes),
		Errors:    atomic.LoadUint64(&s.Errors),
		HitRate:   rate,
		TotalGets: total,
	}
}
