// Package cache implements the derived read-view cache and its
// invalidation coordinator on top of redis.  Every operation here is
// best-effort: a failing or absent redis degrades reads to cache
// misses and writes to no-ops, logged only, and must never change the
// outcome of the surrounding business operation.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is the lifetime of a cached read view unless the caller
// asks for a longer one (analytics views do).
const DefaultTTL = 60 * time.Second

// Store is a thin JSON key/value layer over redis.  A nil client is a
// valid configuration and turns every method into a no-op, which keeps
// the rest of the application oblivious to cache outages.
type Store struct {
	rdb *redis.Client
}

// NewStore returns a Store backed by the given client.  Pass nil to
// disable caching entirely.
func NewStore(rdb *redis.Client) *Store { return &Store{rdb: rdb} }

// Key builds a namespaced cache key, e.g. Key("event", "42") ->
// "event:42" and Key("user:bookings", "7") -> "user:bookings:7".
// Invalidation relies on these namespaces being prefixes.
func Key(namespace string, parts ...string) string {
	return strings.Join(append([]string{namespace}, parts...), ":")
}

// Get unmarshals the cached value under key into dest and reports
// whether it was present.  Any redis or decode error counts as a miss.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) bool {
	if s == nil || s.rdb == nil {
		return false
	}
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: get %s failed: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		log.Printf("cache: decode %s failed: %v", key, err)
		return false
	}
	return true
}

// Set stores value under key for ttl.  A non-positive ttl falls back
// to DefaultTTL.  Failures are logged and swallowed.
func (s *Store) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s == nil || s.rdb == nil {
		return
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache: encode %s failed: %v", key, err)
		return
	}
	if err := s.rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("cache: set %s failed: %v", key, err)
	}
}

// DeleteByPrefix removes every key beginning with prefix using SCAN +
// DEL, so a single mutation purges all derived views of a namespace in
// one call.  Failures are logged and swallowed.
func (s *Store) DeleteByPrefix(ctx context.Context, prefix string) {
	if s == nil || s.rdb == nil {
		return
	}
	var keys []string
	iter := s.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("cache: scan %s* failed: %v", prefix, err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache: delete %s* failed: %v", prefix, err)
	}
}
