// Package waitlist implements the per-event waitlist on a redis
// sorted set.  Entries are scored by join time so the earliest joiner
// is always first, carry an absolute expiry inside the member payload,
// and are reaped lazily when a read encounters them; there is no
// background sweep.  The store is deliberately not transactional with
// the seat/booking state: promotion is advisory, and a freed seat may
// be claimed by anyone before the promoted user acts.
package waitlist

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/evently/internal/model"
)

// TTL is the horizon after which a waitlist entry is no longer
// eligible for promotion or ranged reads (100 hours, matching the
// original admission window).
const TTL = 100 * time.Hour

// ErrUnavailable is returned when no redis client is configured; the
// waitlist cannot degrade to a no-op the way the read cache does,
// because Join must either durably record the entry or fail loudly.
var ErrUnavailable = errors.New("waitlist: store unavailable")

// Store holds waitlist entries in one sorted set per event.
type Store struct {
	rdb *redis.Client
	now func() time.Time
}

// NewStore returns a Store backed by the given client.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, now: time.Now}
}

// key returns the sorted-set key for an event's waitlist.
func key(eventID uint64) string {
	return "event:set:" + strconv.FormatUint(eventID, 10)
}

// Add inserts an entry scored by its join time.  JoinedAt and
// ExpiresAt are stamped here so callers only supply identity.
func (s *Store) Add(ctx context.Context, eventID, userID uint64, email string) (model.WaitlistEntry, error) {
	if s.rdb == nil {
		return model.WaitlistEntry{}, ErrUnavailable
	}
	now := s.now().UTC()
	entry := model.WaitlistEntry{
		EventID:   eventID,
		UserID:    userID,
		Email:     email,
		JoinedAt:  now,
		ExpiresAt: now.Add(TTL),
	}
	member, err := json.Marshal(entry)
	if err != nil {
		return model.WaitlistEntry{}, err
	}
	err = s.rdb.ZAdd(ctx, key(eventID), redis.Z{
		Score:  float64(now.Unix()),
		Member: string(member),
	}).Err()
	if err != nil {
		return model.WaitlistEntry{}, err
	}
	return entry, nil
}

// PeekEarliest returns the lowest-score live entry for the event, or
// (nil, nil) when the waitlist is empty.  Expired entries encountered
// on the way are removed and skipped; ordering is strictly FIFO by
// join time with ties resolved by the sorted set's member order.
func (s *Store) PeekEarliest(ctx context.Context, eventID uint64) (*model.WaitlistEntry, error) {
	if s.rdb == nil {
		return nil, ErrUnavailable
	}
	k := key(eventID)
	now := s.now().UTC()
	for start := int64(0); ; {
		members, err := s.rdb.ZRange(ctx, k, start, start).Result()
		if err != nil {
			return nil, err
		}
		if len(members) == 0 {
			return nil, nil
		}
		var entry model.WaitlistEntry
		if err := json.Unmarshal([]byte(members[0]), &entry); err != nil {
			// Unreadable member: drop it rather than wedging the queue.
			if err := s.rdb.ZRem(ctx, k, members[0]).Err(); err != nil {
				return nil, err
			}
			continue
		}
		if entry.Expired(now) {
			if err := s.rdb.ZRem(ctx, k, members[0]).Err(); err != nil {
				return nil, err
			}
			continue
		}
		return &entry, nil
	}
}

// Remove deletes a specific entry, typically right after its user was
// notified of a promotion, so the same entry is never promoted twice.
func (s *Store) Remove(ctx context.Context, entry model.WaitlistEntry) error {
	if s.rdb == nil {
		return ErrUnavailable
	}
	member, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.rdb.ZRem(ctx, key(entry.EventID), string(member)).Err()
}
