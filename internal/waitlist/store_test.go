package waitlist

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	redismock "github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/evently/internal/model"
)

var fixedNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*Store, redismock.ClientMock) {
	t.Helper()
	rdb, mock := redismock.NewClientMock()
	return &Store{rdb: rdb, now: func() time.Time { return fixedNow }}, mock
}

func mustMarshal(t *testing.T, e model.WaitlistEntry) string {
	t.Helper()
	b, err := json.Marshal(e)
	require.NoError(t, err)
	return string(b)
}

func TestAddScoresByJoinTime(t *testing.T) {
	s, mock := newTestStore(t)

	want := model.WaitlistEntry{
		EventID:   3,
		UserID:    9,
		Email:     "u@example.com",
		JoinedAt:  fixedNow,
		ExpiresAt: fixedNow.Add(TTL),
	}
	mock.ExpectZAdd("event:set:3", redis.Z{
		Score:  float64(fixedNow.Unix()),
		Member: mustMarshal(t, want),
	}).SetVal(1)

	got, err := s.Add(context.Background(), 3, 9, "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeekEarliestEmpty(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectZRange("event:set:3", 0, 0).SetVal([]string{})

	entry, err := s.PeekEarliest(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeekEarliestReturnsLiveEntry(t *testing.T) {
	s, mock := newTestStore(t)

	live := model.WaitlistEntry{
		EventID: 3, UserID: 9, Email: "u@example.com",
		JoinedAt: fixedNow.Add(-time.Hour), ExpiresAt: fixedNow.Add(time.Hour),
	}
	mock.ExpectZRange("event:set:3", 0, 0).SetVal([]string{mustMarshal(t, live)})

	entry, err := s.PeekEarliest(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, live.UserID, entry.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeekEarliestReapsExpiredEntries(t *testing.T) {
	s, mock := newTestStore(t)

	expired := model.WaitlistEntry{
		EventID: 3, UserID: 1, Email: "old@example.com",
		JoinedAt: fixedNow.Add(-2 * TTL), ExpiresAt: fixedNow.Add(-TTL),
	}
	live := model.WaitlistEntry{
		EventID: 3, UserID: 2, Email: "new@example.com",
		JoinedAt: fixedNow.Add(-time.Minute), ExpiresAt: fixedNow.Add(TTL),
	}
	expiredRaw := mustMarshal(t, expired)
	mock.ExpectZRange("event:set:3", 0, 0).SetVal([]string{expiredRaw})
	mock.ExpectZRem("event:set:3", expiredRaw).SetVal(1)
	mock.ExpectZRange("event:set:3", 0, 0).SetVal([]string{mustMarshal(t, live)})

	entry, err := s.PeekEarliest(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, uint64(2), entry.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPeekEarliestDropsUnreadableMember(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectZRange("event:set:3", 0, 0).SetVal([]string{"{not json"})
	mock.ExpectZRem("event:set:3", "{not json").SetVal(1)
	mock.ExpectZRange("event:set:3", 0, 0).SetVal([]string{})

	entry, err := s.PeekEarliest(context.Background(), 3)
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveDeletesExactMember(t *testing.T) {
	s, mock := newTestStore(t)

	entry := model.WaitlistEntry{
		EventID: 3, UserID: 9, Email: "u@example.com",
		JoinedAt: fixedNow, ExpiresAt: fixedNow.Add(TTL),
	}
	mock.ExpectZRem("event:set:3", mustMarshal(t, entry)).SetVal(1)

	require.NoError(t, s.Remove(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreUnavailableWithoutRedis(t *testing.T) {
	s := NewStore(nil)
	_, err := s.Add(context.Background(), 1, 1, "x@example.com")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = s.PeekEarliest(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUnavailable)
}
