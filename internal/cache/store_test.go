package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	redismock "github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

func TestKeyJoinsNamespaceAndParts(t *testing.T) {
	assert.Equal(t, "event:42", Key("event", "42"))
	assert.Equal(t, "user:bookings:7", Key("user:bookings", "7"))
	assert.Equal(t, "analytics", Key("analytics"))
}

func TestGetMissOnAbsentKey(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewStore(rdb)

	mock.ExpectGet("event:1").RedisNil()

	var out payload
	assert.False(t, s.Get(context.Background(), "event:1", &out))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetThenGetRoundTrip(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewStore(rdb)

	in := payload{ID: 1, Name: "Go Conf"}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	mock.ExpectSet("event:1", data, DefaultTTL).SetVal("OK")
	mock.ExpectGet("event:1").SetVal(string(data))

	s.Set(context.Background(), "event:1", in, 0) // non-positive ttl -> DefaultTTL

	var out payload
	require.True(t, s.Get(context.Background(), "event:1", &out))
	assert.Equal(t, in, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMissOnCorruptValue(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewStore(rdb)

	mock.ExpectGet("event:1").SetVal("{broken")

	var out payload
	assert.False(t, s.Get(context.Background(), "event:1", &out))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByPrefixPurgesNamespace(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewStore(rdb)

	mock.ExpectScan(0, "event:bookings:1*", 0).
		SetVal([]string{"event:bookings:1", "event:bookings:1:page:2"}, 0)
	mock.ExpectDel("event:bookings:1", "event:bookings:1:page:2").SetVal(2)

	s.DeleteByPrefix(context.Background(), "event:bookings:1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByPrefixNoMatches(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := NewStore(rdb)

	mock.ExpectScan(0, "event:99*", 0).SetVal([]string{}, 0)

	// No DEL is issued when the scan comes back empty.
	s.DeleteByPrefix(context.Background(), "event:99")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilStoreIsNoOp(t *testing.T) {
	s := NewStore(nil)
	var out payload
	assert.False(t, s.Get(context.Background(), "k", &out))
	s.Set(context.Background(), "k", payload{}, time.Minute)
	s.DeleteByPrefix(context.Background(), "k")
}

func TestInvalidatorPurgesAllBookingViews(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inval := NewInvalidator(NewStore(rdb))

	mock.ExpectScan(0, "user:bookings:7*", 0).SetVal([]string{"user:bookings:7"}, 0)
	mock.ExpectDel("user:bookings:7").SetVal(1)
	mock.ExpectScan(0, "event:42*", 0).SetVal([]string{"event:42"}, 0)
	mock.ExpectDel("event:42").SetVal(1)
	mock.ExpectScan(0, "event:bookings:42*", 0).SetVal([]string{}, 0)
	mock.ExpectScan(0, "event:seats:42*", 0).SetVal([]string{"event:seats:42"}, 0)
	mock.ExpectDel("event:seats:42").SetVal(1)

	inval.InvalidateBooking(context.Background(), 42, 7)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilInvalidatorIsNoOp(t *testing.T) {
	var inval *Invalidator
	inval.InvalidateBooking(context.Background(), 1, 1)
	inval.InvalidateEvent(context.Background(), 1)
}
