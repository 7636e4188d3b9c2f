package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	redismock "github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/evently/internal/cache"
	"github.com/iliyamo/evently/internal/model"
	q "github.com/iliyamo/evently/internal/queue"
	"github.com/iliyamo/evently/internal/repository"
)

// recordingNotifier captures published notices instead of dialing a
// broker.
type recordingNotifier struct {
	confirmed []q.BookingConfirmedEvent
	promoted  []q.WaitlistPromotedEvent
}

func (n *recordingNotifier) BookingConfirmed(_ context.Context, ev q.BookingConfirmedEvent) error {
	n.confirmed = append(n.confirmed, ev)
	return nil
}

func (n *recordingNotifier) WaitlistPromoted(_ context.Context, ev q.WaitlistPromotedEvent) error {
	n.promoted = append(n.promoted, ev)
	return nil
}

// failingNotifier simulates a broker outage: every publish errors.
type failingNotifier struct {
	confirmed int
	promoted  int
}

func (n *failingNotifier) BookingConfirmed(context.Context, q.BookingConfirmedEvent) error {
	n.confirmed++
	return errors.New("broker down")
}

func (n *failingNotifier) WaitlistPromoted(context.Context, q.WaitlistPromotedEvent) error {
	n.promoted++
	return errors.New("broker down")
}

func newReservationFixture(t *testing.T) (*ReservationService, sqlmock.Sqlmock, *recordingNotifier) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	notifier := &recordingNotifier{}
	svc := NewReservationService(db,
		repository.NewEventRepo(db),
		repository.NewSeatRepo(db),
		repository.NewBookingRepo(db),
		nil, // no cache in unit tests
		notifier,
	)
	return svc, mock, notifier
}

func expectEventRow(mock sqlmock.Sqlmock, id uint64, capacity uint32) {
	rows := sqlmock.NewRows([]string{"id", "name", "venue", "description", "start_time", "end_time", "capacity", "created_by", "created_at"}).
		AddRow(id, "Go Conf", "Main Hall", nil, time.Now().UTC(), nil, capacity, nil, time.Now().UTC())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, venue, description, start_time, end_time, capacity, created_by, created_at")).
		WithArgs(id).WillReturnRows(rows)
}

func expectBookedCount(mock sqlmock.Sqlmock, eventID uint64, count uint32) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE event_id = ? AND status = ?")).
		WithArgs(eventID, model.BookingBooked).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(count))
}

func TestClaimBooksAvailableSeat(t *testing.T) {
	svc, mock, notifier := newReservationFixture(t)

	expectEventRow(mock, 1, 10)
	expectBookedCount(mock, 1, 3)
	expectClaimTx(mock)

	booking, seatNumber, err := svc.Claim(context.Background(), 1, 7, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), booking.ID)
	assert.Equal(t, model.BookingBooked, booking.Status)
	assert.Equal(t, uint32(7), seatNumber)

	require.Len(t, notifier.confirmed, 1)
	assert.Equal(t, uint64(11), notifier.confirmed[0].BookingID)
	assert.Equal(t, uint32(7), notifier.confirmed[0].SeatNumber)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// expectClaimTx sets up the full happy-path transaction for a claim of
// seat 7 on event 1 by user 5, producing booking 11.
func expectClaimTx(mock sqlmock.Sqlmock) {
	mock.ExpectBegin()
	seatRows := sqlmock.NewRows([]string{"id", "event_id", "seat_number", "status", "created_at"}).
		AddRow(42, 1, 7, model.SeatAvailable, time.Now().UTC())
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(uint64(1), uint32(7)).WillReturnRows(seatRows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE seats SET status = ? WHERE id = ?")).
		WithArgs(model.SeatBooked, uint64(42)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(uint64(5), uint64(1), uint64(42), model.BookingBooked).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at FROM bookings WHERE id = ?")).
		WithArgs(uint64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectCommit()
}

func TestClaimSucceedsWhenNotifierFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	notifier := &failingNotifier{}
	svc := NewReservationService(db,
		repository.NewEventRepo(db),
		repository.NewSeatRepo(db),
		repository.NewBookingRepo(db),
		nil,
		notifier,
	)

	expectEventRow(mock, 1, 10)
	expectBookedCount(mock, 1, 3)
	expectClaimTx(mock)

	// The claim is durable once committed; a broker outage on the
	// post-commit publish must not surface to the caller.
	booking, seatNumber, err := svc.Claim(context.Background(), 1, 7, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), booking.ID)
	assert.Equal(t, uint32(7), seatNumber)
	assert.Equal(t, 1, notifier.confirmed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimSucceedsWhenCacheInvalidationFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rdb, redisMock := redismock.NewClientMock()
	notifier := &recordingNotifier{}
	svc := NewReservationService(db,
		repository.NewEventRepo(db),
		repository.NewSeatRepo(db),
		repository.NewBookingRepo(db),
		cache.NewInvalidator(cache.NewStore(rdb)),
		notifier,
	)

	expectEventRow(mock, 1, 10)
	expectBookedCount(mock, 1, 3)
	expectClaimTx(mock)

	// Every post-commit cache purge errors out; the claim outcome must
	// be unchanged and the notification still goes out.
	scanErr := errors.New("redis gone")
	redisMock.ExpectScan(0, "user:bookings:5*", 0).SetErr(scanErr)
	redisMock.ExpectScan(0, "event:1*", 0).SetErr(scanErr)
	redisMock.ExpectScan(0, "event:bookings:1*", 0).SetErr(scanErr)
	redisMock.ExpectScan(0, "event:seats:1*", 0).SetErr(scanErr)

	booking, _, err := svc.Claim(context.Background(), 1, 7, 5)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), booking.ID)
	require.Len(t, notifier.confirmed, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestClaimRejectsTakenSeat(t *testing.T) {
	svc, mock, notifier := newReservationFixture(t)

	expectEventRow(mock, 1, 10)
	expectBookedCount(mock, 1, 3)

	mock.ExpectBegin()
	seatRows := sqlmock.NewRows([]string{"id", "event_id", "seat_number", "status", "created_at"}).
		AddRow(42, 1, 7, model.SeatBooked, time.Now().UTC())
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(uint64(1), uint32(7)).WillReturnRows(seatRows)
	mock.ExpectRollback()

	_, _, err := svc.Claim(context.Background(), 1, 7, 5)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.Empty(t, notifier.confirmed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimRejectsFullEvent(t *testing.T) {
	svc, mock, _ := newReservationFixture(t)

	expectEventRow(mock, 1, 2)
	expectBookedCount(mock, 1, 2)

	// No transaction is opened when the advisory capacity check fails.
	_, _, err := svc.Claim(context.Background(), 1, 1, 5)
	assert.ErrorIs(t, err, repository.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimUnknownEvent(t *testing.T) {
	svc, mock, _ := newReservationFixture(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, venue, description")).
		WithArgs(uint64(99)).WillReturnError(sql.ErrNoRows)

	_, _, err := svc.Claim(context.Background(), 99, 1, 5)
	assert.ErrorIs(t, err, repository.ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClaimUnknownSeat(t *testing.T) {
	svc, mock, _ := newReservationFixture(t)

	expectEventRow(mock, 1, 10)
	expectBookedCount(mock, 1, 0)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs(uint64(1), uint32(999)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := svc.Claim(context.Background(), 1, 999, 5)
	assert.ErrorIs(t, err, repository.ErrSeatNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
