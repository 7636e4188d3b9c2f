package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/evently/internal/model"
)

func newBookingRepo(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewBookingRepo(db), mock
}

func TestCountBookedByEvent(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings WHERE event_id = ? AND status = ?")).
		WithArgs(uint64(1), model.BookingBooked).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.CountBookedByEvent(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNullableReferences(t *testing.T) {
	repo, mock := newBookingRepo(t)

	// Event deleted after booking: event_id and seat_id are NULL but
	// the ledger row remains readable.
	rows := sqlmock.NewRows([]string{"id", "user_id", "event_id", "seat_id", "status", "created_at"}).
		AddRow(11, 5, nil, nil, model.BookingCancelled, time.Now().UTC())
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ?")).
		WithArgs(uint64(11)).WillReturnRows(rows)

	b, err := repo.GetByID(context.Background(), 11)
	require.NoError(t, err)
	require.NotNil(t, b.UserID)
	assert.Equal(t, uint64(5), *b.UserID)
	assert.Nil(t, b.EventID)
	assert.Nil(t, b.SeatID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDBookingNotFound(t *testing.T) {
	repo, mock := newBookingRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = ?")).
		WithArgs(uint64(404)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListByUserNewestFirst(t *testing.T) {
	repo, mock := newBookingRepo(t)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "event_id", "name", "venue", "seat_number", "status", "created_at"}).
		AddRow(12, 1, "Go Conf", "Main Hall", 7, model.BookingBooked, now).
		AddRow(11, 1, "Go Conf", nil, 3, model.BookingCancelled, now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.user_id = ?")).
		WithArgs(uint64(5)).WillReturnRows(rows)

	details, err := repo.ListByUser(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, details, 2)
	assert.Equal(t, uint64(12), details[0].BookingID)
	require.NotNil(t, details[0].Venue)
	assert.Equal(t, "Main Hall", *details[0].Venue)
	assert.Nil(t, details[1].Venue)
	assert.NoError(t, mock.ExpectationsWereMet())
}
