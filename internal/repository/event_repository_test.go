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

func newEventRepo(t *testing.T) (*EventRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewEventRepo(db), mock
}

func TestCreateEventAlsoCreatesSeats(t *testing.T) {
	repo, mock := newEventRepo(t)

	start := time.Date(2026, 9, 1, 19, 0, 0, 0, time.UTC)
	ev := &model.Event{Name: "Go Conf", StartTime: start, Capacity: 3}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM events WHERE name = ?")).
		WithArgs("Go Conf").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO events")).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seats (event_id, seat_number, status) VALUES (?, ?, ?),(?, ?, ?),(?, ?, ?)")).
		WithArgs(
			uint64(7), uint32(1), model.SeatAvailable,
			uint64(7), uint32(2), model.SeatAvailable,
			uint64(7), uint32(3), model.SeatAvailable,
		).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT created_at FROM events WHERE id = ?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now().UTC()))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), ev))
	assert.Equal(t, uint64(7), ev.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEventRejectsDuplicateName(t *testing.T) {
	repo, mock := newEventRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM events WHERE name = ?")).
		WithArgs("Go Conf").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &model.Event{
		Name: "Go Conf", StartTime: time.Now().UTC(), Capacity: 1,
	})
	assert.ErrorIs(t, err, ErrEventExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	repo, mock := newEventRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE id = ?")).
		WithArgs(uint64(404)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRejectsCapacityShrink(t *testing.T) {
	repo, mock := newEventRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM events WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(10))
	mock.ExpectRollback()

	smaller := uint32(5)
	_, err := repo.Update(context.Background(), 7, EventUpdate{Capacity: &smaller})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateGrowsCapacityByAppendingSeats(t *testing.T) {
	repo, mock := newEventRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM events WHERE id = ? FOR UPDATE")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seats (event_id, seat_number, status) VALUES (?, ?, ?),(?, ?, ?)")).
		WithArgs(
			uint64(7), uint32(3), model.SeatAvailable,
			uint64(7), uint32(4), model.SeatAvailable,
		).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET capacity = ? WHERE id = ?")).
		WithArgs(uint32(4), uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	rows := sqlmock.NewRows([]string{"id", "name", "venue", "description", "start_time", "end_time", "capacity", "created_by", "created_at"}).
		AddRow(7, "Go Conf", nil, nil, time.Now().UTC(), nil, 4, nil, time.Now().UTC())
	mock.ExpectQuery(regexp.QuoteMeta("FROM events WHERE id = ?")).
		WithArgs(uint64(7)).WillReturnRows(rows)

	bigger := uint32(4)
	ev, err := repo.Update(context.Background(), 7, EventUpdate{Capacity: &bigger})
	require.NoError(t, err)
	assert.Equal(t, uint32(4), ev.Capacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteEventNotFound(t *testing.T) {
	repo, mock := newEventRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE id = ?")).
		WithArgs(uint64(404)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 404)
	assert.ErrorIs(t, err, ErrEventNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
