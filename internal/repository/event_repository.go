package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/evently/internal/model"
)

// EventRepo provides CRUD operations for events.  An event owns its
// seats: creating an event also creates seats numbered 1..capacity and
// growing the capacity appends the missing numbers, all inside the
// same transaction so an event is never observable with fewer seats
// than its capacity.  All timestamp fields are stored in UTC.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning several repositories.
func (r *EventRepo) DB() *sql.DB { return r.db }

// EventUpdate carries the optional fields of an event update.  Nil
// fields are left untouched.  Capacity may only grow; a shrink is
// rejected with ErrConflict because seat numbers are never reclaimed.
type EventUpdate struct {
	Name        *string
	Venue       *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	Capacity    *uint32
}

// Create inserts a new event together with its seats.  Seat numbers
// run 1..capacity.  It returns ErrEventExists when the name is taken.
// The generated ID and timestamps are populated on the passed model.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Enforce name uniqueness up front for a friendlier error than the
	// duplicate-key failure of the unique index.
	var existing uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE name = ?`, ev.Name).Scan(&existing)
	if err == nil {
		return ErrEventExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	const q = `INSERT INTO events (name, venue, description, start_time, end_time, capacity, created_by)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, ev.Name, ev.Venue, ev.Description,
		ev.StartTime.UTC(), nullableTime(ev.EndTime), ev.Capacity, ev.CreatedBy)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrEventExists
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	ev.ID = uint64(id)

	if err := createSeatRangeTx(ctx, tx, ev.ID, 1, ev.Capacity); err != nil {
		return err
	}

	if err := tx.QueryRowContext(ctx, `SELECT created_at FROM events WHERE id = ?`, ev.ID).
		Scan(&ev.CreatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID retrieves a single event.  It returns ErrEventNotFound when
// no row exists.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	const q = `SELECT id, name, venue, description, start_time, end_time, capacity, created_by, created_at
	           FROM events WHERE id = ?`
	var ev model.Event
	var venue, desc sql.NullString
	var endTime sql.NullTime
	var createdBy sql.NullInt64
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&ev.ID, &ev.Name, &venue, &desc, &ev.StartTime, &endTime, &ev.Capacity, &createdBy, &ev.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	if venue.Valid {
		v := venue.String
		ev.Venue = &v
	}
	if desc.Valid {
		d := desc.String
		ev.Description = &d
	}
	if endTime.Valid {
		t := endTime.Time
		ev.EndTime = &t
	}
	if createdBy.Valid {
		c := uint64(createdBy.Int64)
		ev.CreatedBy = &c
	}
	return &ev, nil
}

// EventFilter narrows List results.  Name and Venue match as
// case-insensitive substrings; From/To bound the event start time.
type EventFilter struct {
	Name   string
	Venue  string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// List returns events matching the filter ordered by start time
// ascending.  An empty filter lists everything up to the limit.
func (r *EventRepo) List(ctx context.Context, f EventFilter) ([]model.Event, error) {
	query := `SELECT id, name, venue, description, start_time, end_time, capacity, created_by, created_at
	          FROM events WHERE 1=1`
	args := make([]interface{}, 0, 6)
	if f.Name != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+f.Name+"%")
	}
	if f.Venue != "" {
		query += ` AND venue LIKE ?`
		args = append(args, "%"+f.Venue+"%")
	}
	if f.From != nil {
		query += ` AND start_time >= ?`
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		query += ` AND start_time <= ?`
		args = append(args, f.To.UTC())
	}
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	query += ` ORDER BY start_time ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		var ev model.Event
		var venue, desc sql.NullString
		var endTime sql.NullTime
		var createdBy sql.NullInt64
		if err := rows.Scan(&ev.ID, &ev.Name, &venue, &desc, &ev.StartTime, &endTime,
			&ev.Capacity, &createdBy, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if venue.Valid {
			v := venue.String
			ev.Venue = &v
		}
		if desc.Valid {
			d := desc.String
			ev.Description = &d
		}
		if endTime.Valid {
			t := endTime.Time
			ev.EndTime = &t
		}
		if createdBy.Valid {
			c := uint64(createdBy.Int64)
			ev.CreatedBy = &c
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Update applies an EventUpdate inside one transaction.  The event row
// is locked FOR UPDATE so a concurrent capacity change cannot produce
// duplicate seat numbers.  Growing the capacity appends seats numbered
// old+1..new; shrinking returns ErrConflict.  It returns the updated
// event or ErrEventNotFound.
func (r *EventRepo) Update(ctx context.Context, id uint64, upd EventUpdate) (*model.Event, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const q = `SELECT capacity FROM events WHERE id = ? FOR UPDATE`
	var capacity uint32
	if err := tx.QueryRowContext(ctx, q, id).Scan(&capacity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	sets := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Venue != nil {
		sets = append(sets, "venue = ?")
		args = append(args, *upd.Venue)
	}
	if upd.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *upd.Description)
	}
	if upd.StartTime != nil {
		sets = append(sets, "start_time = ?")
		args = append(args, upd.StartTime.UTC())
	}
	if upd.EndTime != nil {
		sets = append(sets, "end_time = ?")
		args = append(args, upd.EndTime.UTC())
	}
	if upd.Capacity != nil {
		if *upd.Capacity < capacity {
			// Seat numbers are stable and never reclaimed, so capacity
			// is immutable downward.
			return nil, ErrConflict
		}
		if *upd.Capacity > capacity {
			if err := createSeatRangeTx(ctx, tx, id, capacity+1, *upd.Capacity); err != nil {
				return nil, err
			}
			sets = append(sets, "capacity = ?")
			args = append(args, *upd.Capacity)
		}
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := tx.ExecContext(ctx, `UPDATE events SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			if strings.Contains(strings.ToLower(err.Error()), "1062") {
				return nil, ErrEventExists
			}
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return r.GetByID(ctx, id)
}

// Delete removes an event.  Seats go with it via ON DELETE CASCADE;
// bookings keep their history rows with a nulled event reference via
// ON DELETE SET NULL.  Returns ErrEventNotFound when nothing matched.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// createSeatRangeTx bulk-inserts seats numbered from..to (inclusive)
// for the event within the provided transaction.  Passing an empty
// range has no effect and returns nil.
func createSeatRangeTx(ctx context.Context, tx *sql.Tx, eventID uint64, from, to uint32) error {
	if to < from {
		return nil
	}
	query := `INSERT INTO seats (event_id, seat_number, status) VALUES `
	args := make([]interface{}, 0, int(to-from+1)*3)
	for n := from; n <= to; n++ {
		if n > from {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, eventID, n, model.SeatAvailable)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// nullableTime converts an optional time into a driver-friendly value
// normalized to UTC.
func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
