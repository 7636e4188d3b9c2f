package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/evently/internal/model"
)

// BookingRepo provides access to the booking ledger.  The ledger is
// append-mostly: rows are inserted on a successful claim and only ever
// transition to CANCELLED afterwards.  All timestamp fields are stored
// in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a new booking within the scope of an existing
// transaction.  It populates the generated ID and creation timestamp
// on the provided record.  The caller must commit or rollback the
// transaction.  Status should be a valid enumeration
// ('PENDING','BOOKED','CANCELLED').
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings (user_id, event_id, seat_id, status) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, b.UserID, b.EventID, b.SeatID, b.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return tx.QueryRowContext(ctx, `SELECT created_at FROM bookings WHERE id = ?`, b.ID).
		Scan(&b.CreatedAt)
}

// GetByID retrieves a booking without locking it.  Used by handlers to
// learn the event/user pair for cache invalidation before delegating
// the actual cancellation.  Returns ErrBookingNotFound when absent.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT id, user_id, event_id, seat_id, status, created_at FROM bookings WHERE id = ?`
	return r.scanBooking(r.db.QueryRowContext(ctx, q, id))
}

// LockByIDTx locates the booking by id and acquires an exclusive row
// lock with SELECT ... FOR UPDATE so that concurrent cancellations of
// the same booking serialize.  Returns ErrBookingNotFound when absent.
func (r *BookingRepo) LockByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	const q = `SELECT id, user_id, event_id, seat_id, status, created_at
	           FROM bookings WHERE id = ? FOR UPDATE`
	return r.scanBooking(tx.QueryRowContext(ctx, q, id))
}

// UpdateStatusTx sets the status of a locked booking within the
// provided transaction.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, status, id)
	return err
}

// CountBookedByEvent returns the number of BOOKED ledger rows for an
// event.  The reservation service uses it as the advisory fail-fast
// capacity check before taking any lock; the seat row lock, not this
// count, is the safety mechanism.
func (r *BookingRepo) CountBookedByEvent(ctx context.Context, eventID uint64) (uint32, error) {
	const q = `SELECT COUNT(*) FROM bookings WHERE event_id = ? AND status = ?`
	var n uint32
	err := r.db.QueryRowContext(ctx, q, eventID, model.BookingBooked).Scan(&n)
	return n, err
}

// BookingDetail is the read view of a booking joined with its event
// and seat, returned to customers listing their bookings.
type BookingDetail struct {
	BookingID  uint64    `json:"booking_id"`
	EventID    uint64    `json:"event_id"`
	EventName  string    `json:"event_name"`
	Venue      *string   `json:"venue,omitempty"`
	SeatNumber uint32    `json:"seat_number"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListByUser returns all bookings of a user together with event and
// seat details, newest first.  Rows whose event or seat was deleted
// are skipped: they remain in the ledger but have nothing to display.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, e.id, e.name, e.venue, s.seat_number, b.status, b.created_at
	           FROM bookings b
	           JOIN events e ON e.id = b.event_id
	           JOIN seats s ON s.id = b.seat_id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		var venue sql.NullString
		if err := rows.Scan(&d.BookingID, &d.EventID, &d.EventName, &venue,
			&d.SeatNumber, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		if venue.Valid {
			v := venue.String
			d.Venue = &v
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// ListBookedByEvent returns the active (BOOKED) ledger rows for an
// event, ordered by seat number, for the event bookings read view.
func (r *BookingRepo) ListBookedByEvent(ctx context.Context, eventID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, e.id, e.name, e.venue, s.seat_number, b.status, b.created_at
	           FROM bookings b
	           JOIN events e ON e.id = b.event_id
	           JOIN seats s ON s.id = b.seat_id
	           WHERE b.event_id = ? AND b.status = ?
	           ORDER BY s.seat_number`
	rows, err := r.db.QueryContext(ctx, q, eventID, model.BookingBooked)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	for rows.Next() {
		var d BookingDetail
		var venue sql.NullString
		if err := rows.Scan(&d.BookingID, &d.EventID, &d.EventName, &venue,
			&d.SeatNumber, &d.Status, &d.CreatedAt); err != nil {
			return nil, err
		}
		if venue.Valid {
			v := venue.String
			d.Venue = &v
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// rowScanner is satisfied by *sql.Row; it lets scanBooking serve both
// locked and unlocked lookups.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *BookingRepo) scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	var userID, eventID, seatID sql.NullInt64
	err := row.Scan(&b.ID, &userID, &eventID, &seatID, &b.Status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if userID.Valid {
		u := uint64(userID.Int64)
		b.UserID = &u
	}
	if eventID.Valid {
		e := uint64(eventID.Int64)
		b.EventID = &e
	}
	if seatID.Valid {
		s := uint64(seatID.Int64)
		b.SeatID = &s
	}
	return &b, nil
}
