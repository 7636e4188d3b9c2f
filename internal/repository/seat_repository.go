package repository // repository defines data access for seats

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/evently/internal/model"
)

// SeatRepo provides methods to work with seats in the database.  The
// seat row is the unit of mutual exclusion for the claim protocol:
// LockForClaimTx acquires an exclusive row lock so that "check status,
// then flip it" is atomic across concurrent claimants of the same seat
// number.  Claimants of different seat numbers never contend.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// ListByEvent retrieves all seats of an event ordered by seat number.
func (r *SeatRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Seat, error) {
	const q = `SELECT id, event_id, seat_number, status, created_at
	           FROM seats
	           WHERE event_id = ?
	           ORDER BY seat_number`
	rows, err := r.db.QueryContext(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.EventID, &s.SeatNumber, &s.Status, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// LockForClaimTx locates the seat by (event_id, seat_number) and
// acquires an exclusive row lock with SELECT ... FOR UPDATE.  Any
// other transaction locking the same row blocks until this one ends.
// It returns ErrSeatNotFound when the seat does not exist.  The caller
// must commit or roll back the transaction to release the lock.
func (r *SeatRepo) LockForClaimTx(ctx context.Context, tx *sql.Tx, eventID uint64, seatNumber uint32) (*model.Seat, error) {
	const q = `SELECT id, event_id, seat_number, status, created_at
	           FROM seats
	           WHERE event_id = ? AND seat_number = ?
	           FOR UPDATE`
	var s model.Seat
	err := tx.QueryRowContext(ctx, q, eventID, seatNumber).
		Scan(&s.ID, &s.EventID, &s.SeatNumber, &s.Status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// LockByIDTx acquires an exclusive row lock on a seat by primary key.
// Used by cancellation, which reaches the seat through the booking's
// seat_id rather than by number.  Returns ErrSeatNotFound when the
// seat no longer exists.
func (r *SeatRepo) LockByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Seat, error) {
	const q = `SELECT id, event_id, seat_number, status, created_at
	           FROM seats
	           WHERE id = ?
	           FOR UPDATE`
	var s model.Seat
	err := tx.QueryRowContext(ctx, q, id).
		Scan(&s.ID, &s.EventID, &s.SeatNumber, &s.Status, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeatNotFound
		}
		return nil, err
	}
	return &s, nil
}

// UpdateStatusTx sets the status of a locked seat within the provided
// transaction.  Callers must hold the row lock obtained by one of the
// Lock*Tx methods before flipping the status.
func (r *SeatRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE seats SET status = ? WHERE id = ?`, status, id)
	return err
}
