package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/iliyamo/evently/internal/cache"
	"github.com/iliyamo/evently/internal/model"
	"github.com/iliyamo/evently/internal/repository"
)

// CancellationService releases booked seats and hands the freed
// capacity to the waitlist.  The cancellation itself is one
// transaction over the booking and seat rows; the promotion that
// follows is advisory and runs strictly after commit.
type CancellationService struct {
	db       *sql.DB
	bookings *repository.BookingRepo
	seats    *repository.SeatRepo
	inval    *cache.Invalidator
	waitlist *WaitlistService
}

// NewCancellationService wires a CancellationService.  The waitlist
// service may be nil when promotion is not wanted (tests).
func NewCancellationService(db *sql.DB, bookings *repository.BookingRepo, seats *repository.SeatRepo,
	inval *cache.Invalidator, waitlist *WaitlistService) *CancellationService {
	if db == nil || bookings == nil || seats == nil {
		panic("nil dependency passed to NewCancellationService")
	}
	return &CancellationService{
		db:       db,
		bookings: bookings,
		seats:    seats,
		inval:    inval,
		waitlist: waitlist,
	}
}

// Cancel releases the seat held by a BOOKED booking.  Within one
// transaction it locks the booking row, rejects anything not in
// status BOOKED, locks the seat, flips the seat back to AVAILABLE and
// the booking to CANCELLED, and commits both together, so a failed
// cancel leaves booking and seat exactly as they were.
//
// A PENDING booking yields ErrConflict ("not yet booked"); cancelling
// an already CANCELLED booking also yields ErrConflict; repeat
// cancellation is rejected, never silently accepted.  After commit the
// event/user caches are purged and the earliest waitlisted party is
// promoted; failures in either step are logged and never surface to
// the caller, because the cancellation is already durable.
func (s *CancellationService) Cancel(ctx context.Context, bookingID uint64) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	booking, err := s.bookings.LockByIDTx(ctx, tx, bookingID)
	if err != nil {
		return false, err
	}
	switch booking.Status {
	case model.BookingPending:
		return false, fmt.Errorf("%w: booking not yet booked", repository.ErrConflict)
	case model.BookingCancelled:
		return false, fmt.Errorf("%w: booking already cancelled", repository.ErrConflict)
	}
	if booking.SeatID == nil {
		return false, repository.ErrSeatNotFound
	}
	seat, err := s.seats.LockByIDTx(ctx, tx, *booking.SeatID)
	if err != nil {
		return false, err
	}
	if err := s.seats.UpdateStatusTx(ctx, tx, seat.ID, model.SeatAvailable); err != nil {
		return false, err
	}
	if err := s.bookings.UpdateStatusTx(ctx, tx, booking.ID, model.BookingCancelled); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	committed = true

	// Post-commit: freshen caches, then offer the freed seat to the
	// waitlist.  Neither step may fail the cancellation.
	if booking.EventID != nil {
		userID := uint64(0)
		if booking.UserID != nil {
			userID = *booking.UserID
		}
		s.inval.InvalidateBooking(ctx, *booking.EventID, userID)
		if s.waitlist != nil {
			if _, err := s.waitlist.PromoteNext(ctx, *booking.EventID); err != nil {
				log.Printf("cancellation: waitlist promotion failed: %v", err)
			}
		}
	}
	return true, nil
}
