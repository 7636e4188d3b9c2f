// Package service orchestrates the seat-claim, cancellation and
// waitlist protocols.  Correctness under concurrent demand rests
// entirely on row-level exclusive locks taken inside one transaction
// per operation; there are no application-level mutexes.  Everything
// that happens after a commit (cache invalidation, notifications,
// waitlist promotion) is best-effort and can never undo the write.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/evently/internal/cache"
	"github.com/iliyamo/evently/internal/model"
	q "github.com/iliyamo/evently/internal/queue"
	"github.com/iliyamo/evently/internal/repository"
)

// ReservationService performs seat claims.  All repositories share the
// db handle the transactions are opened on.
type ReservationService struct {
	db       *sql.DB
	events   *repository.EventRepo
	seats    *repository.SeatRepo
	bookings *repository.BookingRepo
	inval    *cache.Invalidator
	notifier Notifier
}

// NewReservationService wires a ReservationService.  The invalidator
// and notifier may be nil-valued no-ops but the repositories must not.
func NewReservationService(db *sql.DB, events *repository.EventRepo, seats *repository.SeatRepo,
	bookings *repository.BookingRepo, inval *cache.Invalidator, notifier Notifier) *ReservationService {
	if db == nil || events == nil || seats == nil || bookings == nil {
		panic("nil dependency passed to NewReservationService")
	}
	return &ReservationService{
		db:       db,
		events:   events,
		seats:    seats,
		bookings: bookings,
		inval:    inval,
		notifier: notifier,
	}
}

// Claim books one seat of an event for a user.  It returns the new
// ledger row and the seat number on success.
//
// The capacity check up front is advisory only: it fails fast on an
// obviously full event but takes no lock.  Safety comes from the seat
// row lock inside the transaction: between the FOR UPDATE read and
// the commit no other claimant can observe or flip the same seat, so
// of N concurrent claims for one seat exactly one commits and the rest
// see a non-AVAILABLE status and get ErrConflict.  A failed claim
// leaves no partial state: the booking insert and the status flip
// commit or roll back together.
func (s *ReservationService) Claim(ctx context.Context, eventID uint64, seatNumber uint32, userID uint64) (*model.Booking, uint32, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}
	booked, err := s.bookings.CountBookedByEvent(ctx, eventID)
	if err != nil {
		return nil, 0, err
	}
	if booked >= ev.Capacity {
		return nil, 0, fmt.Errorf("%w: event capacity full", repository.ErrConflict)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	seat, err := s.seats.LockForClaimTx(ctx, tx, eventID, seatNumber)
	if err != nil {
		return nil, 0, err
	}
	if seat.Status != model.SeatAvailable {
		// Another transaction won the race or the seat was already
		// booked before we got here.
		return nil, 0, fmt.Errorf("%w: seat already booked", repository.ErrConflict)
	}
	if err := s.seats.UpdateStatusTx(ctx, tx, seat.ID, model.SeatBooked); err != nil {
		return nil, 0, err
	}
	booking := &model.Booking{
		UserID:  &userID,
		EventID: &eventID,
		SeatID:  &seat.ID,
		Status:  model.BookingBooked,
	}
	if err := s.bookings.CreateTx(ctx, tx, booking); err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(); err != nil {
		return nil, 0, err
	}
	committed = true

	// Post-commit side effects.  Both are best-effort: the claim is
	// durable at this point and their failure is logged only.
	s.inval.InvalidateBooking(ctx, eventID, userID)
	if s.notifier != nil {
		venue := ""
		if ev.Venue != nil {
			venue = *ev.Venue
		}
		notice := q.BookingConfirmedEvent{
			BookingID:  booking.ID,
			UserID:     userID,
			EventID:    eventID,
			EventName:  ev.Name,
			Venue:      venue,
			SeatNumber: seat.SeatNumber,
			BookedAt:   time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.notifier.BookingConfirmed(ctx, notice); err != nil {
			log.Printf("reservation: booking.confirmed publish failed: %v", err)
		}
	}
	return booking, seat.SeatNumber, nil
}
