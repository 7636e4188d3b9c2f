package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/evently/internal/model"
	q "github.com/iliyamo/evently/internal/queue"
	"github.com/iliyamo/evently/internal/repository"
	"github.com/iliyamo/evently/internal/waitlist"
)

// WaitlistService admits users to a full event's waitlist and promotes
// the earliest of them when a seat frees up.  The waitlist lives in
// redis, independently of the seat/booking transaction: promotion is a
// notification hand-off, not a reservation hold, so a freed seat can
// legitimately be claimed by anyone before the promoted user acts.
type WaitlistService struct {
	events   *repository.EventRepo
	bookings *repository.BookingRepo
	users    *repository.UserRepo
	store    *waitlist.Store
	notifier Notifier
}

// NewWaitlistService wires a WaitlistService.
func NewWaitlistService(events *repository.EventRepo, bookings *repository.BookingRepo,
	users *repository.UserRepo, store *waitlist.Store, notifier Notifier) *WaitlistService {
	if events == nil || bookings == nil || users == nil || store == nil {
		panic("nil dependency passed to NewWaitlistService")
	}
	return &WaitlistService{
		events:   events,
		bookings: bookings,
		users:    users,
		store:    store,
		notifier: notifier,
	}
}

// Join adds the user to the event's waitlist.  Joining only makes
// sense for a full event: while booked < capacity the request is
// rejected with ErrConflict because the user can simply claim a seat.
// The admission timestamp becomes the FIFO ordering score and the
// entry expires 100 hours later.
func (s *WaitlistService) Join(ctx context.Context, eventID, userID uint64) (model.WaitlistEntry, error) {
	ev, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		return model.WaitlistEntry{}, err
	}
	booked, err := s.bookings.CountBookedByEvent(ctx, eventID)
	if err != nil {
		return model.WaitlistEntry{}, err
	}
	if booked < ev.Capacity {
		return model.WaitlistEntry{}, fmt.Errorf("%w: more seats can be booked", repository.ErrConflict)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.WaitlistEntry{}, err
	}
	return s.store.Add(ctx, eventID, userID, user.Email)
}

// PeekEarliest exposes the next live entry without consuming it.
func (s *WaitlistService) PeekEarliest(ctx context.Context, eventID uint64) (*model.WaitlistEntry, error) {
	return s.store.PeekEarliest(ctx, eventID)
}

// PromoteNext peeks the earliest live entry, notifies its user that
// capacity has freed up and removes the entry so it is never promoted
// twice.  It returns the promoted entry, or nil when the waitlist was
// empty and the seat simply re-enters the general pool.  The
// notification is advisory and requires no acknowledgement; a publish
// failure is logged and does not keep the entry on the list.
func (s *WaitlistService) PromoteNext(ctx context.Context, eventID uint64) (*model.WaitlistEntry, error) {
	entry, err := s.store.PeekEarliest(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	if s.notifier != nil {
		notice := q.WaitlistPromotedEvent{
			EventID:    entry.EventID,
			UserID:     entry.UserID,
			Email:      entry.Email,
			PromotedAt: time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.notifier.WaitlistPromoted(ctx, notice); err != nil {
			log.Printf("waitlist: promotion notice for user %d failed: %v", entry.UserID, err)
		}
	}
	if err := s.store.Remove(ctx, *entry); err != nil {
		return entry, err
	}
	return entry, nil
}
