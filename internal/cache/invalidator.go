package cache

import (
	"context"
	"strconv"
)

// Invalidator purges the derived read views whose keys are namespaced
// under an event or user after any state-mutating operation.  It is a
// scoped dependency passed explicitly to services and handlers, never
// a process-wide singleton, so the core stays testable without a live
// cache.  Like the Store it wraps, it never returns an error: cache
// invalidation is fire-and-forget relative to the committed write.
type Invalidator struct {
	store *Store
}

// NewInvalidator returns an Invalidator over the given store.
func NewInvalidator(store *Store) *Invalidator { return &Invalidator{store: store} }

// InvalidateBooking purges every read view touched by a booking or
// cancellation: the user's booking list plus all views of the event.
func (i *Invalidator) InvalidateBooking(ctx context.Context, eventID, userID uint64) {
	if i == nil || i.store == nil {
		return
	}
	i.store.DeleteByPrefix(ctx, Key("user:bookings", strconv.FormatUint(userID, 10)))
	i.InvalidateEvent(ctx, eventID)
}

// InvalidateEvent purges the event detail, seat list and booking list
// views of a single event.  Capacity changes and event deletion go
// through here as well.
func (i *Invalidator) InvalidateEvent(ctx context.Context, eventID uint64) {
	if i == nil || i.store == nil {
		return
	}
	id := strconv.FormatUint(eventID, 10)
	i.store.DeleteByPrefix(ctx, Key("event", id))
	i.store.DeleteByPrefix(ctx, Key("event:bookings", id))
	i.store.DeleteByPrefix(ctx, Key("event:seats", id))
}
