// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a seat claim commits.  It
// contains enough information for downstream consumers to log, notify
// or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID  uint64 `json:"booking_id"`
	UserID     uint64 `json:"user_id"`
	EventID    uint64 `json:"event_id"`
	EventName  string `json:"event_name"`
	Venue      string `json:"venue,omitempty"`
	SeatNumber uint32 `json:"seat_number"`
	BookedAt   string `json:"booked_at"`
}

// WaitlistPromotedEvent is the advisory promotion notice sent to the
// notification collaborator after a cancellation frees a seat.  It
// does not reserve anything: the promoted user must still claim the
// seat themselves.
type WaitlistPromotedEvent struct {
	EventID    uint64 `json:"event_id"`
	UserID     uint64 `json:"user_id"`
	Email      string `json:"email"`
	PromotedAt string `json:"promoted_at"`
}

// Queue names.  Both queues are declared durable by publishers and
// consumers alike so declaration stays idempotent.
const (
	BookingConfirmedQueue = "booking.confirmed"
	WaitlistPromotedQueue = "waitlist.promoted"
)
