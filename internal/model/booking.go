package model

import "time"

// Booking statuses.  A booking is terminal once CANCELLED; cancelling
// it a second time is an error, never a silent no-op.
const (
	BookingPending   = "PENDING"
	BookingBooked    = "BOOKED"
	BookingCancelled = "CANCELLED"
)

// Booking is one row of the booking ledger (`bookings` table).  The
// ledger is append-mostly: rows are inserted on a successful claim and
// only ever transition BOOKED -> CANCELLED afterwards.  The user, event
// and seat references are nullable so the row survives deletion of any
// referent as history.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – user who claimed the seat (nullable on user deletion).
//  EventID   – event the seat belongs to (nullable on event deletion).
//  SeatID    – claimed seat (nullable on seat deletion).
//  Status    – PENDING, BOOKED or CANCELLED.
//  CreatedAt – creation timestamp.
type Booking struct {
	ID        uint64    // bookings.id
	UserID    *uint64   // bookings.user_id (nullable)
	EventID   *uint64   // bookings.event_id (nullable)
	SeatID    *uint64   // bookings.seat_id (nullable)
	Status    string    // bookings.status
	CreatedAt time.Time // bookings.created_at
}
