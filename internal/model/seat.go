package model

import "time"

// Seat statuses.  A seat is the unit of mutual exclusion for the
// claim protocol: at most one in-flight transaction may hold its row
// lock, so "check status then flip it" is atomic across claimants.
const (
	SeatAvailable = "AVAILABLE"
	SeatBooked    = "BOOKED"
)

// Seat describes one numbered seat of an event as stored in the
// `seats` table.  Seat numbers run 1..capacity, are assigned when the
// event is created or its capacity grows, and are never reused or
// renumbered.
//
// Fields:
//  ID         – primary key identifier.
//  EventID    – event to which this seat belongs.
//  SeatNumber – stable number within the event (1..capacity).
//  Status     – AVAILABLE or BOOKED.
//  CreatedAt  – creation timestamp.
type Seat struct {
	ID         uint64    // seats.id
	EventID    uint64    // seats.event_id
	SeatNumber uint32    // seats.seat_number
	Status     string    // seats.status
	CreatedAt  time.Time // seats.created_at
}
