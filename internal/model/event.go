package model

import "time"

// Event represents a bookable event as stored in the `events` table.
// An event owns its seats and bookings: deleting an event removes its
// seats (CASCADE) while booking rows survive with a nulled event
// reference so the ledger keeps its history.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – unique event name.
//  Venue       – optional venue description.
//  Description – optional free-form text.
//  StartTime   – when the event begins.
//  EndTime     – when the event ends (nullable, must follow StartTime).
//  Capacity    – number of seats; may only ever grow.
//  CreatedBy   – user who created the event (nullable once the user is gone).
//  CreatedAt   – creation timestamp.
type Event struct {
	ID          uint64     `json:"id"`
	Name        string     `json:"name"`
	Venue       *string    `json:"venue,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Capacity    uint32     `json:"capacity"`
	CreatedBy   *uint64    `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
