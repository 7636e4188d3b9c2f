// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios and map
// them onto the NotFound / Conflict / Internal taxonomy the API
// exposes. ErrConflict covers every "expected loss" outcome: a seat
// that was already claimed, a booking that is already cancelled, or a
// waitlist join against an event that still has capacity.
package repository

import "errors"

// ErrEventNotFound is returned when an event lookup yields no rows.
var ErrEventNotFound = errors.New("event not found")

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// ErrBookingNotFound is returned when a booking lookup yields no rows.
var ErrBookingNotFound = errors.New("booking not found")

// ErrEventExists is returned when creating an event whose name is
// already taken. Handlers should translate this into an HTTP 409.
var ErrEventExists = errors.New("event name already exists")

// ErrConflict is returned when an operation cannot proceed because of
// conflicting state, such as claiming a seat that is no longer
// AVAILABLE or cancelling a booking twice. Handlers should translate
// this into an HTTP 409 response. Conflicts are expected outcomes and
// are never retried by the core.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when the caller attempts an operation
// reserved for another role, such as a non-admin mutating event
// metadata. Handlers should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")
