// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to operate on a resource owned by someone else, while
// ErrConflict signals that an operation cannot proceed due to existing
// dependent records (e.g. deleting a show with live reservations).
package repository

import "errors"

// ErrEmailExists is returned when registration hits the unique email
// constraint. Handlers should translate this into an HTTP 409 response.
var ErrEmailExists = errors.New("email already exists")

// ErrShowNotFound indicates that a show was not located in the DB.
var ErrShowNotFound = errors.New("show not found")

// ErrReservationNotFound indicates that a reservation was not located
// in the DB.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrInsufficientSeats is returned when a reservation requests more
// seats than the show has available. The conditional seat decrement
// guarantees that no mutation is committed when this error occurs.
var ErrInsufficientSeats = errors.New("insufficient seats")

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete cannot be performed because of
// conflicting state, such as attempting to delete a show that still
// has reservations. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// TimeLayout is the DATETIME format used for every timestamp stored by
// the repositories. All values are UTC.
const TimeLayout = "2006-01-02 15:04:05"
