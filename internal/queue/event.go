// Package queue defines message payloads exchanged over the message broker.
package queue

// Event kinds published to the reservation.events queue.
const (
    EventReservationConfirmed = "reservation.confirmed"
    EventReservationCancelled = "reservation.cancelled"
)

// ReservationEvent is published when a reservation is confirmed or
// cancelled. It contains enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary database.
type ReservationEvent struct {
    Kind          string `json:"kind"`
    ReservationID uint64 `json:"reservation_id"`
    ShowID        uint64 `json:"show_id"`
    UserID        uint64 `json:"user_id"`
    Seats         uint32 `json:"seats"`
    OccurredAt    string `json:"occurred_at"`
}
