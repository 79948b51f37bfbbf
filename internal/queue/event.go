// Package queue defines message payloads exchanged over the message broker.
package queue

// Event kinds carried in ReservationEvent.Kind.
const (
	KindReservationConfirmed   = "reservation.confirmed"
	KindReservationCancelled   = "reservation.cancelled"
	KindReservationRescheduled = "reservation.rescheduled"
)

// ReservationEvent is published after a reservation decision commits.
// It carries a snapshot of the booking and its slot plus the
// cancellation link, so downstream consumers (email/SMS senders,
// analytics) can act without querying the primary database.  Delivery
// is best-effort; the reservation outcome is already durable when the
// event is emitted.
type ReservationEvent struct {
	Kind          string `json:"kind"`
	BookingID     string `json:"booking_id"`
	BookingStatus string `json:"booking_status"`
	ClientID      string `json:"client_id"`
	SlotID        string `json:"slot_id"`
	ProviderID    string `json:"provider_id"`
	ServiceID     string `json:"service_id"`
	StartAt       string `json:"start_at"`
	EndAt         string `json:"end_at"`
	CancelLink    string `json:"cancel_link,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
