package model

import "time"

// Booking statuses.  A booking is created CONFIRMED and can only move
// to CANCELLED; the transition is irreversible.
const (
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
)

// Booking records a client's confirmed claim on exactly one slot.
// While the booking is CONFIRMED its SlotID refers to a slot whose
// status is BOOKED.  The cancellation token is a single-use secret
// embedded in the confirmation email so that an unauthenticated
// recipient can cancel this specific booking before the token expires.
//
// Fields:
//  ID             – primary key identifier (UUID).
//  ClientID       – client the booking was made for.
//  SlotID         – slot occupied by this booking.
//  Status         – CONFIRMED or CANCELLED.
//  CancelToken    – unique random token for link-based cancellation.
//  TokenExpiresAt – when the cancellation token stops being accepted.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Booking struct {
	ID             string    // bookings.id
	ClientID       string    // bookings.client_id
	SlotID         string    // bookings.slot_id
	Status         string    // bookings.status
	CancelToken    string    // bookings.cancel_token
	TokenExpiresAt time.Time // bookings.token_expires_at
	CreatedAt      time.Time // bookings.created_at
	UpdatedAt      time.Time // bookings.updated_at
}

// Confirmed reports whether the booking still occupies its slot.
func (b *Booking) Confirmed() bool { return b.Status == BookingStatusConfirmed }
