package model

import "time"

// Slot statuses.  A slot is OPEN while it can be claimed and BOOKED
// while exactly one confirmed booking occupies it.  There are no other
// states; cancellation returns a slot to OPEN rather than introducing
// a third status.
const (
	SlotStatusOpen   = "OPEN"
	SlotStatusBooked = "BOOKED"
)

// Slot represents a bookable time window published by a provider.
// While the slot is BOOKED, BookingID references the single confirmed
// booking occupying it; while OPEN the reference is nil.  Only the
// reservation engine may move a slot between the two states, and only
// through the conditional claim/release statements in the repository.
//
// Fields:
//  ID         – primary key identifier (UUID).
//  ProviderID – provider who published the slot.
//  ServiceID  – service being offered in this window.
//  StaffID    – optional staff member assigned to the window.
//  StartAt    – beginning of the window (UTC).
//  EndAt      – end of the window (UTC); always after StartAt.
//  Status     – OPEN or BOOKED.
//  BookingID  – occupying booking while BOOKED (nullable).
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Slot struct {
	ID         string    // slots.id
	ProviderID string    // slots.provider_id
	ServiceID  string    // slots.service_id
	StaffID    *string   // slots.staff_id (nullable)
	StartAt    time.Time // slots.start_at
	EndAt      time.Time // slots.end_at
	Status     string    // slots.status
	BookingID  *string   // slots.booking_id (nullable)
	CreatedAt  time.Time // slots.created_at
	UpdatedAt  time.Time // slots.updated_at
}

// Open reports whether the slot can currently be claimed.
func (s *Slot) Open() bool { return s.Status == SlotStatusOpen }
