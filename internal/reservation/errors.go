package reservation

import "errors"

// Engine-level sentinel errors.  Storage-state failures (not found,
// conflict, forbidden) reuse the repository sentinels; the values here
// cover validation outcomes the repositories cannot know about.
// Handlers translate all of these into HTTP 400 responses.
var (
	// ErrSlotInPast rejects booking a window that has already begun.
	ErrSlotInPast = errors.New("slot start time is in the past")

	// ErrServiceMismatch rejects a reschedule onto a slot that offers
	// a different service than the one originally booked.
	ErrServiceMismatch = errors.New("new slot offers a different service")

	// ErrTokenInvalid covers every failed token redemption: unknown
	// token and expired token alike, so the public endpoint does not
	// reveal which of the two it was.
	ErrTokenInvalid = errors.New("invalid or expired cancellation token")
)
