package reservation

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// TokenTTL is how long a cancellation token remains redeemable after
// the booking is created.
const TokenTTL = 24 * time.Hour

// NewCancelToken generates the single-use cancellation secret stored
// on a booking.  32 bytes of cryptographically secure randomness are
// hex-encoded into a 64 character string, which is far beyond
// enumerable and carries no structure to guess.  Uniqueness is
// additionally enforced by the UNIQUE constraint on the column.
func NewCancelToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
