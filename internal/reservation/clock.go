package reservation

import "time"

// Clock supplies the current time to the engine.  Validation such as
// "slot must not be in the past" and token expiry checks go through
// this interface instead of time.Now so the state machine is
// deterministic under test.
type Clock interface {
	Now() time.Time
}

// utcClock is the production clock; it always reports UTC.
type utcClock struct{}

func (utcClock) Now() time.Time { return time.Now().UTC() }
