package ledger

import "time"

// Clock supplies the authoritative current time. The engine reads it exactly
// once per operation.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the host clock.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
