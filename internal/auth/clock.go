// ABOUTME: Clock abstraction for challenge expiry
// ABOUTME: The system clock is the default; tests substitute a controllable one

package auth

import "time"

// Clock supplies the current time so expiry can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
