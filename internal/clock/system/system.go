// Package system is the wall-clock implementation of crawler.Clock. Every
// timestamp the crawler persists (discovery, fetch, run start/finish) comes
// through here, so tests can substitute a fixed clock.
package system

import "time"

// Clock reads the system time.
type Clock struct{}

// New returns a Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC. Stored times are always UTC so the
// RFC 3339 strings in the index sort and compare correctly across runs.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}
