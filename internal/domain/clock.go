package domain

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so tests can freeze time via SetClock.
// Factor derivation falls back to the current time when a catalog is empty;
// tests inject a fake clock for deterministic levels.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for factor derivation. Pass nil to reset to
// real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
