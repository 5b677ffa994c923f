package reading

import "github.com/jonboulle/clockwork"

// clock is a package-level time source so ProcessedAt stamps can be frozen
// in tests and fixture generation. Production code keeps the real clock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for enrichment. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
