package ports

import (
	"math/rand"
)

// RNGPort provides random streams for the placeholder prediction policy
type RNGPort interface {
	// Stream returns a generator for one named operation. A zero seed asks
	// for a non-deterministic stream.
	Stream(name string, seed int64) *rand.Rand
}
