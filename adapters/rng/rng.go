// Package rng provides seeded random streams for the placeholder prediction
// policy.
package rng

import (
	"math/rand"
	"time"

	"riskfusion/ports"
)

// Adapter hands out one generator per named operation. The same name and a
// non-zero seed always yield the same sequence.
type Adapter struct{}

var _ ports.RNGPort = (*Adapter)(nil)

// New creates the RNG adapter
func New() *Adapter {
	return &Adapter{}
}

// Stream combines the seed with a hash of name. A zero seed is replaced by
// the clock.
func (a *Adapter) Stream(name string, seed int64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if name != "" {
		seed = int64(hashString(name)) + seed
	}
	return rand.New(rand.NewSource(seed))
}

// hashString is djb2
func hashString(s string) uint32 {
	hash := uint32(5381)
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c)
	}
	return hash
}
