// Package timing turns jittery per-cycle timestamps into a smoothly advancing logical clock.
package timing

import (
	"time"
)

// settleCycles is the number of cycles after a reset during which a slow clock is not corrected.
const settleCycles = 2

// Normalizer damps small timing jitter of a cyclic caller. Each raw timestamp is compared with the
// previous logical timestamp: a cycle that took at least 110% of the nominal period advances the
// logical clock by exactly 105% of it, and a cycle that took at most 90% advances it by 95%.
// Anything in between passes through unchanged.
//
// A Normalizer is not safe for concurrent use.
type Normalizer struct {
	period time.Duration

	higherBound     time.Duration
	higherIncrement time.Duration
	lowerBound      time.Duration
	lowerIncrement  time.Duration

	last   time.Time
	seeded bool
	cycles int
}

// NewNormalizer returns a Normalizer for a control loop with the given nominal period. A period
// that is not positive disables normalization.
func NewNormalizer(period time.Duration) *Normalizer {
	if period < 0 {
		period = 0
	}
	return &Normalizer{
		period:          period,
		higherBound:     period * 110 / 100,
		higherIncrement: period * 105 / 100,
		lowerBound:      period * 90 / 100,
		lowerIncrement:  period * 95 / 100,
	}
}

// Reset seeds the logical clock with now and restarts the settling period.
func (n *Normalizer) Reset(now time.Time) {
	n.last = now
	n.seeded = true
	n.cycles = 0
}

// Normalize returns the logical time for a cycle whose raw timestamp is raw.
func (n *Normalizer) Normalize(raw time.Time) time.Time {
	if !n.seeded {
		// nothing to compare against yet
		n.Reset(raw)
	}

	elapsed := raw.Sub(n.last)
	logical := raw
	switch {
	case n.higherBound > 0 && elapsed >= n.higherBound:
		logical = n.last.Add(n.higherIncrement)
	case n.lowerBound > 0 && elapsed <= n.lowerBound && n.cycles >= settleCycles:
		logical = n.last.Add(n.lowerIncrement)
	}

	if n.cycles < settleCycles {
		n.cycles++
	}
	n.last = logical
	return logical
}

// Period returns the nominal period the Normalizer was built with.
func (n *Normalizer) Period() time.Duration {
	return n.period
}

// Last returns the most recent logical time, and whether there is one.
func (n *Normalizer) Last() (time.Time, bool) {
	return n.last, n.seeded
}

// Bounds returns the dead-band limits: cycles shorter than lower or longer than higher are
// corrected.
func (n *Normalizer) Bounds() (lower, higher time.Duration) {
	return n.lowerBound, n.higherBound
}
