package pipeline

import (
	"math"
	"math/rand"

	"github.com/negamartin/osu2sm/curve"
	"github.com/negamartin/osu2sm/errors"
)

// DefaultWeightCurve maps seconds-since-last-active to choice weight.
// Keys that just played weigh almost nothing, so jacks only appear when
// every column is busy.
var DefaultWeightCurve = [][2]float64{{0, 1}, {0.4, 10}, {0.8, 200}, {1.4, 300}}

// KeyAlloc chooses output columns with recency-weighted randomness. A
// key's weight is the curve evaluated at the time since the key was last
// active; keys never touched sit at -inf and get the curve's far-end
// weight.
//
// One KeyAlloc instance covers one chart conversion; it is not safe for
// concurrent use.
type KeyAlloc struct {
	weights    *curve.Curve
	lastActive []float64
}

// NewKeyAlloc builds an allocator over keyCount output columns.
func NewKeyAlloc(weights *curve.Curve, keyCount int) *KeyAlloc {
	last := make([]float64, keyCount)
	for i := range last {
		last[i] = math.Inf(-1)
	}
	return &KeyAlloc{weights: weights, lastActive: last}
}

// Touch records that the key was active at the given time in seconds.
func (a *KeyAlloc) Touch(key int, time float64) {
	a.lastActive[key] = time
}

// Weight returns the key's current choice weight.
func (a *KeyAlloc) Weight(key int, now float64) float64 {
	return a.weights.Eval(now - a.lastActive[key])
}

// Alloc picks one key from the candidate set, weighted by inactivity, and
// touches it. Returns false when no candidate can be chosen (empty set or
// all weights zero); callers drop the note in that case.
func (a *KeyAlloc) Alloc(candidates []int, now float64, rng *rand.Rand) (int, bool) {
	total := 0.0
	for _, key := range candidates {
		total += a.Weight(key, now)
	}
	if len(candidates) == 0 || total <= 0 {
		return 0, false
	}
	r := rng.Float64() * total
	for _, key := range candidates {
		r -= a.Weight(key, now)
		if r < 0 {
			a.Touch(key, now)
			return key, true
		}
	}
	// Float round-off: the last candidate absorbs the remainder.
	key := candidates[len(candidates)-1]
	a.Touch(key, now)
	return key, true
}

// AllocN picks n distinct keys by weighted sampling without replacement,
// touching each. Asking for more keys than there are candidates is a
// transform error; all candidates are returned so the caller can fall
// back to using every column.
func (a *KeyAlloc) AllocN(candidates []int, n int, now float64, rng *rand.Rand) ([]int, error) {
	if n > len(candidates) {
		out := append([]int(nil), candidates...)
		for _, key := range out {
			a.Touch(key, now)
		}
		return out, errors.NewTransformError(
			"%d keys wanted but only %d columns available", n, len(candidates))
	}
	pool := append([]int(nil), candidates...)
	out := make([]int, 0, n)
	for len(out) < n {
		key, ok := a.Alloc(pool, now, rng)
		if !ok {
			// All remaining weights are zero; take them in order.
			need := n - len(out)
			for _, k := range pool[:need] {
				a.Touch(k, now)
			}
			out = append(out, pool[:need]...)
			break
		}
		out = append(out, key)
		for i, k := range pool {
			if k == key {
				pool = append(pool[:i], pool[i+1:]...)
				break
			}
		}
	}
	return out, nil
}
