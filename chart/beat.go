package chart

import "fmt"

// fixedPoint is the beat subdivision resolution. 48 divides evenly by
// halves, thirds, quarters, sixths, eighths, twelfths and sixteenths,
// which covers every snap StepMania can represent.
const fixedPoint = 48

// BeatPos is an absolute position in beats, where 0 is the first beat of
// the song. Stored as 1/48ths of a beat so equality and ordering are exact.
type BeatPos struct {
	frac int32
}

// BeatEpsilon is the smallest representable beat step.
var BeatEpsilon = BeatPos{frac: 1}

// BeatsFromFloat rounds a floating beat number to the nearest position.
func BeatsFromFloat(beats float64) BeatPos {
	return BeatPos{frac: int32(beats*fixedPoint + roundBias(beats))}
}

func roundBias(v float64) float64 {
	if v < 0 {
		return -0.5
	}
	return 0.5
}

// Frac returns the raw position in 1/48ths of a beat. Serializers use it
// to place notes on exact grid rows.
func (b BeatPos) Frac() int32 { return b.frac }

// FixedPoint is the number of fractions in one beat, as returned by Frac.
const FixedPoint = fixedPoint

// Float returns the beat number as a float64.
func (b BeatPos) Float() float64 {
	return float64(b.frac) / fixedPoint
}

// Add returns b + o.
func (b BeatPos) Add(o BeatPos) BeatPos { return BeatPos{frac: b.frac + o.frac} }

// Sub returns b - o.
func (b BeatPos) Sub(o BeatPos) BeatPos { return BeatPos{frac: b.frac - o.frac} }

// Less reports b < o.
func (b BeatPos) Less(o BeatPos) bool { return b.frac < o.frac }

// LessEq reports b <= o.
func (b BeatPos) LessEq(o BeatPos) bool { return b.frac <= o.frac }

// Equal reports b == o.
func (b BeatPos) Equal(o BeatPos) bool { return b.frac == o.frac }

// Round rounds to the nearest multiple of roundTo.
func (b BeatPos) Round(roundTo BeatPos) BeatPos {
	if roundTo.frac < 1 {
		roundTo = BeatEpsilon
	}
	frac := b.frac + roundTo.frac/2
	frac -= remEuclid(frac, roundTo.frac)
	return BeatPos{frac: frac}
}

// Floor rounds down to a multiple of roundTo.
func (b BeatPos) Floor(roundTo BeatPos) BeatPos {
	if roundTo.frac < 1 {
		roundTo = BeatEpsilon
	}
	return BeatPos{frac: b.frac - remEuclid(b.frac, roundTo.frac)}
}

// IsAligned reports whether b is a multiple of alignTo.
func (b BeatPos) IsAligned(alignTo BeatPos) bool {
	if alignTo.frac < 1 {
		return true
	}
	return b.frac%alignTo.frac == 0
}

// Denominator returns the denominator of the most-simplified form of this
// beat fraction (eg. 1/2 -> 2, 3/4 -> 4, 0/1 -> 1, 19/16 -> 16).
func (b BeatPos) Denominator() int32 {
	num := b.frac
	den := int32(fixedPoint)
	for _, factor := range []int32{2, 3} {
		for num%factor == 0 && den%factor == 0 {
			num /= factor
			den /= factor
		}
	}
	return den
}

func remEuclid(a, b int32) int32 {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

func (b BeatPos) String() string {
	return fmt.Sprintf("%g", b.Float())
}
