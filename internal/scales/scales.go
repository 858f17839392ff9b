// Package scales rounds raw map scales up to values that read well on a
// printed map ("1:25000" rather than "1:23817").
//
// Every Func returns a value at least as large as its input so that the map
// still fits its render area after rounding.
package scales

import "math"

// Func rounds a 1:x scale denominator. The result must be >= x.
type Func func(x float64) float64

// DefaultSequence is the sequence of normalized steps used by Default.
var DefaultSequence = []float64{1, 1.25, 1.5, 1.75, 2, 2.5, 3, 4, 5, 6, 7.5, 8, 9, 10}

// degMinSecSteps are the graticule steps in degrees, from one arc second
// up to sixty degrees.
var degMinSecSteps = []float64{
	1.0 / 3600,
	2.0 / 3600,
	5.0 / 3600,
	10.0 / 3600,
	30.0 / 3600,
	1.0 / 60,
	2.0 / 60,
	5.0 / 60,
	10.0 / 60,
	30.0 / 60,
	1,
	2,
	5,
	10,
	30,
	60,
}

// stepTolerance is the relative distance above a step still rounded to it.
const stepTolerance = 1e-9

// Any keeps the scale unchanged.
func Any(x float64) float64 {
	return x
}

// Sequence rounds x up to the smallest s*10^k with s taken from seq.
// seq must be sorted ascending and lie within [1, 10].
func Sequence(x float64, seq []float64) float64 {
	if x <= 0 || len(seq) == 0 || math.IsInf(x, 0) || math.IsNaN(x) {
		return x
	}
	factor := math.Floor(math.Log10(x))
	pow := math.Pow(10, factor)
	norm := x / pow

	for _, s := range seq {
		// values a rounding error above a step still take that step
		if norm <= s*(1+stepTolerance) {
			return math.Max(s*pow, x)
		}
	}
	return math.Max(seq[0]*pow*10, x)
}

// Default rounds x with DefaultSequence.
func Default(x float64) float64 {
	return Sequence(x, DefaultSequence)
}

// DegMinSec rounds a size in degrees to the next step that reads well in
// degrees, minutes and seconds. Values above sixty degrees are returned
// unchanged.
func DegMinSec(x float64) float64 {
	for _, s := range degMinSecSteps {
		if x < s {
			return s
		}
	}
	return math.Max(x, degMinSecSteps[len(degMinSecSteps)-1])
}

// SequenceFunc returns Sequence bound to seq as a Func.
func SequenceFunc(seq ...float64) Func {
	return func(x float64) float64 {
		return Sequence(x, seq)
	}
}
