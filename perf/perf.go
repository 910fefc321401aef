// Package perf defines the measured-performance vector attached to a
// vertex: one value per objective, which may be finite, +Inf (rejected or
// otherwise invalid), or NaN (not yet measured).
package perf

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Perf holds the per-objective performance values measured for a trial.
type Perf struct {
	Obj []float64
}

// New allocates a Perf with n objectives, all initialized to NaN (not yet
// measured).
func New(n int) Perf {
	p := Perf{Obj: make([]float64, n)}
	p.Reset()
	return p
}

// Reset sets every objective to NaN, the "not yet measured" state.
func (p Perf) Reset() {
	for i := range p.Obj {
		p.Obj[i] = math.NaN()
	}
}

// Invalidate sets every objective to +Inf, the rejection/penalty state.
func (p Perf) Invalidate() {
	for i := range p.Obj {
		p.Obj[i] = math.Inf(1)
	}
}

// Clone returns a deep copy of p.
func (p Perf) Clone() Perf {
	out := Perf{Obj: make([]float64, len(p.Obj))}
	copy(out.Obj, p.Obj)
	return out
}

// CopyFrom overwrites p's objectives with src's. Lengths must match;
// CopyFrom panics otherwise.
func (p Perf) CopyFrom(src Perf) {
	if len(p.Obj) != len(src.Obj) {
		panic("perf: CopyFrom length mismatch")
	}
	copy(p.Obj, src.Obj)
}

// Worse reports whether a is a worse outcome than b for a single objective,
// treating NaN ("not yet measured") as worse than any value, including
// +Inf, and +Inf ("invalid") as worse than any finite value.
func Worse(a, b float64) bool {
	if math.IsNaN(a) {
		return !math.IsNaN(b)
	}
	if math.IsNaN(b) {
		return false
	}
	return a > b
}

// Less is the strict "a is a better outcome than b" complement of Worse,
// used by the simplex algorithms' ranking comparisons.
func Less(a, b float64) bool {
	return Worse(b, a)
}

// Unify collapses a performance vector to a single scalar via a weighted
// sum, used only by baseline strategies and the best-tracking shortcut; the
// simplex algorithms themselves always compare Obj[phase] directly and
// never call Unify.
func Unify(p Perf, weights []float64) float64 {
	if len(weights) == 0 {
		return floats.Sum(p.Obj)
	}
	return floats.Dot(p.Obj, weights)
}
