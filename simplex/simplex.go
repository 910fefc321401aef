// Package simplex implements simplex-level operations built on top of
// package vertex: construction of a regular Nelder-Mead simplex, centroid,
// element-wise transforms, and collapse/bounds tests.
package simplex

import (
	"errors"
	"fmt"
	"math"

	"github.com/BabaYara/harmony/space"
	"github.com/BabaYara/harmony/vertex"
)

// Simplex is an ordered set of K >= space.Len()+1 vertices.
type Simplex []vertex.Vertex

// Clone returns a deep copy of s.
func (s Simplex) Clone() Simplex {
	out := make(Simplex, len(s))
	for i, v := range s {
		out[i] = v.Clone()
	}
	return out
}

// CopyFrom overwrites every vertex of s with the corresponding vertex of
// src. Lengths must match.
func (s Simplex) CopyFrom(src Simplex) {
	if len(s) != len(src) {
		panic("simplex: CopyFrom length mismatch")
	}
	for i := range s {
		s[i].CopyFrom(src[i])
	}
}

// ErrOutOfBounds is returned by Set when the requested radius places a
// vertex of the regular simplex outside the space; callers should retry
// with a smaller radius or a different centroid.
var ErrOutOfBounds = errors.New("simplex: regular simplex construction left a vertex out of bounds")

// New allocates a Simplex of k vertices, each sized for sp with perfN
// objectives.
func New(k int, sp space.Space, perfN int) Simplex {
	s := make(Simplex, k)
	for i := range s {
		s[i] = vertex.New(sp, perfN)
	}
	return s
}

// Set constructs a regular Nelder-Mead simplex of len(s) vertices centred
// at centroid, with vertex-to-centroid distance equal to
// radiusFraction*diameter(sp). The classical construction places one vertex
// at the centre shifted by a common offset, and the remaining sp.Len()
// vertices each shifted along one axis combined with that same common
// offset; every vertex is then projected onto sp's legal values. If any
// vertex ends up out of bounds after projection, Set returns ErrOutOfBounds
// and leaves s unspecified.
func Set(s Simplex, sp space.Space, centroid vertex.Vertex, radiusFraction float64) error {
	n := sp.Len()
	if len(s) < n+1 {
		return fmt.Errorf("simplex: need at least %d vertices for a %d-dimensional space, got %d", n+1, n, len(s))
	}

	diameter := vertex.Norm(vertex.Minimum(sp, len(centroid.Perf.Obj)), vertex.Maximum(sp, len(centroid.Perf.Obj)))
	radius := radiusFraction * diameter

	// Standard regular-simplex construction: edge is chosen so that every
	// vertex lies radius away from the simplex's own centroid; p is the
	// offset applied to the one coordinate that distinguishes each non-first
	// vertex, q the offset applied to its other coordinates, and shift the
	// common offset applied to every coordinate of every vertex so that the
	// simplex is centred on centroid.
	fn := float64(n)
	edge := radius * math.Sqrt(2*(fn+1)/fn)
	p := edge / (fn * math.Sqrt2) * (math.Sqrt(fn+1) + fn - 1)
	q := edge / (fn * math.Sqrt2) * (math.Sqrt(fn+1) - 1)
	shift := -(p + (fn-1)*q) / (fn + 1)

	for i := range s {
		copy(s[i].Terms, centroid.Terms)
		for j := 0; j < n; j++ {
			s[i].Terms[j] += shift
			if i == 0 {
				continue
			}
			if j == i-1 {
				s[i].Terms[j] += p
			} else {
				s[i].Terms[j] += q
			}
		}
		s[i].ID = 0
		s[i].Perf.Reset()
	}

	for i := range s {
		sp.Align(s[i].Terms, s[i].Terms)
		if !vertex.InBounds(s[i], sp) {
			return ErrOutOfBounds
		}
	}
	return nil
}

// Centroid returns the arithmetic mean position and performance of the
// vertices of s whose id != 0. Setting a vertex's id to 0 before calling
// Centroid is how callers exclude it (e.g. the Nelder-Mead "worst" vertex)
// from the mean. Objective values that are still NaN ("not yet measured")
// are excluded from the performance average on a per-objective basis.
func Centroid(s Simplex) vertex.Vertex {
	out := s[0].Clone()
	out.ID = 0
	for j := range out.Terms {
		out.Terms[j] = 0
	}
	out.Perf.Reset()
	perfSum := make([]float64, len(out.Perf.Obj))
	perfCount := make([]int, len(out.Perf.Obj))

	accumulate := func(v vertex.Vertex) {
		for j := range v.Terms {
			out.Terms[j] += v.Terms[j]
		}
		for j, p := range v.Perf.Obj {
			if !math.IsNaN(p) {
				perfSum[j] += p
				perfCount[j]++
			}
		}
	}

	count := 0
	for _, v := range s {
		if v.ID == 0 {
			continue
		}
		count++
		accumulate(v)
	}
	if count == 0 {
		// Every vertex happens to be a sentinel (id == 0): fall back to
		// including all of them, rather than dividing by zero.
		count = len(s)
		for _, v := range s {
			accumulate(v)
		}
	}
	for j := range out.Terms {
		out.Terms[j] /= float64(count)
	}
	for j := range out.Perf.Obj {
		if perfCount[j] > 0 {
			out.Perf.Obj[j] = perfSum[j] / float64(perfCount[j])
		}
	}
	return out
}

// Transform applies vertex.Transform(pivot, s[i], c, out[i]) element-wise.
// out may alias s.
func Transform(s Simplex, pivot vertex.Vertex, c float64, out Simplex) {
	for i := range s {
		vertex.Transform(pivot, s[i], c, &out[i])
	}
}

// Collapsed reports whether every vertex of s projects onto the same
// aligned point of sp, i.e. the simplex lives inside a single grid cell.
func Collapsed(s Simplex, sp space.Space) bool {
	first := vertex.ToPoint(s[0], sp)
	for _, v := range s[1:] {
		p := vertex.ToPoint(v, sp)
		for j := range p.Terms {
			if p.Terms[j] != first.Terms[j] {
				return false
			}
		}
	}
	return true
}

// OutOfBounds reports whether every vertex of s is out of bounds.
func OutOfBounds(s Simplex, sp space.Space) bool {
	for _, v := range s {
		if vertex.InBounds(v, sp) {
			return false
		}
	}
	return true
}
