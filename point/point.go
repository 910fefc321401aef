// Package point defines the Point type: a coordinate in a search space
// tagged with a monotonically increasing id.
package point

import "github.com/BabaYara/harmony/space"

// Point is a sequence of terms (one per dimension) plus an id. An id of 0
// is the sentinel for "unassigned"; non-zero ids are strictly positive and
// increase monotonically within a search instance.
type Point struct {
	ID    int64
	Terms []float64
}

// New allocates a Point with dim terms, all zero, and id 0.
func New(dim int) Point {
	return Point{Terms: make([]float64, dim)}
}

// Clone returns a deep copy of p.
func (p Point) Clone() Point {
	out := Point{ID: p.ID, Terms: make([]float64, len(p.Terms))}
	copy(out.Terms, p.Terms)
	return out
}

// Aligned reports whether every term of p lies on a legal value of its
// corresponding dimension in sp.
func (p Point) Aligned(sp space.Space) bool {
	return sp.Aligned(p.Terms)
}

// CopyFrom overwrites p's terms and id with src's. Terms slices must have
// equal length; CopyFrom panics otherwise, since this indicates the caller
// built p against the wrong space.
func (p *Point) CopyFrom(src Point) {
	if len(p.Terms) != len(src.Terms) {
		panic("point: CopyFrom length mismatch")
	}
	p.ID = src.ID
	copy(p.Terms, src.Terms)
}
