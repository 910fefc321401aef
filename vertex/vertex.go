// Package vertex implements point arithmetic over a search space: vertex
// construction (center, corner, random), distance, affine transforms, and
// projection onto legal (aligned) values. It is the geometry primitive
// layer the PRO and ANGEL strategy state machines are built on.
package vertex

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/BabaYara/harmony/perf"
	"github.com/BabaYara/harmony/point"
	"github.com/BabaYara/harmony/space"
)

// Vertex is a point together with a performance vector. It carries the same
// id as the point it represents.
type Vertex struct {
	point.Point
	Perf perf.Perf
}

// New allocates a Vertex sized for sp with perfN objectives.
func New(sp space.Space, perfN int) Vertex {
	return Vertex{Point: point.New(sp.Len()), Perf: perf.New(perfN)}
}

// Clone returns a deep copy of v.
func (v Vertex) Clone() Vertex {
	return Vertex{Point: v.Point.Clone(), Perf: v.Perf.Clone()}
}

// CopyFrom overwrites v's terms, id, and performance with src's.
func (v *Vertex) CopyFrom(src Vertex) {
	v.Point.CopyFrom(src.Point)
	v.Perf.CopyFrom(src.Perf)
}

// Center returns the vertex at the midpoint of every dimension of sp.
func Center(sp space.Space, perfN int) Vertex {
	v := New(sp, perfN)
	for i := 0; i < sp.Len(); i++ {
		lo, hi := sp.Bounds(i)
		v.Terms[i] = sp.Dim(i).Align((lo + hi) / 2)
	}
	return v
}

// Minimum returns the corner vertex at the lowest legal value of every
// dimension of sp.
func Minimum(sp space.Space, perfN int) Vertex {
	v := New(sp, perfN)
	for i := 0; i < sp.Len(); i++ {
		lo, _ := sp.Bounds(i)
		v.Terms[i] = lo
	}
	return v
}

// Maximum returns the corner vertex at the highest legal value of every
// dimension of sp.
func Maximum(sp space.Space, perfN int) Vertex {
	v := New(sp, perfN)
	for i := 0; i < sp.Len(); i++ {
		_, hi := sp.Bounds(i)
		v.Terms[i] = hi
	}
	return v
}

// Random draws a uniform sample of sp: finite dimensions sample an index
// uniformly, continuous dimensions sample the interval via distuv.Uniform,
// both driven by rng.
func Random(sp space.Space, perfN int, rng *rand.Rand) Vertex {
	v := New(sp, perfN)
	for i := 0; i < sp.Len(); i++ {
		d := sp.Dim(i)
		if d.Kind() == space.Finite {
			v.Terms[i] = float64(rng.Intn(d.Len()))
			continue
		}
		lo, hi := d.Bounds()
		u := distuv.Uniform{Min: lo, Max: hi, Src: rng}
		v.Terms[i] = u.Rand()
	}
	return v
}

// Norm returns the Euclidean distance between a and b in normalised
// dimension-index space: finite dimensions contribute their index, and
// continuous dimensions their raw value, directly (this is exactly how
// Term values are already represented, so no further scaling is applied).
func Norm(a, b Vertex) float64 {
	return floats.Distance(a.Terms, b.Terms, 2)
}

// Transform computes out = origin + c*(v - origin) element-wise. Positive
// c > 1 expands v away from origin, 0 < c < 1 contracts v toward origin,
// and c < 0 reflects v through origin. out may alias v or origin.
func Transform(origin, v Vertex, c float64, out *Vertex) {
	tmp := make([]float64, len(v.Terms))
	floats.SubTo(tmp, v.Terms, origin.Terms)
	floats.AddScaledTo(out.Terms, origin.Terms, c, tmp)
	out.ID = 0
	out.Perf.Reset()
}

// ToPoint projects v onto the legal (aligned) values of sp and returns a
// Point suitable for handing to the host pipeline, preserving v's id.
func ToPoint(v Vertex, sp space.Space) point.Point {
	p := point.New(sp.Len())
	p.ID = v.ID
	sp.Align(v.Terms, p.Terms)
	return p
}

// Set overwrites v's terms (and id) from p, without any projection. p must
// already describe legal values of sp; callers that need projection should
// use ToPoint in the opposite direction.
func Set(v *Vertex, sp space.Space, p point.Point) {
	v.ID = p.ID
	copy(v.Terms, p.Terms)
}

// InBounds reports whether every dimension of v lies within its legal
// range (not necessarily on a grid point, for continuous dimensions: see
// space.Dimension.Legal for the stricter alignment check).
func InBounds(v Vertex, sp space.Space) bool {
	for i := 0; i < sp.Len(); i++ {
		lo, hi := sp.Bounds(i)
		if v.Terms[i] < lo || v.Terms[i] > hi {
			return false
		}
	}
	return true
}

// Parse reads a comma- or whitespace-separated coordinate list into out's
// terms, validating the count against sp.
func Parse(s string, sp space.Space, out *Vertex) error {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != sp.Len() {
		return fmt.Errorf("vertex: expected %d coordinates, got %d", sp.Len(), len(fields))
	}
	for i, f := range fields {
		val, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return fmt.Errorf("vertex: invalid coordinate %q: %w", f, err)
		}
		out.Terms[i] = val
	}
	out.ID = 0
	return nil
}
