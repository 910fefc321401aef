// Package baseline implements two trivial search strategies, Exhaustive and
// Random, that satisfy strategy.Strategy without any simplex machinery.
// Both exist purely as a point of comparison for PRO and ANGEL: Exhaustive
// visits every point of a finite space like an odometer, guaranteeing full
// coverage at the cost of combinatorial runtime; Random samples uniformly
// and never converges.
package baseline

import (
	"fmt"
	"math"

	"github.com/BabaYara/harmony/perf"
	"github.com/BabaYara/harmony/point"
	"github.com/BabaYara/harmony/space"
	"github.com/BabaYara/harmony/strategy"
	"github.com/BabaYara/harmony/vertex"
)

// term is one dimension's position in the odometer: an index for finite
// dimensions, a raw value for continuous ones.
type term struct {
	index int
	value float64
}

// Exhaustive visits every point of sp, incrementing the lowest-order
// dimension first and carrying into the next on overflow, for the
// configured number of passes. The zero value is not usable; call Init
// before anything else.
type Exhaustive struct {
	sp  space.Space
	cfg strategy.Config

	head []term
	next []term

	remainingPasses int
	nextID          int64
	finalID         int64
	outstanding     int
	finalReceived   bool
	converged       bool

	best     point.Point
	bestPerf float64
}

// Init (re-)initializes s for a fresh odometer walk over sp.
func (s *Exhaustive) Init(sp space.Space, cfg strategy.Config) error {
	s.sp = sp
	s.cfg = cfg

	s.remainingPasses = cfg.ExhaustivePasses

	s.head = make([]term, sp.Len())
	if cfg.InitPointText != "" {
		init := vertex.New(sp, 1)
		if err := vertex.Parse(cfg.InitPointText, sp, &init); err != nil {
			return fmt.Errorf("baseline: %s: %w", cfg.InitPointText, err)
		}
		for i := 0; i < sp.Len(); i++ {
			if sp.Dim(i).Kind() == space.Finite {
				s.head[i].index = int(math.Round(init.Terms[i]))
			} else {
				s.head[i].value = init.Terms[i]
			}
		}
	}
	// Otherwise every term stays at its zero value, matching the plain
	// memset the original plugin falls back to when no initial point is
	// configured.

	s.next = make([]term, sp.Len())
	copy(s.next, s.head)

	s.nextID = 1
	s.finalID = 0
	s.outstanding = 0
	s.finalReceived = false
	s.converged = false
	s.best = point.New(sp.Len())
	s.bestPerf = math.Inf(1)

	return nil
}

// Generate returns the next odometer point, or (once every pass has been
// exhausted) repeatedly returns the best point found so far.
func (s *Exhaustive) Generate() (strategy.Flow, point.Point, error) {
	var p point.Point
	if s.remainingPasses > 0 {
		p = s.makePoint(s.next)
		p.ID = s.nextID
		s.increment()
		s.nextID++
	} else {
		p = s.best.Clone()
	}

	if s.finalID == 0 || p.ID <= s.finalID {
		s.outstanding++
	}

	return strategy.Accept, p, nil
}

// Rejected regenerates a point the host pipeline marked invalid.
func (s *Exhaustive) Rejected(hint *point.Point, p point.Point) (point.Point, error) {
	if hint != nil {
		h := *hint
		h.ID = p.ID
		return h, nil
	}

	out := s.makePoint(s.next)
	out.ID = p.ID
	s.increment()
	return out, nil
}

// Analyze reports the measured performance for a previously generated
// point, updating the best point and, once the final odometer point of the
// last pass has been accounted for, marking the search converged.
func (s *Exhaustive) Analyze(trial strategy.Trial) error {
	value := perf.Unify(trial.Perf, nil)
	if s.bestPerf > value {
		s.bestPerf = value
		s.best = trial.Point.Clone()
	}

	if trial.Point.ID == s.finalID {
		s.converged = true
	}

	if s.finalID == 0 || trial.Point.ID <= s.finalID {
		s.outstanding--
	}
	if trial.Point.ID == s.finalID {
		s.finalReceived = true
	}

	if s.outstanding <= 0 && s.finalReceived {
		s.converged = true
	}

	return nil
}

// Best returns the best point observed so far.
func (s *Exhaustive) Best() point.Point { return s.best }

// Converged reports whether every odometer pass has been fully accounted
// for.
func (s *Exhaustive) Converged() bool { return s.converged }

// Prefetch reports Exhaustive's single-outstanding-point contract.
func (s *Exhaustive) Prefetch() strategy.PrefetchHint {
	return strategy.PrefetchHint{Atomic: false, Depth: 1}
}

func (s *Exhaustive) makePoint(terms []term) point.Point {
	p := point.New(s.sp.Len())
	for i := 0; i < s.sp.Len(); i++ {
		if s.sp.Dim(i).Kind() == space.Finite {
			p.Terms[i] = float64(terms[i].index)
		} else {
			p.Terms[i] = terms[i].value
		}
	}
	return p
}

// increment advances s.next by one step, like an odometer: the lowest-order
// dimension ticks first, carrying into the next dimension on overflow.
// Continuous dimensions tick by the smallest representable float step,
// which in practice makes a pass over a continuous dimension intractable —
// the same property the original plugin has, since it documents itself as
// a basis of comparison rather than a practical strategy.
func (s *Exhaustive) increment() {
	if s.remainingPasses <= 0 {
		return
	}

	for i := 0; i < s.sp.Len(); i++ {
		d := s.sp.Dim(i)
		if d.Kind() == space.Finite {
			s.next[i].index++
			if s.next[i].index == d.Len() {
				s.next[i].index = 0
				continue
			}
		} else {
			nextVal := math.Nextafter(s.next[i].value, math.Inf(1))
			if !(s.next[i].value < nextVal) {
				lo, _ := d.Bounds()
				s.next[i].value = lo
				continue
			}
			s.next[i].value = nextVal
		}
		return
	}

	s.remainingPasses--
	if s.remainingPasses <= 0 {
		s.finalID = s.nextID
	}
}
