// Package pro implements the Parallel Rank-Ordering search strategy: a
// single-objective simplex method that tests an entire simplex at once
// (rather than one vertex at a time, as classical Nelder-Mead does),
// trading convergence speed for the ability to saturate a parallel
// evaluation pipeline.
//
// The state machine, transition rules, and convergence test below are a
// direct port of strategy_init/pro_algorithm/pro_next_state/
// pro_next_simplex/check_convergence from the original plugin, adapted to
// an explicit instance (no package-level statics) and Go error returns in
// place of a shared message struct.
package pro

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"

	"github.com/BabaYara/harmony/perf"
	"github.com/BabaYara/harmony/point"
	"github.com/BabaYara/harmony/simplex"
	"github.com/BabaYara/harmony/space"
	"github.com/BabaYara/harmony/strategy"
	"github.com/BabaYara/harmony/vertex"
)

type state int

const (
	stateInit state = iota
	stateReflect
	stateExpandOne
	stateExpandAll
	stateShrink
	stateConverged
)

// Strategy is a PRO search instance. The zero value is not usable; call
// Init before anything else.
type Strategy struct {
	sp  space.Space
	cfg strategy.Config
	rng *rand.Rand

	size int

	base simplex.Simplex
	test simplex.Simplex

	bestBase  int
	bestTest  int
	bestStash int

	nextID  int64
	sendIdx int

	reported int
	state    state

	best     point.Point
	bestPerf float64
}

// Init (re-)initializes s for a fresh search over sp, discarding any prior
// search state.
func (s *Strategy) Init(sp space.Space, cfg strategy.Config) error {
	s.sp = sp
	s.cfg = cfg

	s.size = cfg.ProSimplexSize
	if n := sp.Len() + 1; s.size < n {
		s.size = n
	}

	if cfg.HasRandomSeed {
		s.rng = rand.New(rand.NewSource(cfg.RandomSeed))
	} else {
		s.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}

	if cfg.SizeTol == 0 {
		diameter := vertex.Norm(vertex.Minimum(sp, 1), vertex.Maximum(sp, 1))
		cfg.SizeTol = diameter * 0.005
		s.cfg = cfg
	}

	s.base = simplex.New(s.size, sp, 1)
	s.test = simplex.New(s.size, sp, 1)

	var initPoint vertex.Vertex
	if cfg.InitPointText != "" {
		initPoint = vertex.New(sp, 1)
		if err := vertex.Parse(cfg.InitPointText, sp, &initPoint); err != nil {
			return fmt.Errorf("pro: %s: %w", cfg.InitPointText, err)
		}
	} else {
		initPoint = vertex.Center(sp, 1)
	}

	switch cfg.InitMethod {
	case strategy.InitRandom:
		for i := range s.base {
			s.base[i] = vertex.Random(sp, 1, s.rng)
		}
	case strategy.InitPoint, strategy.InitPointFast:
		// point_fast skips incremental legality projection during
		// construction in the original plugin; simplex.Set always
		// projects once at the end, so the two methods coincide here.
		if err := simplex.Set(s.base, sp, initPoint, cfg.InitRadius); err != nil {
			return fmt.Errorf("pro: %w", err)
		}
	default:
		return strategy.ConfigError{Key: "PRO_INIT_METHOD", Reason: "unrecognized init method"}
	}

	s.test.CopyFrom(s.base)
	s.nextID = 1
	s.sendIdx = 0
	s.reported = 0
	s.bestBase = 0
	s.bestTest = 0
	s.bestStash = 0
	s.state = stateInit
	s.best = point.New(sp.Len())
	s.best.ID = 0
	s.bestPerf = math.Inf(1)

	return nil
}

// Generate returns the next candidate point of the currently outstanding
// simplex, or Wait once all of them have been dispatched.
func (s *Strategy) Generate() (strategy.Flow, point.Point, error) {
	if s.sendIdx == s.size {
		return strategy.Wait, point.Point{}, nil
	}
	idx := s.sendIdx
	s.test[idx].ID = s.nextID
	s.nextID++
	s.sendIdx++
	return strategy.Accept, vertex.ToPoint(s.test[idx], s.sp), nil
}

// Rejected regenerates a point the host pipeline marked invalid.
func (s *Strategy) Rejected(hint *point.Point, p point.Point) (point.Point, error) {
	idx := s.indexOf(p.ID)
	if idx < 0 {
		// Rogue rejection: nothing outstanding matches this id. PRO
		// ignores rogue reports the same way strategy_report does.
		return p, nil
	}

	if hint != nil {
		vertex.Set(&s.test[idx], s.sp, *hint)
		s.test[idx].ID = p.ID
		return vertex.ToPoint(s.test[idx], s.sp), nil
	}

	switch s.cfg.Reject {
	case strategy.RejectRandom:
		s.test[idx] = vertex.Random(s.sp, 1, s.rng)
		s.test[idx].ID = s.nextID
		s.nextID++
		return vertex.ToPoint(s.test[idx], s.sp), nil

	default: // strategy.RejectPenalty
		s.test[idx].Perf.Invalidate()
		// recordReport may complete the batch and regenerate the whole
		// test simplex; the original plugin never faced this case (only
		// ANGEL, which has a single outstanding vertex, implements
		// rejection), so PRO's contract here is: re-issuing an id for the
		// rejected slot is best-effort. On the rare batch-completing
		// reject, the id issued below may belong to a freshly regenerated
		// vertex rather than the rejected one; any report against the
		// stale id it replaces is simply ignored as rogue.
		if err := s.recordReport(idx); err != nil {
			return point.Point{}, err
		}
		s.test[idx].ID = s.nextID
		s.nextID++
		return vertex.ToPoint(s.test[idx], s.sp), nil
	}
}

// Analyze reports the measured performance for a previously generated
// point, advancing the state machine once the entire outstanding simplex
// has been reported.
func (s *Strategy) Analyze(trial strategy.Trial) error {
	idx := s.indexOf(trial.Point.ID)
	if idx < 0 {
		// Ignore rogue vertex reports, per strategy_report.
		return nil
	}
	s.test[idx].Perf.CopyFrom(trial.Perf)

	if perf.Less(trial.Perf.Obj[0], s.bestPerf) {
		s.bestPerf = trial.Perf.Obj[0]
		s.best = trial.Point.Clone()
	}

	return s.recordReport(idx)
}

// recordReport updates bestTest for the just-reported slot and, once every
// slot of the outstanding simplex has been reported, runs the state
// machine and resets the dispatch counters for the next batch.
func (s *Strategy) recordReport(idx int) error {
	if perf.Less(s.test[idx].Perf.Obj[0], s.test[s.bestTest].Perf.Obj[0]) {
		s.bestTest = idx
	}

	s.reported++
	if s.reported == s.size {
		if err := s.run(); err != nil {
			return err
		}
		s.reported = 0
		s.sendIdx = 0
	}
	return nil
}

func (s *Strategy) indexOf(id int64) int {
	for i := range s.test {
		if s.test[i].ID == id {
			return i
		}
	}
	return -1
}

// Best returns the best point observed so far.
func (s *Strategy) Best() point.Point { return s.best }

// Converged reports whether the search has reached its terminal state.
func (s *Strategy) Converged() bool { return s.state == stateConverged }

// Prefetch reports PRO's atomic whole-simplex prefetch requirement.
func (s *Strategy) Prefetch() strategy.PrefetchHint {
	return strategy.PrefetchHint{Atomic: true, Depth: s.size}
}

// run executes the do/while bounds loop of pro_algorithm: advance the
// state, check convergence on every pass through REFLECT, regenerate the
// candidate simplex, and repeat so long as the candidate lands entirely
// out of bounds.
func (s *Strategy) run() error {
	for {
		if s.state == stateConverged {
			break
		}
		if err := s.nextState(); err != nil {
			return err
		}
		if s.state == stateReflect {
			s.checkConvergence()
		}
		s.nextSimplex()
		if !simplex.OutOfBounds(s.test, s.sp) {
			break
		}
	}
	return nil
}

// nextState is pro_next_state: it decides, from the just-reported test
// simplex, what state to try next and which simplex is the new reference
// (base).
func (s *Strategy) nextState() error {
	switch s.state {
	case stateInit, stateShrink:
		s.base.CopyFrom(s.test)
		s.bestBase = s.bestTest
		s.state = stateReflect

	case stateReflect:
		if perf.Less(s.test[s.bestTest].Perf.Obj[0], s.base[s.bestBase].Perf.Obj[0]) {
			s.base.CopyFrom(s.test)
			s.bestStash = s.bestTest
			s.state = stateExpandOne
		} else {
			s.state = stateShrink
		}

	case stateExpandOne:
		if perf.Less(s.test[0].Perf.Obj[0], s.base[s.bestBase].Perf.Obj[0]) {
			s.state = stateExpandAll
		} else {
			s.bestBase = s.bestTest
			s.state = stateReflect
		}

	case stateExpandAll:
		if perf.Less(s.test[s.bestTest].Perf.Obj[0], s.base[s.bestBase].Perf.Obj[0]) {
			s.base.CopyFrom(s.test)
			s.bestBase = s.bestTest
		}
		s.state = stateReflect

	default:
		return strategy.ErrInternalState
	}
	return nil
}

// nextSimplex is pro_next_simplex: it fills s.test with the candidate
// simplex the current state calls for.
func (s *Strategy) nextSimplex() {
	switch s.state {
	case stateInit:
		s.test.CopyFrom(s.base)

	case stateReflect:
		simplex.Transform(s.base, s.base[s.bestBase], -s.cfg.Reflect, s.test)

	case stateExpandOne:
		vertex.Transform(s.test[s.bestStash], s.base[s.bestBase], s.cfg.Expand, &s.test[0])
		for i := 1; i < s.size; i++ {
			s.test[i].CopyFrom(s.base[s.bestBase])
		}

	case stateExpandAll:
		simplex.Transform(s.base, s.base[s.bestBase], s.cfg.Expand, s.test)

	case stateShrink:
		simplex.Transform(s.base, s.base[s.bestBase], s.cfg.Shrink, s.test)

	case stateConverged:
		// Nothing to do; a future revision could start a new search here.
	}
}

// checkConvergence implements check_convergence: the reference simplex has
// converged if it has collapsed into a single grid cell, or if both its
// inter-vertex performance variance and its spatial size have fallen below
// their tolerances.
func (s *Strategy) checkConvergence() {
	if simplex.Collapsed(s.base, s.sp) {
		s.state = stateConverged
		return
	}

	centroid := simplex.Centroid(s.base)

	fvErr := 0.0
	for i := range s.base {
		d := s.base[i].Perf.Obj[0] - centroid.Perf.Obj[0]
		fvErr += d * d
	}
	fvErr /= float64(s.size)

	szMax := 0.0
	for i := range s.base {
		if d := vertex.Norm(s.base[i], centroid); d > szMax {
			szMax = d
		}
	}

	if fvErr < s.cfg.FvalTol && szMax < s.cfg.SizeTol {
		s.state = stateConverged
	}
}
