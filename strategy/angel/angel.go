// Package angel implements the ANGEL search strategy: a classical
// one-vertex-at-a-time Nelder-Mead simplex method extended to multiple
// objectives through a lexicographic sequence of phases, each phase
// optimizing one objective subject to a threshold ("leeway") that bounds
// how far the higher-priority objectives already searched may regress.
//
// The state machine, phase bookkeeping, and penalty computation below are a
// direct port of strategy_init/nm_algorithm/nm_state_transition/
// nm_next_vertex/check_convergence/increment_phase/strategy_analyze from the
// original plugin, adapted to an explicit instance (no package-level
// statics) and Go error returns in place of a shared message struct.
package angel

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
	stateExpand
	stateContract
	stateShrink
	stateConverged
)

// nextKind identifies which scratch vertex the outstanding candidate is
// currently drawn from.
type nextKind int

const (
	nextSimplexVertex nextKind = iota
	nextReflect
	nextExpand
	nextContract
)

// valueRange tracks the observed minimum and maximum of one objective,
// across the whole search, used to scale penalties and phase thresholds.
type valueRange struct {
	min, max float64
}

// Strategy is an ANGEL search instance. The zero value is not usable; call
// Init before anything else.
type Strategy struct {
	sp  space.Space
	cfg strategy.Config
	rng *rand.Rand

	initPoint   vertex.Vertex
	initSimplex simplex.Simplex
	simplex     simplex.Simplex

	centroid  vertex.Vertex
	reflectV  vertex.Vertex
	expandV   vertex.Vertex
	contractV vertex.Vertex

	indexBest, indexWorst, indexCurr int
	nextKind                         nextKind
	nextID                           int64

	moveLen, spaceSize float64
	flatCnt, distCnt   int

	phase  int
	perfN  int
	thresh []float64
	span   []valueRange

	best     point.Point
	bestPerf perf.Perf // zero-length Obj means "no best recorded this phase"

	state state
}

// Init (re-)initializes s for a fresh search over sp, discarding any prior
// search state.
func (s *Strategy) Init(sp space.Space, cfg strategy.Config) error {
	s.sp = sp
	s.perfN = cfg.PerfCount
	if s.perfN < 1 {
		return strategy.ConfigError{Key: "PERF_COUNT", Reason: "must be at least 1"}
	}
	if s.perfN > 1 && len(cfg.AngelLeeway) != s.perfN-1 {
		return strategy.ConfigError{Key: "ANGEL_LEEWAY", Reason: "must have PerfCount-1 values"}
	}

	if cfg.HasRandomSeed {
		s.rng = rand.New(rand.NewSource(cfg.RandomSeed))
	} else {
		s.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}

	s.spaceSize = vertex.Norm(vertex.Minimum(sp, s.perfN), vertex.Maximum(sp, s.perfN))

	// config_strategy in the original plugin expresses DIST_TOL/SIZE_TOL as
	// fractions of the search space diameter; harmonycfg leaves that scaling
	// to the strategy, the same way PRO computes its own diameter-relative
	// default for SIZE_TOL.
	if cfg.HasDistTol() {
		cfg.DistTol *= s.spaceSize
	} else {
		cfg.SizeTol *= s.spaceSize
	}
	s.cfg = cfg

	s.thresh = make([]float64, s.perfN-1)
	s.span = make([]valueRange, s.perfN)
	for i := range s.span {
		s.span[i] = valueRange{min: math.Inf(1), max: math.Inf(-1)}
	}

	s.simplex = simplex.New(sp.Len()+1, sp, s.perfN)
	s.initSimplex = simplex.New(sp.Len()+1, sp, s.perfN)
	s.centroid = vertex.New(sp, s.perfN)
	s.reflectV = vertex.New(sp, s.perfN)
	s.expandV = vertex.New(sp, s.perfN)
	s.contractV = vertex.New(sp, s.perfN)

	if cfg.InitPointText != "" {
		s.initPoint = vertex.New(sp, s.perfN)
		if err := vertex.Parse(cfg.InitPointText, sp, &s.initPoint); err != nil {
			return fmt.Errorf("angel: %s: %w", cfg.InitPointText, err)
		}
	} else {
		s.initPoint = vertex.Center(sp, s.perfN)
	}

	if err := s.makeInitialSimplex(); err != nil {
		return err
	}

	s.nextID = 1
	s.phase = -1
	s.best = point.New(sp.Len())
	s.bestPerf = perf.Perf{}

	if err := s.incrementPhase(); err != nil {
		return err
	}
	s.nmNextVertex()

	return nil
}

func (s *Strategy) makeInitialSimplex() error {
	if err := simplex.Set(s.initSimplex, s.sp, s.initPoint, s.cfg.InitRadius); err != nil {
		return fmt.Errorf("angel: %w", err)
	}
	return nil
}

// next returns the currently outstanding candidate vertex.
func (s *Strategy) next() *vertex.Vertex {
	switch s.nextKind {
	case nextReflect:
		return &s.reflectV
	case nextExpand:
		return &s.expandV
	case nextContract:
		return &s.contractV
	default:
		return &s.simplex[s.indexCurr]
	}
}

// Generate returns the currently outstanding candidate point, or Wait if it
// has already been dispatched and is awaiting its Analyze report.
func (s *Strategy) Generate() (strategy.Flow, point.Point, error) {
	next := s.next()
	if next.ID == s.nextID {
		return strategy.Wait, point.Point{}, nil
	}
	next.ID = s.nextID
	return strategy.Accept, vertex.ToPoint(*next, s.sp), nil
}

// Rejected regenerates a point the host pipeline marked invalid. ANGEL only
// ever has one outstanding vertex at a time, so (unlike PRO) there is no
// batch to search: the rejection always applies to the current candidate.
func (s *Strategy) Rejected(hint *point.Point, p point.Point) (point.Point, error) {
	next := s.next()

	if hint != nil {
		h := *hint
		h.ID = p.ID
		vertex.Set(next, s.sp, h)
		return h, nil
	}

	switch s.cfg.Reject {
	case strategy.RejectRandom:
		*next = vertex.Random(s.sp, s.perfN, s.rng)
		next.ID = s.nextID
		return vertex.ToPoint(*next, s.sp), nil

	default: // strategy.RejectPenalty
		next.Perf.Invalidate()
		if err := s.nmAlgorithm(); err != nil {
			return point.Point{}, err
		}
		next = s.next()
		next.ID = s.nextID
		return vertex.ToPoint(*next, s.sp), nil
	}
}

// Analyze reports the measured performance for the outstanding candidate,
// applies the current phase's penalty function, updates the best point seen
// this phase, and advances the state machine.
func (s *Strategy) Analyze(trial strategy.Trial) error {
	next := s.next()
	if trial.Point.ID != next.ID {
		return strategy.ErrRogueID
	}
	next.Perf.CopyFrom(trial.Perf)

	for i := range s.span {
		v := next.Perf.Obj[i]
		if s.span[i].min > v {
			s.span[i].min = v
		}
		if s.span[i].max < v && v < math.Inf(1) {
			s.span[i].max = v
		}
	}

	penalty := 0.0
	penaltyBase := 1.0
	for i := s.phase - 1; i >= 0; i-- {
		if next.Perf.Obj[i] > s.thresh[i] {
			if !s.cfg.AngelLoose {
				penalty += penaltyBase
			}
			fraction := (next.Perf.Obj[i] - s.thresh[i]) / (s.span[i].max - s.thresh[i])
			penalty += 1.0 / (1.0 - math.Log(fraction))
		}
		penaltyBase *= 2
	}

	if penalty > 0.0 {
		if s.cfg.AngelLoose {
			penalty += 1.0
		}
		spanWidth := s.span[s.phase].max - s.span[s.phase].min
		next.Perf.Obj[s.phase] += penalty * spanWidth * s.cfg.AngelMult
	}

	if len(s.bestPerf.Obj) == 0 || s.bestPerf.Obj[s.phase] > next.Perf.Obj[s.phase] {
		s.bestPerf = next.Perf.Clone()
		s.best = trial.Point.Clone()
	}

	if err := s.nmAlgorithm(); err != nil {
		return err
	}

	if s.state != stateConverged {
		s.nextID++
	}

	return nil
}

// Best returns the best point observed in the current (or, once converged,
// final) phase.
func (s *Strategy) Best() point.Point { return s.best }

// Converged reports whether every phase has reached its terminal state.
func (s *Strategy) Converged() bool { return s.state == stateConverged }

// Prefetch reports ANGEL's single-outstanding-vertex contract.
func (s *Strategy) Prefetch() strategy.PrefetchHint {
	return strategy.PrefetchHint{Atomic: false, Depth: 1}
}

// nmAlgorithm is nm_algorithm: advance the state, recompute the centroid
// and check convergence on every pass through REFLECT, choose the next
// candidate vertex, and repeat so long as that candidate lands out of
// bounds.
func (s *Strategy) nmAlgorithm() error {
	for {
		if s.state == stateConverged {
			break
		}
		if err := s.nmStateTransition(); err != nil {
			return err
		}
		if s.state == stateReflect {
			s.updateCentroid()
			if err := s.checkConvergence(); err != nil {
				return err
			}
		}
		s.nmNextVertex()
		if vertex.InBounds(*s.next(), s.sp) {
			break
		}
	}
	return nil
}

// nmStateTransition is nm_state_transition.
func (s *Strategy) nmStateTransition() error {
	switch s.state {
	case stateInit, stateShrink:
		s.indexCurr++
		if s.indexCurr == s.sp.Len()+1 {
			s.updateCentroid()
			s.state = stateReflect
			s.indexCurr = 0
		}

	case stateReflect:
		switch {
		case s.reflectV.Perf.Obj[s.phase] < s.simplex[s.indexBest].Perf.Obj[s.phase]:
			// Reflected point beats every simplex point: attempt expansion.
			s.state = stateExpand
		case s.reflectV.Perf.Obj[s.phase] < s.simplex[s.indexWorst].Perf.Obj[s.phase]:
			// Reflected point beats the worst simplex point: replace it and
			// attempt reflection again.
			s.simplex[s.indexWorst].CopyFrom(s.reflectV)
			s.updateCentroid()
		default:
			// Reflected point is worse than every simplex point: attempt
			// contraction.
			s.state = stateContract
		}

	case stateExpand:
		if s.expandV.Perf.Obj[s.phase] < s.simplex[s.indexBest].Perf.Obj[s.phase] {
			s.simplex[s.indexWorst].CopyFrom(s.expandV)
		} else {
			s.simplex[s.indexWorst].CopyFrom(s.reflectV)
		}
		s.updateCentroid()
		s.state = stateReflect

	case stateContract:
		if s.contractV.Perf.Obj[s.phase] < s.simplex[s.indexWorst].Perf.Obj[s.phase] {
			s.simplex[s.indexWorst].CopyFrom(s.contractV)
			s.updateCentroid()
			s.state = stateReflect
		} else {
			// Contracted vertex is still worst known: shrink towards best.
			s.indexCurr = -1
			s.state = stateShrink
		}

	default:
		return strategy.ErrInternalState
	}
	return nil
}

// nmNextVertex is nm_next_vertex: it picks the candidate vertex the current
// state calls for and resets its performance to "not yet measured".
func (s *Strategy) nmNextVertex() {
	switch s.state {
	case stateInit:
		s.nextKind = nextSimplexVertex

	case stateReflect:
		vertex.Transform(s.centroid, s.simplex[s.indexWorst], -s.cfg.Reflect, &s.reflectV)
		s.moveLen = vertex.Norm(s.simplex[s.indexWorst], s.reflectV) / s.spaceSize
		s.nextKind = nextReflect

	case stateExpand:
		vertex.Transform(s.centroid, s.simplex[s.indexWorst], -s.cfg.Expand, &s.expandV)
		s.nextKind = nextExpand

	case stateContract:
		vertex.Transform(s.simplex[s.indexWorst], s.centroid, s.cfg.Contract, &s.contractV)
		s.nextKind = nextContract

	case stateShrink:
		if s.indexCurr == -1 {
			simplex.Transform(s.simplex, s.simplex[s.indexBest], s.cfg.Shrink, s.simplex)
			s.indexCurr = 0
		}
		s.nextKind = nextSimplexVertex

	case stateConverged:
		s.indexCurr = s.indexBest
		s.nextKind = nextSimplexVertex
	}

	s.next().Perf.Reset()
}

// updateCentroid is update_centroid: it finds the best and worst vertices of
// the current simplex for this phase's objective, then recomputes the
// centroid excluding the worst vertex.
func (s *Strategy) updateCentroid() {
	s.indexBest = 0
	s.indexWorst = 0
	for i := 1; i < len(s.simplex); i++ {
		if s.simplex[i].Perf.Obj[s.phase] < s.simplex[s.indexBest].Perf.Obj[s.phase] {
			s.indexBest = i
		}
		if s.simplex[i].Perf.Obj[s.phase] > s.simplex[s.indexWorst].Perf.Obj[s.phase] {
			s.indexWorst = i
		}
	}

	stashedID := s.simplex[s.indexWorst].ID
	s.simplex[s.indexWorst].ID = 0
	s.centroid = simplex.Centroid(s.simplex)
	s.simplex[s.indexWorst].ID = stashedID
}

// checkConvergence is check_convergence: converge this phase if its simplex
// objective values have stayed flat for 3 consecutive reflections, if the
// simplex has collapsed into a single grid cell, or (depending on whether
// DistTol is configured) if the reflection move length or the variance/size
// pair has fallen below tolerance.
func (s *Strategy) checkConvergence() error {
	flat := true
	base := s.simplex[0].Perf.Obj[s.phase]
	for i := 1; i < len(s.simplex); i++ {
		if s.simplex[i].Perf.Obj[s.phase] != base {
			flat = false
			break
		}
	}
	if flat {
		s.flatCnt++
		if s.flatCnt >= 3 {
			s.flatCnt = 0
			return s.onConverge()
		}
	} else {
		s.flatCnt = 0
	}

	if simplex.Collapsed(s.simplex, s.sp) {
		return s.onConverge()
	}

	if s.cfg.HasDistTol() {
		if s.moveLen < s.cfg.DistTol {
			s.distCnt++
			if s.distCnt >= s.cfg.TolCnt {
				s.distCnt = 0
				return s.onConverge()
			}
		} else {
			s.distCnt = 0
		}
		return nil
	}

	fvErr := 0.0
	baseVal := s.centroid.Perf.Obj[s.phase]
	for i := range s.simplex {
		d := s.simplex[i].Perf.Obj[s.phase] - baseVal
		fvErr += d * d
	}
	fvErr /= float64(len(s.simplex))

	szMax := 0.0
	for i := range s.simplex {
		if d := vertex.Norm(s.simplex[i], s.centroid); d > szMax {
			szMax = d
		}
	}

	if fvErr < s.cfg.FvalTol && szMax < s.cfg.SizeTol {
		return s.onConverge()
	}
	return nil
}

// onConverge is the "converged:" label of check_convergence: the whole
// search is done once the last phase converges, otherwise the next
// objective's phase begins.
func (s *Strategy) onConverge() error {
	if s.phase == s.perfN-1 {
		s.state = stateConverged
		return nil
	}
	return s.incrementPhase()
}

// incrementPhase is increment_phase: it fixes the threshold the retiring
// phase leaves behind for its leeway, stashes that phase's best vertex,
// rebuilds (or reuses) the initial simplex, optionally anchors the previous
// best solution onto the nearest vertex, and resets phase-local state.
func (s *Strategy) incrementPhase() error {
	if s.phase >= 0 {
		rng := s.span[s.phase]
		s.thresh[s.phase] = (rng.max-rng.min)*s.cfg.AngelLeeway[s.phase] + rng.min
	}
	s.phase++

	s.centroid.CopyFrom(s.simplex[s.indexBest])

	if !s.cfg.AngelSameSimplex {
		if err := s.makeInitialSimplex(); err != nil {
			return err
		}
	}
	s.simplex.CopyFrom(s.initSimplex)

	if s.best.ID > 0 && s.cfg.AngelAnchor {
		minDist := math.Inf(1)
		idx := -1
		for i := range s.simplex {
			if d := vertex.Norm(s.centroid, s.simplex[i]); d < minDist {
				minDist = d
				idx = i
			}
		}
		s.simplex[idx].CopyFrom(s.centroid)
	}

	s.bestPerf = perf.Perf{}
	s.best.ID = 0

	s.state = stateInit
	s.indexCurr = 0
	return nil
}
