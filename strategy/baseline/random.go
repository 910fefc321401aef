package baseline

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/rand"

	"github.com/BabaYara/harmony/perf"
	"github.com/BabaYara/harmony/point"
	"github.com/BabaYara/harmony/space"
	"github.com/BabaYara/harmony/strategy"
	"github.com/BabaYara/harmony/vertex"
)

// Random samples sp uniformly, one point per Generate call, and never
// reaches a converged state. The zero value is not usable; call Init
// before anything else.
type Random struct {
	sp  space.Space
	cfg strategy.Config
	rng *rand.Rand

	next point.Point

	best     point.Point
	bestPerf float64
}

// Init (re-)initializes s for a fresh uniform sample over sp.
func (s *Random) Init(sp space.Space, cfg strategy.Config) error {
	s.sp = sp
	s.cfg = cfg

	if cfg.HasRandomSeed {
		s.rng = rand.New(rand.NewSource(cfg.RandomSeed))
	} else {
		s.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}

	s.next = point.New(sp.Len())
	s.next.ID = 1
	if cfg.InitPointText != "" {
		init := vertex.New(sp, 1)
		if err := vertex.Parse(cfg.InitPointText, sp, &init); err != nil {
			return fmt.Errorf("baseline: %s: %w", cfg.InitPointText, err)
		}
		sp.Align(init.Terms, s.next.Terms)
	} else {
		s.randomize(&s.next)
	}

	s.best = point.New(sp.Len())
	s.bestPerf = math.Inf(1)

	return nil
}

// Generate returns the currently prepared sample and immediately draws a
// fresh one (with the next id) for the following call; Random always has a
// point ready, so it never returns Wait.
func (s *Random) Generate() (strategy.Flow, point.Point, error) {
	p := s.next.Clone()

	s.randomize(&s.next)
	s.next.ID++

	return strategy.Accept, p, nil
}

// Rejected regenerates a point the host pipeline marked invalid.
func (s *Random) Rejected(hint *point.Point, p point.Point) (point.Point, error) {
	if hint != nil {
		h := *hint
		h.ID = p.ID
		return h, nil
	}

	out := p.Clone()
	s.randomize(&out)
	return out, nil
}

// Analyze reports the measured performance for a previously generated
// point and updates the best point seen so far.
func (s *Random) Analyze(trial strategy.Trial) error {
	value := perf.Unify(trial.Perf, nil)
	if s.bestPerf > value {
		s.bestPerf = value
		s.best = trial.Point.Clone()
	}
	return nil
}

// Best returns the best point observed so far.
func (s *Random) Best() point.Point { return s.best }

// Converged always reports false: a uniform sampler has no terminal state.
func (s *Random) Converged() bool { return false }

// Prefetch reports Random's single-outstanding-point contract.
func (s *Random) Prefetch() strategy.PrefetchHint {
	return strategy.PrefetchHint{Atomic: false, Depth: 1}
}

func (s *Random) randomize(p *point.Point) {
	v := vertex.Random(s.sp, 1, s.rng)
	copy(p.Terms, v.Terms)
}
