package angel

import (
	"errors"
	"testing"

	"github.com/BabaYara/harmony/internal/harmonycfg"
	"github.com/BabaYara/harmony/perf"
	"github.com/BabaYara/harmony/space"
	"github.com/BabaYara/harmony/strategy"
	"github.com/BabaYara/harmony/strategy/pro"
)

func mustSpace(t *testing.T, dims ...space.Dimension) space.Space {
	t.Helper()
	sp, err := space.New(dims...)
	if err != nil {
		t.Fatal(err)
	}
	return sp
}

func sphere(terms []float64) float64 {
	sum := 0.0
	for _, v := range terms {
		sum += v * v
	}
	return sum
}

func shiftedSphere(terms []float64) float64 {
	sum := 0.0
	for _, v := range terms {
		d := v - 1
		sum += d * d
	}
	return sum
}

func mustCfg(t *testing.T, m harmonycfg.Map, perfCount int) strategy.Config {
	t.Helper()
	cfg, err := harmonycfg.ParseANGEL(m, perfCount)
	if err != nil {
		t.Fatalf("ParseANGEL: %v", err)
	}
	return cfg
}

// runToConvergence drives a single-outstanding-vertex strategy against f
// (one objective per call) using a generate/measure/analyze loop, failing
// the test if convergence does not occur within a generous round budget.
func runToConvergence(t *testing.T, s *Strategy, f func([]float64) []float64, maxRounds int) int {
	t.Helper()
	round := 0
	for ; round < maxRounds; round++ {
		if s.Converged() {
			return round
		}
		flow, p, err := s.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if flow == strategy.Wait {
			continue
		}
		if err := s.Analyze(strategy.Trial{Point: p, Perf: perf.Perf{Obj: f(p.Terms)}}); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
	}
	if !s.Converged() {
		t.Fatalf("did not converge within %d rounds", maxRounds)
	}
	return round
}

// runPROToConvergence drives a PRO instance against f using the same
// batch-respecting loop pro_test.go uses, returning the round at which it
// converged.
func runPROToConvergence(t *testing.T, s *pro.Strategy, f func([]float64) float64, maxRounds int) int {
	t.Helper()
	round := 0
	for ; round < maxRounds; round++ {
		if s.Converged() {
			return round
		}
		hint := s.Prefetch()
		var trials []strategy.Trial
		for i := 0; i < hint.Depth; i++ {
			flow, p, err := s.Generate()
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if flow == strategy.Wait {
				break
			}
			trials = append(trials, strategy.Trial{Point: p, Perf: perf.Perf{Obj: []float64{f(p.Terms)}}})
		}
		for _, trial := range trials {
			if err := s.Analyze(trial); err != nil {
				t.Fatalf("Analyze: %v", err)
			}
		}
	}
	if !s.Converged() {
		t.Fatalf("PRO did not converge within %d rounds", maxRounds)
	}
	return round
}

func TestAngelConvergesSingleObjective(t *testing.T) {
	sp := mustSpace(t, space.NewContinuous(-10, 10), space.NewContinuous(-10, 10))
	cfg := mustCfg(t, harmonycfg.Map{
		"RANDOM_SEED": "1",
		"FVAL_TOL":    "0.0001",
		"SIZE_TOL":    "0.005",
	}, 1)

	var s Strategy
	if err := s.Init(sp, cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	runToConvergence(t, &s, func(terms []float64) []float64 {
		return []float64{sphere(terms)}
	}, 2000)

	best := s.Best()
	if got := sphere(best.Terms); got > 1e-3 {
		t.Errorf("best objective = %v, want within 1e-3 of 0", got)
	}
}

// TestAngelConvergesFasterThanPRO drives both strategies against the same
// sphere objective from the same seed and space, and checks that ANGEL's
// one-vertex-at-a-time refinement converges in well under PRO's round count.
func TestAngelConvergesFasterThanPRO(t *testing.T) {
	sp := mustSpace(t, space.NewContinuous(-10, 10), space.NewContinuous(-10, 10))

	angelCfg := mustCfg(t, harmonycfg.Map{
		"RANDOM_SEED": "1",
		"FVAL_TOL":    "0.0001",
		"SIZE_TOL":    "0.005",
	}, 1)
	var a Strategy
	if err := a.Init(sp, angelCfg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	angelRounds := runToConvergence(t, &a, func(terms []float64) []float64 {
		return []float64{sphere(terms)}
	}, 2000)

	proCfg, err := harmonycfg.ParsePRO(harmonycfg.Map{"RANDOM_SEED": "1"})
	if err != nil {
		t.Fatalf("ParsePRO: %v", err)
	}
	var p pro.Strategy
	if err := p.Init(sp, proCfg); err != nil {
		t.Fatalf("Init: %v", err)
	}
	proRounds := runPROToConvergence(t, &p, sphere, 2000)

	if limit := proRounds * 2 / 5; angelRounds > limit {
		t.Errorf("ANGEL took %d rounds, PRO took %d: want ANGEL <= 40%% of PRO (%d)", angelRounds, proRounds, limit)
	}
}

func TestAngelRogueReportRejected(t *testing.T) {
	sp := mustSpace(t, space.NewContinuous(-10, 10))
	cfg := mustCfg(t, harmonycfg.Map{
		"RANDOM_SEED": "2",
		"FVAL_TOL":    "0.0001",
		"SIZE_TOL":    "0.005",
	}, 1)

	var s Strategy
	if err := s.Init(sp, cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	_, p, err := s.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	rogue := strategy.Trial{Point: p, Perf: perf.Perf{Obj: []float64{1}}}
	rogue.Point.ID = p.ID + 1000
	if err := s.Analyze(rogue); !errors.Is(err, strategy.ErrRogueID) {
		t.Fatalf("Analyze on rogue id = %v, want ErrRogueID", err)
	}
}

func TestAngelHintAdoption(t *testing.T) {
	sp := mustSpace(t, space.NewContinuous(-10, 10))
	cfg := mustCfg(t, harmonycfg.Map{
		"RANDOM_SEED": "3",
		"FVAL_TOL":    "0.0001",
		"SIZE_TOL":    "0.005",
	}, 1)

	var s Strategy
	if err := s.Init(sp, cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	_, p, err := s.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	hint := p.Clone()
	hint.Terms[0] = 7
	replacement, err := s.Rejected(&hint, p)
	if err != nil {
		t.Fatalf("Rejected: %v", err)
	}
	if replacement.ID != p.ID {
		t.Errorf("hint adoption changed id: got %d, want %d", replacement.ID, p.ID)
	}
	if replacement.Terms[0] != 7 {
		t.Errorf("hint adoption did not copy coordinates: got %v", replacement.Terms)
	}
}

func TestAngelRejectedPenaltyDoesNotHang(t *testing.T) {
	sp := mustSpace(t, space.NewContinuous(-10, 10), space.NewContinuous(-10, 10))
	cfg := mustCfg(t, harmonycfg.Map{
		"RANDOM_SEED": "4",
		"FVAL_TOL":    "0.0001",
		"SIZE_TOL":    "0.005",
	}, 1)

	var s Strategy
	if err := s.Init(sp, cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	for round := 0; round < 200 && !s.Converged(); round++ {
		flow, p, err := s.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if flow == strategy.Wait {
			continue
		}
		if round%10 == 0 {
			replacement, err := s.Rejected(nil, p)
			if err != nil {
				t.Fatalf("Rejected: %v", err)
			}
			if err := s.Analyze(strategy.Trial{Point: replacement, Perf: perf.Perf{Obj: []float64{sphere(replacement.Terms)}}}); err != nil {
				t.Fatalf("Analyze after reject: %v", err)
			}
			continue
		}
		if err := s.Analyze(strategy.Trial{Point: p, Perf: perf.Perf{Obj: []float64{sphere(p.Terms)}}}); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
	}
}

func TestAngelMultiObjectivePhaseTransition(t *testing.T) {
	sp := mustSpace(t, space.NewContinuous(-10, 10))
	cfg := mustCfg(t, harmonycfg.Map{
		"RANDOM_SEED":  "5",
		"FVAL_TOL":     "0.0001",
		"SIZE_TOL":     "0.005",
		"ANGEL_LEEWAY": "0.5",
	}, 2)

	var s Strategy
	if err := s.Init(sp, cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	runToConvergence(t, &s, func(terms []float64) []float64 {
		return []float64{sphere(terms), shiftedSphere(terms)}
	}, 8000)

	if s.phase != 1 {
		t.Errorf("phase at convergence = %d, want 1 (last of 2 objectives)", s.phase)
	}
	if s.Best().ID == 0 {
		t.Error("expected a valid best point id after convergence")
	}
}
