package baseline

import (
	"math"
	"testing"

	"github.com/BabaYara/harmony/internal/harmonycfg"
	"github.com/BabaYara/harmony/perf"
	"github.com/BabaYara/harmony/space"
	"github.com/BabaYara/harmony/strategy"
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

func TestExhaustiveVisitsEveryFinitePointExactlyOnce(t *testing.T) {
	sp := mustSpace(t, space.NewFinite(3), space.NewFinite(2))
	cfg, err := harmonycfg.ParseExhaustive(harmonycfg.Map{"PASSES": "1"})
	if err != nil {
		t.Fatalf("ParseExhaustive: %v", err)
	}

	var s Exhaustive
	if err := s.Init(sp, cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	seen := make(map[[2]float64]int)
	for round := 0; round < 100 && !s.Converged(); round++ {
		_, p, err := s.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		seen[[2]float64{p.Terms[0], p.Terms[1]}]++
		if err := s.Analyze(strategy.Trial{Point: p, Perf: perf.Perf{Obj: []float64{sphere(p.Terms)}}}); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
	}

	if !s.Converged() {
		t.Fatal("expected convergence after a single pass over a 3x2 finite space")
	}
	if len(seen) != 6 {
		t.Fatalf("visited %d distinct points, want 6", len(seen))
	}
	for pt, n := range seen {
		if n != 1 {
			t.Errorf("point %v visited %d times, want 1", pt, n)
		}
	}
}

func TestExhaustiveTwoPassesDoublesVisitCount(t *testing.T) {
	sp := mustSpace(t, space.NewFinite(2))
	cfg, err := harmonycfg.ParseExhaustive(harmonycfg.Map{"PASSES": "2"})
	if err != nil {
		t.Fatalf("ParseExhaustive: %v", err)
	}

	var s Exhaustive
	if err := s.Init(sp, cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	visits := 0
	for round := 0; round < 20 && !s.Converged(); round++ {
		_, p, err := s.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		visits++
		if err := s.Analyze(strategy.Trial{Point: p, Perf: perf.Perf{Obj: []float64{sphere(p.Terms)}}}); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
	}

	if !s.Converged() {
		t.Fatal("expected convergence after two passes over a 2-value finite space")
	}
	if visits != 4 {
		t.Errorf("visited %d points across two passes, want 4", visits)
	}
}

func TestExhaustiveHintAdoption(t *testing.T) {
	sp := mustSpace(t, space.NewFinite(5))
	cfg, err := harmonycfg.ParseExhaustive(harmonycfg.Map{})
	if err != nil {
		t.Fatalf("ParseExhaustive: %v", err)
	}

	var s Exhaustive
	if err := s.Init(sp, cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	_, p, err := s.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	hint := p.Clone()
	hint.Terms[0] = 3
	replacement, err := s.Rejected(&hint, p)
	if err != nil {
		t.Fatalf("Rejected: %v", err)
	}
	if replacement.ID != p.ID {
		t.Errorf("hint adoption changed id: got %d, want %d", replacement.ID, p.ID)
	}
	if replacement.Terms[0] != 3 {
		t.Errorf("hint adoption did not copy coordinates: got %v", replacement.Terms)
	}
}

func TestExhaustiveRejectedWithoutHintKeepsID(t *testing.T) {
	sp := mustSpace(t, space.NewFinite(5))
	cfg, err := harmonycfg.ParseExhaustive(harmonycfg.Map{})
	if err != nil {
		t.Fatalf("ParseExhaustive: %v", err)
	}

	var s Exhaustive
	if err := s.Init(sp, cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	_, p, err := s.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	replacement, err := s.Rejected(nil, p)
	if err != nil {
		t.Fatalf("Rejected: %v", err)
	}
	if replacement.ID != p.ID {
		t.Errorf("rejection without a hint changed id: got %d, want %d", replacement.ID, p.ID)
	}
}

func TestRandomNeverConverges(t *testing.T) {
	sp := mustSpace(t, space.NewContinuous(-10, 10))
	cfg, err := harmonycfg.ParseRandom(harmonycfg.Map{"RANDOM_SEED": "1"})
	if err != nil {
		t.Fatalf("ParseRandom: %v", err)
	}

	var s Random
	if err := s.Init(sp, cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	for round := 0; round < 500; round++ {
		_, p, err := s.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if err := s.Analyze(strategy.Trial{Point: p, Perf: perf.Perf{Obj: []float64{sphere(p.Terms)}}}); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if s.Converged() {
			t.Fatal("Random strategy reported convergence")
		}
	}
}

func TestRandomTracksBestAcrossSamples(t *testing.T) {
	sp := mustSpace(t, space.NewContinuous(-10, 10), space.NewContinuous(-10, 10))
	cfg, err := harmonycfg.ParseRandom(harmonycfg.Map{"RANDOM_SEED": "2"})
	if err != nil {
		t.Fatalf("ParseRandom: %v", err)
	}

	var s Random
	if err := s.Init(sp, cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	bestSeen := math.Inf(1)
	for round := 0; round < 300; round++ {
		_, p, err := s.Generate()
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if err := s.Analyze(strategy.Trial{Point: p, Perf: perf.Perf{Obj: []float64{sphere(p.Terms)}}}); err != nil {
			t.Fatalf("Analyze: %v", err)
		}
		if got := sphere(s.Best().Terms); got > bestSeen {
			t.Fatalf("best objective regressed: %v > %v", got, bestSeen)
		}
		bestSeen = sphere(s.Best().Terms)
	}
	if s.Best().ID == 0 {
		t.Error("expected a valid best point id after sampling")
	}
}

func TestRandomHintAdoption(t *testing.T) {
	sp := mustSpace(t, space.NewContinuous(-10, 10))
	cfg, err := harmonycfg.ParseRandom(harmonycfg.Map{"RANDOM_SEED": "3"})
	if err != nil {
		t.Fatalf("ParseRandom: %v", err)
	}

	var s Random
	if err := s.Init(sp, cfg); err != nil {
		t.Fatalf("Init: %v", err)
	}

	_, p, err := s.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	hint := p.Clone()
	hint.Terms[0] = 4
	replacement, err := s.Rejected(&hint, p)
	if err != nil {
		t.Fatalf("Rejected: %v", err)
	}
	if replacement.ID != p.ID {
		t.Errorf("hint adoption changed id: got %d, want %d", replacement.ID, p.ID)
	}
	if replacement.Terms[0] != 4 {
		t.Errorf("hint adoption did not copy coordinates: got %v", replacement.Terms)
	}
}
