// The harmonyfit program drives one of the PRO, ANGEL, or baseline search
// strategies against a toy objective function and reports the best point
// found. It stands in for the socket/RPC pipeline a full Active Harmony
// session would otherwise provide, exercising the strategy's Init,
// Generate, Analyze, Best, and Converged operations end to end from a
// single process.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/BabaYara/harmony/internal/harmonycfg"
	"github.com/BabaYara/harmony/perf"
	"github.com/BabaYara/harmony/space"
	"github.com/BabaYara/harmony/strategy"
	"github.com/BabaYara/harmony/strategy/angel"
	"github.com/BabaYara/harmony/strategy/baseline"
	"github.com/BabaYara/harmony/strategy/pro"
)

func main() {
	log.SetPrefix("harmonyfit: ")
	log.SetFlags(0)

	var (
		strategyName = flag.String("strategy", "pro", "search strategy: pro, angel, exhaustive, or random")
		objName      = flag.String("objective", "sphere", "objective function: sphere or rosenbrock")
		dims         = flag.Int("dims", 2, "number of continuous dimensions, each bounded [-10, 10]")
		seed         = flag.Uint64("seed", 1, "RNG seed")
		maxRounds    = flag.Int("max-rounds", 20000, "give up and report the best point found after this many trials")
		multiPhase   = flag.Bool("angel-two-phase", false, "for -strategy=angel, optimize sphere then shifted-sphere lexicographically")
	)
	flag.Parse()

	if *dims < 1 {
		log.Fatal("-dims must be at least 1")
	}

	dimList := make([]space.Dimension, *dims)
	for i := range dimList {
		dimList[i] = space.NewContinuous(-10, 10)
	}
	sp, err := space.New(dimList...)
	if err != nil {
		log.Fatalf("building search space: %v", err)
	}

	obj, err := objective(*objName)
	if err != nil {
		log.Fatal(err)
	}

	perfCount := 1
	eval := func(terms []float64) []float64 { return []float64{obj(terms)} }
	if *strategyName == "angel" && *multiPhase {
		perfCount = 2
		eval = func(terms []float64) []float64 {
			return []float64{obj(terms), shiftedObjective(obj, terms)}
		}
	}

	cfgMap := harmonycfg.Map{
		"RANDOM_SEED": fmt.Sprintf("%d", *seed),
		"FVAL_TOL":    "0.0001",
		"SIZE_TOL":    "0.005",
	}
	if perfCount > 1 {
		cfgMap["ANGEL_LEEWAY"] = "0.5"
	}

	s, err := buildStrategy(*strategyName)
	if err != nil {
		log.Fatal(err)
	}

	if err := s.Init(sp, configFor(s, cfgMap, perfCount)); err != nil {
		log.Fatalf("initializing %s strategy: %v", *strategyName, err)
	}

	round := 0
	for ; round < *maxRounds && !s.Converged(); round++ {
		flow, p, err := s.Generate()
		if err != nil {
			log.Fatalf("generate: %v", err)
		}
		if flow == strategy.Wait {
			continue
		}

		trial := strategy.Trial{Point: p, Perf: perf.Perf{Obj: eval(p.Terms)}}
		if err := s.Analyze(trial); err != nil {
			log.Fatalf("analyze: %v", err)
		}
	}

	best := s.Best()
	log.Printf("strategy=%s objective=%s dims=%d rounds=%d converged=%v", *strategyName, *objName, *dims, round, s.Converged())
	log.Printf("best point id=%d terms=%v value=%v", best.ID, best.Terms, obj(best.Terms))
}

// buildStrategy returns a zero-valued strategy.Strategy for name, deferring
// configuration (which needs the strategy's identity to pick the right
// harmonycfg parser) to configFor.
func buildStrategy(name string) (strategy.Strategy, error) {
	switch name {
	case "pro":
		return &pro.Strategy{}, nil
	case "angel":
		return &angel.Strategy{}, nil
	case "exhaustive":
		return &baseline.Exhaustive{}, nil
	case "random":
		return &baseline.Random{}, nil
	default:
		return nil, fmt.Errorf("unrecognized -strategy %q", name)
	}
}

// configFor parses cfgMap with the harmonycfg entry point matching s's
// concrete type.
func configFor(s strategy.Strategy, cfgMap harmonycfg.Map, perfCount int) strategy.Config {
	var (
		cfg strategy.Config
		err error
	)
	switch s.(type) {
	case *pro.Strategy:
		cfg, err = harmonycfg.ParsePRO(cfgMap)
	case *angel.Strategy:
		cfg, err = harmonycfg.ParseANGEL(cfgMap, perfCount)
	case *baseline.Exhaustive:
		cfg, err = harmonycfg.ParseExhaustive(cfgMap)
	case *baseline.Random:
		cfg, err = harmonycfg.ParseRandom(cfgMap)
	default:
		err = fmt.Errorf("no config parser registered for %T", s)
	}
	if err != nil {
		log.Fatalf("parsing configuration: %v", err)
	}
	return cfg
}

// objective resolves a named toy objective function.
func objective(name string) (func([]float64) float64, error) {
	switch name {
	case "sphere":
		return sphere, nil
	case "rosenbrock":
		return rosenbrock, nil
	default:
		return nil, fmt.Errorf("unrecognized -objective %q", name)
	}
}

// sphere is the classic sum-of-squares bowl, minimized at the origin.
func sphere(terms []float64) float64 {
	sum := 0.0
	for _, v := range terms {
		sum += v * v
	}
	return sum
}

// rosenbrock is the standard banana-shaped valley, minimized at every term
// equal to 1.
func rosenbrock(terms []float64) float64 {
	sum := 0.0
	for i := 0; i+1 < len(terms); i++ {
		a := terms[i+1] - terms[i]*terms[i]
		b := 1 - terms[i]
		sum += 100*a*a + b*b
	}
	return sum
}

// shiftedObjective evaluates base() after translating every term by 1,
// giving ANGEL's lexicographic demonstration a second objective whose
// minimum lies away from the first's.
func shiftedObjective(base func([]float64) float64, terms []float64) float64 {
	shifted := make([]float64, len(terms))
	for i, v := range terms {
		shifted[i] = v - 1
	}
	return base(shifted)
}
