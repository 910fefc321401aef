package strategy

import "math"

// RejectMethod selects how a strategy replaces a point the host pipeline
// marked invalid, when no hint point is supplied.
type RejectMethod int

const (
	// RejectPenalty applies an infinite performance penalty to the
	// rejected vertex and lets the state machine pick the next candidate.
	// This is the default: it preserves simplex shape, at the cost of a
	// possible infinite rejection loop if an entire simplex is invalid
	// (mitigated by the bounds loop every strategy runs internally).
	RejectPenalty RejectMethod = iota
	// RejectRandom replaces the rejected vertex with a uniformly random
	// in-bounds point, at the cost of deforming the simplex.
	RejectRandom
)

// InitMethod selects how the initial simplex is constructed. PRO is the
// only strategy that reads it; ANGEL always builds its initial simplex the
// way InitPoint does.
type InitMethod int

const (
	// InitPoint centers the simplex at a user-supplied (or default-center)
	// point, using the full regular-simplex construction.
	InitPoint InitMethod = iota
	// InitPointFast is accepted by PRO only and builds exactly the same
	// simplex as InitPoint; no projection work is skipped.
	InitPointFast
	// InitRandom draws each simplex vertex as an independent uniform
	// sample of the space.
	InitRandom
)

// Config is the single typed struct every Config key of spec.md section 6
// parses into. A string-keyed map is only ever consulted at the adapter
// boundary (package internal/harmonycfg); the strategies themselves only
// ever see this struct.
type Config struct {
	// InitPointText is the textual coordinate of the simplex centre
	// (INIT_POINT). Empty means "use the space's center".
	InitPointText string
	// InitRadius is the simplex radius as a fraction of the space
	// diameter (INIT_RADIUS for ANGEL, PRO_INIT_PERCENT for PRO).
	InitRadius float64
	// InitMethod selects the construction method (PRO_INIT_METHOD,
	// PRO-only; ANGEL always behaves as InitPoint).
	InitMethod InitMethod

	// Reflect, Expand, Contract, Shrink are the simplex transform
	// coefficients (ρ, χ, γ, σ).
	Reflect, Expand, Contract, Shrink float64

	// Reject selects the rejection-replacement policy (REJECT_METHOD).
	Reject RejectMethod

	// FvalTol and SizeTol are the default convergence tolerances
	// (FVAL_TOL, SIZE_TOL), used when DistTol is unset.
	FvalTol, SizeTol float64
	// DistTol, if not NaN, overrides FvalTol/SizeTol with a
	// reflection-move-length convergence test (DIST_TOL); TolCnt is the
	// number of consecutive qualifying steps required (TOL_CNT).
	DistTol float64
	TolCnt  int

	// ProSimplexSize is PRO's simplex cardinality (PRO_SIMPLEX_SIZE); 0
	// means "use space.Len()+1".
	ProSimplexSize int

	// ExhaustivePasses is the number of odometer passes the Exhaustive
	// baseline strategy makes through the search space before it starts
	// re-serving its best point on every Generate call (PASSES).
	ExhaustivePasses int

	// PerfCount is the number of objectives (PERF_COUNT).
	PerfCount int

	// AngelLeeway holds PerfCount-1 per-phase leeway fractions
	// (ANGEL_LEEWAY), required whenever PerfCount > 1.
	AngelLeeway []float64
	// AngelMult is the penalty multiplier (ANGEL_MULT).
	AngelMult float64
	// AngelLoose selects aggregate (true) vs lexicographic (false)
	// violation weighting (ANGEL_LOOSE).
	AngelLoose bool
	// AngelAnchor carries the previous phase's best solution into the next
	// phase's simplex (ANGEL_ANCHOR).
	AngelAnchor bool
	// AngelSameSimplex re-uses the original initial simplex at every phase
	// transition (ANGEL_SAMESIMPLEX). When false, the initial simplex is
	// rebuilt from the same initial point and radius, which yields the same
	// vertices.
	AngelSameSimplex bool

	// RandomSeed seeds the strategy's RNG (RANDOM_SEED). HasRandomSeed
	// distinguishes "explicitly set to 0" from "unset" (defaults to wall
	// clock at Init).
	RandomSeed    uint64
	HasRandomSeed bool
}

// HasDistTol reports whether DistTol was configured (as opposed to being
// left at its NaN "unset" sentinel).
func (c Config) HasDistTol() bool {
	return !math.IsNaN(c.DistTol)
}
