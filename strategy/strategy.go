// Package strategy defines the interface every search strategy (PRO, ANGEL,
// and the baseline enumerators) implements, along with the shared Config,
// Flow, and Trial types the host pipeline and the strategies exchange.
//
// Each Strategy value is single-threaded and cooperative: Init, Generate,
// Rejected, Analyze, and Best are disjoint, non-blocking calls the host
// pipeline makes in sequence. None of them suspends internally or performs
// I/O; the only concurrency boundary is that measurement of a generated
// point happens entirely outside the strategy.
package strategy

import (
	"github.com/BabaYara/harmony/perf"
	"github.com/BabaYara/harmony/point"
	"github.com/BabaYara/harmony/space"
)

// Flow reports how the host should treat the return value of Generate or
// Rejected.
type Flow int

const (
	// Accept means the returned point is ready to be dispatched to the
	// host pipeline for measurement.
	Accept Flow = iota
	// Wait means a previously generated point has not yet been analyzed
	// or rejected; the strategy has nothing new to offer. Candidate id
	// equality with the last-generated point is the sentinel for this
	// condition.
	Wait
)

func (f Flow) String() string {
	if f == Wait {
		return "wait"
	}
	return "accept"
}

// Trial is a point together with its measured performance, as reported to
// Analyze.
type Trial struct {
	Point point.Point
	Perf  perf.Perf
}

// PrefetchHint tells the host pipeline how many outstanding candidates a
// strategy wants prepared ahead of measurement, and whether they must be
// delivered as an atomic batch (PRO requires its whole simplex to be
// measured together; ANGEL has no such requirement).
type PrefetchHint struct {
	Atomic bool
	Depth  int
}

// Strategy is the contract every search strategy satisfies. The host
// pipeline calls Init once, then Generate/Rejected/Analyze/Best repeatedly
// until Converged returns true.
type Strategy interface {
	// Init (re-)initializes the strategy for a fresh search over sp. It
	// resets search state but must not retain sp's backing storage in a
	// way the caller could mutate out from under it.
	Init(sp space.Space, cfg Config) error

	// Generate returns the next candidate point, or Wait if a previously
	// generated point is still outstanding.
	Generate() (Flow, point.Point, error)

	// Rejected regenerates a point the host pipeline marked invalid. hint,
	// if non-nil, is adopted as the point's actual coordinates, preserving
	// id; otherwise the strategy's configured rejection policy (penalty or
	// random replacement) applies.
	Rejected(hint *point.Point, p point.Point) (point.Point, error)

	// Analyze reports the measured performance for a previously generated
	// point, advancing the state machine. A trial whose id does not match
	// the outstanding candidate is a "rogue" report; strategies may ignore
	// it silently or return ErrRogueID, per their own contract.
	Analyze(trial Trial) error

	// Best returns the best point observed so far in the current phase. An
	// id of 0 means no point has been analyzed yet.
	Best() point.Point

	// Converged reports whether the search has reached its terminal state.
	Converged() bool

	// Prefetch reports this strategy's prefetch requirements.
	Prefetch() PrefetchHint
}
