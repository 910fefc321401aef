package strategy

import (
	"errors"
	"fmt"
)

// ErrConfigInvalid signifies a configuration key held a value outside its
// documented range.
var ErrConfigInvalid = errors.New("strategy: invalid configuration")

// ErrSpaceInvalid signifies an initial simplex could not be constructed
// in-bounds for the given space and configuration.
var ErrSpaceInvalid = errors.New("strategy: could not construct initial simplex in-bounds")

// ErrAllocation signifies scratch state could not be allocated for a fresh
// search instance.
var ErrAllocation = errors.New("strategy: allocation failed")

// ErrInternalState signifies the state machine reached a state its
// transition table does not account for.
var ErrInternalState = errors.New("strategy: unexpected internal state")

// ErrRogueID signifies Analyze was called with a point id the strategy did
// not generate. PRO silently ignores rogue reports instead of returning
// this error; ANGEL returns it, per spec.
var ErrRogueID = errors.New("strategy: reported point id is not outstanding")

// ConfigError carries structured detail about which configuration key
// failed validation and why.
type ConfigError struct {
	Key    string
	Reason string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("strategy: configuration key %s: %s", e.Key, e.Reason)
}

func (e ConfigError) Unwrap() error { return ErrConfigInvalid }
