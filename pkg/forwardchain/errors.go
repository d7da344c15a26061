// Package forwardchain implements the forward-chaining control loop:
// stochastic source and rule selection, unification, rule derivation and
// the rule applicator, layered over the hgraph fact-store and the hmatch
// pattern matcher.
package forwardchain

import "errors"

// Sentinel errors raised by the chainer's own control-flow checks
// (spec.md §7). Soft conditions — no source found, no rule unifies — are
// not errors; they surface only as empty results.
var (
	// ErrInvalidSource is returned by New when the supplied initial
	// source handle is undefined.
	ErrInvalidSource = errors.New("forwardchain: invalid source")

	// ErrUnknownMode is returned when a rule base names a source
	// selection mode other than TV_FITNESS or STI_BASED.
	ErrUnknownMode = errors.New("forwardchain: unknown source selection mode")

	// ErrMatcherFailure wraps an error surfaced by the configured
	// pattern matcher during a chaining step.
	ErrMatcherFailure = errors.New("forwardchain: pattern matcher failure")
)
