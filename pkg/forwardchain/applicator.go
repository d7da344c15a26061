package forwardchain

import (
	"fmt"

	"github.com/cognicore/forwardchain/pkg/hgraph"
	"github.com/cognicore/forwardchain/pkg/hmatch"
)

// Applicator implements spec.md §4.8, the Rule Applicator: apply a
// derived rule by either instantiating it directly (every implicant term
// is already fully grounded) or running it back through the pattern
// matcher (at least one term still carries a variable).
type Applicator struct {
	matcher hmatch.Matcher
}

// NewApplicator builds an Applicator backed by matcher.
func NewApplicator(matcher hmatch.Matcher) *Applicator {
	return &Applicator{matcher: matcher}
}

// ApplyDerived applies every derived BindLink handle (living in
// derivationStore) in turn, returning the union, in first-seen order, of
// every product across all of them. global is the chainer's global
// fact-store; focus is the active focus-set store, or nil outside
// focus-set mode. An error from the configured matcher propagates
// immediately, wrapped in ErrMatcherFailure (spec.md §7).
func (ap *Applicator) ApplyDerived(derivationStore, global, focus *hgraph.Store, derived []hgraph.Handle) ([]hgraph.Handle, error) {
	seen := make(map[hgraph.Handle]bool)
	var products []hgraph.Handle
	for _, rh := range derived {
		applied, err := ap.apply(derivationStore, global, focus, rh)
		if err != nil {
			return nil, err
		}
		for _, p := range applied {
			if !seen[p] {
				seen[p] = true
				products = append(products, p)
			}
		}
	}
	return products, nil
}

func (ap *Applicator) apply(store, global, focus *hgraph.Store, rhandle hgraph.Handle) ([]hgraph.Handle, error) {
	if !store.ContainsVariable(rhandle) {
		return ap.applyGrounded(store, global, focus, rhandle), nil
	}
	return ap.applyPartial(store, global, focus, rhandle)
}

// applyGrounded handles the fully-grounded branch: every implicant
// clause of rhandle must already exist, structurally, in global (and,
// under an active focus set, also in focus) before the implicand is
// instantiated. Nothing is matched — this is a pure existence check.
func (ap *Applicator) applyGrounded(store, global, focus *hgraph.Store, rhandle hgraph.Handle) []hgraph.Handle {
	bl := store.Get(rhandle)
	if bl == nil || bl.Type != hgraph.BindLink || len(bl.Outgoing) != 3 {
		return nil
	}
	body, implicand := bl.Outgoing[1], bl.Outgoing[2]

	for _, clause := range store.ImplicantSeq(body) {
		if _, ok := hgraph.Resolve(global, store, clause); !ok {
			return nil
		}
		if focus != nil {
			if _, ok := hgraph.Resolve(focus, store, clause); !ok {
				return nil
			}
		}
	}

	target := global
	if focus != nil {
		target = focus
	}
	return []hgraph.Handle{hgraph.Instantiate(target, store, implicand, hgraph.Bindings{})}
}

// applyPartial handles the partially-grounded branch: rhandle still
// contains variables, so it is copied into a scratch child of the
// target store (global, or the focus-set store under an active focus
// set) and run through the matcher, confined to exactly the atoms
// already present in the target store — never the scratch child's own
// newly-instantiated atoms, since candidates is captured once, up front
// (spec.md §4.8, Testable Property 7).
func (ap *Applicator) applyPartial(store, global, focus *hgraph.Store, rhandle hgraph.Handle) ([]hgraph.Handle, error) {
	target := global
	candidates := global.AllHandles()
	if focus != nil {
		target = focus
		candidates = focus.LocalHandles()
	}

	child := target.NewChild()
	rcopy := hgraph.CopyInto(child, store, rhandle)

	result, err := ap.matcher.Match(child, candidates, rcopy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMatcherFailure, err)
	}
	if result.IsUndefined() {
		return nil, nil
	}
	set := child.Get(result)
	if set == nil {
		return nil, nil
	}

	products := make([]hgraph.Handle, 0, len(set.Outgoing))
	for _, p := range set.Outgoing {
		products = append(products, hgraph.CopyInto(target, child, p))
	}
	return products, nil
}
