// Package hmatch implements the external Pattern Matcher collaborator
// described by spec.md §6: given a BindLink and a pool of candidate
// atoms, enumerate the ways the BindLink's body can be grounded and
// instantiate its implicand per grounding.
package hmatch

import "github.com/cognicore/forwardchain/pkg/hgraph"

// Callback receives the parallel variable- and term-grounding maps of one
// successful match (spec.md §4.5, §9 "Variable-grounding bundles") and
// reports whether the caller wants to keep searching for more matches.
// Returning false does not reject the grounding already reported — it
// only short-circuits the remainder of the search (used by the
// Unifier, which only needs to know that at least one match exists).
type Callback interface {
	Grounding(varGroundings, termGroundings hgraph.Bindings) (keepGoing bool)
}

// CallbackFunc adapts a plain function to Callback.
type CallbackFunc func(varGroundings, termGroundings hgraph.Bindings) bool

// Grounding implements Callback.
func (f CallbackFunc) Grounding(v, t hgraph.Bindings) bool { return f(v, t) }

// Matcher is the Pattern Matcher collaborator of spec.md §6. pm is the
// store the BindLink and its pattern atoms live in; candidates is the
// exact pool of atoms eligible to ground the pattern's clauses — callers
// choose it explicitly so focus-set confinement (spec.md §4.8) and the
// Unifier/Deriver's tiny temporary stores (spec.md §4.4, §4.5) can each
// supply the right search space without the matcher guessing it from
// store ancestry.
type Matcher interface {
	// Match enumerates every grounding of bindLink's body over candidates
	// and returns a SetLink handle whose outgoing set is the distinct
	// instantiated implicands. If bindLink does not resolve to a
	// 3-element BindLink, it returns Undefined (spec.md §9: "When the
	// outer bindlink result is not a link, the source silently yields an
	// empty result").
	Match(pm *hgraph.Store, candidates []hgraph.Handle, bindLink hgraph.Handle) (hgraph.Handle, error)

	// Imply runs the same search as Match but invokes cb once per
	// grounding instead of auto-instantiating the implicand.
	Imply(pm *hgraph.Store, candidates []hgraph.Handle, bindLink hgraph.Handle, cb Callback) error
}
