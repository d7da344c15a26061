package forwardchain

import "github.com/cognicore/forwardchain/pkg/hgraph"

// subVarList builds, in outStore, a new variable-list atom holding only
// the entries of parentVarDecl (read from declStore) whose declared
// variable's name occurs among the variables of pattern (read from
// patternStore), in parentVarDecl's original order (spec.md §4.6,
// Testable Property 5).
//
// Identity is compared by variable name rather than by Handle, since a
// pattern copied into a temporary store (the Unifier's and Deriver's
// tiny scratch stores, or a derivation store) never shares Handles with
// the rule's original declaration even though both name the same
// variable — interning guarantees that any two atoms with the same name
// within the *same* store already collapse to one Handle, so comparing
// by name costs nothing in the common same-store case and is what makes
// the cross-store case (the Variable Substitution Rewriter, spec.md
// §4.7) possible at all.
func subVarList(outStore, patternStore *hgraph.Store, pattern hgraph.Handle, declStore *hgraph.Store, parentVarDecl hgraph.Handle) hgraph.Handle {
	used := make(map[string]bool)
	for v := range patternStore.FindVariables(pattern) {
		if a := patternStore.Get(v); a != nil {
			used[a.Name] = true
		}
	}

	var decls []hgraph.Handle
	for _, d := range declStore.VarDeclOutgoing(parentVarDecl) {
		name := ""
		if v := declStore.DeclaredVariable(d); v != hgraph.Undefined {
			if a := declStore.Get(v); a != nil {
				name = a.Name
			}
		}
		if used[name] {
			decls = append(decls, hgraph.CopyInto(outStore, declStore, d))
		}
	}
	return outStore.NewVariableList(decls...)
}

// sanitizeByValue returns a copy of bindings with every entry whose value
// is bad removed. The Rule Deriver's temporary store (spec.md §4.5)
// contains the restricted variable declaration itself as a candidate
// atom alongside term and source, so a bare pattern variable can
// spuriously "ground" to the declaration atom; sanitizing both the
// variable- and term-groundings before use discards those spurious
// bindings. Built by collecting into a fresh map rather than deleting
// from the map being iterated, resolving the ambiguity spec.md §9 leaves
// open about mutating a grounding map in place.
func sanitizeByValue(bindings hgraph.Bindings, bad hgraph.Handle) hgraph.Bindings {
	out := make(hgraph.Bindings, len(bindings))
	for k, v := range bindings {
		if v == bad {
			continue
		}
		out[k] = v
	}
	return out
}
