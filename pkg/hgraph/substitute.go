package hgraph

// Bindings maps variable handles to their ground values.
type Bindings map[Handle]Handle

// rewrite is the shared left-to-right walk backing both Substitute and
// Instantiate: rebuild h, replacing any handle present in bindings with
// its bound value, recursing into outgoing sets, and interning the
// result into dst.
func rewrite(dst *Store, src *Store, h Handle, bindings Bindings) Handle {
	if v, ok := bindings[h]; ok {
		return v
	}
	a := src.Get(h)
	if a == nil {
		return h
	}
	if a.IsNode() {
		return dst.AddNode(a.Type, a.Name)
	}
	outgoing := make([]Handle, len(a.Outgoing))
	for i, o := range a.Outgoing {
		outgoing[i] = rewrite(dst, src, o, bindings)
	}
	return dst.Add(&Atom{Type: a.Type, Name: a.Name, Outgoing: outgoing, TV: a.TV, AV: a.AV})
}

// Substitute performs the pure structural rewrite required by spec.md
// §6's Substitutor collaborator: substitute(atom, bindings) → atom. Used
// by the Rule Deriver / Variable Substitution Rewriter to build new
// bodies and implicands from variable groundings.
func Substitute(dst *Store, src *Store, h Handle, bindings Bindings) Handle {
	return rewrite(dst, src, h, bindings)
}

// Instantiate performs the Instantiator collaborator's
// instantiate(template, bindings) → atom: a left-to-right walk that
// rebuilds template while substituting any embedded references. Used by
// the fully-grounded branch of the Rule Applicator (spec.md §4.8), where
// bindings is typically empty — the implicand is simply interned into the
// target store.
func Instantiate(dst *Store, src *Store, template Handle, bindings Bindings) Handle {
	return rewrite(dst, src, template, bindings)
}
