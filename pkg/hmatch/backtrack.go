package hmatch

import "github.com/cognicore/forwardchain/pkg/hgraph"

// Backtracker is the default, hand-rolled reference Matcher: a recursive
// backtracking grounding enumerator. It requires no external solver and
// is what the core forward-chainer package exercises in its tests.
type Backtracker struct {
	hierarchy *hgraph.TypeHierarchy
}

// NewBacktracker builds a Backtracker over the standard type lattice.
func NewBacktracker() *Backtracker {
	return &Backtracker{hierarchy: hgraph.NewTypeHierarchy()}
}

func (m *Backtracker) Match(pm *hgraph.Store, candidates []hgraph.Handle, bindLink hgraph.Handle) (hgraph.Handle, error) {
	vardecl, body, implicand, ok := decomposeBindLink(pm, bindLink)
	_ = vardecl
	if !ok {
		return hgraph.Undefined, nil
	}
	candidates = excludeSyntax(pm, bindLink, candidates)
	seen := map[hgraph.Handle]bool{}
	var results []hgraph.Handle
	err := m.search(pm, candidates, body, func(g hgraph.Bindings) bool {
		inst := hgraph.Instantiate(pm, pm, implicand, g)
		if !seen[inst] {
			seen[inst] = true
			results = append(results, inst)
		}
		return true
	})
	if err != nil {
		return hgraph.Undefined, err
	}
	return pm.AddLink(hgraph.SetLink, results...), nil
}

func (m *Backtracker) Imply(pm *hgraph.Store, candidates []hgraph.Handle, bindLink hgraph.Handle, cb Callback) error {
	vardecl, body, _, ok := decomposeBindLink(pm, bindLink)
	_ = vardecl
	if !ok {
		return nil
	}
	candidates = excludeSyntax(pm, bindLink, candidates)
	return m.search(pm, candidates, body, func(g hgraph.Bindings) bool {
		varG := make(hgraph.Bindings)
		for k, v := range g {
			if a := pm.Get(k); a != nil && a.Type == hgraph.VariableNode {
				varG[k] = v
			}
		}
		return cb.Grounding(varG, g)
	})
}

// excludeSyntax drops from candidates every link atom belonging to
// bindLink's own syntax tree (its vardecl, body and implicand, walked
// recursively through link outgoing sets). Without this, a query whose
// pattern and candidate pool share a store — as the Unifier's and
// Deriver's tiny scratch stores do — would let an unbound pattern
// variable spuriously "ground" to a sibling clause of its own pattern,
// since query syntax is itself just atoms sitting in the same arena as
// the facts being searched. Leaf nodes are never excluded: a ground
// constant referenced by the pattern is still a legitimate candidate
// value elsewhere.
func excludeSyntax(pm *hgraph.Store, bindLink hgraph.Handle, candidates []hgraph.Handle) []hgraph.Handle {
	exclude := make(map[hgraph.Handle]bool)
	collectSyntaxLinks(pm, bindLink, exclude)
	if len(exclude) == 0 {
		return candidates
	}
	out := make([]hgraph.Handle, 0, len(candidates))
	for _, c := range candidates {
		if !exclude[c] {
			out = append(out, c)
		}
	}
	return out
}

func collectSyntaxLinks(pm *hgraph.Store, h hgraph.Handle, out map[hgraph.Handle]bool) {
	a := pm.Get(h)
	if a == nil || a.IsNode() || out[h] {
		return
	}
	out[h] = true
	for _, o := range a.Outgoing {
		collectSyntaxLinks(pm, o, out)
	}
}

func decomposeBindLink(pm *hgraph.Store, h hgraph.Handle) (vardecl, body, implicand hgraph.Handle, ok bool) {
	a := pm.Get(h)
	if a == nil || a.Type != hgraph.BindLink || len(a.Outgoing) != 3 {
		return hgraph.Undefined, hgraph.Undefined, hgraph.Undefined, false
	}
	return a.Outgoing[0], a.Outgoing[1], a.Outgoing[2], true
}

// search enumerates every grounding of body over candidates, invoking
// yield once per grounding. yield returning false stops the search.
func (m *Backtracker) search(pm *hgraph.Store, candidates []hgraph.Handle, body hgraph.Handle, yield func(hgraph.Bindings) bool) error {
	branches := m.disjuncts(pm, body)
	for _, clauses := range branches {
		stop, err := m.matchClauses(pm, candidates, clauses, 0, hgraph.Bindings{}, yield)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

// disjuncts decomposes body into independent alternatives: an OrLink's
// outgoing set, each further AND-flattened, or a single alternative
// consisting of body's own AND-flattened clauses.
func (m *Backtracker) disjuncts(pm *hgraph.Store, body hgraph.Handle) [][]hgraph.Handle {
	a := pm.Get(body)
	if a == nil {
		return nil
	}
	if a.Type == hgraph.OrLink {
		branches := make([][]hgraph.Handle, 0, len(a.Outgoing))
		for _, o := range a.Outgoing {
			branches = append(branches, pm.ImplicantSeq(o))
		}
		return branches
	}
	return [][]hgraph.Handle{pm.ImplicantSeq(body)}
}

// matchClauses tries to satisfy clauses[i:] in order, threading bindings
// through the conjunction. Returns stop=true once yield asks to halt.
func (m *Backtracker) matchClauses(pm *hgraph.Store, candidates []hgraph.Handle, clauses []hgraph.Handle, i int, g hgraph.Bindings, yield func(hgraph.Bindings) bool) (bool, error) {
	if i == len(clauses) {
		return !yield(g), nil
	}
	clause := clauses[i]
	for _, cand := range candidates {
		g2, ok := m.matchAtom(pm, clause, cand, g)
		if !ok {
			continue
		}
		stop, err := m.matchClauses(pm, candidates, clauses, i+1, g2, yield)
		if err != nil || stop {
			return stop, err
		}
	}
	return false, nil
}

func cloneBindings(g hgraph.Bindings) hgraph.Bindings {
	out := make(hgraph.Bindings, len(g)+1)
	for k, v := range g {
		out[k] = v
	}
	return out
}

// matchAtom attempts to unify pattern atom pat against candidate atom
// cand within the single store pm (where both pattern and, for the
// Unifier/Deriver's tiny temporary stores, the candidate pool live),
// extending g. Structural equality — not handle equality — is what
// matters here, since a pattern and a fact it should match were
// typically interned into different stores.
func (m *Backtracker) matchAtom(pm *hgraph.Store, pat, cand hgraph.Handle, g hgraph.Bindings) (hgraph.Bindings, bool) {
	if existing, bound := g[pat]; bound {
		if existing == cand {
			return g, true
		}
		return nil, false
	}

	pa := pm.Get(pat)
	if pa == nil {
		return nil, false
	}
	if pa.Type == hgraph.VariableNode {
		g2 := cloneBindings(g)
		g2[pat] = cand
		return g2, true
	}

	ca := pm.Get(cand)
	if ca == nil || ca.Type != pa.Type {
		return nil, false
	}
	if pa.IsNode() {
		if pa.Name == ca.Name {
			g2 := cloneBindings(g)
			g2[pat] = cand
			return g2, true
		}
		return nil, false
	}

	if pa.Name != ca.Name || len(pa.Outgoing) != len(ca.Outgoing) {
		return nil, false
	}

	var cur hgraph.Bindings
	var ok bool
	if m.hierarchy.IsA(pa.Type, hgraph.UnorderedLink) {
		cur, ok = m.matchUnordered(pm, pa.Outgoing, ca.Outgoing, g)
	} else {
		cur, ok = g, true
		for i := range pa.Outgoing {
			cur, ok = m.matchAtom(pm, pa.Outgoing[i], ca.Outgoing[i], cur)
			if !ok {
				return nil, false
			}
		}
	}
	if !ok {
		return nil, false
	}
	cur = cloneBindings(cur)
	cur[pat] = cand
	return cur, true
}

// matchUnordered finds a bijection between patternChildren and
// candidateChildren such that every pair unifies, taking the first
// satisfying assignment rather than exhaustively enumerating every
// permutation — UNORDERED_LINK nesting below the top level of a rule
// body does not occur in this module's scenarios, so this bound is
// acceptable (see DESIGN.md).
func (m *Backtracker) matchUnordered(pm *hgraph.Store, patternChildren, candidateChildren []hgraph.Handle, g hgraph.Bindings) (hgraph.Bindings, bool) {
	used := make([]bool, len(candidateChildren))
	return m.matchUnorderedFrom(pm, patternChildren, candidateChildren, 0, used, g)
}

func (m *Backtracker) matchUnorderedFrom(pm *hgraph.Store, pats, cands []hgraph.Handle, idx int, used []bool, g hgraph.Bindings) (hgraph.Bindings, bool) {
	if idx == len(pats) {
		return g, true
	}
	for j, cand := range cands {
		if used[j] {
			continue
		}
		g2, ok := m.matchAtom(pm, pats[idx], cand, g)
		if !ok {
			continue
		}
		used[j] = true
		if g3, ok := m.matchUnorderedFrom(pm, pats, cands, idx+1, used, g2); ok {
			return g3, true
		}
		used[j] = false
	}
	return nil, false
}
