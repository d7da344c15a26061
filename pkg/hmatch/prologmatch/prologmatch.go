// Package prologmatch is an alternate Pattern Matcher (spec.md §6) that
// delegates unification and backtracking to an embedded
// github.com/ichiban/prolog interpreter instead of the hand-rolled
// recursive backtracker in package hmatch: every candidate atom becomes a
// Prolog fact, every implicant clause becomes a Prolog goal, and each
// solution the interpreter reports is translated back into a grounding.
package prologmatch

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/ichiban/prolog"

	"github.com/cognicore/forwardchain/pkg/hgraph"
	"github.com/cognicore/forwardchain/pkg/hmatch"
)

// Matcher implements hmatch.Matcher over a fresh Prolog interpreter per
// search — the candidate pool and pattern are small enough per call
// (spec.md §4.4, §4.5, §4.8 temporary stores) that reusing one
// interpreter across calls would only risk leftover database state.
type Matcher struct{}

// New builds a prolog-backed Matcher.
func New() *Matcher { return &Matcher{} }

var _ hmatch.Matcher = (*Matcher)(nil)

func (m *Matcher) Match(pm *hgraph.Store, candidates []hgraph.Handle, bindLink hgraph.Handle) (hgraph.Handle, error) {
	_, body, implicand, ok := decomposeBindLink(pm, bindLink)
	if !ok {
		return hgraph.Undefined, nil
	}
	candidates = excludeSyntax(pm, bindLink, candidates)
	seen := map[hgraph.Handle]bool{}
	var results []hgraph.Handle
	err := search(pm, candidates, body, func(g hgraph.Bindings) bool {
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

func (m *Matcher) Imply(pm *hgraph.Store, candidates []hgraph.Handle, bindLink hgraph.Handle, cb hmatch.Callback) error {
	_, body, _, ok := decomposeBindLink(pm, bindLink)
	if !ok {
		return nil
	}
	candidates = excludeSyntax(pm, bindLink, candidates)
	return search(pm, candidates, body, func(g hgraph.Bindings) bool {
		varG := make(hgraph.Bindings)
		for k, v := range g {
			if a := pm.Get(k); a != nil && a.Type == hgraph.VariableNode {
				varG[k] = v
			}
		}
		return cb.Grounding(varG, g)
	})
}

func decomposeBindLink(pm *hgraph.Store, h hgraph.Handle) (vardecl, body, implicand hgraph.Handle, ok bool) {
	a := pm.Get(h)
	if a == nil || a.Type != hgraph.BindLink || len(a.Outgoing) != 3 {
		return hgraph.Undefined, hgraph.Undefined, hgraph.Undefined, false
	}
	return a.Outgoing[0], a.Outgoing[1], a.Outgoing[2], true
}

// excludeSyntax and collectSyntaxLinks are grounded on, and duplicate in
// miniature, package hmatch's own backtrack.go helpers of the same name:
// the rationale (a pattern sharing a store with its candidate pool must
// not be allowed to match against its own syntax tree) is identical, but
// the helper is small enough, and hmatch's own copy unexported, that
// copying it here beats exporting a new cross-package API for it.
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

// search enumerates every grounding of body over candidates by running
// one Prolog query per OrLink disjunct, mirroring backtrack.go's own
// disjuncts/matchClauses decomposition.
func search(pm *hgraph.Store, candidates []hgraph.Handle, body hgraph.Handle, yield func(hgraph.Bindings) bool) error {
	for _, clauses := range disjuncts(pm, body) {
		stop, err := searchClauses(pm, candidates, clauses, yield)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

func disjuncts(pm *hgraph.Store, body hgraph.Handle) [][]hgraph.Handle {
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

// searchClauses grounds one conjunction of clauses against candidates,
// invoking yield once per distinct grounding. A conjunction with no
// pattern variables at all (every clause already fully ground) is
// answered directly by membership, bypassing the interpreter entirely —
// there is nothing for Prolog to bind.
func searchClauses(pm *hgraph.Store, candidates []hgraph.Handle, clauses []hgraph.Handle, yield func(hgraph.Bindings) bool) (bool, error) {
	vars := make(map[hgraph.Handle]bool)
	for _, c := range clauses {
		for v := range pm.FindVariables(c) {
			vars[v] = true
		}
	}
	if len(vars) == 0 {
		for _, c := range clauses {
			if !containsHandle(candidates, c) {
				return false, nil
			}
		}
		return !yield(hgraph.Bindings{}), nil
	}

	decode := make(map[string]hgraph.Handle)
	p := prolog.New(nil, nil)

	var facts strings.Builder
	seenCand := make(map[hgraph.Handle]bool)
	for _, c := range candidates {
		if seenCand[c] {
			continue
		}
		seenCand[c] = true
		fmt.Fprintf(&facts, "%s.\n", termFor(pm, c, false, decode))
	}
	if err := p.Exec(facts.String()); err != nil {
		return false, fmt.Errorf("prologmatch: asserting candidates: %w", err)
	}

	goalTerms := make([]string, len(clauses))
	for i, c := range clauses {
		goalTerms[i] = termFor(pm, c, true, decode)
	}
	query := strings.Join(goalTerms, ", ") + "."

	sols, err := p.Query(query)
	if err != nil {
		return false, fmt.Errorf("prologmatch: query %q: %w", query, err)
	}
	defer sols.Close()

	varList := make([]hgraph.Handle, 0, len(vars))
	fields := make([]reflect.StructField, 0, len(vars))
	for v := range vars {
		varList = append(varList, v)
		fields = append(fields, reflect.StructField{
			Name: patternVar(v),
			Type: reflect.TypeOf(""),
		})
	}
	structType := reflect.StructOf(fields)

	for sols.Next() {
		dest := reflect.New(structType)
		if err := sols.Scan(dest.Interface()); err != nil {
			return false, fmt.Errorf("prologmatch: scanning solution: %w", err)
		}
		g := make(hgraph.Bindings, len(varList)+len(clauses))
		elem := dest.Elem()
		for _, v := range varList {
			val := elem.FieldByName(patternVar(v)).String()
			if h, ok := decode[val]; ok {
				g[v] = h
			}
		}
		for _, c := range clauses {
			g[c] = hgraph.Instantiate(pm, pm, c, g)
		}
		if !yield(g) {
			return true, nil
		}
	}
	if err := sols.Err(); err != nil {
		return false, fmt.Errorf("prologmatch: iterating solutions: %w", err)
	}
	return false, nil
}

func containsHandle(hs []hgraph.Handle, h hgraph.Handle) bool {
	for _, c := range hs {
		if c == h {
			return true
		}
	}
	return false
}

// termFor renders h as Prolog source text. Ground atoms (nodes, and
// zero-arity links used as bare constants) become quoted atom literals
// keyed by h's own Handle.String() encoding, registered into decode so a
// solution's bound text can be translated back into a real Handle;
// VariableNode leaves within a pattern clause become genuine free Prolog
// variables instead. Link functors are always quoted, since an atom's
// Name (e.g. "Implication") does not in general satisfy Prolog's
// unquoted-atom lexical rule (lowercase-initial).
func termFor(pm *hgraph.Store, h hgraph.Handle, pattern bool, decode map[string]hgraph.Handle) string {
	a := pm.Get(h)
	if a == nil {
		return "nil"
	}
	if pattern && a.Type == hgraph.VariableNode {
		return patternVar(h)
	}
	if a.IsNode() {
		key := h.String()
		decode[key] = h
		return "'" + key + "'"
	}
	functor := a.Name
	if functor == "" {
		functor = typeName(a.Type)
	}
	if len(a.Outgoing) == 0 {
		key := h.String()
		decode[key] = h
		return "'" + functor + "'"
	}
	args := make([]string, len(a.Outgoing))
	for i, o := range a.Outgoing {
		args[i] = termFor(pm, o, pattern, decode)
	}
	return "'" + functor + "'(" + strings.Join(args, ", ") + ")"
}

// patternVar derives a Prolog (and, conveniently, Go-identifier-legal)
// variable name from h, deterministic so the same variable referenced
// from multiple clauses of one conjunction renders to the same Prolog
// variable and unifies across them.
func patternVar(h hgraph.Handle) string {
	r := strings.NewReplacer("#", "", ".", "_")
	return "V" + r.Replace(h.String())
}

func typeName(t hgraph.Type) string {
	switch t {
	case hgraph.Node:
		return "node"
	case hgraph.VariableNode:
		return "variablenode"
	case hgraph.Link:
		return "link"
	case hgraph.OrderedLink:
		return "orderedlink"
	case hgraph.UnorderedLink:
		return "unorderedlink"
	case hgraph.TypedVariableLink:
		return "typedvariablelink"
	case hgraph.VariableList:
		return "variablelist"
	case hgraph.AndLink:
		return "andlink"
	case hgraph.OrLink:
		return "orlink"
	case hgraph.NotLink:
		return "notlink"
	case hgraph.SetLink:
		return "setlink"
	case hgraph.BindLink:
		return "bindlink"
	case hgraph.ImplicationLink:
		return "implicationlink"
	case hgraph.GreaterThanLink:
		return "greaterthanlink"
	case hgraph.EqualLink:
		return "equallink"
	case hgraph.VirtualLink:
		return "virtuallink"
	default:
		return "atom"
	}
}
