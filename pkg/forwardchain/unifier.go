package forwardchain

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/forwardchain/pkg/hgraph"
	"github.com/cognicore/forwardchain/pkg/hmatch"
	"github.com/cognicore/forwardchain/pkg/rulebase"
)

// typeHierarchy is the single fixed lattice shared by the Unifier, the
// Deriver and the Applicator's grounded gate.
var typeHierarchy = hgraph.NewTypeHierarchy()

// isValidImplicant is the shared term-validity pre-filter of spec.md
// §4.4 and §4.5: a term is eligible to unify or derive against only if
// it is not itself negated, is not a virtual (evaluatable-only) link,
// and actually contains at least one variable.
func isValidImplicant(store *hgraph.Store, term hgraph.Handle) bool {
	a := store.Get(term)
	if a == nil {
		return false
	}
	if a.Type == hgraph.NotLink {
		return false
	}
	if typeHierarchy.IsA(a.Type, hgraph.VirtualLink) {
		return false
	}
	return len(store.FindVariables(term)) > 0
}

// unifyKey memoizes Unify results by the identity of its three inputs.
// rule and term are read from ruleStore, source from sourceStore; the
// cache is sound across stores because a Handle already encodes which
// store it was allocated in.
type unifyKey struct {
	source, term, rule hgraph.Handle
}

// Unifier implements spec.md §4.4: can a given source atom ground a
// given implicant term of a given rule. It memoizes its answers with an
// LRU cache, since the same (source, term, rule) triple is re-tested
// every time the Rule Selector's tournament resamples a rule the current
// source has already been checked against.
type Unifier struct {
	matcher hmatch.Matcher
	cache   *lru.Cache[unifyKey, bool]
}

// NewUnifier builds a Unifier backed by matcher.
func NewUnifier(matcher hmatch.Matcher) *Unifier {
	cache, err := lru.New[unifyKey, bool](512)
	if err != nil {
		// Only returns an error for a non-positive size, which 512 never is.
		panic(err)
	}
	return &Unifier{matcher: matcher, cache: cache}
}

// Unify reports whether source can ground term, one of rule's implicant
// terms, living in ruleStore; source itself is read from sourceStore
// (spec.md §4.4). ruleStore and sourceStore are the same store outside
// focus-set mode; under an active focus set, sourceStore is the
// focus-set store while rule and term always live in the global,
// rule-owning store. An error from the configured matcher propagates
// wrapped in ErrMatcherFailure (spec.md §7) and is never cached, so a
// transient failure is retried rather than memoized as "does not unify".
func (u *Unifier) Unify(ruleStore, sourceStore *hgraph.Store, source, term hgraph.Handle, rule *rulebase.Rule) (bool, error) {
	if !isValidImplicant(ruleStore, term) {
		return false, nil
	}

	key := unifyKey{source: source, term: term, rule: rule.Handle}
	if v, ok := u.cache.Get(key); ok {
		return v, nil
	}

	ok, err := u.unify(ruleStore, sourceStore, source, term, rule)
	if err != nil {
		return false, err
	}
	u.cache.Add(key, ok)
	return ok, nil
}

func (u *Unifier) unify(ruleStore, sourceStore *hgraph.Store, source, term hgraph.Handle, rule *rulebase.Rule) (bool, error) {
	tmp := hgraph.NewStore()
	termCopy := hgraph.CopyInto(tmp, ruleStore, term)
	subDecl := subVarList(ruleStore, ruleStore, term, ruleStore, rule.VarDecl())
	declCopy := hgraph.CopyInto(tmp, ruleStore, subDecl)
	sourceCopy := hgraph.CopyInto(tmp, sourceStore, source)

	bl := tmp.NewBindLink(declCopy, termCopy, termCopy)
	result, err := u.matcher.Match(tmp, tmp.LocalHandles(), bl)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrMatcherFailure, err)
	}
	if result.IsUndefined() {
		return false, nil
	}
	set := tmp.Get(result)
	if set == nil {
		return false, nil
	}
	for _, h := range set.Outgoing {
		if h == sourceCopy {
			return true, nil
		}
	}
	return false, nil
}
