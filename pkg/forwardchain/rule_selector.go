package forwardchain

import (
	"math/rand"

	"github.com/cognicore/forwardchain/pkg/hgraph"
	"github.com/cognicore/forwardchain/pkg/rulebase"
)

// RuleSelector implements spec.md §4.3: repeatedly tournament-select a
// rule from a mutable weight map, keep it the first time it unifies
// against source on at least one implicant term, otherwise discard it
// from the map and retry.
type RuleSelector struct {
	unifier *Unifier
	rng     *rand.Rand
}

// NewRuleSelector builds a selector backed by unifier, drawing
// tournament samples from rng.
func NewRuleSelector(unifier *Unifier, rng *rand.Rand) *RuleSelector {
	return &RuleSelector{unifier: unifier, rng: rng}
}

// Choose returns the first rule (by tournament order) that unifies
// against source, or nil once every candidate has been tried and
// rejected. rule terms are read from ruleStore; source is read from
// sourceStore. An error from the Unifier propagates immediately.
func (s *RuleSelector) Choose(ruleStore, sourceStore *hgraph.Store, source hgraph.Handle, rules []*rulebase.Rule) (*rulebase.Rule, error) {
	weights := make(map[*rulebase.Rule]float64, len(rules))
	for _, r := range rules {
		weights[r] = r.Weight
	}

	for len(weights) > 0 {
		r := tournamentSelect(s.rng, weights, tournamentSize)
		for _, term := range r.ImplicantSeq() {
			ok, err := s.unifier.Unify(ruleStore, sourceStore, source, term, r)
			if err != nil {
				return nil, err
			}
			if ok {
				return r, nil
			}
		}
		delete(weights, r)
	}
	return nil, nil
}
