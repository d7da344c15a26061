package forwardchain

import (
	"math/rand"

	"github.com/cognicore/forwardchain/pkg/hgraph"
	"github.com/cognicore/forwardchain/pkg/rulebase"
)

// SourceSelector implements spec.md §4.2: weighted-tournament choice of
// one not-yet-selected potential source, preferring novelty (an
// unselected source) but falling back to a selected one once every
// source has been tried at least once.
type SourceSelector struct {
	mode string
	rng  *rand.Rand
}

// NewSourceSelector builds a selector scoring sources under mode
// (rulebase.TVFitness or rulebase.STIBased), drawing tournament samples
// from rng.
func NewSourceSelector(mode string, rng *rand.Rand) *SourceSelector {
	return &SourceSelector{mode: mode, rng: rng}
}

// Choose picks one handle from potential, preferring one absent from
// selected, marks it selected and returns it. Returns hgraph.Undefined
// if potential is empty.
func (s *SourceSelector) Choose(store *hgraph.Store, potential, selected map[hgraph.Handle]bool) (hgraph.Handle, error) {
	if len(potential) == 0 {
		return hgraph.Undefined, nil
	}

	weights := make(map[hgraph.Handle]float64, len(potential))
	for h := range potential {
		w, err := s.weight(store, h)
		if err != nil {
			return hgraph.Undefined, err
		}
		weights[h] = w
	}

	var chosen hgraph.Handle
	for i := 0; i < len(weights); i++ {
		cand := tournamentSelect(s.rng, weights, tournamentSize)
		if !selected[cand] {
			chosen = cand
			selected[chosen] = true
			break
		}
	}
	if chosen.IsUndefined() {
		// Every source has already been selected once; return the
		// fallback tournament winner without inserting it again.
		chosen = tournamentSelect(s.rng, weights, tournamentSize)
	}

	return chosen, nil
}

func (s *SourceSelector) weight(store *hgraph.Store, h hgraph.Handle) (float64, error) {
	a := store.Get(h)
	if a == nil {
		return 0, nil
	}
	switch s.mode {
	case rulebase.TVFitness:
		return tvFitness(a.TV), nil
	case rulebase.STIBased:
		return a.AV.STI, nil
	default:
		return 0, ErrUnknownMode
	}
}

// tvFitness scores an atom by its truth-value mean, damped by confidence
// and by how much evidence (Count) backs it.
func tvFitness(tv hgraph.TruthValue) float64 {
	return tv.Mean * tv.Confidence * (tv.Count / (tv.Count + 1))
}
