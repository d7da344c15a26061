package forwardchain

import (
	"fmt"

	"github.com/cognicore/forwardchain/pkg/hgraph"
	"github.com/cognicore/forwardchain/pkg/hmatch"
	"github.com/cognicore/forwardchain/pkg/rulebase"
)

// Deriver implements spec.md §4.5, the Rule Deriver: given a source and a
// rule, produce the specialized BindLink handles obtained by unifying
// the source against each implicant term in turn and substituting the
// resulting groundings into the rule's body and implicand.
type Deriver struct {
	matcher hmatch.Matcher
}

// NewDeriver builds a Deriver backed by matcher.
func NewDeriver(matcher hmatch.Matcher) *Deriver {
	return &Deriver{matcher: matcher}
}

// DeriveRules derives rule against source, interning every resulting
// specialized BindLink into derivationStore and returning their handles,
// deduplicated, in first-seen order, excluding any rule that turned out
// identical to the input (no variable was actually bound). rule and its
// terms are read from ruleStore; source is read from sourceStore. An
// error from the configured matcher propagates immediately, wrapped in
// ErrMatcherFailure (spec.md §7).
func (d *Deriver) DeriveRules(derivationStore, ruleStore, sourceStore *hgraph.Store, source hgraph.Handle, rule *rulebase.Rule) ([]hgraph.Handle, error) {
	seen := make(map[hgraph.Handle]bool)
	var out []hgraph.Handle
	for _, term := range rule.ImplicantSeq() {
		derived, err := d.deriveForTerm(derivationStore, ruleStore, sourceStore, source, term, rule)
		if err != nil {
			return nil, err
		}
		for _, h := range derived {
			if !seen[h] {
				seen[h] = true
				out = append(out, h)
			}
		}
	}
	return out, nil
}

func (d *Deriver) deriveForTerm(derivationStore, ruleStore, sourceStore *hgraph.Store, source, term hgraph.Handle, rule *rulebase.Rule) ([]hgraph.Handle, error) {
	if !isValidImplicant(ruleStore, term) {
		return nil, nil
	}

	tmp := hgraph.NewStore()
	termCopy := hgraph.CopyInto(tmp, ruleStore, term)
	subDecl := subVarList(ruleStore, ruleStore, term, ruleStore, rule.VarDecl())
	declCopy := hgraph.CopyInto(tmp, ruleStore, subDecl)
	sourceCopy := hgraph.CopyInto(tmp, sourceStore, source)

	bl := tmp.NewBindLink(declCopy, termCopy, termCopy)

	var derived []hgraph.Handle
	cb := hmatch.CallbackFunc(func(varG, termG hgraph.Bindings) bool {
		varG = sanitizeByValue(varG, declCopy)
		termG = sanitizeByValue(termG, declCopy)
		for pat, val := range termG {
			if val != sourceCopy {
				continue
			}
			varNames := make(map[string]bool)
			for v := range tmp.FindVariables(pat) {
				if a := tmp.Get(v); a != nil {
					varNames[a.Name] = true
				}
			}
			if h := substituteRule(derivationStore, ruleStore, rule, varNames, varG, tmp); h != hgraph.Undefined {
				derived = append(derived, h)
			}
		}
		return true
	})
	if err := d.matcher.Imply(tmp, tmp.LocalHandles(), bl, cb); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMatcherFailure, err)
	}
	return derived, nil
}

// substituteRule implements spec.md §4.7, the Variable Substitution
// Rewriter: restrict groundings to the names in varNames, translate them
// from groundStore's handles into ruleStore handles (variable nodes
// re-intern by name; grounded values are copied structurally), rebuild
// rule's body and implicand under that substitution, derive a matching
// sub-variable-list, and intern the resulting BindLink into
// derivationStore. Returns hgraph.Undefined if no variable was actually
// restricted — substituting nothing would just reproduce the original
// rule.
func substituteRule(derivationStore, ruleStore *hgraph.Store, rule *rulebase.Rule, varNames map[string]bool, groundings hgraph.Bindings, groundStore *hgraph.Store) hgraph.Handle {
	// bindings deliberately mixes two stores: its keys are ruleStore
	// handles, since Substitute walks rule's body/implicand (both in
	// ruleStore) looking them up there; its values are derivationStore
	// handles, since they are spliced directly into the new atoms
	// Substitute builds in derivationStore, with no further translation.
	bindings := make(hgraph.Bindings)
	for v, val := range groundings {
		a := groundStore.Get(v)
		if a == nil || a.Type != hgraph.VariableNode || !varNames[a.Name] {
			continue
		}
		ruleVar := ruleStore.NewVariableNode(a.Name)
		bindings[ruleVar] = hgraph.CopyInto(derivationStore, groundStore, val)
	}
	if len(bindings) == 0 {
		return hgraph.Undefined
	}

	newBody := hgraph.Substitute(derivationStore, ruleStore, rule.Body(), bindings)
	newImplicand := hgraph.Substitute(derivationStore, ruleStore, rule.Implicand(), bindings)
	newVarDecl := subVarList(derivationStore, derivationStore, newBody, ruleStore, rule.VarDecl())
	return derivationStore.NewBindLink(newVarDecl, newBody, newImplicand)
}
