// Package rulebase implements the Rule entity and the Configuration
// Reader collaborator of spec.md §3 and §6: a named handle onto a
// BindLink plus a scalar selection weight, and a YAML-driven loader that
// builds a set of such rules together with the chainer's run-time
// options (max iterations, attention allocation, source selection mode).
package rulebase

import "github.com/cognicore/forwardchain/pkg/hgraph"

// Rule is a named handle onto a BindLink plus a selection weight
// (spec.md §3). Its derived attributes — variable declaration,
// implicant sequence, implicand — are computed from the underlying
// BindLink rather than stored redundantly.
type Rule struct {
	Name   string
	Weight float64
	Handle hgraph.Handle

	store *hgraph.Store
}

// New wraps an existing BindLink handle as a named, weighted Rule.
func New(store *hgraph.Store, name string, handle hgraph.Handle, weight float64) *Rule {
	return &Rule{Name: name, Weight: weight, Handle: handle, store: store}
}

// bindLink returns the three outgoing slots of the underlying BindLink,
// or the zero Handle for each if the rule's handle is not a well-formed
// BindLink.
func (r *Rule) bindLink() (vardecl, body, implicand hgraph.Handle) {
	a := r.store.Get(r.Handle)
	if a == nil || a.Type != hgraph.BindLink || len(a.Outgoing) != 3 {
		return hgraph.Undefined, hgraph.Undefined, hgraph.Undefined
	}
	return a.Outgoing[0], a.Outgoing[1], a.Outgoing[2]
}

// VarDecl returns the rule's variable declaration atom.
func (r *Rule) VarDecl() hgraph.Handle { v, _, _ := r.bindLink(); return v }

// Body returns the rule's implicant pattern (the BindLink's body).
func (r *Rule) Body() hgraph.Handle { _, b, _ := r.bindLink(); return b }

// Implicand returns the rule's consequent template.
func (r *Rule) Implicand() hgraph.Handle { _, _, i := r.bindLink(); return i }

// ImplicantSeq flattens Body into its sequence of implicant terms
// (spec.md §3: "the sequence of implicant terms obtained by flattening
// the body if it is an AND_LINK/OR_LINK, otherwise a single-element
// sequence").
func (r *Rule) ImplicantSeq() []hgraph.Handle {
	return r.store.ImplicantSeq(r.Body())
}

// Store returns the fact-store the rule's BindLink is interned in.
func (r *Rule) Store() *hgraph.Store { return r.store }
