package forwardchain

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/cognicore/forwardchain/pkg/hgraph"
	"github.com/cognicore/forwardchain/pkg/hmatch"
	"github.com/cognicore/forwardchain/pkg/rulebase"
)

// Chainer is the forward-chaining control loop of spec.md §4.1: a
// single-threaded, cooperative state machine over a global fact-store,
// an optional focus-set store, a rule base, and the potential/selected
// source sets the run accumulates.
type Chainer struct {
	global *hgraph.Store
	focus  *hgraph.Store
	rules  []*rulebase.Rule

	unifier    *Unifier
	deriver    *Deriver
	applicator *Applicator
	sourceSel  *SourceSelector
	ruleSel    *RuleSelector
	stats      *Stats

	potential map[hgraph.Handle]bool
	selected  map[hgraph.Handle]bool

	iteration    int
	maxIteration int

	// RunID identifies this chainer instance in demo-command trace
	// output; it plays no role in the chaining algorithm itself.
	RunID string
}

// New builds a Chainer over global, seeded with initialSource (a single
// atom, or a SetLink of several), configured from rb, matching patterns
// with matcher. If focusSet is non-empty, the chainer runs in focus-set
// mode: focusSet's atoms, together with the initial sources, are copied
// into a standalone focus-set store, and every subsequent product is
// confined to and recorded in that store rather than global (spec.md
// §4.1, §4.8). rng drives the stochastic source and rule selectors; a
// nil rng seeds a fresh one.
func New(global *hgraph.Store, rb *rulebase.RuleBase, initialSource hgraph.Handle, focusSet []hgraph.Handle, matcher hmatch.Matcher, rng *rand.Rand) (*Chainer, error) {
	if initialSource.IsUndefined() {
		return nil, ErrInvalidSource
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	c := &Chainer{
		global:       global,
		rules:        rb.Rules(),
		potential:    make(map[hgraph.Handle]bool),
		selected:     make(map[hgraph.Handle]bool),
		maxIteration: rb.MaximumIterations(),
		RunID:        uuid.NewString(),
	}
	c.unifier = NewUnifier(matcher)
	c.deriver = NewDeriver(matcher)
	c.applicator = NewApplicator(matcher)
	c.sourceSel = NewSourceSelector(rb.SourceSelectionMode(), rng)
	c.ruleSel = NewRuleSelector(c.unifier, rng)
	c.stats = NewStats()

	var sources []hgraph.Handle
	if a := global.Get(initialSource); a != nil && a.Type == hgraph.SetLink {
		sources = a.Outgoing
	} else {
		sources = []hgraph.Handle{initialSource}
	}

	if len(focusSet) > 0 {
		// Every handle the chainer will later track (potential and
		// selected sources, and every product it derives) must resolve
		// from the focus-set store, not global — so the initial sources
		// are seeded here with their focus-local counterparts, not the
		// global handles they were copied from.
		c.focus = hgraph.NewStore()
		for _, h := range focusSet {
			hgraph.CopyInto(c.focus, global, h)
		}
		for _, s := range sources {
			c.potential[hgraph.CopyInto(c.focus, global, s)] = true
		}
	} else {
		for _, s := range sources {
			c.potential[s] = true
		}
	}

	return c, nil
}

// sourceStore is the store potential sources and their groundings are
// resolved from: the focus-set store under an active focus set,
// otherwise the global fact-store.
func (c *Chainer) sourceStore() *hgraph.Store {
	if c.focus != nil {
		return c.focus
	}
	return c.global
}

// Step performs one iteration of the control loop: if no potential
// source yet exists, applies every rule to the global fact-store once
// (spec.md §4.1's degenerate branch); otherwise selects a source, selects
// a rule that unifies against it, derives and applies that rule, and
// folds every resulting product back into the potential-sources set.
// Increments the iteration count unconditionally, regardless of which
// branch ran or whether it produced anything.
func (c *Chainer) Step() error {
	defer func() { c.iteration++ }()

	if len(c.potential) == 0 {
		return c.applyAllRules()
	}

	source, err := c.sourceSel.Choose(c.sourceStore(), c.potential, c.selected)
	if err != nil {
		return fmt.Errorf("forwardchain: choosing source: %w", err)
	}
	if source.IsUndefined() {
		return nil
	}

	rule, err := c.ruleSel.Choose(c.global, c.sourceStore(), source, c.rules)
	if err != nil {
		return fmt.Errorf("forwardchain: selecting rule: %w", err)
	}
	if rule == nil {
		c.stats.Record(source, nil, nil)
		return nil
	}

	derivationStore := hgraph.NewStore()
	derived, err := c.deriver.DeriveRules(derivationStore, c.global, c.sourceStore(), source, rule)
	if err != nil {
		return fmt.Errorf("forwardchain: deriving rule %q: %w", rule.Name, err)
	}
	if len(derived) == 0 {
		c.stats.Record(source, rule, nil)
		return nil
	}

	products, err := c.applicator.ApplyDerived(derivationStore, c.global, c.focus, derived)
	if err != nil {
		return fmt.Errorf("forwardchain: applying rule %q: %w", rule.Name, err)
	}
	for _, p := range products {
		c.potential[p] = true
	}
	c.stats.Record(source, rule, products)
	return nil
}

// applyAllRules implements the degenerate branch shared by Step and the
// zero-source fast path of Run: apply every rule's raw BindLink directly
// against the global fact-store (and focus-set store, if active),
// recording its source as hgraph.Undefined.
func (c *Chainer) applyAllRules() error {
	for _, rule := range c.rules {
		derivationStore := hgraph.NewStore()
		rcopy := hgraph.CopyInto(derivationStore, c.global, rule.Handle)
		products, err := c.applicator.ApplyDerived(derivationStore, c.global, c.focus, []hgraph.Handle{rcopy})
		if err != nil {
			return fmt.Errorf("forwardchain: applying rule %q: %w", rule.Name, err)
		}
		for _, p := range products {
			c.potential[p] = true
		}
		c.stats.Record(hgraph.Undefined, rule, products)
	}
	return nil
}

// Run drives the chainer to completion (spec.md §4.1). If no potential
// source exists yet, it takes the degenerate apply_all_rules branch once,
// in lieu of the stepping loop entirely, and returns — Step is never
// called, so the iteration count is left untouched. Otherwise it calls
// Step until the iteration count reaches the configured maximum.
func (c *Chainer) Run() error {
	if len(c.potential) == 0 {
		return c.applyAllRules()
	}
	for c.iteration < c.maxIteration {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Result returns the run's overall output: every distinct product
// recorded across every step, in first-seen order (spec.md §4.9
// all_products()).
func (c *Chainer) Result() []hgraph.Handle {
	return c.stats.AllProducts()
}

// Iteration returns the number of Step invocations completed so far.
func (c *Chainer) Iteration() int { return c.iteration }

// PotentialSources returns the live potential-sources set. Callers must
// not retain or mutate the returned map past the next Step call.
func (c *Chainer) PotentialSources() map[hgraph.Handle]bool { return c.potential }

// SelectedSources returns the live selected-sources set.
func (c *Chainer) SelectedSources() map[hgraph.Handle]bool { return c.selected }

// Stats returns the chainer's Statistics Recorder.
func (c *Chainer) Stats() *Stats { return c.stats }

// FocusStore returns the active focus-set store, or nil outside
// focus-set mode.
func (c *Chainer) FocusStore() *hgraph.Store { return c.focus }

// GlobalStore returns the chainer's global fact-store.
func (c *Chainer) GlobalStore() *hgraph.Store { return c.global }
