package forwardchain

import (
	"math/rand"
	"testing"

	"github.com/cognicore/forwardchain/pkg/hgraph"
	"github.com/cognicore/forwardchain/pkg/hmatch"
	"github.com/cognicore/forwardchain/pkg/rulebase"
)

// modusPonens builds, in store, a rule whose body is
// Implication(x, y) AND Fact(x) and whose implicand is Fact(y).
func modusPonens(store *hgraph.Store, name string, weight float64) *rulebase.Rule {
	x := store.NewVariableNode("x")
	y := store.NewVariableNode("y")
	clause1 := store.AddPredicateLink("Implication", x, y)
	clause2 := store.AddPredicateLink("Fact", x)
	body := store.AddLink(hgraph.AndLink, clause1, clause2)
	implicand := store.AddPredicateLink("Fact", y)
	decl := store.NewVariableList(x, y)
	bl := store.NewBindLink(decl, body, implicand)
	return rulebase.New(store, name, bl, weight)
}

func newRuleBase(store *hgraph.Store, rules []*rulebase.Rule, maxIter int, mode string) *rulebase.RuleBase {
	return rulebase.NewRuleBase(store, rules, maxIter, false, mode)
}

func TestChainerTransitiveModusPonens(t *testing.T) {
	store := hgraph.NewStore()
	a := store.AddNode(hgraph.Node, "A")
	b := store.AddNode(hgraph.Node, "B")
	store.AddPredicateLink("Implication", a, b)
	source := store.AddPredicateLink("Fact", a)

	rule := modusPonens(store, "modus-ponens", 1.0)
	rb := newRuleBase(store, []*rulebase.Rule{rule}, 5, rulebase.TVFitness)

	c, err := New(store, rb, source, nil, hmatch.NewBacktracker(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("New returned an error: %v", err)
	}
	if err := c.Run(); err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}

	factB := store.AddPredicateLink("Fact", b)
	found := false
	for _, h := range c.Result() {
		if h == factB {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Fact(B) among the run's products, got %v", c.Result())
	}
}

func TestChainerInvalidSource(t *testing.T) {
	store := hgraph.NewStore()
	rb := newRuleBase(store, nil, 3, rulebase.TVFitness)
	_, err := New(store, rb, hgraph.Undefined, nil, hmatch.NewBacktracker(), nil)
	if err != ErrInvalidSource {
		t.Errorf("expected ErrInvalidSource, got %v", err)
	}
}

func TestChainerUnknownModeSurfacesAsError(t *testing.T) {
	store := hgraph.NewStore()
	source := store.AddPredicateLink("Fact", store.AddNode(hgraph.Node, "A"))
	rule := modusPonens(store, "modus-ponens", 1.0)
	rb := newRuleBase(store, []*rulebase.Rule{rule}, 3, "NOT_A_REAL_MODE")

	c, err := New(store, rb, source, nil, hmatch.NewBacktracker(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("New returned an error: %v", err)
	}
	if err := c.Step(); err == nil {
		t.Error("expected Step to surface the unknown source-selection mode as an error")
	}
}

func TestChainerNoRuleUnifies(t *testing.T) {
	store := hgraph.NewStore()
	a := store.AddNode(hgraph.Node, "A")
	source := store.AddPredicateLink("Unrelated", a)
	rule := modusPonens(store, "modus-ponens", 1.0)
	rb := newRuleBase(store, []*rulebase.Rule{rule}, 3, rulebase.TVFitness)

	c, err := New(store, rb, source, nil, hmatch.NewBacktracker(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("New returned an error: %v", err)
	}
	if err := c.Run(); err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}
	if len(c.Result()) != 0 {
		t.Errorf("expected no products when no rule unifies against the source, got %v", c.Result())
	}
}

func TestChainerDegenerateAppliesAllRulesOnce(t *testing.T) {
	store := hgraph.NewStore()
	a := store.AddNode(hgraph.Node, "A")
	b := store.AddNode(hgraph.Node, "B")
	store.AddPredicateLink("Implication", a, b)
	store.AddPredicateLink("Fact", a)

	rule := modusPonens(store, "modus-ponens", 1.0)
	rb := newRuleBase(store, []*rulebase.Rule{rule}, 5, rulebase.TVFitness)

	// An empty SetLink as the initial source leaves potential_sources
	// empty, taking the degenerate apply_all_rules branch.
	empty := store.AddLink(hgraph.SetLink)

	c, err := New(store, rb, empty, nil, hmatch.NewBacktracker(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("New returned an error: %v", err)
	}
	if err := c.Run(); err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}
	if c.Iteration() != 0 {
		t.Errorf("expected the degenerate branch to leave the iteration count untouched, got %d", c.Iteration())
	}

	factB := store.AddPredicateLink("Fact", b)
	found := false
	for _, h := range c.Result() {
		if h == factB {
			found = true
		}
	}
	if !found {
		t.Errorf("expected the degenerate apply_all_rules branch to still derive Fact(B), got %v", c.Result())
	}
}

func TestChainerFocusSetConfinesProducts(t *testing.T) {
	store := hgraph.NewStore()
	a := store.AddNode(hgraph.Node, "A")
	b := store.AddNode(hgraph.Node, "B")
	impl := store.AddPredicateLink("Implication", a, b)
	source := store.AddPredicateLink("Fact", a)

	rule := modusPonens(store, "modus-ponens", 1.0)
	rb := newRuleBase(store, []*rulebase.Rule{rule}, 5, rulebase.TVFitness)

	c, err := New(store, rb, source, []hgraph.Handle{impl}, hmatch.NewBacktracker(), rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("New returned an error: %v", err)
	}
	if err := c.Run(); err != nil {
		t.Fatalf("Run returned an error: %v", err)
	}

	if _, ok := store.Lookup(&hgraph.Atom{Type: hgraph.Link, Name: "Fact", Outgoing: []hgraph.Handle{b}}); ok {
		t.Error("expected the global fact-store to remain unwritten in focus-set mode")
	}

	found := false
	for _, h := range c.FocusStore().AllHandles() {
		atom := c.FocusStore().Get(h)
		if atom == nil || atom.Name != "Fact" || len(atom.Outgoing) != 1 {
			continue
		}
		if arg := c.FocusStore().Get(atom.Outgoing[0]); arg != nil && arg.Name == "B" {
			found = true
		}
	}
	if !found {
		t.Error("expected Fact(B) to appear in the focus-set store")
	}
}

func TestChainerPotentialAndSelectedGrowMonotonically(t *testing.T) {
	store := hgraph.NewStore()
	a := store.AddNode(hgraph.Node, "A")
	b := store.AddNode(hgraph.Node, "B")
	store.AddPredicateLink("Implication", a, b)
	source := store.AddPredicateLink("Fact", a)

	rule := modusPonens(store, "modus-ponens", 1.0)
	rb := newRuleBase(store, []*rulebase.Rule{rule}, 4, rulebase.TVFitness)

	c, err := New(store, rb, source, nil, hmatch.NewBacktracker(), rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("New returned an error: %v", err)
	}

	prevPotential, prevSelected := 0, 0
	for i := 0; i < 4; i++ {
		if err := c.Step(); err != nil {
			t.Fatalf("Step returned an error: %v", err)
		}
		if len(c.PotentialSources()) < prevPotential {
			t.Fatalf("potential sources shrank at step %d", i)
		}
		if len(c.SelectedSources()) < prevSelected {
			t.Fatalf("selected sources shrank at step %d", i)
		}
		prevPotential, prevSelected = len(c.PotentialSources()), len(c.SelectedSources())
	}
	if c.Iteration() != 4 {
		t.Errorf("expected 4 completed steps, got %d", c.Iteration())
	}
}
