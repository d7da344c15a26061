package hmatch

import (
	"testing"

	"github.com/cognicore/forwardchain/pkg/hgraph"
)

func TestMatchSingleClauseGrounding(t *testing.T) {
	s := hgraph.NewStore()
	a := s.AddNode(hgraph.Node, "A")
	b := s.AddNode(hgraph.Node, "B")
	s.AddPredicateLink("Implication", a, b)

	x := s.NewVariableNode("x")
	pattern := s.AddPredicateLink("Implication", a, x)
	decl := s.NewVariableList(x)
	bl := s.NewBindLink(decl, pattern, x)

	m := NewBacktracker()
	result, err := m.Match(s, s.LocalHandles(), bl)
	if err != nil {
		t.Fatalf("Match returned an error: %v", err)
	}
	set := s.Get(result)
	if set == nil || len(set.Outgoing) != 1 || set.Outgoing[0] != b {
		t.Fatalf("expected a single-element result set containing B, got %+v", set)
	}
}

func TestMatchConjunction(t *testing.T) {
	s := hgraph.NewStore()
	a := s.AddNode(hgraph.Node, "A")
	b := s.AddNode(hgraph.Node, "B")
	s.AddPredicateLink("Implication", a, b)
	s.AddPredicateLink("Fact", a)

	x := s.NewVariableNode("x")
	y := s.NewVariableNode("y")
	clause1 := s.AddPredicateLink("Implication", x, y)
	clause2 := s.AddPredicateLink("Fact", x)
	body := s.AddLink(hgraph.AndLink, clause1, clause2)
	decl := s.NewVariableList(x, y)
	bl := s.NewBindLink(decl, body, y)

	m := NewBacktracker()
	result, err := m.Match(s, s.LocalHandles(), bl)
	if err != nil {
		t.Fatalf("Match returned an error: %v", err)
	}
	set := s.Get(result)
	if set == nil || len(set.Outgoing) != 1 || set.Outgoing[0] != b {
		t.Fatalf("expected the conjunction to ground to B, got %+v", set)
	}
}

func TestMatchDisjunctionTriesEachBranch(t *testing.T) {
	s := hgraph.NewStore()
	a := s.AddNode(hgraph.Node, "A")
	b := s.AddNode(hgraph.Node, "B")
	s.AddPredicateLink("Left", a)
	s.AddPredicateLink("Right", b)

	x := s.NewVariableNode("x")
	left := s.AddPredicateLink("Left", x)
	right := s.AddPredicateLink("Right", x)
	body := s.AddLink(hgraph.OrLink, left, right)
	decl := s.NewVariableList(x)
	bl := s.NewBindLink(decl, body, x)

	m := NewBacktracker()
	result, err := m.Match(s, s.LocalHandles(), bl)
	if err != nil {
		t.Fatalf("Match returned an error: %v", err)
	}
	set := s.Get(result)
	if set == nil || len(set.Outgoing) != 2 {
		t.Fatalf("expected both disjuncts to ground, got %+v", set)
	}
}

func TestMatchUndefinedForNonBindLink(t *testing.T) {
	s := hgraph.NewStore()
	a := s.AddNode(hgraph.Node, "A")

	m := NewBacktracker()
	result, err := m.Match(s, s.LocalHandles(), a)
	if err != nil {
		t.Fatalf("Match returned an error: %v", err)
	}
	if !result.IsUndefined() {
		t.Errorf("expected Match against a non-BindLink to yield Undefined, got %v", result)
	}
}

func TestImplyInvokesCallbackPerGrounding(t *testing.T) {
	s := hgraph.NewStore()
	a := s.AddNode(hgraph.Node, "A")
	b := s.AddNode(hgraph.Node, "B")
	c := s.AddNode(hgraph.Node, "C")
	s.AddPredicateLink("Edge", a, b)
	s.AddPredicateLink("Edge", a, c)

	x := s.NewVariableNode("x")
	y := s.NewVariableNode("y")
	pattern := s.AddPredicateLink("Edge", x, y)
	decl := s.NewVariableList(x, y)
	bl := s.NewBindLink(decl, pattern, y)

	m := NewBacktracker()
	count := 0
	err := m.Imply(s, s.LocalHandles(), bl, CallbackFunc(func(varG, termG hgraph.Bindings) bool {
		count++
		if varG[x] != a {
			t.Errorf("expected x to ground to A in every match, got %v", varG[x])
		}
		return true
	}))
	if err != nil {
		t.Fatalf("Imply returned an error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 groundings, got %d", count)
	}
}
