package rulebase

import (
	"os"
	"testing"

	"github.com/cognicore/forwardchain/pkg/hgraph"
)

const sampleYAML = `
max_iterations: 5
source_selection_mode: STI_BASED
rules:
  - name: modus-ponens
    weight: 2.5
    variables: [x, y]
    body:
      - pred: Implication
        args: ["$x", "$y"]
      - pred: Fact
        args: ["$x"]
    implicand:
      pred: Fact
      args: ["$y"]
`

func TestParseRuleBase(t *testing.T) {
	store := hgraph.NewStore()
	rb, err := Parse([]byte(sampleYAML), store)
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}

	if rb.MaximumIterations() != 5 {
		t.Errorf("expected max_iterations 5, got %d", rb.MaximumIterations())
	}
	if rb.SourceSelectionMode() != STIBased {
		t.Errorf("expected STI_BASED mode, got %s", rb.SourceSelectionMode())
	}

	rules := rb.Rules()
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	r := rules[0]
	if r.Name != "modus-ponens" || r.Weight != 2.5 {
		t.Errorf("unexpected rule metadata: %+v", r)
	}

	seq := r.ImplicantSeq()
	if len(seq) != 2 {
		t.Fatalf("expected 2 implicant terms, got %d", len(seq))
	}
	if !store.ContainsVariable(r.Implicand()) {
		t.Error("expected the implicand template to still carry its free variable")
	}
}

func TestParseRuleBaseDefaults(t *testing.T) {
	store := hgraph.NewStore()
	rb, err := Parse([]byte(`rules: []`), store)
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	if rb.MaximumIterations() != defaultMaxIterations {
		t.Errorf("expected the default iteration bound, got %d", rb.MaximumIterations())
	}
	if rb.SourceSelectionMode() != TVFitness {
		t.Errorf("expected the default TV_FITNESS mode, got %s", rb.SourceSelectionMode())
	}
}

func TestParseRuleBaseExplicitZeroIterations(t *testing.T) {
	store := hgraph.NewStore()
	rb, err := Parse([]byte(`
max_iterations: 0
rules: []
`), store)
	if err != nil {
		t.Fatalf("Parse returned an error: %v", err)
	}
	if rb.MaximumIterations() != 0 {
		t.Errorf("expected an explicit max_iterations: 0 to mean zero steps, got %d", rb.MaximumIterations())
	}
}

func TestNewRuleBaseTakesZeroIterationsVerbatim(t *testing.T) {
	store := hgraph.NewStore()
	rb := NewRuleBase(store, nil, 0, false, TVFitness)
	if rb.MaximumIterations() != 0 {
		t.Errorf("expected NewRuleBase to take maxIterations verbatim, got %d", rb.MaximumIterations())
	}
}

func TestLoadFacts(t *testing.T) {
	store := hgraph.NewStore()
	path := writeTempYAML(t, `
facts:
  - pred: Implication
    args: [A, B]
  - pred: Fact
    args: [A]
`)

	handles, err := LoadFacts(path, store)
	if err != nil {
		t.Fatalf("LoadFacts returned an error: %v", err)
	}
	if len(handles) != 2 {
		t.Fatalf("expected 2 facts, got %d", len(handles))
	}

	a := store.AddNode(hgraph.Node, "A")
	b := store.AddNode(hgraph.Node, "B")
	if _, ok := store.Lookup(&hgraph.Atom{Type: hgraph.Link, Name: "Implication", Outgoing: []hgraph.Handle{a, b}}); !ok {
		t.Error("expected Implication(A, B) to have been interned")
	}
	if handles[0] == handles[1] {
		t.Error("expected distinct fact handles")
	}
}

func TestLoadFactsMissingFile(t *testing.T) {
	store := hgraph.NewStore()
	if _, err := LoadFacts("/nonexistent/facts.yaml", store); err == nil {
		t.Error("expected an error for a missing facts file")
	}
}

func writeTempYAML(t *testing.T, contents string) string {
	t.Helper()
	path := t.TempDir() + "/facts.yaml"
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestParseRuleBaseRejectsEmptyBody(t *testing.T) {
	store := hgraph.NewStore()
	_, err := Parse([]byte(`
rules:
  - name: broken
    implicand: A
`), store)
	if err == nil {
		t.Error("expected an error for a rule with no body clauses")
	}
}
