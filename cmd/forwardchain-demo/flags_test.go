package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/forwardchain/pkg/hgraph"
	"github.com/cognicore/forwardchain/pkg/hmatch"
	"github.com/cognicore/forwardchain/pkg/hmatch/prologmatch"
)

const testRules = `
max_iterations: 10
rules:
  - name: modus_ponens
    weight: 1.0
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

const testFacts = `
facts:
  - pred: Implication
    args: [A, B]
  - pred: Fact
    args: [A]
`

func writeFixtures(t *testing.T) (rulesPath, factsPath string) {
	dir := t.TempDir()
	rulesPath = filepath.Join(dir, "rules.yaml")
	factsPath = filepath.Join(dir, "facts.yaml")
	if err := os.WriteFile(rulesPath, []byte(testRules), 0644); err != nil {
		t.Fatalf("writing rules fixture: %v", err)
	}
	if err := os.WriteFile(factsPath, []byte(testFacts), 0644); err != nil {
		t.Fatalf("writing facts fixture: %v", err)
	}
	return rulesPath, factsPath
}

func TestBuildChainerBacktrack(t *testing.T) {
	rulesPath, factsPath := writeFixtures(t)

	chainer, err := buildChainer(rulesPath, factsPath, "", "backtrack", 1)
	if err != nil {
		t.Fatalf("buildChainer failed: %v", err)
	}
	if chainer == nil {
		t.Fatal("expected a non-nil chainer")
	}

	if err := chainer.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	found := false
	store := chainer.GlobalStore()
	for _, p := range chainer.Result() {
		if render(store, p) == "Fact(B)" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected Fact(B) among the run's products, got %v", chainer.Result())
	}
}

func TestBuildChainerProlog(t *testing.T) {
	rulesPath, factsPath := writeFixtures(t)

	chainer, err := buildChainer(rulesPath, factsPath, "", "prolog", 1)
	if err != nil {
		t.Fatalf("buildChainer with prolog matcher failed: %v", err)
	}
	if chainer == nil {
		t.Fatal("expected a non-nil chainer")
	}
}

func TestBuildChainerWithFocusSet(t *testing.T) {
	rulesPath, factsPath := writeFixtures(t)
	dir := filepath.Dir(rulesPath)
	focusPath := filepath.Join(dir, "focus.yaml")
	if err := os.WriteFile(focusPath, []byte(testFacts), 0644); err != nil {
		t.Fatalf("writing focus fixture: %v", err)
	}

	chainer, err := buildChainer(rulesPath, factsPath, focusPath, "backtrack", 1)
	if err != nil {
		t.Fatalf("buildChainer with focus set failed: %v", err)
	}
	if chainer.FocusStore() == nil {
		t.Error("expected a non-nil focus store when a focus file is given")
	}
}

func TestBuildChainerMissingRulesFile(t *testing.T) {
	_, factsPath := writeFixtures(t)
	if _, err := buildChainer(filepath.Join(t.TempDir(), "nope.yaml"), factsPath, "", "backtrack", 1); err == nil {
		t.Error("expected an error for a missing rules file")
	}
}

func TestBuildChainerMissingFactsFile(t *testing.T) {
	rulesPath, _ := writeFixtures(t)
	if _, err := buildChainer(rulesPath, filepath.Join(t.TempDir(), "nope.yaml"), "", "backtrack", 1); err == nil {
		t.Error("expected an error for a missing facts file")
	}
}

func TestBuildChainerEmptyFacts(t *testing.T) {
	rulesPath, _ := writeFixtures(t)
	dir := filepath.Dir(rulesPath)
	emptyFacts := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(emptyFacts, []byte("facts: []\n"), 0644); err != nil {
		t.Fatalf("writing empty facts fixture: %v", err)
	}
	if _, err := buildChainer(rulesPath, emptyFacts, "", "backtrack", 1); err == nil {
		t.Error("expected an error when the facts file declares no facts")
	}
}

func TestBuildChainerUnknownMatcher(t *testing.T) {
	rulesPath, factsPath := writeFixtures(t)
	if _, err := buildChainer(rulesPath, factsPath, "", "sld-resolution", 1); err == nil {
		t.Error("expected an error for an unrecognized matcher name")
	}
}

func TestSelectMatcher(t *testing.T) {
	m, err := selectMatcher("backtrack")
	if err != nil {
		t.Fatalf("selectMatcher(backtrack) failed: %v", err)
	}
	if _, ok := m.(*hmatch.Backtracker); !ok {
		t.Errorf("expected a *hmatch.Backtracker, got %T", m)
	}

	m, err = selectMatcher("")
	if err != nil {
		t.Fatalf("selectMatcher(\"\") failed: %v", err)
	}
	if _, ok := m.(*hmatch.Backtracker); !ok {
		t.Errorf("expected the empty matcher name to default to *hmatch.Backtracker, got %T", m)
	}

	m, err = selectMatcher("PROLOG")
	if err != nil {
		t.Fatalf("selectMatcher(PROLOG) failed: %v", err)
	}
	if _, ok := m.(*prologmatch.Matcher); !ok {
		t.Errorf("expected matcher names to be matched case-insensitively, got %T", m)
	}
}

func TestRender(t *testing.T) {
	store := hgraph.NewStore()
	a := store.AddNode(hgraph.Node, "A")
	b := store.AddNode(hgraph.Node, "B")
	link := store.AddPredicateLink("Implication", a, b)

	if got := render(store, a); got != "A" {
		t.Errorf("render(A) = %q, want %q", got, "A")
	}
	if got := render(store, link); got != "Implication(A, B)" {
		t.Errorf("render(link) = %q, want %q", got, "Implication(A, B)")
	}
}
