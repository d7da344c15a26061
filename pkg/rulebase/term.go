package rulebase

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/forwardchain/pkg/hgraph"
)

// Term is one node of a rule-base YAML pattern expression. A scalar
// value is either a "$name" variable reference or a bare constant node
// name; a mapping is a predicate application ({pred, args}), a
// conjunction ({and: [...]}) or a disjunction ({or: [...]}).
type Term struct {
	Var   string
	Const string
	Pred  string
	Args  []Term
	And   []Term
	Or    []Term
}

// UnmarshalYAML implements yaml.Unmarshaler, following the teacher's
// pattern of hand-rolled config parsing (pkg/korel/config) generalized to
// a recursive term grammar.
func (t *Term) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		if strings.HasPrefix(value.Value, "$") {
			t.Var = strings.TrimPrefix(value.Value, "$")
		} else {
			t.Const = value.Value
		}
		return nil
	case yaml.MappingNode:
		var raw struct {
			Pred string `yaml:"pred"`
			Args []Term `yaml:"args"`
			And  []Term `yaml:"and"`
			Or   []Term `yaml:"or"`
		}
		if err := value.Decode(&raw); err != nil {
			return fmt.Errorf("rulebase: decoding term: %w", err)
		}
		t.Pred, t.Args, t.And, t.Or = raw.Pred, raw.Args, raw.And, raw.Or
		return nil
	default:
		return fmt.Errorf("rulebase: term must be a scalar or mapping, got kind %v", value.Kind)
	}
}

// build interns t into store, reusing the variable-name-to-handle map vars
// so repeated references to the same declared variable across a rule's
// body and implicand resolve to the same VariableNode handle.
func build(store *hgraph.Store, vars map[string]hgraph.Handle, t Term) hgraph.Handle {
	switch {
	case t.Var != "":
		if h, ok := vars[t.Var]; ok {
			return h
		}
		h := store.NewVariableNode(t.Var)
		vars[t.Var] = h
		return h
	case t.Pred != "":
		args := make([]hgraph.Handle, len(t.Args))
		for i, a := range t.Args {
			args[i] = build(store, vars, a)
		}
		return store.AddPredicateLink(t.Pred, args...)
	case len(t.And) > 0:
		return store.AddLink(hgraph.AndLink, buildAll(store, vars, t.And)...)
	case len(t.Or) > 0:
		return store.AddLink(hgraph.OrLink, buildAll(store, vars, t.Or)...)
	default:
		return store.AddNode(hgraph.Node, t.Const)
	}
}

func buildAll(store *hgraph.Store, vars map[string]hgraph.Handle, terms []Term) []hgraph.Handle {
	out := make([]hgraph.Handle, len(terms))
	for i, t := range terms {
		out[i] = build(store, vars, t)
	}
	return out
}
