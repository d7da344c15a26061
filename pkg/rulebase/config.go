package rulebase

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/forwardchain/pkg/hgraph"
)

// Recognized source_selection_mode values (spec.md §6).
const (
	TVFitness = "TV_FITNESS"
	STIBased  = "STI_BASED"
)

const defaultMaxIterations = 10

// RuleSpec is one rule entry of a rule-base YAML document.
type RuleSpec struct {
	Name      string  `yaml:"name"`
	Weight    float64 `yaml:"weight"`
	Variables []string `yaml:"variables"`
	Body      []Term  `yaml:"body"`
	Implicand Term    `yaml:"implicand"`
}

// document is the top-level shape of a rule-base YAML file.
// MaximumIterations is a pointer so yaml.Unmarshal can distinguish an
// absent max_iterations key (nil, defaults below) from an explicit 0
// (a hard bound of zero steps).
type document struct {
	MaximumIterations   *int       `yaml:"max_iterations"`
	AttentionAllocation bool       `yaml:"attention_allocation"`
	SourceSelectionMode string     `yaml:"source_selection_mode"`
	Rules               []RuleSpec `yaml:"rules"`
}

// RuleBase is the Configuration Reader collaborator of spec.md §6: it
// exposes get_rules(), get_maximum_iterations() and
// get_attention_allocation() (here, Rules, MaximumIterations,
// AttentionAllocation), plus the source-selection mode the chainer needs.
type RuleBase struct {
	Store *hgraph.Store

	doc   document
	rules []*Rule
}

// NewRuleBase builds a RuleBase directly from an already-constructed
// rule set, bypassing the YAML loader — for a demo command wiring rules
// up programmatically, or for tests exercising the chainer without a
// rule base file on disk. maxIterations is taken verbatim, including 0;
// callers that want the YAML-file default should use Load or Parse with
// max_iterations absent instead of passing defaultMaxIterations here.
func NewRuleBase(store *hgraph.Store, rules []*Rule, maxIterations int, attentionAllocation bool, mode string) *RuleBase {
	return &RuleBase{
		Store: store,
		rules: rules,
		doc: document{
			MaximumIterations:   &maxIterations,
			AttentionAllocation: attentionAllocation,
			SourceSelectionMode: mode,
		},
	}
}

// Load reads a rule-base YAML file from path and builds its rules into
// store, following the teacher's os.ReadFile + yaml.Unmarshal loader
// idiom (pkg/korel/config.LoadTaxonomy/LoadStoplist).
func Load(path string, store *hgraph.Store) (*RuleBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rulebase: reading %s: %w", path, err)
	}
	return Parse(data, store)
}

// Parse builds a RuleBase from raw YAML bytes.
func Parse(data []byte, store *hgraph.Store) (*RuleBase, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rulebase: parsing rule base: %w", err)
	}

	rules := make([]*Rule, 0, len(doc.Rules))
	for _, spec := range doc.Rules {
		rule, err := buildRule(store, spec)
		if err != nil {
			return nil, fmt.Errorf("rulebase: rule %q: %w", spec.Name, err)
		}
		rules = append(rules, rule)
	}

	return &RuleBase{Store: store, doc: doc, rules: rules}, nil
}

func buildRule(store *hgraph.Store, spec RuleSpec) (*Rule, error) {
	if len(spec.Body) == 0 {
		return nil, fmt.Errorf("rule has no body clauses")
	}
	vars := make(map[string]hgraph.Handle)

	clauses := buildAll(store, vars, spec.Body)
	var body hgraph.Handle
	if len(clauses) == 1 {
		body = clauses[0]
	} else {
		body = store.AddLink(hgraph.AndLink, clauses...)
	}

	implicand := build(store, vars, spec.Implicand)

	decls := make([]hgraph.Handle, 0, len(spec.Variables))
	for _, name := range spec.Variables {
		h, ok := vars[name]
		if !ok {
			h = store.NewVariableNode(name)
			vars[name] = h
		}
		decls = append(decls, h)
	}
	vardecl := store.NewVariableList(decls...)

	weight := spec.Weight
	if weight == 0 {
		weight = 1.0
	}

	bl := store.NewBindLink(vardecl, body, implicand)
	return New(store, spec.Name, bl, weight), nil
}

// Rules returns every rule declared in the rule base.
func (rb *RuleBase) Rules() []*Rule { return rb.rules }

// MaximumIterations returns the configured iteration bound, defaulting to
// defaultMaxIterations only when max_iterations was absent from the YAML
// document; an explicit 0 is a hard bound of zero steps, not a default.
func (rb *RuleBase) MaximumIterations() int {
	if rb.doc.MaximumIterations == nil {
		return defaultMaxIterations
	}
	return *rb.doc.MaximumIterations
}

// AttentionAllocation reports whether matching should be confined to
// attentionally-salient atoms.
func (rb *RuleBase) AttentionAllocation() bool { return rb.doc.AttentionAllocation }

// factsDocument is the top-level shape of an initial-facts YAML file: a
// flat list of terms in the same grammar a rule body uses, expected (but
// not required) to be fully ground.
type factsDocument struct {
	Facts []Term `yaml:"facts"`
}

// LoadFacts reads a YAML file of fact terms and interns each into store,
// following the same os.ReadFile + yaml.Unmarshal loader idiom as Load.
// It returns the interned handles in file order.
func LoadFacts(path string, store *hgraph.Store) ([]hgraph.Handle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rulebase: reading %s: %w", path, err)
	}
	var doc factsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("rulebase: parsing facts: %w", err)
	}
	vars := make(map[string]hgraph.Handle)
	return buildAll(store, vars, doc.Facts), nil
}

// SourceSelectionMode returns the configured scoring mode, defaulting to
// TVFitness when unset.
func (rb *RuleBase) SourceSelectionMode() string {
	if rb.doc.SourceSelectionMode == "" {
		return TVFitness
	}
	return rb.doc.SourceSelectionMode
}
