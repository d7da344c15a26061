package forwardchain

import (
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"

	"github.com/cognicore/forwardchain/pkg/hgraph"
	"github.com/cognicore/forwardchain/pkg/rulebase"
)

// Record is one entry of the Statistics Recorder's append-only log
// (spec.md §4.9): the source and rule a step picked, and the products
// that step's application yielded. Source is hgraph.Undefined for the
// degenerate apply_all_rules step.
type Record struct {
	ID       string
	Source   hgraph.Handle
	Rule     *rulebase.Rule
	Products []hgraph.Handle
}

// Stats is the Statistics Recorder collaborator: an append-only record
// log plus the all_products() aggregate of spec.md §4.9.
type Stats struct {
	entropy *ulid.MonotonicEntropy
	records []Record
}

// NewStats builds an empty recorder, following the teacher's
// crypto/rand-seeded monotonic ulid builder idiom (pkg/korel/cards).
func NewStats() *Stats {
	return &Stats{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Record appends one step's outcome to the log.
func (s *Stats) Record(source hgraph.Handle, rule *rulebase.Rule, products []hgraph.Handle) Record {
	rec := Record{
		ID:       ulid.MustNew(ulid.Now(), s.entropy).String(),
		Source:   source,
		Rule:     rule,
		Products: products,
	}
	s.records = append(s.records, rec)
	return rec
}

// Records returns the full append-only log, in step order.
func (s *Stats) Records() []Record {
	return s.records
}

// AllProducts returns the union, in first-seen order, of every product
// recorded across every step — the chaining run's overall result
// (spec.md §4.9).
func (s *Stats) AllProducts() []hgraph.Handle {
	seen := make(map[hgraph.Handle]bool)
	var out []hgraph.Handle
	for _, rec := range s.records {
		for _, p := range rec.Products {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// Report renders a human-readable summary of the run: step count, rules
// fired, and total distinct products, for the demo command's trace
// output.
func (s *Stats) Report() string {
	fired := 0
	for _, rec := range s.records {
		if rec.Rule != nil && len(rec.Products) > 0 {
			fired++
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s steps, %s productive, %s distinct products",
		humanize.Comma(int64(len(s.records))),
		humanize.Comma(int64(fired)),
		humanize.Comma(int64(len(s.AllProducts()))))
	return b.String()
}
