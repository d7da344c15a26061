// Command forwardchain-demo drives a Chainer against a rule base and an
// initial fact set loaded from YAML, printing a timestamped trace of each
// derived fact and a final statistics summary (spec.md §4.9).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/ncruces/go-strftime"

	"github.com/cognicore/forwardchain/pkg/forwardchain"
	"github.com/cognicore/forwardchain/pkg/hgraph"
	"github.com/cognicore/forwardchain/pkg/hgraph/sqlstore"
	"github.com/cognicore/forwardchain/pkg/hmatch"
	"github.com/cognicore/forwardchain/pkg/hmatch/prologmatch"
	"github.com/cognicore/forwardchain/pkg/rulebase"
)

func main() {
	var (
		rulesPath  = flag.String("rules", "", "Rule base YAML file (required)")
		factsPath  = flag.String("facts", "", "Initial facts YAML file (required)")
		focusPath  = flag.String("focus", "", "Focus-set facts YAML file (optional)")
		matcherArg = flag.String("matcher", "backtrack", "Pattern matcher: backtrack or prolog")
		dbPath     = flag.String("db", "", "Save the resulting fact-store to this SQLite file (optional)")
		seed       = flag.Int64("seed", 1, "Source/rule selection RNG seed")
	)
	flag.Parse()

	if *rulesPath == "" {
		log.Fatal("--rules required")
	}
	if *factsPath == "" {
		log.Fatal("--facts required")
	}

	ctx := context.Background()

	chainer, err := buildChainer(*rulesPath, *factsPath, *focusPath, *matcherArg, *seed)
	if err != nil {
		log.Fatal(err)
	}

	tr := newTracer()
	tr.Printf("run %s starting", chainer.RunID)
	if err := chainer.Run(); err != nil {
		log.Fatal(err)
	}
	tr.Printf("run %s finished after %d iteration(s)", chainer.RunID, chainer.Iteration())

	resultStore := chainer.GlobalStore()
	if fs := chainer.FocusStore(); fs != nil {
		resultStore = fs
	}
	for _, p := range chainer.Result() {
		tr.Printf("derived %s", render(resultStore, p))
	}
	fmt.Println(chainer.Stats().Report())

	if *dbPath != "" {
		db, err := sqlstore.Open(ctx, *dbPath)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		if err := db.Save(ctx, chainer.GlobalStore()); err != nil {
			log.Fatal(err)
		}
	}
}

// buildChainer loads a rule base and an initial (and, if focusPath is
// non-empty, a focus) fact set from YAML, selects a pattern matcher, and
// constructs the Chainer that will run against them.
func buildChainer(rulesPath, factsPath, focusPath, matcherArg string, seed int64) (*forwardchain.Chainer, error) {
	global := hgraph.NewStore()

	rb, err := rulebase.Load(rulesPath, global)
	if err != nil {
		return nil, fmt.Errorf("load rule base: %w", err)
	}

	sources, err := rulebase.LoadFacts(factsPath, global)
	if err != nil {
		return nil, fmt.Errorf("load facts: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("facts file %s declares no facts", factsPath)
	}
	initial := sources[0]
	if len(sources) > 1 {
		initial = global.NewSetLink(sources...)
	}

	var focusSet []hgraph.Handle
	if focusPath != "" {
		focusSet, err = rulebase.LoadFacts(focusPath, global)
		if err != nil {
			return nil, fmt.Errorf("load focus set: %w", err)
		}
	}

	matcher, err := selectMatcher(matcherArg)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(seed))
	return forwardchain.New(global, rb, initial, focusSet, matcher, rng)
}

func selectMatcher(name string) (hmatch.Matcher, error) {
	switch strings.ToLower(name) {
	case "", "backtrack":
		return hmatch.NewBacktracker(), nil
	case "prolog":
		return prologmatch.New(), nil
	default:
		return nil, fmt.Errorf("unknown matcher %q (want backtrack or prolog)", name)
	}
}

// render renders h as a human-readable term: a bare name for a node,
// Functor(arg, arg, ...) for a link.
func render(store *hgraph.Store, h hgraph.Handle) string {
	a := store.Get(h)
	if a == nil {
		return "?"
	}
	if a.IsNode() {
		return a.Name
	}
	name := a.Name
	if name == "" {
		name = fmt.Sprintf("Type%d", int(a.Type))
	}
	args := make([]string, len(a.Outgoing))
	for i, o := range a.Outgoing {
		args[i] = render(store, o)
	}
	return fmt.Sprintf("%s(%s)", name, strings.Join(args, ", "))
}

// tracer prints timestamped trace lines (via go-strftime), dimming the
// timestamp with ANSI color only when stdout is a genuine terminal (via
// go-isatty) — a redirected or piped run gets plain, greppable text.
type tracer struct {
	color bool
}

func newTracer() *tracer {
	return &tracer{color: isatty.IsTerminal(os.Stdout.Fd())}
}

func (t *tracer) Printf(format string, args ...interface{}) {
	ts := strftime.Format("%Y-%m-%d %H:%M:%S", time.Now())
	line := fmt.Sprintf(format, args...)
	if t.color {
		fmt.Printf("\x1b[90m%s\x1b[0m %s\n", ts, line)
		return
	}
	fmt.Printf("%s %s\n", ts, line)
}
