package hgraph

import (
	"fmt"
	"strings"
	"sync/atomic"
)

var nextStoreID int32

// Store is a nested fact-store: atoms live in a local arena; reads that
// miss locally fall through to Parent; writes always land locally. This
// is the "scoped temporary fact-store" and "focus-set fact-store" idiom
// of spec.md §5 and §9 — a front overlay plus a back-pointer to a parent.
type Store struct {
	id     int32
	Parent *Store

	arena []*Atom
	gen   []int32
	byKey map[string]Handle
}

// NewStore creates a root fact-store with no parent.
func NewStore() *Store {
	return &Store{
		id:    atomic.AddInt32(&nextStoreID, 1),
		byKey: make(map[string]Handle),
	}
}

// NewChild creates a store whose reads cascade to s but whose writes stay
// local to the child, matching the "scratch fact-store layered over a
// parent" requirement of spec.md §1.
func (s *Store) NewChild() *Store {
	return &Store{
		id:     atomic.AddInt32(&nextStoreID, 1),
		Parent: s,
		byKey:  make(map[string]Handle),
	}
}

func key(t Type, name string, outgoing []Handle) string {
	if outgoing == nil {
		return fmt.Sprintf("N:%d:%s", t, name)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "L:%d:%s:", t, name)
	for _, h := range outgoing {
		fmt.Fprintf(&b, "%d.%d.%d,", h.store, h.index, h.gen)
	}
	return b.String()
}

// Add interns atom a into s, returning its handle. Adding an
// already-present atom (by type + name, or type + outgoing set) returns
// the existing handle rather than allocating a duplicate — the "Assemble
// and intern" step of spec.md §4.7 relies on this.
func (s *Store) Add(a *Atom) Handle {
	k := key(a.Type, a.Name, a.Outgoing)
	if h, ok := s.byKey[k]; ok {
		return h
	}
	idx := int32(len(s.arena))
	h := Handle{store: s.id, index: idx, gen: 1}
	stored := a.Clone()
	stored.Handle = h
	s.arena = append(s.arena, stored)
	s.gen = append(s.gen, 1)
	s.byKey[k] = h
	return h
}

// AddNode interns a node atom.
func (s *Store) AddNode(t Type, name string) Handle {
	return s.Add(&Atom{Type: t, Name: name})
}

// AddLink interns a link atom over the given outgoing set. outgoing is
// never stored as nil, even when empty, so IsNode/IsLink can keep using
// "Outgoing == nil" as their discriminator regardless of arity.
func (s *Store) AddLink(t Type, outgoing ...Handle) Handle {
	if outgoing == nil {
		outgoing = []Handle{}
	}
	return s.Add(&Atom{Type: t, Outgoing: outgoing, TV: TruthValue{Confidence: 1}})
}

// Get resolves h, walking up through parents if h was not allocated in s.
func (s *Store) Get(h Handle) *Atom {
	for cur := s; cur != nil; cur = cur.Parent {
		if h.store != cur.id {
			continue
		}
		if h.index < 0 || int(h.index) >= len(cur.arena) {
			return nil
		}
		if cur.gen[h.index] != h.gen {
			return nil
		}
		return cur.arena[h.index]
	}
	return nil
}

// Has reports whether h is reachable through s or one of its ancestors.
func (s *Store) Has(h Handle) bool {
	return s.Get(h) != nil
}

// LocalHandles returns the handles allocated directly in s, never walking
// to Parent. Used by matchers to confine candidate search to exactly the
// atoms "present in" a given store, independent of ancestor fallthrough
// (spec.md §4.8 focus-set confinement).
func (s *Store) LocalHandles() []Handle {
	out := make([]Handle, len(s.arena))
	for i, a := range s.arena {
		out[i] = a.Handle
	}
	return out
}

// AllHandles returns every handle reachable from s: its own local atoms
// plus every ancestor's local atoms.
func (s *Store) AllHandles() []Handle {
	out := s.LocalHandles()
	if s.Parent != nil {
		out = append(out, s.Parent.AllHandles()...)
	}
	return out
}

// Lookup returns the handle of an atom structurally identical to a —
// same type, name and (already-resolved) outgoing set — within s or one
// of its ancestors, without interning a. Used by the Rule Applicator's
// fully-grounded existence gate (spec.md §4.8), which must check whether
// a derived clause already exists without side-effecting the store.
func (s *Store) Lookup(a *Atom) (Handle, bool) {
	k := key(a.Type, a.Name, a.Outgoing)
	for cur := s; cur != nil; cur = cur.Parent {
		if h, ok := cur.byKey[k]; ok {
			return h, true
		}
	}
	return Undefined, false
}

// Resolve reports whether the structure rooted at h within src — h
// itself and everything it transitively references — has a structural
// counterpart in target, returning that counterpart's handle. It never
// allocates in either store.
func Resolve(target, src *Store, h Handle) (Handle, bool) {
	a := src.Get(h)
	if a == nil {
		return Undefined, false
	}
	if a.IsNode() {
		return target.Lookup(&Atom{Type: a.Type, Name: a.Name})
	}
	outgoing := make([]Handle, len(a.Outgoing))
	for i, o := range a.Outgoing {
		oh, ok := Resolve(target, src, o)
		if !ok {
			return Undefined, false
		}
		outgoing[i] = oh
	}
	return target.Lookup(&Atom{Type: a.Type, Name: a.Name, Outgoing: outgoing})
}

// CopyInto interns a structural copy of the atom at h (recursively
// copying any referenced link atoms that live only in an ancestor store)
// into dst, returning the new handle. Used when deriving rules into a
// temporary store (spec.md §4.4, §4.5, §4.8).
func CopyInto(dst *Store, src *Store, h Handle) Handle {
	a := src.Get(h)
	if a == nil {
		return Undefined
	}
	if a.IsNode() {
		return dst.AddNode(a.Type, a.Name)
	}
	outgoing := make([]Handle, len(a.Outgoing))
	for i, o := range a.Outgoing {
		outgoing[i] = CopyInto(dst, src, o)
	}
	nh := dst.Add(&Atom{Type: a.Type, Name: a.Name, Outgoing: outgoing, TV: a.TV, AV: a.AV})
	return nh
}
