package hgraph

// NewVariableNode interns a variable placeholder node.
func (s *Store) NewVariableNode(name string) Handle {
	return s.AddNode(VariableNode, name)
}

// NewVariableList interns a VariableList over the given declarations
// (bare VariableNodes or TypedVariableLinks).
func (s *Store) NewVariableList(decls ...Handle) Handle {
	return s.AddLink(VariableList, decls...)
}

// NewTypedVariableLink interns a (variable, type-restriction) pair.
func (s *Store) NewTypedVariableLink(variable, typeRestriction Handle) Handle {
	return s.AddLink(TypedVariableLink, variable, typeRestriction)
}

// NewBindLink interns the canonical (vardecl, body, implicand) triple.
func (s *Store) NewBindLink(vardecl, body, implicand Handle) Handle {
	return s.AddLink(BindLink, vardecl, body, implicand)
}

// AddPredicateLink interns a generic named relation atom, e.g.
// Implication(A, B) or P(x) in the scenario fixtures of spec.md §8 —
// a single generic Link type carrying its functor as Name, rather than
// the full EvaluationLink/PredicateNode machinery of the original
// hypergraph, to keep the test vocabulary simple (see DESIGN.md).
func (s *Store) AddPredicateLink(name string, args ...Handle) Handle {
	return s.Add(&Atom{Type: Link, Name: name, Outgoing: args, TV: TruthValue{Confidence: 1}})
}

// NewSetLink interns an unordered collection link, used to wrap a set of
// initial sources per spec.md §4.1.
func (s *Store) NewSetLink(members ...Handle) Handle {
	return s.AddLink(SetLink, members...)
}

// DeclaredVariable returns the variable a declaration entry names: a bare
// VariableNode is itself the variable; a TypedVariableLink names it in its
// first outgoing slot.
func (s *Store) DeclaredVariable(decl Handle) Handle {
	a := s.Get(decl)
	if a == nil {
		return Undefined
	}
	if a.Type == TypedVariableLink && len(a.Outgoing) > 0 {
		return a.Outgoing[0]
	}
	return decl
}

// VarDeclOutgoing returns the flat sequence of declaration entries for a
// variable declaration atom, which may itself be a bare VariableNode (a
// single implicit declaration) or a VariableList/link of declarations.
func (s *Store) VarDeclOutgoing(vardecl Handle) []Handle {
	a := s.Get(vardecl)
	if a == nil {
		return nil
	}
	if a.IsLink() {
		return a.Outgoing
	}
	return []Handle{vardecl}
}

// ImplicantSeq flattens a rule body into its sequence of implicant terms:
// the outgoing set if the body is an AndLink/OrLink, otherwise the body
// itself as a single-element sequence (spec.md §3, Rule derived
// attributes).
func (s *Store) ImplicantSeq(body Handle) []Handle {
	a := s.Get(body)
	if a == nil {
		return nil
	}
	if a.Type == AndLink || a.Type == OrLink {
		return append([]Handle(nil), a.Outgoing...)
	}
	return []Handle{body}
}

// ContainsVariable reports whether h, or any atom it references
// transitively, is a VariableNode.
func (s *Store) ContainsVariable(h Handle) bool {
	a := s.Get(h)
	if a == nil {
		return false
	}
	if a.Type == VariableNode {
		return true
	}
	for _, o := range a.Outgoing {
		if s.ContainsVariable(o) {
			return true
		}
	}
	return false
}

// FindVariables collects the set of distinct VariableNode handles
// appearing anywhere within h.
func (s *Store) FindVariables(h Handle) map[Handle]bool {
	out := make(map[Handle]bool)
	s.collectVariables(h, out)
	return out
}

func (s *Store) collectVariables(h Handle, out map[Handle]bool) {
	a := s.Get(h)
	if a == nil {
		return
	}
	if a.Type == VariableNode {
		out[h] = true
		return
	}
	for _, o := range a.Outgoing {
		s.collectVariables(o, out)
	}
}
