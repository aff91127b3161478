package state

import (
	"github.com/wbrown/janus-lifted/lifted"
)

// State is an immutable snapshot of every true ground atom, stored as one
// relation per predicate. Applying an action produces a new State; relations
// the action does not touch are shared with the parent.
type State struct {
	relations []*Relation // indexed by predicate, nil when empty
	hash      uint64
	size      int
}

// New builds a state over numPredicates predicates holding facts
func New(numPredicates int, facts []lifted.Fact) *State {
	grouped := make([][]lifted.GroundAtom, numPredicates)
	for _, f := range facts {
		grouped[f.Predicate] = append(grouped[f.Predicate], f.Args)
	}

	relations := make([]*Relation, numPredicates)
	for pred, tuples := range grouped {
		if len(tuples) > 0 {
			relations[pred] = NewRelation(pred, tuples)
		}
	}
	return newState(relations)
}

func newState(relations []*Relation) *State {
	s := &State{relations: relations}
	hash := fnvOffset
	for pred, r := range relations {
		if r.Len() == 0 {
			continue
		}
		hash = combine(hash, uint64(pred))
		hash = combine(hash, r.hash)
		s.size += r.Len()
	}
	s.hash = hash
	return s
}

// NumPredicates returns how many predicates the state covers
func (s *State) NumPredicates() int {
	return len(s.relations)
}

// Relation returns the relation of a predicate; nil when it holds no tuples
func (s *State) Relation(predicate int) *Relation {
	if predicate < 0 || predicate >= len(s.relations) {
		return nil
	}
	return s.relations[predicate]
}

// Contains reports whether the ground atom holds in the state
func (s *State) Contains(predicate int, args lifted.GroundAtom) bool {
	return s.Relation(predicate).Contains(args)
}

// Match returns the tuples of predicate that agree with the pattern's
// constant positions. The result must not be modified.
func (s *State) Match(predicate int, p Pattern) []lifted.GroundAtom {
	return s.Relation(predicate).Match(p)
}

// Size returns the total number of true ground atoms
func (s *State) Size() int {
	return s.size
}

// Hash returns the content hash used for duplicate detection
func (s *State) Hash() uint64 {
	return s.hash
}

// Equal compares two states by content
func (s *State) Equal(other *State) bool {
	if s == other {
		return true
	}
	if s.hash != other.hash || s.size != other.size || len(s.relations) != len(other.relations) {
		return false
	}
	for pred := range s.relations {
		if !s.relations[pred].Equal(other.relations[pred]) {
			return false
		}
	}
	return true
}

// Facts lists every true ground atom in canonical order
func (s *State) Facts() []lifted.Fact {
	out := make([]lifted.Fact, 0, s.size)
	for pred, r := range s.relations {
		for _, t := range r.Tuples() {
			out = append(out, lifted.Fact{Predicate: pred, Args: t})
		}
	}
	return out
}

// Apply returns the successor state after removing deletes and then adding
// adds, so an atom both deleted and added stays true.
func (s *State) Apply(deletes, adds []lifted.Fact) *State {
	if len(deletes) == 0 && len(adds) == 0 {
		return s
	}

	touched := make(map[int]bool, len(deletes)+len(adds))
	for _, f := range deletes {
		touched[f.Predicate] = true
	}
	for _, f := range adds {
		touched[f.Predicate] = true
	}

	relations := make([]*Relation, len(s.relations))
	copy(relations, s.relations)

	for pred := range touched {
		removed := make(map[string]struct{})
		for _, f := range deletes {
			if f.Predicate == pred {
				removed[tupleKey(f.Args)] = struct{}{}
			}
		}
		var tuples []lifted.GroundAtom
		for _, t := range s.relations[pred].Tuples() {
			if _, gone := removed[tupleKey(t)]; !gone {
				tuples = append(tuples, t)
			}
		}
		for _, f := range adds {
			if f.Predicate == pred {
				tuples = append(tuples, f.Args)
			}
		}
		if len(tuples) == 0 {
			relations[pred] = nil
		} else {
			relations[pred] = NewRelation(pred, tuples)
		}
	}
	return newState(relations)
}
