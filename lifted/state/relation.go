package state

import (
	"slices"

	"github.com/wbrown/janus-lifted/lifted"
)

// Free marks a pattern position that matches any object
const Free = -1

// Pattern is a partial tuple: constant positions hold object indices,
// the rest hold Free
type Pattern []int

// IsFree reports whether the pattern fixes no position
func (p Pattern) IsFree() bool {
	for _, v := range p {
		if v != Free {
			return false
		}
	}
	return true
}

// Relation is the set of true ground atoms of one predicate.
// Relations are immutable once built and may be shared between states.
type Relation struct {
	Predicate int
	tuples    []lifted.GroundAtom // sorted, no duplicates
	index     map[string]struct{}
	hash      uint64
}

// NewRelation builds a relation, dropping duplicate tuples
func NewRelation(predicate int, tuples []lifted.GroundAtom) *Relation {
	r := &Relation{
		Predicate: predicate,
		index:     make(map[string]struct{}, len(tuples)),
	}
	for _, t := range tuples {
		key := tupleKey(t)
		if _, dup := r.index[key]; dup {
			continue
		}
		r.index[key] = struct{}{}
		r.tuples = append(r.tuples, t)
	}
	slices.SortFunc(r.tuples, func(a, b lifted.GroundAtom) int {
		return slices.Compare(a, b)
	})

	hash := combine(fnvOffset, uint64(predicate))
	for _, t := range r.tuples {
		hash = combine(hash, HashTuple(t))
	}
	r.hash = hash
	return r
}

// Len returns the number of tuples
func (r *Relation) Len() int {
	if r == nil {
		return 0
	}
	return len(r.tuples)
}

// Tuples returns the relation's tuples in canonical order.
// The returned slice must not be modified.
func (r *Relation) Tuples() []lifted.GroundAtom {
	if r == nil {
		return nil
	}
	return r.tuples
}

// Contains reports whether the tuple is in the relation
func (r *Relation) Contains(t lifted.GroundAtom) bool {
	if r == nil {
		return false
	}
	_, ok := r.index[tupleKey(t)]
	return ok
}

// Match returns the tuples agreeing with every constant position of p
func (r *Relation) Match(p Pattern) []lifted.GroundAtom {
	if r == nil {
		return nil
	}
	if p.IsFree() {
		return r.tuples
	}

	var out []lifted.GroundAtom
	for _, t := range r.tuples {
		if matches(t, p) {
			out = append(out, t)
		}
	}
	return out
}

func matches(t lifted.GroundAtom, p Pattern) bool {
	for i, v := range p {
		if v != Free && t[i] != v {
			return false
		}
	}
	return true
}

// Equal compares two relations by content
func (r *Relation) Equal(other *Relation) bool {
	if r.Len() != other.Len() {
		return false
	}
	if r.Len() == 0 {
		return true
	}
	if r.hash != other.hash || r.Predicate != other.Predicate {
		return false
	}
	for i, t := range r.tuples {
		if !t.Equal(other.tuples[i]) {
			return false
		}
	}
	return true
}
