package state

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-lifted/lifted"
)

const (
	predAt = iota
	predRoad
	predHandEmpty
	numPreds
)

func fact(pred int, args ...int) lifted.Fact {
	return lifted.Fact{Predicate: pred, Args: lifted.GroundAtom(args)}
}

func TestRelationSetSemantics(t *testing.T) {
	r := NewRelation(predRoad, []lifted.GroundAtom{{2, 1}, {0, 1}, {2, 1}, {1, 2}})

	assert.Equal(t, 3, r.Len())
	if diff := cmp.Diff([]lifted.GroundAtom{{0, 1}, {1, 2}, {2, 1}}, r.Tuples()); diff != "" {
		t.Errorf("tuples not canonical (-want +got):\n%s", diff)
	}
	assert.True(t, r.Contains(lifted.GroundAtom{1, 2}))
	assert.False(t, r.Contains(lifted.GroundAtom{2, 2}))
}

func TestMatchFixedPositions(t *testing.T) {
	s := New(numPreds, []lifted.Fact{
		fact(predRoad, 0, 1),
		fact(predRoad, 1, 2),
		fact(predRoad, 1, 0),
		fact(predAt, 0),
	})

	got := s.Match(predRoad, Pattern{1, Free})
	assert.Equal(t, []lifted.GroundAtom{{1, 0}, {1, 2}}, got)

	got = s.Match(predRoad, Pattern{Free, 1})
	assert.Equal(t, []lifted.GroundAtom{{0, 1}}, got)

	assert.Len(t, s.Match(predRoad, Pattern{Free, Free}), 3)
	assert.Empty(t, s.Match(predHandEmpty, Pattern{}))
	assert.Empty(t, s.Match(predRoad, Pattern{2, Free}))
}

func TestNullaryPredicate(t *testing.T) {
	s := New(numPreds, []lifted.Fact{fact(predHandEmpty)})

	assert.True(t, s.Contains(predHandEmpty, lifted.GroundAtom{}))
	assert.Len(t, s.Match(predHandEmpty, Pattern{}), 1)

	s2 := s.Apply([]lifted.Fact{fact(predHandEmpty)}, nil)
	assert.False(t, s2.Contains(predHandEmpty, lifted.GroundAtom{}))
	assert.True(t, s.Contains(predHandEmpty, lifted.GroundAtom{}), "parent must be unchanged")
}

func TestApplyDeleteThenAdd(t *testing.T) {
	s := New(numPreds, []lifted.Fact{fact(predAt, 0), fact(predRoad, 0, 1)})

	next := s.Apply(
		[]lifted.Fact{fact(predAt, 0)},
		[]lifted.Fact{fact(predAt, 1)},
	)
	assert.False(t, next.Contains(predAt, lifted.GroundAtom{0}))
	assert.True(t, next.Contains(predAt, lifted.GroundAtom{1}))
	assert.Same(t, s.Relation(predRoad), next.Relation(predRoad), "untouched relations are shared")

	// An atom both deleted and added stays true
	same := s.Apply([]lifted.Fact{fact(predAt, 0)}, []lifted.Fact{fact(predAt, 0)})
	assert.True(t, same.Equal(s))
	assert.Equal(t, s.Hash(), same.Hash())
}

func TestStateEquality(t *testing.T) {
	a := New(numPreds, []lifted.Fact{fact(predAt, 0), fact(predRoad, 0, 1), fact(predRoad, 1, 2)})
	b := New(numPreds, []lifted.Fact{fact(predRoad, 1, 2), fact(predAt, 0), fact(predRoad, 0, 1)})
	c := New(numPreds, []lifted.Fact{fact(predAt, 1), fact(predRoad, 0, 1), fact(predRoad, 1, 2)})

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(c))
	assert.Equal(t, 3, a.Size())
	assert.Len(t, a.Facts(), 3)

	// Emptying a relation compares equal to never having it
	d := a.Apply([]lifted.Fact{fact(predAt, 0)}, nil)
	e := New(numPreds, []lifted.Fact{fact(predRoad, 0, 1), fact(predRoad, 1, 2)})
	assert.True(t, d.Equal(e))
}

func TestRegistryDeduplicates(t *testing.T) {
	reg := NewRegistry()
	a := New(numPreds, []lifted.Fact{fact(predAt, 0)})
	b := New(numPreds, []lifted.Fact{fact(predAt, 1)})
	aAgain := b.Apply([]lifted.Fact{fact(predAt, 1)}, []lifted.Fact{fact(predAt, 0)})

	id, inserted := reg.Insert(a)
	require.True(t, inserted)
	assert.Equal(t, 0, id)

	id, inserted = reg.Insert(b)
	require.True(t, inserted)
	assert.Equal(t, 1, id)

	id, inserted = reg.Insert(aAgain)
	assert.False(t, inserted)
	assert.Equal(t, 0, id)
	assert.Same(t, a, reg.State(0))
	assert.Equal(t, 2, reg.Len())

	_, ok := reg.Lookup(New(numPreds, nil))
	assert.False(t, ok)
}
