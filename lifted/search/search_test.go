package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-lifted/lifted"
	"github.com/wbrown/janus-lifted/lifted/annotations"
	"github.com/wbrown/janus-lifted/lifted/grounder"
	"github.com/wbrown/janus-lifted/lifted/heuristic"
	"github.com/wbrown/janus-lifted/lifted/state"
)

const (
	predAt = iota
	predConnected
)

const (
	objA = iota
	objB
	objC
)

// routeTask moves a single agent along connected locations a, b and c
func routeTask(edges ...[2]int) *lifted.Task {
	init := []lifted.Fact{{Predicate: predAt, Args: lifted.GroundAtom{objA}}}
	for _, e := range edges {
		init = append(init, lifted.Fact{Predicate: predConnected, Args: lifted.GroundAtom{e[0], e[1]}})
	}
	return &lifted.Task{
		Domain: "route",
		Name:   "route-abc",
		Types:  []lifted.Type{{Name: "object", Parent: -1}},
		Objects: []lifted.Object{
			{Name: "a"}, {Name: "b"}, {Name: "c"},
		},
		Predicates: []lifted.Predicate{
			{Name: "at", Arity: 1},
			{Name: "connected", Arity: 2},
		},
		Schemas: []lifted.ActionSchema{{
			Name:  "move",
			Index: 0,
			Cost:  1,
			Parameters: []lifted.Parameter{
				{Name: "?from", Index: 0, Seed: true},
				{Name: "?to", Index: 1, Seed: true},
			},
			Precondition: []lifted.Atom{
				{Predicate: predAt, Args: []lifted.Argument{lifted.Var(0)}},
				{Predicate: predConnected, Args: []lifted.Argument{lifted.Var(0), lifted.Var(1)}},
			},
			Effects: []lifted.Atom{
				{Predicate: predAt, Args: []lifted.Argument{lifted.Var(0)}, Negated: true},
				{Predicate: predAt, Args: []lifted.Argument{lifted.Var(1)}},
			},
		}},
		Init: init,
		Goal: lifted.GoalCondition{Atoms: []lifted.GoalAtom{
			{Predicate: predAt, Args: lifted.GroundAtom{objC}},
		}},
	}
}

func newEngine(t *testing.T, task *lifted.Task, opts Options) (*Engine, *grounder.Grounder) {
	t.Helper()
	g, err := grounder.New(task, grounder.Options{})
	require.NoError(t, err)
	return New(task, g, heuristic.NewGoalCount(task), opts), g
}

func TestFrontierOrdering(t *testing.T) {
	f := NewFrontier()
	f.Push(Node{G: 0, H: 3, ID: 0})
	f.Push(Node{G: 5, H: 1, ID: 1})
	f.Push(Node{G: 2, H: 1, ID: 2})
	f.Push(Node{G: 2, H: 1, ID: 3})
	f.Push(Node{G: 9, H: 0, ID: 4})

	var order []int
	for f.Len() > 0 {
		order = append(order, f.Pop().ID)
	}
	// lowest h first, then lowest g, then insertion order
	assert.Equal(t, []int{4, 2, 3, 1, 0}, order)
}

func TestFrontierRandomPushes(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	f := NewFrontier()
	for i := 0; i < 500; i++ {
		f.Push(Node{G: rng.Intn(10), H: rng.Intn(10), ID: i})
	}

	prev := f.Pop()
	for f.Len() > 0 {
		next := f.Pop()
		require.False(t, next.Before(prev), "popped %+v after %+v", next, prev)
		if !prev.Before(next) {
			require.Less(t, prev.ID, next.ID, "ties must pop in insertion order")
		}
		prev = next
	}
}

func TestSearchRoute(t *testing.T) {
	task := routeTask([2]int{objA, objB}, [2]int{objB, objC})
	engine, _ := newEngine(t, task, Options{})

	status, err := engine.Search(context.Background())
	require.NoError(t, err)
	require.Equal(t, Solved, status)

	want := []lifted.Action{
		{Schema: 0, Binding: []int{objA, objB}},
		{Schema: 0, Binding: []int{objB, objC}},
	}
	if diff := cmp.Diff(want, engine.Plan()); diff != "" {
		t.Errorf("plan mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, engine.ExploredStates())
	assert.GreaterOrEqual(t, engine.GeneratedStates(), 2)
	assert.Equal(t, 2, engine.PlanCost())

	traj := engine.Trajectory()
	require.Len(t, traj, 3)
	assert.True(t, traj[0].Contains(predAt, lifted.GroundAtom{objA}))
	assert.True(t, traj[1].Contains(predAt, lifted.GroundAtom{objB}))
	assert.True(t, traj[2].Contains(predAt, lifted.GroundAtom{objC}))
}

func TestSearchInitialGoal(t *testing.T) {
	task := routeTask()
	task.Goal.Atoms[0].Args = lifted.GroundAtom{objA}
	engine, _ := newEngine(t, task, Options{})

	status, err := engine.Search(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Solved, status)
	assert.Empty(t, engine.Plan())
	assert.Equal(t, 1, engine.ExploredStates())
	assert.Equal(t, 0, engine.GeneratedStates())
}

func TestSearchDuplicateDetection(t *testing.T) {
	task := routeTask([2]int{objA, objB}, [2]int{objB, objA}, [2]int{objB, objC})
	engine, _ := newEngine(t, task, Options{})

	status, err := engine.Search(context.Background())
	require.NoError(t, err)
	require.Equal(t, Solved, status)

	// at(a) is regenerated from at(b) but registered only once
	assert.Equal(t, 3, engine.GeneratedStates())
	assert.Equal(t, 3, engine.VisitedStates())
	assert.Equal(t, 3, engine.ExploredStates())
	assert.Len(t, engine.Plan(), 2)
}

func TestSearchNotSolved(t *testing.T) {
	task := routeTask([2]int{objA, objB}, [2]int{objB, objA})
	engine, _ := newEngine(t, task, Options{})

	status, err := engine.Search(context.Background())
	require.NoError(t, err)
	assert.Equal(t, NotSolved, status)
	assert.Nil(t, engine.Plan())
	assert.Nil(t, engine.Trajectory())
	assert.Equal(t, 2, engine.ExploredStates())
}

func TestSearchExpansionLimit(t *testing.T) {
	task := routeTask([2]int{objA, objB}, [2]int{objB, objC})
	engine, _ := newEngine(t, task, Options{MaxExpansions: 1})

	status, err := engine.Search(context.Background())
	assert.ErrorIs(t, err, ErrExpansionLimit)
	assert.Equal(t, NotSolved, status)
	assert.Equal(t, 1, engine.ExploredStates())
}

func TestSearchCancelled(t *testing.T) {
	task := routeTask([2]int{objA, objB}, [2]int{objB, objC})
	engine, _ := newEngine(t, task, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	status, err := engine.Search(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, NotSolved, status)
	assert.Equal(t, 0, engine.ExploredStates())
}

type failingGenerator struct{}

func (failingGenerator) ApplicableActions(*state.State) ([]lifted.Action, error) {
	return nil, fmt.Errorf("schema noop: %w", lifted.ErrInvariantViolation)
}

func (failingGenerator) Successor(s *state.State, _ lifted.Action) *state.State {
	return s
}

func TestSearchPropagatesInvariantViolation(t *testing.T) {
	task := routeTask([2]int{objA, objB})
	engine := New(task, failingGenerator{}, heuristic.NewGoalCount(task), Options{})

	status, err := engine.Search(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifted.ErrInvariantViolation))
	assert.Equal(t, NotSolved, status)
}

func TestSearchIsRepeatable(t *testing.T) {
	task := routeTask([2]int{objA, objB}, [2]int{objB, objC})
	engine, _ := newEngine(t, task, Options{})

	_, err := engine.Search(context.Background())
	require.NoError(t, err)
	first := engine.Plan()

	status, err := engine.Search(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Solved, status)
	assert.Equal(t, first, engine.Plan())
	assert.Equal(t, 3, engine.ExploredStates())
}

func TestSearchAnnotations(t *testing.T) {
	var names []string
	handler := func(e annotations.Event) { names = append(names, e.Name) }

	task := routeTask([2]int{objA, objB}, [2]int{objB, objC})
	ctx := NewContext(handler)
	g, err := grounder.New(task, grounder.Options{Context: ctx})
	require.NoError(t, err)
	engine := New(task, g, heuristic.NewGoalCount(task), Options{Context: ctx, JoinOrder: "ascending"})

	_, err = engine.Search(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, names)
	assert.Equal(t, annotations.SearchInvoked, names[0])
	assert.Equal(t, annotations.SearchComplete, names[len(names)-1])
	assert.Contains(t, names, annotations.SearchProgress)
	assert.Contains(t, names, annotations.GroundSchema)
	assert.Contains(t, names, annotations.JoinHash)
	assert.Contains(t, names, annotations.PlanExtracted)
}

func TestWritePlan(t *testing.T) {
	task := routeTask()
	plan := []lifted.Action{
		{Schema: 0, Binding: []int{objA, objB}},
		{Schema: 0, Binding: []int{objB, objC}},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePlan(&buf, task, plan))
	assert.Equal(t, "(move a b)\n(move b c)\n; cost = 2 (unit cost)\n", buf.String())

	task.Schemas[0].Cost = 3
	buf.Reset()
	require.NoError(t, WritePlan(&buf, task, plan[:1]))
	assert.Equal(t, "(move a b)\n; cost = 3 (general cost)\n", buf.String())
}

func TestValidatePlan(t *testing.T) {
	task := routeTask([2]int{objA, objB}, [2]int{objB, objC})
	engine, g := newEngine(t, task, Options{})

	_, err := engine.Search(context.Background())
	require.NoError(t, err)
	assert.NoError(t, ValidatePlan(task, g, engine.Plan()))

	reversed := []lifted.Action{
		{Schema: 0, Binding: []int{objB, objC}},
		{Schema: 0, Binding: []int{objA, objB}},
	}
	assert.ErrorIs(t, ValidatePlan(task, g, reversed), ErrInvalidPlan)

	short := []lifted.Action{{Schema: 0, Binding: []int{objA, objB}}}
	assert.ErrorIs(t, ValidatePlan(task, g, short), ErrInvalidPlan)
}
