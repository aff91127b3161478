package grounder

import (
	"cmp"
	"math/rand"
	"slices"
	"testing"

	gocmp "github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbrown/janus-lifted/lifted"
	"github.com/wbrown/janus-lifted/lifted/annotations"
	"github.com/wbrown/janus-lifted/lifted/state"
)

const (
	pP = iota
	pQ
	pR
	pFlag
	pBlocked
	pAt
)

const (
	tObject = iota
	tRoom
	tBall
)

const (
	oA = iota
	oB
	oC
	oRoom
	oBall
)

func atom(pred int, args ...lifted.Argument) lifted.Atom {
	return lifted.Atom{Predicate: pred, Args: args}
}

func not(a lifted.Atom) lifted.Atom {
	a.Negated = true
	return a
}

func fact(pred int, args ...int) lifted.Fact {
	return lifted.Fact{Predicate: pred, Args: lifted.GroundAtom(args)}
}

func params(names ...string) []lifted.Parameter {
	out := make([]lifted.Parameter, len(names))
	for i, n := range names {
		out[i] = lifted.Parameter{Name: n, Index: i}
	}
	return out
}

func worldTask(schemas ...lifted.ActionSchema) *lifted.Task {
	for i := range schemas {
		schemas[i].Index = i
		if schemas[i].Cost == 0 {
			schemas[i].Cost = 1
		}
	}
	return &lifted.Task{
		Domain: "world",
		Name:   "world-1",
		Types: []lifted.Type{
			{Name: "object", Parent: -1},
			{Name: "room", Parent: tObject},
			{Name: "ball", Parent: tObject},
		},
		Objects: []lifted.Object{
			{Name: "a"}, {Name: "b"}, {Name: "c"},
			{Name: "kitchen", Type: tRoom},
			{Name: "red", Type: tBall},
		},
		Predicates: []lifted.Predicate{
			{Name: "p", Arity: 1},
			{Name: "q", Arity: 2},
			{Name: "r", Arity: 2},
			{Name: "flag", Arity: 0},
			{Name: "blocked", Arity: 1},
			{Name: "at", Arity: 1},
		},
		Schemas: schemas,
	}
}

func sortedBindings(actions []lifted.Action) [][]int {
	out := make([][]int, len(actions))
	for i, a := range actions {
		out[i] = a.Binding
	}
	slices.SortFunc(out, func(a, b []int) int { return slices.Compare(a, b) })
	return out
}

func mustGround(t *testing.T, g *Grounder, schema int, s *state.State) []lifted.Action {
	t.Helper()
	actions, err := g.Ground(&g.Task().Schemas[schema], s)
	require.NoError(t, err)
	return actions
}

func TestInstantiateMove(t *testing.T) {
	task := worldTask(lifted.ActionSchema{
		Name:       "move",
		Parameters: params("?from", "?to"),
		Precondition: []lifted.Atom{
			atom(pP, lifted.Var(0)),
			atom(pQ, lifted.Var(0), lifted.Var(1)),
		},
	})
	g, err := New(task, Options{})
	require.NoError(t, err)

	s := state.New(len(task.Predicates), []lifted.Fact{
		fact(pP, oA),
		fact(pQ, oA, oB), fact(pQ, oB, oC),
	})
	table, err := g.Instantiate(&task.Schemas[0], s)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, table.Columns)
	assert.Equal(t, [][]int{{oA, oB}}, table.Tuples)
}

func TestJoinOrderInvariance(t *testing.T) {
	task := worldTask(lifted.ActionSchema{
		Name:       "path",
		Parameters: params("?x", "?y", "?z"),
		Precondition: []lifted.Atom{
			atom(pQ, lifted.Var(0), lifted.Var(1)),
			atom(pQ, lifted.Var(1), lifted.Var(2)),
			atom(pP, lifted.Var(2)),
		},
		Inequalities: [][2]int{{0, 2}},
	})
	s := state.New(len(task.Predicates), []lifted.Fact{
		fact(pQ, oA, oB), fact(pQ, oB, oA), fact(pQ, oB, oC),
		fact(pQ, oC, oA), fact(pQ, oA, oC),
		fact(pP, oA), fact(pP, oC),
	})

	asc, err := New(task, Options{Order: Ascending})
	require.NoError(t, err)
	desc, err := New(task, Options{Order: Descending})
	require.NoError(t, err)
	assert.NotEqual(t, asc.Order(0), desc.Order(0))

	// c->a->? yields nothing: p(b) is false and c->a->c has ?z == ?x
	want := [][]int{
		{oA, oB, oC},
		{oB, oA, oC},
		{oB, oC, oA},
	}
	gotAsc := sortedBindings(mustGround(t, asc, 0, s))
	gotDesc := sortedBindings(mustGround(t, desc, 0, s))
	if diff := gocmp.Diff(want, gotAsc); diff != "" {
		t.Errorf("ascending bindings mismatch (-want +got):\n%s", diff)
	}
	if diff := gocmp.Diff(gotAsc, gotDesc); diff != "" {
		t.Errorf("join order changed the result (-asc +desc):\n%s", diff)
	}
}

// randomSchema builds a schema over the world predicates mixing variables,
// constants, repeated variables, negated atoms, typed parameters and
// inequalities
func randomSchema(rng *rand.Rand) lifted.ActionSchema {
	arity := []int{pP: 1, pQ: 2, pR: 2, pFlag: 0, pBlocked: 1, pAt: 1}
	n := 1 + rng.Intn(3)
	schema := lifted.ActionSchema{Name: "random", Parameters: params("?x", "?y", "?z")[:n]}
	for i := range schema.Parameters {
		if rng.Intn(4) == 0 {
			schema.Parameters[i].Type = tRoom + rng.Intn(2)
		}
	}

	for k := 1 + rng.Intn(3); k > 0; k-- {
		pred := rng.Intn(len(arity))
		args := make([]lifted.Argument, arity[pred])
		for j := range args {
			if rng.Intn(5) == 0 {
				args[j] = lifted.Const(rng.Intn(oBall + 1))
			} else {
				args[j] = lifted.Var(rng.Intn(n))
			}
		}
		a := atom(pred, args...)
		if rng.Intn(4) == 0 {
			a = not(a)
		}
		schema.Precondition = append(schema.Precondition, a)
	}

	if n > 1 && rng.Intn(2) == 0 {
		x := rng.Intn(n)
		y := (x + 1 + rng.Intn(n-1)) % n
		schema.Inequalities = [][2]int{{x, y}}
	}
	return schema
}

func randomState(rng *rand.Rand, task *lifted.Task) *state.State {
	var facts []lifted.Fact
	for pred, p := range task.Predicates {
		switch p.Arity {
		case 0:
			if rng.Intn(2) == 0 {
				facts = append(facts, fact(pred))
			}
		case 1:
			for x := range task.Objects {
				if rng.Intn(5) < 2 {
					facts = append(facts, fact(pred, x))
				}
			}
		case 2:
			for x := range task.Objects {
				for y := range task.Objects {
					if rng.Intn(5) < 2 {
						facts = append(facts, fact(pred, x, y))
					}
				}
			}
		}
	}
	return state.New(len(task.Predicates), facts)
}

// enumerate checks every binding of the schema's parameters directly
func enumerate(g *Grounder, schema *lifted.ActionSchema, s *state.State) []lifted.Action {
	objects := len(g.Task().Objects)
	var out []lifted.Action
	binding := make([]int, len(schema.Parameters))
	var walk func(i int)
	walk = func(i int) {
		if i == len(binding) {
			a := lifted.Action{Schema: schema.Index, Binding: slices.Clone(binding)}
			if g.Applicable(s, a) {
				out = append(out, a)
			}
			return
		}
		for obj := 0; obj < objects; obj++ {
			binding[i] = obj
			walk(i + 1)
		}
	}
	walk(0)
	return out
}

func TestJoinOrderInvarianceRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(20240611))

	for i := 0; i < 300; i++ {
		task := worldTask(randomSchema(rng))
		require.NoError(t, task.Validate())
		s := randomState(rng, task)

		asc, err := New(task, Options{Order: Ascending})
		require.NoError(t, err)
		desc, err := New(task, Options{Order: Descending})
		require.NoError(t, err)

		schema := &task.Schemas[0]
		want := sortedBindings(enumerate(asc, schema, s))
		gotAsc := sortedBindings(mustGround(t, asc, 0, s))
		gotDesc := sortedBindings(mustGround(t, desc, 0, s))

		if diff := gocmp.Diff(want, gotAsc); diff != "" {
			t.Fatalf("case %d: ascending bindings mismatch for %+v (-want +got):\n%s", i, *schema, diff)
		}
		if diff := gocmp.Diff(want, gotDesc); diff != "" {
			t.Fatalf("case %d: descending bindings mismatch for %+v (-want +got):\n%s", i, *schema, diff)
		}
	}
}

func TestApplicableRejectsUnknownObjects(t *testing.T) {
	task := worldTask(lifted.ActionSchema{
		Name:         "mark",
		Parameters:   params("?x"),
		Precondition: []lifted.Atom{atom(pP, lifted.Var(0))},
	})
	g, err := New(task, Options{})
	require.NoError(t, err)

	s := state.New(len(task.Predicates), []lifted.Fact{fact(pP, oA)})
	assert.True(t, g.Applicable(s, lifted.Action{Schema: 0, Binding: []int{oA}}))
	assert.False(t, g.Applicable(s, lifted.Action{Schema: 0, Binding: []int{len(task.Objects)}}))
	assert.False(t, g.Applicable(s, lifted.Action{Schema: 0, Binding: []int{-1}}))
}

func TestEarlyTermination(t *testing.T) {
	task := worldTask(lifted.ActionSchema{
		Name:       "chain",
		Parameters: params("?x", "?y", "?z"),
		Precondition: []lifted.Atom{
			atom(pP, lifted.Var(0)),
			atom(pQ, lifted.Var(0), lifted.Var(1)),
			atom(pR, lifted.Var(1), lifted.Var(2)),
		},
	})

	var joins int
	ctx := NewContext(func(e annotations.Event) {
		if e.Name == annotations.JoinHash {
			joins++
		}
	})
	g, err := New(task, Options{Context: ctx})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, g.Order(0))

	// p ⋈ q is already empty, so r is never joined
	s := state.New(len(task.Predicates), []lifted.Fact{
		fact(pP, oA), fact(pQ, oB, oC), fact(pR, oC, oA),
	})
	table, err := g.Instantiate(&task.Schemas[0], s)
	require.NoError(t, err)
	assert.True(t, table.IsEmpty())
	assert.Equal(t, 1, joins)

	// an empty relation stops before any join
	joins = 0
	s = state.New(len(task.Predicates), []lifted.Fact{fact(pQ, oA, oB), fact(pR, oB, oC)})
	table, err = g.Instantiate(&task.Schemas[0], s)
	require.NoError(t, err)
	assert.True(t, table.IsEmpty())
	assert.Equal(t, 0, joins)
}

func TestInequalityEnforcement(t *testing.T) {
	task := worldTask(lifted.ActionSchema{
		Name:       "pair",
		Parameters: params("?x", "?y"),
		Precondition: []lifted.Atom{
			atom(pP, lifted.Var(0)),
			atom(pP, lifted.Var(1)),
		},
		Inequalities: [][2]int{{0, 1}},
	})
	g, err := New(task, Options{})
	require.NoError(t, err)

	s := state.New(len(task.Predicates), []lifted.Fact{fact(pP, oA), fact(pP, oB), fact(pP, oC)})
	got := sortedBindings(mustGround(t, g, 0, s))
	want := [][]int{
		{oA, oB}, {oA, oC},
		{oB, oA}, {oB, oC},
		{oC, oA}, {oC, oB},
	}
	assert.Equal(t, want, got)
}

func TestInequalityOnSingleTable(t *testing.T) {
	task := worldTask(lifted.ActionSchema{
		Name:         "swap",
		Parameters:   params("?x", "?y"),
		Precondition: []lifted.Atom{atom(pQ, lifted.Var(0), lifted.Var(1))},
		Inequalities: [][2]int{{0, 1}},
	})
	g, err := New(task, Options{})
	require.NoError(t, err)

	s := state.New(len(task.Predicates), []lifted.Fact{fact(pQ, oA, oA), fact(pQ, oA, oB)})
	assert.Equal(t, [][]int{{oA, oB}}, sortedBindings(mustGround(t, g, 0, s)))
}

func TestGroundSchema(t *testing.T) {
	task := worldTask(lifted.ActionSchema{
		Name:         "noop",
		Precondition: []lifted.Atom{atom(pFlag)},
	})
	g, err := New(task, Options{})
	require.NoError(t, err)

	_, err = g.Instantiate(&task.Schemas[0], state.New(len(task.Predicates), nil))
	assert.ErrorIs(t, err, lifted.ErrInvariantViolation)

	on := state.New(len(task.Predicates), []lifted.Fact{fact(pFlag)})
	actions := mustGround(t, g, 0, on)
	require.Len(t, actions, 1)
	assert.Empty(t, actions[0].Binding)
	assert.Equal(t, "(noop)", task.ActionName(actions[0]))

	off := state.New(len(task.Predicates), nil)
	assert.Empty(t, mustGround(t, g, 0, off))
}

func TestGroundChecksOnLiftedSchema(t *testing.T) {
	task := worldTask(lifted.ActionSchema{
		Name:       "mark",
		Parameters: params("?x"),
		Precondition: []lifted.Atom{
			atom(pFlag),
			atom(pQ, lifted.Const(oA), lifted.Var(0)),
		},
	})
	g, err := New(task, Options{})
	require.NoError(t, err)
	assert.Len(t, g.Data(0).GroundChecks, 1)

	facts := []lifted.Fact{fact(pQ, oA, oB), fact(pQ, oB, oC)}
	assert.Empty(t, mustGround(t, g, 0, state.New(len(task.Predicates), facts)))

	facts = append(facts, fact(pFlag))
	assert.Equal(t, [][]int{{oB}}, sortedBindings(mustGround(t, g, 0, state.New(len(task.Predicates), facts))))
}

func TestRepeatedVariable(t *testing.T) {
	task := worldTask(lifted.ActionSchema{
		Name:         "self",
		Parameters:   params("?x"),
		Precondition: []lifted.Atom{atom(pQ, lifted.Var(0), lifted.Var(0))},
	})
	g, err := New(task, Options{})
	require.NoError(t, err)

	s := state.New(len(task.Predicates), []lifted.Fact{fact(pQ, oA, oA), fact(pQ, oA, oB), fact(pQ, oC, oC)})
	assert.Equal(t, [][]int{{oA}, {oC}}, sortedBindings(mustGround(t, g, 0, s)))
}

func TestTypedParameters(t *testing.T) {
	task := worldTask(
		lifted.ActionSchema{
			Name:         "pick",
			Parameters:   []lifted.Parameter{{Name: "?b", Index: 0, Type: tBall}},
			Precondition: []lifted.Atom{atom(pAt, lifted.Var(0))},
		},
		lifted.ActionSchema{
			Name: "enter",
			Parameters: []lifted.Parameter{
				{Name: "?x", Index: 0},
				{Name: "?r", Index: 1, Type: tRoom},
			},
			Precondition: []lifted.Atom{atom(pP, lifted.Var(0))},
		},
	)
	g, err := New(task, Options{})
	require.NoError(t, err)

	s := state.New(len(task.Predicates), []lifted.Fact{
		fact(pAt, oA), fact(pAt, oRoom), fact(pAt, oBall),
		fact(pP, oA),
	})
	assert.Equal(t, [][]int{{oBall}}, sortedBindings(mustGround(t, g, 0, s)))

	// ?r appears in no precondition atom and is enumerated from its type
	assert.Equal(t, [][]int{{oA, oRoom}}, sortedBindings(mustGround(t, g, 1, s)))
	assert.Equal(t, DomainTable, g.Data(1).Tables[1].Predicate)
}

func TestNegativePrecondition(t *testing.T) {
	task := worldTask(lifted.ActionSchema{
		Name:       "go",
		Parameters: params("?x"),
		Precondition: []lifted.Atom{
			atom(pP, lifted.Var(0)),
			not(atom(pBlocked, lifted.Var(0))),
		},
	})
	g, err := New(task, Options{})
	require.NoError(t, err)

	s := state.New(len(task.Predicates), []lifted.Fact{fact(pP, oA), fact(pP, oB), fact(pBlocked, oB)})
	actions := mustGround(t, g, 0, s)
	assert.Equal(t, [][]int{{oA}}, sortedBindings(actions))
	for _, a := range actions {
		assert.True(t, g.Applicable(s, a))
	}
	assert.False(t, g.Applicable(s, lifted.Action{Schema: 0, Binding: []int{oB}}))
}

func TestPermutation(t *testing.T) {
	data := &PrecompiledActionData{Tables: []PrecompiledAtom{
		{Columns: []int{0, 1}},
		{Columns: []int{0}},
		{Columns: []int{1, 2, 3}},
		{Columns: []int{2}},
	}}
	assert.Equal(t, []int{1, 3, 0, 2}, Ascending.Permutation(data))
	assert.Equal(t, []int{2, 0, 3, 1}, Descending.Permutation(data))

	// every table appears exactly once
	perm := slices.Clone(Descending.Permutation(data))
	slices.SortFunc(perm, cmp.Compare[int])
	assert.Equal(t, []int{0, 1, 2, 3}, perm)
}

func TestParseJoinOrder(t *testing.T) {
	for in, want := range map[string]JoinOrder{
		"":           Ascending,
		"ascending":  Ascending,
		"ASC":        Ascending,
		"descending": Descending,
		" desc ":     Descending,
	} {
		got, err := ParseJoinOrder(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseJoinOrder("random")
	assert.Error(t, err)
	assert.Equal(t, "descending", Descending.String())
}

func TestSuccessor(t *testing.T) {
	task := worldTask(lifted.ActionSchema{
		Name:         "move",
		Parameters:   params("?from", "?to"),
		Precondition: []lifted.Atom{atom(pAt, lifted.Var(0)), atom(pQ, lifted.Var(0), lifted.Var(1))},
		Effects: []lifted.Atom{
			not(atom(pAt, lifted.Var(0))),
			atom(pAt, lifted.Var(1)),
		},
	})
	g, err := New(task, Options{})
	require.NoError(t, err)

	s := state.New(len(task.Predicates), []lifted.Fact{fact(pAt, oA), fact(pQ, oA, oB)})
	actions, err := g.ApplicableActions(s)
	require.NoError(t, err)
	require.Len(t, actions, 1)

	next := g.Successor(s, actions[0])
	assert.False(t, next.Contains(pAt, lifted.GroundAtom{oA}))
	assert.True(t, next.Contains(pAt, lifted.GroundAtom{oB}))
	assert.True(t, next.Contains(pQ, lifted.GroundAtom{oA, oB}))
	assert.True(t, s.Contains(pAt, lifted.GroundAtom{oA}), "the parent state is unchanged")
}
