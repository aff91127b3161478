package grounder

import (
	"fmt"

	"github.com/wbrown/janus-lifted/lifted"
	"github.com/wbrown/janus-lifted/lifted/join"
	"github.com/wbrown/janus-lifted/lifted/state"
)

// Options configures a Grounder
type Options struct {
	Order   JoinOrder
	Context Context
}

// Grounder computes the applicable ground actions of lifted schemas by
// evaluating each schema's precondition as a conjunctive query over the
// state's relations.
//
// Everything a Grounder holds is derived from the task at construction, so
// one instance serves every state of a search.
type Grounder struct {
	task  *lifted.Task
	data  []PrecompiledActionData
	order [][]int // per schema: table join order
	opts  Options
}

// New precompiles the task's schemas and their join orders
func New(task *lifted.Task, opts Options) (*Grounder, error) {
	data, err := Precompile(task)
	if err != nil {
		return nil, err
	}
	if opts.Context == nil {
		opts.Context = BaseContext{}
	}

	order := make([][]int, len(data))
	for i := range data {
		order[i] = opts.Order.Permutation(&data[i])
	}

	return &Grounder{
		task:  task,
		data:  data,
		order: order,
		opts:  opts,
	}, nil
}

// Task returns the task the grounder was built for
func (g *Grounder) Task() *lifted.Task {
	return g.task
}

// Order returns the join order of a schema's precondition tables
func (g *Grounder) Order(schema int) []int {
	return g.order[schema]
}

// Data returns a schema's precompiled join program
func (g *Grounder) Data(schema int) *PrecompiledActionData {
	return &g.data[schema]
}

// SetContext replaces the annotation context
func (g *Grounder) SetContext(ctx Context) {
	if ctx == nil {
		ctx = BaseContext{}
	}
	g.opts.Context = ctx
}

// Instantiate returns the table of free-variable bindings that satisfy the
// schema's precondition in s. Each row binds every parameter.
//
// An empty table means the schema has no applicable instantiation in s; it
// is the normal outcome and not an error. The only error is
// lifted.ErrInvariantViolation, returned when schema has no free variables.
func (g *Grounder) Instantiate(schema *lifted.ActionSchema, s *state.State) (join.Table, error) {
	if schema.IsGround() {
		return join.EmptyTable(), fmt.Errorf("instantiate called on ground schema %s: %w",
			schema.Name, lifted.ErrInvariantViolation)
	}

	data := &g.data[schema.Index]
	for _, f := range data.GroundChecks {
		if !s.Contains(f.Predicate, f.Args) {
			return join.EmptyTable(), nil
		}
	}

	tables := make([]join.Table, len(data.Tables))
	for i := range data.Tables {
		tables[i] = data.Tables[i].Table(s)
		if tables[i].IsEmpty() {
			return join.EmptyTable(), nil
		}
	}

	order := g.order[schema.Index]
	ctx := g.opts.Context

	working := tables[order[0]]
	if len(schema.Inequalities) > 0 {
		// The first table may alias static domain rows; filter a copy
		working.Tuples = append([][]int(nil), working.Tuples...)
		working = g.filter(schema, working)
		if working.IsEmpty() {
			return working, nil
		}
	}

	for _, i := range order[1:] {
		right := tables[i]
		left := working
		working = ctx.JoinTables(schema, left, right, func() join.Table {
			return join.HashJoin(left, right)
		})
		working = g.filter(schema, working)
		if working.IsEmpty() {
			return working, nil
		}
	}
	return working, nil
}

func (g *Grounder) filter(schema *lifted.ActionSchema, t join.Table) join.Table {
	if len(schema.Inequalities) == 0 || t.IsEmpty() {
		return t
	}
	return g.opts.Context.FilterTable(schema, t.Size(), func() join.Table {
		join.FilterInequalities(&t, schema.Inequalities)
		return t
	})
}

// Ground returns every applicable ground action of schema in s. A schema
// without free variables yields itself when its precondition holds.
func (g *Grounder) Ground(schema *lifted.ActionSchema, s *state.State) ([]lifted.Action, error) {
	return g.opts.Context.GroundSchema(schema, func() ([]lifted.Action, error) {
		if schema.IsGround() {
			a := lifted.Action{Schema: schema.Index, Binding: []int{}}
			if g.Applicable(s, a) {
				return []lifted.Action{a}, nil
			}
			return nil, nil
		}

		table, err := g.Instantiate(schema, s)
		if err != nil {
			return nil, err
		}
		if table.IsEmpty() {
			return nil, nil
		}
		if len(table.Columns) != len(schema.Parameters) {
			return nil, fmt.Errorf("schema %s: join bound %d of %d parameters: %w",
				schema.Name, len(table.Columns), len(schema.Parameters), lifted.ErrInvariantViolation)
		}

		data := &g.data[schema.Index]
		actions := make([]lifted.Action, 0, table.Size())
		for _, row := range table.Tuples {
			binding := make([]int, len(schema.Parameters))
			for i, col := range table.Columns {
				binding[col] = row[i]
			}
			if !g.typesMatch(data, binding) || !negativesHold(data, s, binding) {
				continue
			}
			actions = append(actions, lifted.Action{Schema: schema.Index, Binding: binding})
		}
		return actions, nil
	})
}

func (g *Grounder) typesMatch(data *PrecompiledActionData, binding []int) bool {
	for _, tc := range data.typeChecks {
		if !g.task.IsSubtype(g.task.Objects[binding[tc.param]].Type, tc.typ) {
			return false
		}
	}
	return true
}

func negativesHold(data *PrecompiledActionData, s *state.State, binding []int) bool {
	for _, atom := range data.Negative {
		if s.Contains(atom.Predicate, atom.Ground(binding)) {
			return false
		}
	}
	return true
}

// Applicable checks a ground action against s directly, without joins.
// Used for ground schemas and plan validation.
func (g *Grounder) Applicable(s *state.State, a lifted.Action) bool {
	schema := &g.task.Schemas[a.Schema]
	if len(a.Binding) != len(schema.Parameters) {
		return false
	}
	for i, p := range schema.Parameters {
		if a.Binding[i] < 0 || a.Binding[i] >= len(g.task.Objects) {
			return false
		}
		if !g.task.IsSubtype(g.task.Objects[a.Binding[i]].Type, p.Type) {
			return false
		}
	}
	for _, pair := range schema.Inequalities {
		if a.Binding[pair[0]] == a.Binding[pair[1]] {
			return false
		}
	}
	for _, atom := range schema.Precondition {
		if s.Contains(atom.Predicate, atom.Ground(a.Binding)) == atom.Negated {
			return false
		}
	}
	return true
}
