package grounder

import (
	"github.com/wbrown/janus-lifted/lifted"
	"github.com/wbrown/janus-lifted/lifted/state"
)

// SuccessorGenerator produces the applicable actions of a state and the
// states they lead to
type SuccessorGenerator interface {
	ApplicableActions(s *state.State) ([]lifted.Action, error)
	Successor(s *state.State, a lifted.Action) *state.State
}

var _ SuccessorGenerator = (*Grounder)(nil)

// ApplicableActions grounds every schema of the task against s, in schema order
func (g *Grounder) ApplicableActions(s *state.State) ([]lifted.Action, error) {
	var out []lifted.Action
	for i := range g.task.Schemas {
		actions, err := g.Ground(&g.task.Schemas[i], s)
		if err != nil {
			return nil, err
		}
		out = append(out, actions...)
	}
	return out, nil
}

// Successor applies a's effects to s: negated effects are removed, then
// positive effects added
func (g *Grounder) Successor(s *state.State, a lifted.Action) *state.State {
	schema := &g.task.Schemas[a.Schema]
	var deletes, adds []lifted.Fact
	for _, eff := range schema.Effects {
		f := lifted.Fact{Predicate: eff.Predicate, Args: eff.Ground(a.Binding)}
		if eff.Negated {
			deletes = append(deletes, f)
		} else {
			adds = append(adds, f)
		}
	}
	return s.Apply(deletes, adds)
}
