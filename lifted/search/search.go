package search

import (
	"context"
	"errors"
	"fmt"

	"github.com/wbrown/janus-lifted/lifted"
	"github.com/wbrown/janus-lifted/lifted/grounder"
	"github.com/wbrown/janus-lifted/lifted/heuristic"
	"github.com/wbrown/janus-lifted/lifted/state"
)

// Status is the terminal result of a search
type Status int

const (
	Solved    Status = 0
	NotSolved Status = 1
)

func (s Status) String() string {
	switch s {
	case Solved:
		return "solved"
	case NotSolved:
		return "not solved"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ErrExpansionLimit is returned with NotSolved when Options.MaxExpansions is reached
var ErrExpansionLimit = errors.New("expansion limit reached")

// Options configures an Engine
type Options struct {
	// MaxExpansions stops the search after this many expansions; 0 means no limit
	MaxExpansions int
	// ProgressInterval reports progress every N expansions in addition to
	// every new lowest h; 0 reports only new lowest h values
	ProgressInterval int
	// JoinOrder names the grounder's join order in annotations
	JoinOrder string
	Context   Context
}

// parentLink records how a state was first reached
type parentLink struct {
	parent int // -1 for the initial state
	action lifted.Action
}

// Engine is a greedy best-first search over planning states.
//
// The frontier is ordered by heuristic estimate, ties broken by accumulated
// cost. A state is registered the first time it is generated and is never
// reopened: its recorded parent is the one it was first discovered from,
// which need not be the cheapest.
//
// CONCURRENCY: an Engine runs one search at a time and is not thread-safe.
type Engine struct {
	task *lifted.Task
	gen  grounder.SuccessorGenerator
	h    heuristic.Heuristic
	opts Options

	registry *state.Registry // visited + index_to_state
	parents  []parentLink    // cheapest_parent, indexed by state identity
	frontier *Frontier

	plan      []lifted.Action
	goalID    int
	explored  int
	generated int
}

// New creates a search engine for task
func New(task *lifted.Task, gen grounder.SuccessorGenerator, h heuristic.Heuristic, opts Options) *Engine {
	if opts.Context == nil {
		opts.Context = BaseContext{}
	}
	return &Engine{
		task:   task,
		gen:    gen,
		h:      h,
		opts:   opts,
		goalID: -1,
	}
}

// Search runs the search to completion. It returns Solved with a readable
// Plan, or NotSolved when the frontier empties. ctx is only consulted
// between expansions.
func (e *Engine) Search(ctx context.Context) (status Status, err error) {
	e.reset()
	e.opts.Context.SearchBegin(e.task, e.opts.JoinOrder, e.h.Name())
	defer func() {
		e.opts.Context.SearchComplete(status, e.explored, e.generated, err)
	}()

	initial := state.New(len(e.task.Predicates), e.task.Init)
	rootID, _ := e.registry.Insert(initial)
	e.parents = append(e.parents, parentLink{parent: -1})
	e.frontier.Push(Node{G: 0, H: e.h.Estimate(initial), ID: rootID})

	bestH := -1
	for e.frontier.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return NotSolved, err
		}
		if e.opts.MaxExpansions > 0 && e.explored >= e.opts.MaxExpansions {
			return NotSolved, ErrExpansionLimit
		}

		node := e.frontier.Pop()
		e.explored++
		current := e.registry.State(node.ID)

		if heuristic.IsGoal(&e.task.Goal, current) {
			e.goalID = node.ID
			e.plan = e.extractPlan(node.ID)
			e.opts.Context.PlanExtracted(len(e.plan), e.PlanCost())
			return Solved, nil
		}

		if bestH < 0 || node.H < bestH {
			bestH = node.H
			e.opts.Context.Progress(node, e.explored, e.generated)
		} else if e.opts.ProgressInterval > 0 && e.explored%e.opts.ProgressInterval == 0 {
			e.opts.Context.Progress(node, e.explored, e.generated)
		}

		actions, err := e.gen.ApplicableActions(current)
		if err != nil {
			return NotSolved, fmt.Errorf("expanding state %d: %w", node.ID, err)
		}

		for _, a := range actions {
			succ := e.gen.Successor(current, a)
			e.generated++

			id, inserted := e.registry.Insert(succ)
			if !inserted {
				continue
			}
			e.parents = append(e.parents, parentLink{parent: node.ID, action: a})
			e.frontier.Push(Node{
				G:  node.G + e.task.Schemas[a.Schema].Cost,
				H:  e.h.Estimate(succ),
				ID: id,
			})
		}
	}

	return NotSolved, nil
}

func (e *Engine) reset() {
	e.registry = state.NewRegistry()
	e.parents = e.parents[:0]
	e.frontier = NewFrontier()
	e.plan = nil
	e.goalID = -1
	e.explored = 0
	e.generated = 0
}

// extractPlan walks the parent links back to the initial state and returns
// the actions in execution order
func (e *Engine) extractPlan(id int) []lifted.Action {
	var plan []lifted.Action
	for e.parents[id].parent >= 0 {
		link := e.parents[id]
		plan = append(plan, link.action)
		id = link.parent
	}
	for i, j := 0, len(plan)-1; i < j; i, j = i+1, j-1 {
		plan[i], plan[j] = plan[j], plan[i]
	}
	return plan
}

// Plan returns the plan found by the last successful search
func (e *Engine) Plan() []lifted.Action {
	return e.plan
}

// PlanCost returns the summed schema cost of the plan
func (e *Engine) PlanCost() int {
	cost := 0
	for _, a := range e.plan {
		cost += e.task.Schemas[a.Schema].Cost
	}
	return cost
}

// Trajectory returns the registered states along the plan, initial state
// first. It is nil unless the last search was solved.
func (e *Engine) Trajectory() []*state.State {
	if e.goalID < 0 {
		return nil
	}
	var ids []int
	for id := e.goalID; id >= 0; id = e.parents[id].parent {
		ids = append(ids, id)
	}
	out := make([]*state.State, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = e.registry.State(id)
	}
	return out
}

// ExploredStates returns how many nodes were popped for expansion
func (e *Engine) ExploredStates() int {
	return e.explored
}

// GeneratedStates returns how many successor states were created,
// duplicates included
func (e *Engine) GeneratedStates() int {
	return e.generated
}

// VisitedStates returns how many distinct states were registered
func (e *Engine) VisitedStates() int {
	if e.registry == nil {
		return 0
	}
	return e.registry.Len()
}
