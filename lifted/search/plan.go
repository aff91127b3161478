package search

import (
	"errors"
	"fmt"
	"io"

	"github.com/wbrown/janus-lifted/lifted"
	"github.com/wbrown/janus-lifted/lifted/heuristic"
	"github.com/wbrown/janus-lifted/lifted/state"
)

// ErrInvalidPlan is returned by ValidatePlan when a plan does not execute
// or does not reach the goal
var ErrInvalidPlan = errors.New("invalid plan")

// Checker applies ground actions directly. *grounder.Grounder implements it.
type Checker interface {
	Applicable(s *state.State, a lifted.Action) bool
	Successor(s *state.State, a lifted.Action) *state.State
}

// WritePlan writes one "(schema obj ...)" line per action followed by a
// cost comment
func WritePlan(w io.Writer, task *lifted.Task, plan []lifted.Action) error {
	cost := 0
	unit := true
	for _, a := range plan {
		if _, err := fmt.Fprintln(w, task.ActionName(a)); err != nil {
			return err
		}
		c := task.Schemas[a.Schema].Cost
		cost += c
		if c != 1 {
			unit = false
		}
	}
	suffix := "general cost"
	if unit {
		suffix = "unit cost"
	}
	_, err := fmt.Fprintf(w, "; cost = %d (%s)\n", cost, suffix)
	return err
}

// ValidatePlan replays plan from the task's initial state and checks that
// every action is applicable and the final state satisfies the goal
func ValidatePlan(task *lifted.Task, checker Checker, plan []lifted.Action) error {
	s := state.New(len(task.Predicates), task.Init)
	for i, a := range plan {
		if a.Schema < 0 || a.Schema >= len(task.Schemas) {
			return fmt.Errorf("step %d: unknown schema %d: %w", i+1, a.Schema, ErrInvalidPlan)
		}
		if !checker.Applicable(s, a) {
			return fmt.Errorf("step %d: %s is not applicable: %w", i+1, task.ActionName(a), ErrInvalidPlan)
		}
		s = checker.Successor(s, a)
	}
	if !heuristic.IsGoal(&task.Goal, s) {
		return fmt.Errorf("final state does not satisfy the goal: %w", ErrInvalidPlan)
	}
	return nil
}
