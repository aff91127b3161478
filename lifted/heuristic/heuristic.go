// Package heuristic holds the state estimators the search can use. The
// search treats them as black boxes: lower estimates are preferred.
package heuristic

import (
	"fmt"
	"strings"

	"github.com/wbrown/janus-lifted/lifted"
	"github.com/wbrown/janus-lifted/lifted/state"
)

// Heuristic estimates the remaining effort from a state. Estimates must be
// non-negative.
type Heuristic interface {
	Estimate(s *state.State) int
	Name() string
}

// IsGoal reports whether s satisfies every literal of goal
func IsGoal(goal *lifted.GoalCondition, s *state.State) bool {
	for _, g := range goal.Atoms {
		if s.Contains(g.Predicate, g.Args) == g.Negated {
			return false
		}
	}
	return true
}

// Blind returns 0 in goal states and 1 elsewhere
type Blind struct {
	goal *lifted.GoalCondition
}

// NewBlind creates the blind heuristic for a task
func NewBlind(task *lifted.Task) *Blind {
	return &Blind{goal: &task.Goal}
}

func (b *Blind) Estimate(s *state.State) int {
	if IsGoal(b.goal, s) {
		return 0
	}
	return 1
}

func (b *Blind) Name() string { return "blind" }

// GoalCount returns the number of unsatisfied goal literals
type GoalCount struct {
	goal *lifted.GoalCondition
}

// NewGoalCount creates the goal-count heuristic for a task
func NewGoalCount(task *lifted.Task) *GoalCount {
	return &GoalCount{goal: &task.Goal}
}

func (g *GoalCount) Estimate(s *state.State) int {
	unsatisfied := 0
	for _, atom := range g.goal.Atoms {
		if s.Contains(atom.Predicate, atom.Args) == atom.Negated {
			unsatisfied++
		}
	}
	return unsatisfied
}

func (g *GoalCount) Name() string { return "goalcount" }

// ParseName normalizes a heuristic name, accepting the usual aliases
func ParseName(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "blind":
		return "blind", nil
	case "", "goalcount", "goal-count", "gc":
		return "goalcount", nil
	default:
		return "", fmt.Errorf("unknown heuristic %q (want blind or goalcount)", name)
	}
}

// New builds a heuristic by name
func New(name string, task *lifted.Task) (Heuristic, error) {
	canonical, err := ParseName(name)
	if err != nil {
		return nil, err
	}
	if canonical == "blind" {
		return NewBlind(task), nil
	}
	return NewGoalCount(task), nil
}
