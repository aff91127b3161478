package lifted

import (
	"fmt"
	"strings"
)

// RootType is the index of the implicit "object" type every task carries
const RootType = 0

// Type is a node in the task's type hierarchy
type Type struct {
	Name   string
	Parent int // -1 for the root type
}

// Object is a domain object. Everything else refers to objects by index
// into Task.Objects.
type Object struct {
	Name string
	Type int
}

// Predicate describes a relation symbol and its fixed arity
type Predicate struct {
	Name  string
	Arity int
}

// GroundAtom is an ordered list of object indices: one fully instantiated
// predicate instance. Treat it as immutable once built.
type GroundAtom []int

// Equal reports whether two ground atoms hold the same objects
func (g GroundAtom) Equal(other GroundAtom) bool {
	if len(g) != len(other) {
		return false
	}
	for i := range g {
		if g[i] != other[i] {
			return false
		}
	}
	return true
}

// Fact pairs a predicate with one of its ground atoms
type Fact struct {
	Predicate int
	Args      GroundAtom
}

// Argument is either a constant object index or the position of a free
// variable among an action schema's parameters.
type Argument struct {
	index    int
	constant bool
}

// Const returns an argument fixed to an object
func Const(object int) Argument {
	return Argument{index: object, constant: true}
}

// Var returns an argument referring to the parameter at position param
func Var(param int) Argument {
	return Argument{index: param}
}

// Index returns the object index for constants, the parameter position otherwise
func (a Argument) Index() int {
	return a.index
}

// IsConstant reports whether the argument is fixed to an object
func (a Argument) IsConstant() bool {
	return a.constant
}

func (a Argument) String() string {
	if a.constant {
		return fmt.Sprintf("#%d", a.index)
	}
	return fmt.Sprintf("?%d", a.index)
}

// Parameter is a named, typed slot of an action schema.
// Seed is set when the parameter is bound directly by a precondition match.
type Parameter struct {
	Name  string
	Index int
	Type  int
	Seed  bool
}

// Atom is a (possibly lifted) predicate occurrence in a schema
type Atom struct {
	Predicate int
	Args      []Argument
	Negated   bool
}

// IsGround reports whether every argument is a constant
func (a Atom) IsGround() bool {
	for _, arg := range a.Args {
		if !arg.constant {
			return false
		}
	}
	return true
}

// Ground substitutes binding into the atom's free variables
func (a Atom) Ground(binding []int) GroundAtom {
	out := make(GroundAtom, len(a.Args))
	for i, arg := range a.Args {
		if arg.constant {
			out[i] = arg.index
		} else {
			out[i] = binding[arg.index]
		}
	}
	return out
}

// ActionSchema is a parameterized action. Loaded once per task and never
// modified afterwards.
type ActionSchema struct {
	Name         string
	Index        int
	Cost         int
	Parameters   []Parameter
	Precondition []Atom
	Effects      []Atom
	// Inequalities lists parameter pairs that must bind distinct objects
	Inequalities [][2]int
}

// IsGround reports whether the schema has no free variables
func (s *ActionSchema) IsGround() bool {
	return len(s.Parameters) == 0
}

// Action is an instantiated schema: Binding holds one object per parameter
type Action struct {
	Schema  int
	Binding []int
}

// GoalAtom is one requirement of the goal condition
type GoalAtom struct {
	Predicate int
	Args      GroundAtom
	Negated   bool
}

// GoalCondition is a conjunction of ground literals
type GoalCondition struct {
	Atoms []GoalAtom
}

// Task is a complete planning task
type Task struct {
	Domain     string
	Name       string
	Types      []Type
	Objects    []Object
	Predicates []Predicate
	Schemas    []ActionSchema
	Init       []Fact
	Goal       GoalCondition
}

// IsSubtype reports whether typ equals ancestor or descends from it
func (t *Task) IsSubtype(typ, ancestor int) bool {
	if ancestor == RootType {
		return true
	}
	for typ >= 0 {
		if typ == ancestor {
			return true
		}
		if typ >= len(t.Types) {
			return false
		}
		typ = t.Types[typ].Parent
	}
	return false
}

// ObjectsOfType returns the indices of all objects compatible with typ
func (t *Task) ObjectsOfType(typ int) []int {
	var out []int
	for i, obj := range t.Objects {
		if t.IsSubtype(obj.Type, typ) {
			out = append(out, i)
		}
	}
	return out
}

// ActionName renders an action as "(name obj1 obj2 ...)"
func (t *Task) ActionName(a Action) string {
	schema := &t.Schemas[a.Schema]
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(schema.Name)
	for _, obj := range a.Binding {
		sb.WriteByte(' ')
		sb.WriteString(t.Objects[obj].Name)
	}
	sb.WriteByte(')')
	return sb.String()
}

// FactString renders a fact as "(pred obj1 ...)"
func (t *Task) FactString(predicate int, args GroundAtom) string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(t.Predicates[predicate].Name)
	for _, obj := range args {
		sb.WriteByte(' ')
		sb.WriteString(t.Objects[obj].Name)
	}
	sb.WriteByte(')')
	return sb.String()
}

// Validate checks structural invariants that the rest of the planner relies on
func (t *Task) Validate() error {
	if len(t.Types) == 0 {
		return fmt.Errorf("task %q has no types: %w", t.Name, ErrMalformedTask)
	}
	checkAtom := func(where string, pred int, arity int) error {
		if pred < 0 || pred >= len(t.Predicates) {
			return fmt.Errorf("%s: predicate %d: %w", where, pred, ErrUnknownPredicate)
		}
		if t.Predicates[pred].Arity != arity {
			return fmt.Errorf("%s: %s expects %d arguments, got %d: %w",
				where, t.Predicates[pred].Name, t.Predicates[pred].Arity, arity, ErrArity)
		}
		return nil
	}
	for _, f := range t.Init {
		if err := checkAtom("init", f.Predicate, len(f.Args)); err != nil {
			return err
		}
	}
	for _, g := range t.Goal.Atoms {
		if err := checkAtom("goal", g.Predicate, len(g.Args)); err != nil {
			return err
		}
	}
	for i := range t.Schemas {
		s := &t.Schemas[i]
		if s.Index != i {
			return fmt.Errorf("schema %s has index %d at position %d: %w", s.Name, s.Index, i, ErrMalformedTask)
		}
		atoms := append(append([]Atom{}, s.Precondition...), s.Effects...)
		for _, a := range atoms {
			if err := checkAtom(s.Name, a.Predicate, len(a.Args)); err != nil {
				return err
			}
			for _, arg := range a.Args {
				if !arg.constant && arg.index >= len(s.Parameters) {
					return fmt.Errorf("%s: parameter %d out of range: %w", s.Name, arg.index, ErrMalformedTask)
				}
				if arg.constant && arg.index >= len(t.Objects) {
					return fmt.Errorf("%s: object %d out of range: %w", s.Name, arg.index, ErrMalformedTask)
				}
			}
		}
	}
	return nil
}
