package grounder

import (
	"fmt"

	"github.com/wbrown/janus-lifted/lifted"
	"github.com/wbrown/janus-lifted/lifted/join"
	"github.com/wbrown/janus-lifted/lifted/state"
)

// DomainTable marks a PrecompiledAtom that enumerates a parameter's type
// instead of probing a state relation
const DomainTable = -1

// PrecompiledAtom says how to build the initial join table of one
// precondition atom without looking at the schema again.
type PrecompiledAtom struct {
	Predicate int           // state predicate probed, or DomainTable
	Pattern   state.Pattern // constant positions fixed, state.Free elsewhere
	Columns   []int         // distinct parameters bound, in first-occurrence order
	Positions []int         // tuple position that provides each column
	Equal     [][2]int      // tuple positions that must agree (repeated variables)
	Domain    [][]int       // static rows for domain tables
}

// Table builds this atom's table against s. The result is empty when no
// tuple matches.
func (a *PrecompiledAtom) Table(s *state.State) join.Table {
	if a.Predicate == DomainTable {
		return join.Table{Columns: a.Columns, Tuples: a.Domain}
	}

	matches := s.Match(a.Predicate, a.Pattern)
	if len(matches) == 0 {
		return join.Table{Columns: a.Columns}
	}

	rows := make([][]int, 0, len(matches))
	for _, t := range matches {
		if !positionsAgree(t, a.Equal) {
			continue
		}
		row := make([]int, len(a.Positions))
		for i, p := range a.Positions {
			row[i] = t[p]
		}
		rows = append(rows, row)
	}
	return join.Table{Columns: a.Columns, Tuples: rows}
}

func positionsAgree(t lifted.GroundAtom, pairs [][2]int) bool {
	for _, p := range pairs {
		if t[p[0]] != t[p[1]] {
			return false
		}
	}
	return true
}

type typeCheck struct {
	param int
	typ   int
}

// PrecompiledActionData is derived once per schema from the task alone.
// None of it depends on a runtime state.
type PrecompiledActionData struct {
	Schema int
	// Tables are the relevant precondition atoms: positive atoms with at
	// least one free variable, plus one domain table per parameter that no
	// such atom binds.
	Tables []PrecompiledAtom
	// GroundChecks are positive precondition atoms without free variables
	GroundChecks []lifted.Fact
	// Negative holds negated precondition atoms, checked per ground action
	Negative   []lifted.Atom
	typeChecks []typeCheck
}

// Precompile derives the join program of every schema in the task
func Precompile(task *lifted.Task) ([]PrecompiledActionData, error) {
	out := make([]PrecompiledActionData, len(task.Schemas))
	for i := range task.Schemas {
		data, err := precompileSchema(task, &task.Schemas[i])
		if err != nil {
			return nil, err
		}
		out[i] = data
	}
	return out, nil
}

func precompileSchema(task *lifted.Task, schema *lifted.ActionSchema) (PrecompiledActionData, error) {
	data := PrecompiledActionData{Schema: schema.Index}
	covered := make([]bool, len(schema.Parameters))

	for _, atom := range schema.Precondition {
		if atom.Negated {
			data.Negative = append(data.Negative, atom)
			continue
		}
		if atom.IsGround() {
			data.GroundChecks = append(data.GroundChecks, lifted.Fact{
				Predicate: atom.Predicate,
				Args:      atom.Ground(nil),
			})
			continue
		}

		pa := PrecompiledAtom{
			Predicate: atom.Predicate,
			Pattern:   make(state.Pattern, len(atom.Args)),
		}
		firstSeen := make(map[int]int) // parameter -> tuple position
		for pos, arg := range atom.Args {
			if arg.IsConstant() {
				pa.Pattern[pos] = arg.Index()
				continue
			}
			pa.Pattern[pos] = state.Free
			param := arg.Index()
			if first, ok := firstSeen[param]; ok {
				pa.Equal = append(pa.Equal, [2]int{first, pos})
				continue
			}
			firstSeen[param] = pos
			pa.Columns = append(pa.Columns, param)
			pa.Positions = append(pa.Positions, pos)
			covered[param] = true
		}
		data.Tables = append(data.Tables, pa)
	}

	for i, p := range schema.Parameters {
		if covered[i] {
			if p.Type != lifted.RootType {
				data.typeChecks = append(data.typeChecks, typeCheck{param: i, typ: p.Type})
			}
			continue
		}
		objects := task.ObjectsOfType(p.Type)
		rows := make([][]int, len(objects))
		for j, obj := range objects {
			rows[j] = []int{obj}
		}
		data.Tables = append(data.Tables, PrecompiledAtom{
			Predicate: DomainTable,
			Columns:   []int{i},
			Positions: []int{0},
			Domain:    rows,
		})
	}

	if len(schema.Parameters) > 0 && len(data.Tables) == 0 {
		return data, fmt.Errorf("schema %s: no table binds its parameters: %w",
			schema.Name, lifted.ErrInvariantViolation)
	}
	return data, nil
}
