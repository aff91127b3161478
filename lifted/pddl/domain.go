// Package pddl reads the STRIPS fragment of PDDL, with types, negative
// preconditions, inequality and action costs, and translates a domain and
// problem pair into a lifted.Task.
package pddl

import (
	"errors"
	"fmt"
)

// ErrUnsupported marks PDDL constructs outside the supported fragment
var ErrUnsupported = errors.New("unsupported PDDL construct")

// TypedName is one entry of a typed list such as "?x ?y - block"
type TypedName struct {
	Name string
	Type string
	Line int
	Col  int
}

// PredicateDecl declares a predicate and its parameters
type PredicateDecl struct {
	Name   string
	Params []TypedName
}

// ActionDecl is an action as written in the domain file
type ActionDecl struct {
	Name         string
	Params       []TypedName
	Precondition *Node
	Effect       *Node
	Line         int
	Col          int
}

// Domain is a parsed domain file
type Domain struct {
	Name         string
	Requirements []string
	Types        []TypedName // Type holds the parent
	Constants    []TypedName
	Predicates   []PredicateDecl
	Actions      []ActionDecl
	// TotalCost is set when the domain declares the total-cost function
	TotalCost bool
}

// Problem is a parsed problem file
type Problem struct {
	Name    string
	Domain  string
	Objects []TypedName
	Init    []Node
	Goal    *Node
}

func errorAt(n Node, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %s", n.Pos(), fmt.Sprintf(format, args...))
}

func unsupported(n Node, what string) error {
	return fmt.Errorf("%s: %s: %w", n.Pos(), what, ErrUnsupported)
}

// header checks for (define (kind NAME) ...) and returns NAME and the sections
func header(root *Node, kind string) (string, []Node, error) {
	if root.Head() != "define" || len(root.Nodes) < 2 {
		return "", nil, errorAt(*root, "expected (define (%s ...) ...)", kind)
	}
	decl := root.Nodes[1]
	if decl.Head() != kind || len(decl.Nodes) != 2 || decl.Nodes[1].Type != NodeSymbol {
		return "", nil, errorAt(decl, "expected (%s NAME)", kind)
	}
	return decl.Nodes[1].Value, root.Nodes[2:], nil
}

// parseTypedList reads "a b - t c - u d" into names with types. Names
// without a trailing type default to object.
func parseTypedList(nodes []Node, variables bool) ([]TypedName, error) {
	var out []TypedName
	pending := 0
	for i := 0; i < len(nodes); i++ {
		n := nodes[i]
		if n.Type == NodeSymbol && n.Value == "-" {
			if i+1 >= len(nodes) {
				return nil, errorAt(n, "missing type after '-'")
			}
			t := nodes[i+1]
			if t.Type != NodeSymbol {
				return nil, unsupported(t, fmt.Sprintf("type expression %s", t))
			}
			if pending == len(out) {
				return nil, errorAt(n, "'-' %s types nothing", t.Value)
			}
			for j := pending; j < len(out); j++ {
				out[j].Type = t.Value
			}
			pending = len(out)
			i++
			continue
		}

		want := NodeSymbol
		if variables {
			want = NodeVariable
		}
		if n.Type != want {
			return nil, errorAt(n, "unexpected %s in typed list", n)
		}
		out = append(out, TypedName{Name: n.Value, Type: "object", Line: n.Line, Col: n.Col})
	}
	return out, nil
}

// ParseDomain parses a domain file
func ParseDomain(src string) (*Domain, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, err
	}
	name, sections, err := header(root, "domain")
	if err != nil {
		return nil, err
	}

	d := &Domain{Name: name}
	for _, sec := range sections {
		switch sec.Head() {
		case ":requirements":
			for _, r := range sec.Args() {
				d.Requirements = append(d.Requirements, r.Value)
			}
		case ":types":
			if d.Types, err = parseTypedList(sec.Args(), false); err != nil {
				return nil, err
			}
		case ":constants":
			if d.Constants, err = parseTypedList(sec.Args(), false); err != nil {
				return nil, err
			}
		case ":predicates":
			for _, p := range sec.Args() {
				if p.Head() == "" {
					return nil, errorAt(p, "expected predicate declaration")
				}
				params, err := parseTypedList(p.Args(), true)
				if err != nil {
					return nil, err
				}
				d.Predicates = append(d.Predicates, PredicateDecl{Name: p.Head(), Params: params})
			}
		case ":functions":
			for _, f := range sec.Args() {
				if f.Head() == "total-cost" {
					d.TotalCost = true
				}
			}
		case ":action":
			a, err := parseAction(sec)
			if err != nil {
				return nil, err
			}
			d.Actions = append(d.Actions, a)
		case ":derived":
			return nil, unsupported(sec, "derived predicates")
		default:
			return nil, unsupported(sec, fmt.Sprintf("domain section %s", sec.Head()))
		}
	}
	return d, nil
}

func parseAction(sec Node) (ActionDecl, error) {
	args := sec.Args()
	if len(args) == 0 || args[0].Type != NodeSymbol {
		return ActionDecl{}, errorAt(sec, "action without a name")
	}
	a := ActionDecl{Name: args[0].Value, Line: sec.Line, Col: sec.Col}

	rest := args[1:]
	for i := 0; i < len(rest); i += 2 {
		key := rest[i]
		if key.Type != NodeKeyword || i+1 >= len(rest) {
			return ActionDecl{}, errorAt(key, "expected keyword and value in action %s", a.Name)
		}
		val := rest[i+1]
		switch key.Value {
		case ":parameters":
			if !val.IsList() {
				return ActionDecl{}, errorAt(val, "parameters of %s must be a list", a.Name)
			}
			params, err := parseTypedList(val.Nodes, true)
			if err != nil {
				return ActionDecl{}, err
			}
			a.Params = params
		case ":precondition":
			a.Precondition = &rest[i+1]
		case ":effect":
			a.Effect = &rest[i+1]
		default:
			return ActionDecl{}, unsupported(key, fmt.Sprintf("action field %s", key.Value))
		}
	}
	return a, nil
}

// ParseProblem parses a problem file
func ParseProblem(src string) (*Problem, error) {
	root, err := Parse(src)
	if err != nil {
		return nil, err
	}
	name, sections, err := header(root, "problem")
	if err != nil {
		return nil, err
	}

	p := &Problem{Name: name}
	for i := range sections {
		sec := sections[i]
		switch sec.Head() {
		case ":domain":
			if args := sec.Args(); len(args) == 1 {
				p.Domain = args[0].Value
			}
		case ":requirements":
		case ":objects":
			if p.Objects, err = parseTypedList(sec.Args(), false); err != nil {
				return nil, err
			}
		case ":init":
			p.Init = sec.Args()
		case ":goal":
			if len(sec.Args()) != 1 {
				return nil, errorAt(sec, "goal must hold one condition")
			}
			p.Goal = &sec.Nodes[1]
		case ":metric":
			if args := sec.Args(); len(args) != 2 || args[0].Value != "minimize" || args[1].Head() != "total-cost" {
				return nil, unsupported(sec, "metric other than (minimize (total-cost))")
			}
		default:
			return nil, unsupported(sec, fmt.Sprintf("problem section %s", sec.Head()))
		}
	}
	if p.Goal == nil {
		return nil, errorAt(*root, "problem %s has no goal", name)
	}
	return p, nil
}
