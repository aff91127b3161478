package pddl

import (
	"fmt"
	"os"

	"github.com/wbrown/janus-lifted/lifted"
)

// LoadFiles reads, parses and translates a domain and problem file
func LoadFiles(domainPath, problemPath string) (*lifted.Task, error) {
	domainSrc, err := os.ReadFile(domainPath)
	if err != nil {
		return nil, err
	}
	problemSrc, err := os.ReadFile(problemPath)
	if err != nil {
		return nil, err
	}

	d, err := ParseDomain(string(domainSrc))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", domainPath, err)
	}
	p, err := ParseProblem(string(problemSrc))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", problemPath, err)
	}
	return Translate(d, p)
}

// Load parses and translates domain and problem sources
func Load(domainSrc, problemSrc string) (*lifted.Task, error) {
	d, err := ParseDomain(domainSrc)
	if err != nil {
		return nil, fmt.Errorf("domain: %w", err)
	}
	p, err := ParseProblem(problemSrc)
	if err != nil {
		return nil, fmt.Errorf("problem: %w", err)
	}
	return Translate(d, p)
}

type translator struct {
	domain  *Domain
	task    *lifted.Task
	types   map[string]int
	objects map[string]int
	preds   map[string]int
}

// Translate builds the task that d and p describe
func Translate(d *Domain, p *Problem) (*lifted.Task, error) {
	if p.Domain != "" && p.Domain != d.Name {
		return nil, fmt.Errorf("problem %s is for domain %s, not %s: %w",
			p.Name, p.Domain, d.Name, lifted.ErrMalformedTask)
	}

	tr := &translator{
		domain: d,
		task: &lifted.Task{
			Domain: d.Name,
			Name:   p.Name,
			Types:  []lifted.Type{{Name: "object", Parent: -1}},
		},
		types:   map[string]int{"object": lifted.RootType},
		objects: make(map[string]int),
		preds:   make(map[string]int),
	}

	if err := tr.addTypes(d.Types); err != nil {
		return nil, err
	}
	if err := tr.addObjects(d.Constants); err != nil {
		return nil, err
	}
	if err := tr.addObjects(p.Objects); err != nil {
		return nil, err
	}
	if err := tr.addPredicates(d.Predicates); err != nil {
		return nil, err
	}
	for i := range d.Actions {
		if err := tr.addAction(&d.Actions[i]); err != nil {
			return nil, err
		}
	}
	if err := tr.addInit(p.Init); err != nil {
		return nil, err
	}
	if err := tr.addGoal(*p.Goal, false); err != nil {
		return nil, err
	}

	if err := tr.task.Validate(); err != nil {
		return nil, err
	}
	return tr.task, nil
}

func (tr *translator) typeIndex(name string) int {
	if idx, ok := tr.types[name]; ok {
		return idx
	}
	idx := len(tr.task.Types)
	tr.task.Types = append(tr.task.Types, lifted.Type{Name: name, Parent: lifted.RootType})
	tr.types[name] = idx
	return idx
}

func (tr *translator) addTypes(decls []TypedName) error {
	for _, decl := range decls {
		if decl.Name == "object" {
			continue
		}
		idx := tr.typeIndex(decl.Name)
		tr.task.Types[idx].Parent = tr.typeIndex(decl.Type)
	}
	// reject cycles so subtype walks terminate
	for i := range tr.task.Types {
		steps := 0
		for t := i; t >= 0; t = tr.task.Types[t].Parent {
			if steps > len(tr.task.Types) {
				return fmt.Errorf("type %s is its own ancestor: %w", tr.task.Types[i].Name, lifted.ErrMalformedTask)
			}
			steps++
		}
	}
	return nil
}

func (tr *translator) lookupType(n TypedName) (int, error) {
	idx, ok := tr.types[n.Type]
	if !ok {
		return 0, fmt.Errorf("%d:%d: %s has undeclared type %s: %w", n.Line, n.Col, n.Name, n.Type, lifted.ErrMalformedTask)
	}
	return idx, nil
}

func (tr *translator) addObjects(decls []TypedName) error {
	for _, decl := range decls {
		if _, dup := tr.objects[decl.Name]; dup {
			continue
		}
		typ, err := tr.lookupType(decl)
		if err != nil {
			return err
		}
		tr.objects[decl.Name] = len(tr.task.Objects)
		tr.task.Objects = append(tr.task.Objects, lifted.Object{Name: decl.Name, Type: typ})
	}
	return nil
}

func (tr *translator) addPredicates(decls []PredicateDecl) error {
	for _, decl := range decls {
		if _, dup := tr.preds[decl.Name]; dup {
			return fmt.Errorf("predicate %s declared twice: %w", decl.Name, lifted.ErrMalformedTask)
		}
		tr.preds[decl.Name] = len(tr.task.Predicates)
		tr.task.Predicates = append(tr.task.Predicates, lifted.Predicate{Name: decl.Name, Arity: len(decl.Params)})
	}
	return nil
}

// schemaBuilder accumulates one action schema
type schemaBuilder struct {
	tr     *translator
	schema lifted.ActionSchema
	vars   map[string]int
	costed bool
}

func (tr *translator) addAction(a *ActionDecl) error {
	b := &schemaBuilder{
		tr:   tr,
		vars: make(map[string]int),
		schema: lifted.ActionSchema{
			Name:  a.Name,
			Index: len(tr.task.Schemas),
		},
	}
	for i, p := range a.Params {
		if _, dup := b.vars[p.Name]; dup {
			return fmt.Errorf("%d:%d: action %s repeats parameter %s: %w", p.Line, p.Col, a.Name, p.Name, lifted.ErrMalformedTask)
		}
		typ, err := tr.lookupType(p)
		if err != nil {
			return err
		}
		b.vars[p.Name] = i
		b.schema.Parameters = append(b.schema.Parameters, lifted.Parameter{Name: p.Name, Index: i, Type: typ})
	}

	if a.Precondition != nil {
		if err := b.condition(*a.Precondition, false); err != nil {
			return fmt.Errorf("action %s: %w", a.Name, err)
		}
	}
	if a.Effect != nil {
		if err := b.effect(*a.Effect); err != nil {
			return fmt.Errorf("action %s: %w", a.Name, err)
		}
	}

	if !b.costed {
		b.schema.Cost = 1
		if tr.domain.TotalCost {
			b.schema.Cost = 0
		}
	}
	for _, atom := range b.schema.Precondition {
		if atom.Negated {
			continue
		}
		for _, arg := range atom.Args {
			if !arg.IsConstant() {
				b.schema.Parameters[arg.Index()].Seed = true
			}
		}
	}

	tr.task.Schemas = append(tr.task.Schemas, b.schema)
	return nil
}

func (b *schemaBuilder) argument(n Node) (lifted.Argument, error) {
	switch n.Type {
	case NodeVariable:
		idx, ok := b.vars[n.Value]
		if !ok {
			return lifted.Argument{}, errorAt(n, "unbound variable %s", n.Value)
		}
		return lifted.Var(idx), nil
	case NodeSymbol:
		idx, ok := b.tr.objects[n.Value]
		if !ok {
			return lifted.Argument{}, errorAt(n, "unknown constant %s", n.Value)
		}
		return lifted.Const(idx), nil
	default:
		return lifted.Argument{}, errorAt(n, "unexpected argument %s", n)
	}
}

func (b *schemaBuilder) atom(n Node, negated bool) (lifted.Atom, error) {
	pred, ok := b.tr.preds[n.Head()]
	if !ok {
		return lifted.Atom{}, fmt.Errorf("%s: %s: %w", n.Pos(), n.Head(), lifted.ErrUnknownPredicate)
	}
	atom := lifted.Atom{Predicate: pred, Negated: negated}
	for _, arg := range n.Args() {
		a, err := b.argument(arg)
		if err != nil {
			return lifted.Atom{}, err
		}
		atom.Args = append(atom.Args, a)
	}
	return atom, nil
}

func (b *schemaBuilder) condition(n Node, negated bool) error {
	if !n.IsList() {
		return errorAt(n, "expected condition, got %s", n)
	}
	if len(n.Nodes) == 0 {
		return nil
	}

	switch n.Head() {
	case "and":
		if negated {
			return unsupported(n, "negated conjunction")
		}
		for _, child := range n.Args() {
			if err := b.condition(child, false); err != nil {
				return err
			}
		}
		return nil
	case "not":
		if negated || len(n.Args()) != 1 {
			return unsupported(n, "nested negation")
		}
		return b.condition(n.Args()[0], true)
	case "=":
		if !negated {
			return unsupported(n, "positive equality")
		}
		args := n.Args()
		if len(args) != 2 || args[0].Type != NodeVariable || args[1].Type != NodeVariable {
			return unsupported(n, "inequality involving constants")
		}
		x, errX := b.argument(args[0])
		y, errY := b.argument(args[1])
		if errX != nil {
			return errX
		}
		if errY != nil {
			return errY
		}
		b.schema.Inequalities = append(b.schema.Inequalities, [2]int{x.Index(), y.Index()})
		return nil
	case "or", "imply", "exists", "forall", "when":
		return unsupported(n, n.Head())
	}

	atom, err := b.atom(n, negated)
	if err != nil {
		return err
	}
	b.schema.Precondition = append(b.schema.Precondition, atom)
	return nil
}

func (b *schemaBuilder) effect(n Node) error {
	if !n.IsList() {
		return errorAt(n, "expected effect, got %s", n)
	}
	if len(n.Nodes) == 0 {
		return nil
	}

	switch n.Head() {
	case "and":
		for _, child := range n.Args() {
			if err := b.effect(child); err != nil {
				return err
			}
		}
		return nil
	case "not":
		if len(n.Args()) != 1 || !n.Args()[0].IsList() {
			return errorAt(n, "malformed delete effect")
		}
		atom, err := b.atom(n.Args()[0], true)
		if err != nil {
			return err
		}
		b.schema.Effects = append(b.schema.Effects, atom)
		return nil
	case "increase":
		args := n.Args()
		if len(args) != 2 || args[0].Head() != "total-cost" {
			return unsupported(n, "numeric effect other than total-cost")
		}
		cost, err := args[1].AsInt()
		if err != nil || cost < 0 {
			return unsupported(args[1], "non-constant or negative action cost")
		}
		b.schema.Cost += cost
		b.costed = true
		return nil
	case "forall", "when", "decrease", "assign":
		return unsupported(n, n.Head())
	}

	atom, err := b.atom(n, false)
	if err != nil {
		return err
	}
	b.schema.Effects = append(b.schema.Effects, atom)
	return nil
}

func (tr *translator) groundArgs(n Node) (int, lifted.GroundAtom, error) {
	pred, ok := tr.preds[n.Head()]
	if !ok {
		return 0, nil, fmt.Errorf("%s: %s: %w", n.Pos(), n.Head(), lifted.ErrUnknownPredicate)
	}
	args := make(lifted.GroundAtom, 0, len(n.Args()))
	for _, a := range n.Args() {
		obj, ok := tr.objects[a.Value]
		if a.Type != NodeSymbol || !ok {
			return 0, nil, errorAt(a, "unknown object %s", a)
		}
		args = append(args, obj)
	}
	return pred, args, nil
}

func (tr *translator) addInit(nodes []Node) error {
	for _, n := range nodes {
		if !n.IsList() || n.Head() == "" {
			return errorAt(n, "expected initial fact, got %s", n)
		}
		if n.Head() == "=" {
			// numeric fluents such as (= (total-cost) 0) carry no facts
			continue
		}
		if n.Head() == "not" {
			return unsupported(n, "negative initial fact")
		}
		pred, args, err := tr.groundArgs(n)
		if err != nil {
			return err
		}
		tr.task.Init = append(tr.task.Init, lifted.Fact{Predicate: pred, Args: args})
	}
	return nil
}

func (tr *translator) addGoal(n Node, negated bool) error {
	if !n.IsList() {
		return errorAt(n, "expected goal condition, got %s", n)
	}
	if len(n.Nodes) == 0 {
		return nil
	}
	switch n.Head() {
	case "and":
		if negated {
			return unsupported(n, "negated conjunction")
		}
		for _, child := range n.Args() {
			if err := tr.addGoal(child, false); err != nil {
				return err
			}
		}
		return nil
	case "not":
		if negated || len(n.Args()) != 1 {
			return unsupported(n, "nested negation")
		}
		return tr.addGoal(n.Args()[0], true)
	case "or", "imply", "exists", "forall", "=":
		return unsupported(n, n.Head()+" in goal")
	}

	pred, args, err := tr.groundArgs(n)
	if err != nil {
		return err
	}
	tr.task.Goal.Atoms = append(tr.task.Goal.Atoms, lifted.GoalAtom{Predicate: pred, Args: args, Negated: negated})
	return nil
}
