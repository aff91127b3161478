package grounder

import (
	"time"

	"github.com/wbrown/janus-lifted/lifted"
	"github.com/wbrown/janus-lifted/lifted/annotations"
	"github.com/wbrown/janus-lifted/lifted/join"
)

// Context provides annotation points for grounding
type Context interface {
	GroundSchema(schema *lifted.ActionSchema, fn func() ([]lifted.Action, error)) ([]lifted.Action, error)
	JoinTables(schema *lifted.ActionSchema, left, right join.Table, fn func() join.Table) join.Table
	FilterTable(schema *lifted.ActionSchema, before int, fn func() join.Table) join.Table
	Collector() *annotations.Collector
}

// BaseContext is the zero-overhead context: every hook just runs fn
type BaseContext struct{}

// NewContext returns an annotated context when handler is non-nil
func NewContext(handler annotations.Handler) Context {
	if handler == nil {
		return BaseContext{}
	}
	return NewAnnotatedContext(annotations.NewCollector(handler))
}

func (BaseContext) GroundSchema(schema *lifted.ActionSchema, fn func() ([]lifted.Action, error)) ([]lifted.Action, error) {
	return fn()
}

func (BaseContext) JoinTables(schema *lifted.ActionSchema, left, right join.Table, fn func() join.Table) join.Table {
	return fn()
}

func (BaseContext) FilterTable(schema *lifted.ActionSchema, before int, fn func() join.Table) join.Table {
	return fn()
}

func (BaseContext) Collector() *annotations.Collector {
	return nil
}

// AnnotatedContext records grounding and join events
type AnnotatedContext struct {
	collector *annotations.Collector
}

// NewAnnotatedContext wraps a collector
func NewAnnotatedContext(c *annotations.Collector) *AnnotatedContext {
	return &AnnotatedContext{collector: c}
}

func (c *AnnotatedContext) Collector() *annotations.Collector {
	return c.collector
}

func (c *AnnotatedContext) GroundSchema(schema *lifted.ActionSchema, fn func() ([]lifted.Action, error)) ([]lifted.Action, error) {
	start := time.Now()
	actions, err := fn()

	data := map[string]interface{}{
		"schema":       schema.Name,
		"action.count": len(actions),
		"success":      err == nil,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	c.collector.AddTiming(annotations.GroundSchema, start, data)
	return actions, err
}

func (c *AnnotatedContext) JoinTables(schema *lifted.ActionSchema, left, right join.Table, fn func() join.Table) join.Table {
	start := time.Now()
	result := fn()

	c.collector.AddTiming(annotations.JoinHash, start, map[string]interface{}{
		"schema":       schema.Name,
		"left.size":    left.Size(),
		"right.size":   right.Size(),
		"result.size":  result.Size(),
		"left.attrs":   columnNames(schema, left.Columns),
		"right.attrs":  columnNames(schema, right.Columns),
		"result.attrs": columnNames(schema, result.Columns),
	})
	return result
}

func (c *AnnotatedContext) FilterTable(schema *lifted.ActionSchema, before int, fn func() join.Table) join.Table {
	start := time.Now()
	result := fn()

	c.collector.AddTiming(annotations.JoinFilter, start, map[string]interface{}{
		"schema":      schema.Name,
		"input.size":  before,
		"output.size": result.Size(),
	})
	return result
}

func columnNames(schema *lifted.ActionSchema, cols []int) []string {
	names := make([]string, len(cols))
	for i, col := range cols {
		if col < len(schema.Parameters) {
			names[i] = schema.Parameters[col].Name
		} else {
			names[i] = "?"
		}
	}
	return names
}
