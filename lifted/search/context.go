package search

import (
	"time"

	"github.com/wbrown/janus-lifted/lifted"
	"github.com/wbrown/janus-lifted/lifted/annotations"
	"github.com/wbrown/janus-lifted/lifted/grounder"
)

// Context provides annotation points for the search loop. It extends the
// grounder's context so one value can trace a whole run.
type Context interface {
	grounder.Context

	SearchBegin(task *lifted.Task, joinOrder, heuristic string)
	Progress(node Node, explored, generated int)
	SearchComplete(status Status, explored, generated int, err error)
	PlanExtracted(length, cost int)
}

// BaseContext is the zero-overhead context
type BaseContext struct {
	grounder.BaseContext
}

// NewContext returns an annotated context when handler is non-nil
func NewContext(handler annotations.Handler) Context {
	if handler == nil {
		return BaseContext{}
	}
	return NewAnnotatedContext(annotations.NewCollector(handler))
}

func (BaseContext) SearchBegin(task *lifted.Task, joinOrder, heuristic string) {}

func (BaseContext) Progress(node Node, explored, generated int) {}

func (BaseContext) SearchComplete(status Status, explored, generated int, err error) {}

func (BaseContext) PlanExtracted(length, cost int) {}

// AnnotatedContext records search events alongside grounding events
type AnnotatedContext struct {
	*grounder.AnnotatedContext
	collector   *annotations.Collector
	searchStart time.Time
}

// NewAnnotatedContext wraps a collector
func NewAnnotatedContext(c *annotations.Collector) *AnnotatedContext {
	return &AnnotatedContext{
		AnnotatedContext: grounder.NewAnnotatedContext(c),
		collector:        c,
	}
}

func (c *AnnotatedContext) SearchBegin(task *lifted.Task, joinOrder, heuristic string) {
	c.searchStart = time.Now()
	c.collector.Add(annotations.Event{
		Name:  annotations.SearchInvoked,
		Start: c.searchStart,
		Data: map[string]interface{}{
			"domain":       task.Domain,
			"task":         task.Name,
			"order":        joinOrder,
			"heuristic":    heuristic,
			"schema.count": len(task.Schemas),
			"object.count": len(task.Objects),
		},
	})
}

func (c *AnnotatedContext) Progress(node Node, explored, generated int) {
	c.collector.AddTiming(annotations.SearchProgress, c.searchStart, map[string]interface{}{
		"h":         node.H,
		"g":         node.G,
		"explored":  explored,
		"generated": generated,
	})
}

func (c *AnnotatedContext) SearchComplete(status Status, explored, generated int, err error) {
	data := map[string]interface{}{
		"status":    status.String(),
		"explored":  explored,
		"generated": generated,
		"success":   err == nil,
	}
	if err != nil {
		data["error"] = err.Error()
	}
	c.collector.AddTiming(annotations.SearchComplete, c.searchStart, data)
}

func (c *AnnotatedContext) PlanExtracted(length, cost int) {
	c.collector.Add(annotations.Event{
		Name:  annotations.PlanExtracted,
		Start: time.Now(),
		Data: map[string]interface{}{
			"length": length,
			"cost":   cost,
		},
	})
}
