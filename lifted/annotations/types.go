// Package annotations provides a low-overhead event system for tracking
// search and grounding metrics and debugging information.
package annotations

import (
	"sync"
	"time"
)

// Event name constants following hierarchical naming pattern
const (
	// Search lifecycle
	SearchInvoked  = "search/invoked"
	SearchProgress = "search/progress"
	SearchComplete = "search/completed"
	PlanExtracted  = "search/plan.extracted"

	// Grounding
	GroundSchema = "ground/schema"

	// Join operations
	JoinHash   = "join/hash"
	JoinFilter = "join/filter"
)

// Event represents a single annotation event
type Event struct {
	Name    string                 // Event name using hierarchical constants above
	Start   time.Time              // Start timestamp
	End     time.Time              // End timestamp
	Latency time.Duration          // Duration (End - Start)
	Data    map[string]interface{} // Event-specific data with grouped metrics
}

// Handler processes annotation events as they occur.
type Handler func(event Event)

// Tee fans one event out to several handlers. Nil handlers are skipped;
// Tee returns nil when none remain.
func Tee(handlers ...Handler) Handler {
	var live []Handler
	for _, h := range handlers {
		if h != nil {
			live = append(live, h)
		}
	}
	switch len(live) {
	case 0:
		return nil
	case 1:
		return live[0]
	}
	return func(event Event) {
		for _, h := range live {
			h(event)
		}
	}
}

// DefaultMaxEvents bounds how many events a Collector retains. Handlers
// still see every event.
const DefaultMaxEvents = 4096

// Collector dispatches events to a handler and retains the first events of a run.
type Collector struct {
	enabled   bool
	handler   Handler
	events    []Event
	maxEvents int
	dropped   int
	mu        sync.Mutex
}

// NewCollector creates a new annotation collector.
func NewCollector(handler Handler) *Collector {
	return &Collector{
		enabled:   handler != nil,
		handler:   handler,
		events:    make([]Event, 0, 128),
		maxEvents: DefaultMaxEvents,
	}
}

// Handler returns the underlying event handler.
func (c *Collector) Handler() Handler {
	return c.handler
}

// Add records a new event.
// Thread-safe for concurrent access.
func (c *Collector) Add(event Event) {
	if !c.enabled {
		return
	}

	c.mu.Lock()
	if len(c.events) < c.maxEvents {
		c.events = append(c.events, event)
	} else {
		c.dropped++
	}
	c.mu.Unlock()

	// Call handler outside the lock to avoid deadlocks
	if c.handler != nil {
		c.handler(event)
	}
}

// AddTiming records an event with timing information.
func (c *Collector) AddTiming(name string, start time.Time, data map[string]interface{}) {
	if !c.enabled {
		return
	}

	end := time.Now()
	c.Add(Event{
		Name:    name,
		Start:   start,
		End:     end,
		Latency: end.Sub(start),
		Data:    data,
	})
}

// Events returns the retained events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	eventsCopy := make([]Event, len(c.events))
	copy(eventsCopy, c.events)
	return eventsCopy
}

// Dropped returns how many events were not retained
func (c *Collector) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Reset clears the collector for reuse.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
	c.dropped = 0
}
