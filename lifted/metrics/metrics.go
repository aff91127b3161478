// Package metrics turns annotation events into Prometheus metrics. Each
// Recorder owns a registry, so batch runs and tests never collide on the
// global default.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/wbrown/janus-lifted/lifted/annotations"
)

const namespace = "lifted"

// Recorder accumulates search and grounding metrics
type Recorder struct {
	registry *prometheus.Registry

	runs        *prometheus.CounterVec
	runSeconds  prometheus.Histogram
	explored    prometheus.Counter
	generated   prometheus.Counter
	bestH       prometheus.Gauge
	planLength  prometheus.Gauge
	planCost    prometheus.Gauge
	grounded    *prometheus.CounterVec
	groundTime  *prometheus.HistogramVec
	joinRows    prometheus.Histogram
	filteredOut prometheus.Counter
}

// NewRecorder creates a recorder with its own registry
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		// runs counts finished searches.
		// Labels: status (solved, not solved, error)
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "runs_total",
			Help:      "Finished searches by outcome",
		}, []string{"status"}),

		runSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Wall time of a search",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),

		explored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "explored_states_total",
			Help:      "States popped for expansion",
		}),

		generated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "generated_states_total",
			Help:      "Successor states created, duplicates included",
		}),

		bestH: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "best_heuristic",
			Help:      "Heuristic value of the last reported progress node",
		}),

		planLength: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "length",
			Help:      "Actions in the last extracted plan",
		}),

		planCost: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "plan",
			Name:      "cost",
			Help:      "Cost of the last extracted plan",
		}),

		// grounded counts ground actions produced per schema.
		// Labels: schema
		grounded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ground",
			Name:      "actions_total",
			Help:      "Applicable ground actions produced",
		}, []string{"schema"}),

		groundTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ground",
			Name:      "duration_seconds",
			Help:      "Time to ground one schema in one state",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10),
		}, []string{"schema"}),

		joinRows: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "join",
			Name:      "result_rows",
			Help:      "Rows produced by one hash join",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),

		filteredOut: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "join",
			Name:      "filtered_rows_total",
			Help:      "Rows removed by inequality filters",
		}),
	}
}

// Registry exposes the recorder's registry for gathering
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns an annotation handler feeding this recorder
func (r *Recorder) Handler() annotations.Handler {
	return r.Handle
}

// Handle updates metrics from one event
func (r *Recorder) Handle(event annotations.Event) {
	switch event.Name {
	case annotations.SearchComplete:
		status, _ := event.Data["status"].(string)
		if ok, _ := event.Data["success"].(bool); !ok {
			status = "error"
		}
		r.runs.WithLabelValues(status).Inc()
		r.runSeconds.Observe(event.Latency.Seconds())
		r.explored.Add(float64(intValue(event.Data["explored"])))
		r.generated.Add(float64(intValue(event.Data["generated"])))

	case annotations.SearchProgress:
		r.bestH.Set(float64(intValue(event.Data["h"])))

	case annotations.PlanExtracted:
		r.planLength.Set(float64(intValue(event.Data["length"])))
		r.planCost.Set(float64(intValue(event.Data["cost"])))

	case annotations.GroundSchema:
		schema, _ := event.Data["schema"].(string)
		r.grounded.WithLabelValues(schema).Add(float64(intValue(event.Data["action.count"])))
		r.groundTime.WithLabelValues(schema).Observe(event.Latency.Seconds())

	case annotations.JoinHash:
		r.joinRows.Observe(float64(intValue(event.Data["result.size"])))

	case annotations.JoinFilter:
		removed := intValue(event.Data["input.size"]) - intValue(event.Data["output.size"])
		if removed > 0 {
			r.filteredOut.Add(float64(removed))
		}
	}
}

// WriteTextfile writes the current metrics in the text exposition format,
// for the node exporter's textfile collector
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

func intValue(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
