package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wbrown/janus-lifted/lifted"
	"github.com/wbrown/janus-lifted/lifted/annotations"
	"github.com/wbrown/janus-lifted/lifted/archive"
	"github.com/wbrown/janus-lifted/lifted/config"
	"github.com/wbrown/janus-lifted/lifted/grounder"
	"github.com/wbrown/janus-lifted/lifted/heuristic"
	"github.com/wbrown/janus-lifted/lifted/metrics"
	"github.com/wbrown/janus-lifted/lifted/pddl"
	"github.com/wbrown/janus-lifted/lifted/search"
)

// runner holds what the runs of one invocation share: settings, the log,
// the metrics recorder and the archive
type runner struct {
	opts     config.Options
	log      *zap.Logger
	console  annotations.Handler // verbose single runs only
	recorder *metrics.Recorder   // nil when metrics are off
	store    *archive.Store      // nil when the archive is off
}

// result summarizes one run
type result struct {
	DomainPath  string
	ProblemPath string
	Task        string
	Fingerprint archive.Fingerprint
	Heuristic   string
	Status      search.Status
	Plan        []string
	Cost        int
	Explored    int
	Generated   int
	Duration    time.Duration
	PlanPath    string
	Err         error
}

func newRunner(opts config.Options, log *zap.Logger) (*runner, error) {
	r := &runner{opts: opts, log: log}
	if opts.MetricsFile != "" {
		r.recorder = metrics.NewRecorder()
	}
	if opts.ArchivePath != "" {
		store, err := archive.Open(opts.ArchivePath)
		if err != nil {
			return nil, err
		}
		r.store = store
	}
	return r, nil
}

// Close writes the metrics textfile and closes the archive
func (r *runner) Close() error {
	var errs []error
	if r.recorder != nil {
		if err := r.recorder.WriteTextfile(r.opts.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("writing metrics: %w", err))
		}
	}
	if r.store != nil {
		errs = append(errs, r.store.Close())
	}
	return errors.Join(errs...)
}

func (r *runner) handler(log *zap.Logger) annotations.Handler {
	var metricsHandler annotations.Handler
	if r.recorder != nil {
		metricsHandler = r.recorder.Handler()
	}
	return annotations.Tee(r.console, zapHandler(log), metricsHandler)
}

// solve runs one task end to end. Infrastructure failures are returned as
// errors; search failures are reported in the result.
func (r *runner) solve(ctx context.Context, domainPath, problemPath, planPath string) (*result, error) {
	res := &result{DomainPath: domainPath, ProblemPath: problemPath, Status: search.NotSolved}
	log := r.log.With(zap.String("problem", problemPath))

	task, err := pddl.LoadFiles(domainPath, problemPath)
	if err != nil {
		return nil, err
	}
	res.Task = task.Name
	res.Fingerprint = archive.FingerprintTask(task)
	log.Info("task loaded",
		zap.String("domain", task.Domain),
		zap.Int("objects", len(task.Objects)),
		zap.Int("schemas", len(task.Schemas)),
		zap.Int("init", len(task.Init)),
		zap.String("fingerprint", res.Fingerprint.Short()))

	h, err := heuristic.New(r.opts.Heuristic, task)
	if err != nil {
		return nil, err
	}
	res.Heuristic = h.Name()
	sctx := search.NewContext(r.handler(log))
	g, err := grounder.New(task, grounder.Options{Order: r.opts.JoinOrder(), Context: sctx})
	if err != nil {
		return nil, err
	}
	engine := search.New(task, g, h, r.opts.SearchOptions(sctx))

	start := time.Now()
	res.Status, res.Err = engine.Search(ctx)
	res.Duration = time.Since(start)
	res.Explored = engine.ExploredStates()
	res.Generated = engine.GeneratedStates()

	if res.Status == search.Solved {
		plan := engine.Plan()
		res.Cost = engine.PlanCost()
		for _, a := range plan {
			res.Plan = append(res.Plan, task.ActionName(a))
		}
		if r.opts.Validate {
			if err := search.ValidatePlan(task, g, plan); err != nil {
				return nil, err
			}
			log.Debug("plan validated", zap.Int("length", len(plan)))
		}
		if planPath != "" {
			if err := writePlanFile(planPath, task, plan); err != nil {
				return nil, err
			}
			res.PlanPath = planPath
		}
	}

	log.Info("search finished",
		zap.Stringer("status", res.Status),
		zap.Int("explored", res.Explored),
		zap.Int("generated", res.Generated),
		zap.Int("length", len(res.Plan)),
		zap.Int("cost", res.Cost),
		zap.Duration("duration", res.Duration),
		zap.Error(res.Err))

	if r.store != nil {
		if err := r.store.Put(res.record(task.Domain, r.opts)); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func writePlanFile(path string, task *lifted.Task, plan []lifted.Action) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := search.WritePlan(f, task, plan); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (res *result) record(domain string, opts config.Options) *archive.Record {
	return &archive.Record{
		RunID:       uuid.New(),
		Fingerprint: res.Fingerprint,
		Domain:      domain,
		Problem:     res.Task,
		Order:       opts.JoinOrder().String(),
		Heuristic:   res.Heuristic,
		Solved:      res.Status == search.Solved,
		Plan:        res.Plan,
		Cost:        res.Cost,
		Explored:    res.Explored,
		Generated:   res.Generated,
		Duration:    res.Duration,
		SolvedAt:    time.Now(),
	}
}

// zapHandler logs annotation events at debug level. It is nil when debug
// logging is off, so runs without other listeners skip annotation entirely.
func zapHandler(log *zap.Logger) annotations.Handler {
	if !log.Core().Enabled(zapcore.DebugLevel) {
		return nil
	}
	return func(e annotations.Event) {
		ce := log.Check(zapcore.DebugLevel, e.Name)
		if ce == nil {
			return
		}
		keys := make([]string, 0, len(e.Data))
		for k := range e.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fields := make([]zap.Field, 0, len(keys)+1)
		if e.Latency > 0 {
			fields = append(fields, zap.Duration("latency", e.Latency))
		}
		for _, k := range keys {
			fields = append(fields, zap.Any(k, e.Data[k]))
		}
		ce.Write(fields...)
	}
}
