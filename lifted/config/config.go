// Package config loads planner settings from YAML. Command-line flags are
// applied on top of a loaded file by the caller.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wbrown/janus-lifted/lifted/grounder"
	"github.com/wbrown/janus-lifted/lifted/heuristic"
	"github.com/wbrown/janus-lifted/lifted/search"
)

// Options is the full planner configuration
type Options struct {
	// Search
	Order            string `yaml:"order"`             // ascending or descending
	Heuristic        string `yaml:"heuristic"`         // blind or goalcount
	ProgressInterval int    `yaml:"progress_interval"` // expansions between progress reports, 0 for new-best only
	MaxExpansions    int    `yaml:"max_expansions"`    // 0 for unlimited

	// Output
	PlanFile    string `yaml:"plan_file"`    // empty writes nothing
	Validate    bool   `yaml:"validate"`     // replay the plan before writing it
	ArchivePath string `yaml:"archive_path"` // badger directory, empty disables the archive
	MetricsFile string `yaml:"metrics_file"` // Prometheus textfile, empty disables metrics

	// Batch
	Parallelism int `yaml:"parallelism"` // concurrent searches, at least 1

	Verbose bool `yaml:"verbose"`
}

// Default returns the settings used when no file is given
func Default() Options {
	return Options{
		Order:       grounder.Ascending.String(),
		Heuristic:   "goalcount",
		PlanFile:    "sas_plan",
		Parallelism: 1,
	}
}

// Load reads a YAML file over the defaults
func Load(path string) (Options, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("%s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// Validate checks every field and reports all problems at once
func (o Options) Validate() error {
	var errs []error
	if _, err := grounder.ParseJoinOrder(o.Order); err != nil {
		errs = append(errs, err)
	}
	if _, err := heuristic.ParseName(o.Heuristic); err != nil {
		errs = append(errs, err)
	}
	if o.ProgressInterval < 0 {
		errs = append(errs, fmt.Errorf("progress_interval must not be negative, got %d", o.ProgressInterval))
	}
	if o.MaxExpansions < 0 {
		errs = append(errs, fmt.Errorf("max_expansions must not be negative, got %d", o.MaxExpansions))
	}
	if o.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("parallelism must be at least 1, got %d", o.Parallelism))
	}
	return errors.Join(errs...)
}

// JoinOrder returns the parsed join order
func (o Options) JoinOrder() grounder.JoinOrder {
	order, _ := grounder.ParseJoinOrder(o.Order)
	return order
}

// SearchOptions maps the settings onto the search engine's options
func (o Options) SearchOptions(ctx search.Context) search.Options {
	return search.Options{
		MaxExpansions:    o.MaxExpansions,
		ProgressInterval: o.ProgressInterval,
		JoinOrder:        o.JoinOrder().String(),
		Context:          ctx,
	}
}
