package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wbrown/janus-lifted/lifted/annotations"
	"github.com/wbrown/janus-lifted/lifted/config"
	"github.com/wbrown/janus-lifted/lifted/search"
)

var solveFlags struct {
	order       string
	heuristic   string
	planFile    string
	archive     string
	metricsFile string
	maxExpand   int
	validate    bool
}

var solveCmd = &cobra.Command{
	Use:   "solve DOMAIN PROBLEM",
	Short: "Solve one planning task",
	Long: `Runs greedy best-first search on the task and writes the plan, one
"(action obj ...)" line per step followed by a cost comment.

Exits 0 when a plan is found and 1 when the search space is exhausted.

Example:
  lifted solve domain.pddl p01.pddl --order descending --plan-file p01.plan`,
	Args: cobra.ExactArgs(2),
	RunE: runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVar(&solveFlags.order, "order", "", "join order: ascending or descending")
	f.StringVar(&solveFlags.heuristic, "heuristic", "", "heuristic: goalcount or blind")
	f.StringVar(&solveFlags.planFile, "plan-file", "", "plan output path (default sas_plan)")
	f.StringVar(&solveFlags.archive, "archive", "", "badger directory recording the run")
	f.StringVar(&solveFlags.metricsFile, "metrics-file", "", "Prometheus textfile written after the run")
	f.IntVar(&solveFlags.maxExpand, "max-expansions", 0, "stop after this many expansions (0 = unlimited)")
	f.BoolVar(&solveFlags.validate, "validate", false, "replay the plan before writing it")
}

// applySolveFlags overrides configuration with the flags set on cmd
func applySolveFlags(cmd *cobra.Command) func(*config.Options) {
	return func(o *config.Options) {
		flags := cmd.Flags()
		if flags.Changed("order") {
			o.Order = solveFlags.order
		}
		if flags.Changed("heuristic") {
			o.Heuristic = solveFlags.heuristic
		}
		if flags.Changed("plan-file") {
			o.PlanFile = solveFlags.planFile
		}
		if flags.Changed("archive") {
			o.ArchivePath = solveFlags.archive
		}
		if flags.Changed("metrics-file") {
			o.MetricsFile = solveFlags.metricsFile
		}
		if flags.Changed("max-expansions") {
			o.MaxExpansions = solveFlags.maxExpand
		}
		if flags.Changed("validate") {
			o.Validate = solveFlags.validate
		}
	}
}

func runSolve(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd, applySolveFlags(cmd))
	if err != nil {
		return err
	}

	r, err := newRunner(opts, logger)
	if err != nil {
		return err
	}
	if opts.Verbose {
		r.console = annotations.NewOutputFormatter(os.Stderr).Handle
	}

	res, err := r.solve(cmd.Context(), args[0], args[1], opts.PlanFile)
	if closeErr := r.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %s (%d expanded, %d generated, %s)\n",
		res.Task, res.Status, res.Explored, res.Generated, res.Duration.Round(time.Microsecond))
	if res.Err != nil && !errors.Is(res.Err, search.ErrExpansionLimit) {
		return res.Err
	}
	if res.Status != search.Solved {
		return errNotSolved
	}
	fmt.Fprintf(out, "plan length %d, cost %d", len(res.Plan), res.Cost)
	if res.PlanPath != "" {
		fmt.Fprintf(out, ", written to %s", res.PlanPath)
	}
	fmt.Fprintln(out)
	return nil
}
