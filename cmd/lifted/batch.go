package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wbrown/janus-lifted/lifted/config"
	"github.com/wbrown/janus-lifted/lifted/search"
)

var batchFlags struct {
	planDir     string
	parallelism int
}

var batchCmd = &cobra.Command{
	Use:   "batch DOMAIN PROBLEM...",
	Short: "Solve several problems of one domain concurrently",
	Long: `Solves every PROBLEM against DOMAIN with at most --parallelism searches
running at once, then prints a summary table. Each search is independent;
a problem that fails to load is reported in the table and does not stop
the others.

Example:
  lifted batch domain.pddl p*.pddl --parallelism 4 --plan-dir plans/`,
	Args: cobra.MinimumNArgs(2),
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchFlags.planDir, "plan-dir", "", "directory receiving one <problem>.plan per solved task")
	f.IntVar(&batchFlags.parallelism, "parallelism", 0, "concurrent searches (default from config, 1)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd, func(o *config.Options) {
		if cmd.Flags().Changed("parallelism") {
			o.Parallelism = batchFlags.parallelism
		}
	})
	if err != nil {
		return err
	}

	r, err := newRunner(opts, logger)
	if err != nil {
		return err
	}
	results, err := solveAll(cmd.Context(), r, args[0], args[1:], batchFlags.planDir)
	if closeErr := r.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	renderSummary(cmd.OutOrStdout(), results)
	for _, res := range results {
		if res.Status != search.Solved {
			return errNotSolved
		}
	}
	return nil
}

// solveAll runs one search per problem with at most r.opts.Parallelism in
// flight. Results keep the order of problems. Only cancellation of ctx is
// returned as an error; per-problem failures land in each result's Err.
func solveAll(ctx context.Context, r *runner, domain string, problems []string, planDir string) ([]*result, error) {
	results := make([]*result, len(problems))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Parallelism)

	for i, problem := range problems {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			planPath := ""
			if planDir != "" {
				base := strings.TrimSuffix(filepath.Base(problem), filepath.Ext(problem))
				planPath = filepath.Join(planDir, base+".plan")
			}

			res, err := r.solve(gctx, domain, problem, planPath)
			if err != nil {
				r.log.Warn("problem failed", zap.String("problem", problem), zap.Error(err))
				res = &result{DomainPath: domain, ProblemPath: problem, Status: search.NotSolved, Err: err}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, ctx.Err()
}

// renderSummary prints one markdown row per result
func renderSummary(w io.Writer, results []*result) {
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment([]tw.Align{
			tw.AlignLeft, tw.AlignLeft, tw.AlignRight, tw.AlignRight,
			tw.AlignRight, tw.AlignRight, tw.AlignRight,
		}),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"Problem", "Status", "Length", "Cost", "Expanded", "Generated", "Time"})

	solved := 0
	for _, res := range results {
		status := res.Status.String()
		if res.Err != nil {
			status = "error: " + res.Err.Error()
		}
		if res.Status == search.Solved {
			solved++
		}
		table.Append([]string{
			filepath.Base(res.ProblemPath),
			status,
			fmt.Sprint(len(res.Plan)),
			fmt.Sprint(res.Cost),
			fmt.Sprint(res.Explored),
			fmt.Sprint(res.Generated),
			res.Duration.Round(time.Microsecond).String(),
		})
	}
	table.Render()
	fmt.Fprintf(w, "\n_%d of %d solved_\n", solved, len(results))
}
