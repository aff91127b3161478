package main

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/wbrown/janus-lifted/lifted/archive"
	"github.com/wbrown/janus-lifted/lifted/config"
)

var historyFlags struct {
	archive string
	limit   int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived runs, newest first",
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historyFlags.archive, "archive", "", "badger directory written by solve --archive")
	f.IntVar(&historyFlags.limit, "limit", 20, "maximum runs listed (0 = all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd, func(o *config.Options) {
		if cmd.Flags().Changed("archive") {
			o.ArchivePath = historyFlags.archive
		}
	})
	if err != nil {
		return err
	}
	if opts.ArchivePath == "" {
		return fmt.Errorf("no archive: pass --archive or set archive_path")
	}

	store, err := archive.Open(opts.ArchivePath)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(historyFlags.limit)
	if err != nil {
		return err
	}
	renderHistory(cmd.OutOrStdout(), records)
	return nil
}

func renderHistory(w io.Writer, records []*archive.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "_No runs archived_")
		return
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"When", "Task", "Fingerprint", "Order", "Heuristic", "Status", "Length", "Cost", "Expanded"})
	for _, r := range records {
		status := "not solved"
		if r.Solved {
			status = "solved"
		}
		table.Append([]string{
			r.SolvedAt.Format("2006-01-02 15:04:05"),
			r.Domain + "/" + r.Problem,
			r.Fingerprint.Short(),
			r.Order,
			r.Heuristic,
			status,
			fmt.Sprint(len(r.Plan)),
			fmt.Sprint(r.Cost),
			fmt.Sprint(r.Explored),
		})
	}
	table.Render()
}
