package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"namegen/pkg/namegen"
)

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded training runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			runs, err := client.Runs(ctx, namegen.RunsRequest{Limit: limit})
			if err != nil {
				return err
			}
			renderRuns(cmd.OutOrStdout(), runs, time.Now())
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to list")
	return cmd
}

func renderRuns(w io.Writer, runs []namegen.RunItem, now time.Time) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "(0 runs)")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run ID", "Created", "Categories", "Hidden", "Optimizer", "Iterations", "Final loss", "Status"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.RunID,
			relativeTime(r.CreatedAtUTC, now),
			r.Categories,
			r.HiddenSize,
			r.Optimizer,
			humanize.Comma(int64(r.Iterations)),
			fmt.Sprintf("%.4f", r.FinalLoss),
			runStatus(r.Completed),
		})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d runs)\n", len(runs))
}

func relativeTime(createdAtUTC string, now time.Time) string {
	created, err := time.Parse(time.RFC3339Nano, createdAtUTC)
	if err != nil {
		return createdAtUTC
	}
	return humanize.RelTime(created, now, "ago", "from now")
}

func runStatus(completed bool) string {
	if completed {
		return "completed"
	}
	return "interrupted"
}

func newShowCmd() *cobra.Command {
	var latest bool

	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show one training run: configuration, loss curve summary and samples",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			req := namegen.RunRequest{Latest: latest}
			if len(args) == 1 {
				req.RunID = args[0]
			}
			details, err := client.Run(ctx, req)
			if err != nil {
				return err
			}
			renderRunDetails(cmd.OutOrStdout(), details)
			return nil
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "show the most recent run")
	return cmd
}

func renderRunDetails(w io.Writer, d namegen.RunDetails) {
	run := d.Run
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Run ID", run.ID},
		{"Started", run.StartedAt.UTC().Format(time.RFC3339)},
		{"Status", runStatus(run.Completed)},
		{"Data dir", run.Config.DataDir},
		{"Categories", strings.Join(run.Categories, ", ")},
		{"Examples", humanize.Comma(int64(run.Examples))},
		{"Hidden size", run.Config.HiddenSize},
		{"Optimizer", run.Config.Optimizer},
		{"Learning rate", run.Config.LearningRate},
		{"Dropout", run.Config.Dropout},
		{"Seed", run.Config.Seed},
		{"Iterations", fmt.Sprintf("%s / %s", humanize.Comma(int64(run.Iterations)), humanize.Comma(int64(run.Config.Iterations)))},
		{"Elapsed", (time.Duration(run.ElapsedMS) * time.Millisecond).String()},
		{"Final loss", fmt.Sprintf("%.4f", run.FinalLoss)},
	})
	if d.Loss.Windows > 0 {
		t.AppendSeparator()
		t.AppendRows([]table.Row{
			{"Loss windows", d.Loss.Windows},
			{"Loss first/last", fmt.Sprintf("%.4f / %.4f", d.Loss.First, d.Loss.Last)},
			{"Loss min", fmt.Sprintf("%.4f", d.Loss.Min)},
			{"Loss mean ± sd", fmt.Sprintf("%.4f ± %.4f", d.Loss.Mean, d.Loss.StdDev)},
		})
	}
	t.Render()

	samples := make([]namegen.Sample, 0, len(d.Samples))
	for _, s := range d.Samples {
		samples = append(samples, namegen.Sample{Category: s.Category, Seed: s.Seed, Name: s.Name})
	}
	renderSamples(w, samples)
}

func newExportCmd() *cobra.Command {
	var (
		latest bool
		outDir string
	)

	cmd := &cobra.Command{
		Use:   "export [run-id]",
		Short: "Copy a run's artifacts to an export directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			req := namegen.ExportRequest{Latest: latest, OutDir: outDir}
			if len(args) == 1 {
				req.RunID = args[0]
			}
			exported, err := client.Export(ctx, req)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
			return nil
		},
	}
	cmd.Flags().BoolVar(&latest, "latest", false, "export the most recent run")
	cmd.Flags().StringVar(&outDir, "out", "", "export directory (default: exports_dir)")
	return cmd
}
