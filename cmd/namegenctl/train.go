package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"namegen/pkg/namegen"
)

func newTrainCmd() *cobra.Command {
	var (
		categories      []string
		seeds           string
		sampleMaxLength int
		quiet           bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model on a directory of <Category>.txt files and sample from it",
		Long: `Train a conditional character-level LSTM on a corpus directory containing
one <Category>.txt file per category, one name per line. Progress is printed
every report interval; after training one greedy sample is printed per seed
character for each category.

Interrupting the command stops training after the current iteration; the
partial run is still sampled and recorded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := getConfig(ctx)
			out := cmd.OutOrStdout()

			client, err := newClient(ctx)
			if err != nil {
				return err
			}
			defer func() {
				_ = client.Close()
			}()

			dropout := cfg.Dropout
			summary, err := client.Train(ctx, namegen.TrainRequest{
				DataDir:           cfg.DataDir,
				HiddenSize:        cfg.HiddenSize,
				LearningRate:      cfg.LearningRate,
				Iterations:        cfg.Iterations,
				ReportInterval:    cfg.ReportInterval,
				AveragingInterval: cfg.AveragingInterval,
				Dropout:           &dropout,
				Optimizer:         cfg.Optimizer,
				Seed:              cfg.Seed,
				MaxLength:         cfg.MaxLength,
				SampleCategories:  categories,
				SampleSeeds:       seeds,
				SampleMaxLength:   sampleMaxLength,
				OnProgress: func(p namegen.Progress) {
					if !quiet {
						_, _ = fmt.Fprintln(out, p.Text)
					}
				},
			})
			if summary.RunID == "" {
				return err
			}

			status := "completed"
			if !summary.Completed {
				status = "interrupted"
			}
			_, _ = fmt.Fprintf(out, "run %s run_id=%s iterations=%d final_loss=%.4f elapsed=%s\n",
				status, summary.RunID, summary.Iterations, summary.FinalLoss, summary.Elapsed.Round(time.Millisecond))
			renderSamples(out, summary.Samples)
			_, _ = fmt.Fprintf(out, "artifacts_dir=%s\n", summary.ArtifactsDir)
			return err
		},
	}

	// Defaults are for help output only; unset flags never override config.
	def := defaultConfig()
	flags := cmd.Flags()
	flags.String("data-dir", def.DataDir, "corpus directory with one <Category>.txt per category")
	flags.Int("hidden-size", def.HiddenSize, "LSTM hidden units")
	flags.Float64("learning-rate", def.LearningRate, "optimizer learning rate")
	flags.Int("iterations", def.Iterations, "training iterations")
	flags.Int("report-interval", def.ReportInterval, "iterations between progress lines")
	flags.Int("averaging-interval", def.AveragingInterval, "iterations per averaged loss point")
	flags.Float64("dropout", def.Dropout, "dropout probability on output logits")
	flags.String("optimizer", def.Optimizer, "optimizer: sgd|adam")
	flags.Int64("seed", def.Seed, "random seed")
	flags.Int("max-length", def.MaxLength, "maximum generated characters per sample")
	flags.StringSliceVar(&categories, "categories", nil, "categories to sample after training (default: all)")
	flags.StringVar(&seeds, "seeds", "", "seed characters for sampling (default: first three letters of each category)")
	flags.IntVar(&sampleMaxLength, "sample-max-length", 0, "maximum generated characters for post-training samples (default: --max-length)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "suppress progress lines")

	_ = cmd.RegisterFlagCompletionFunc("optimizer", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"sgd", "adam"}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func renderSamples(w io.Writer, samples []namegen.Sample) {
	if len(samples) == 0 {
		_, _ = fmt.Fprintln(w, "(0 samples)")
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Category", "Seed", "Sample"})
	for _, s := range samples {
		t.AppendRow(table.Row{s.Category, s.Seed, s.Name})
	}
	t.Render()
}
