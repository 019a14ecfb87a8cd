// Command namegenctl trains conditional character-level name generators and
// inspects recorded training runs.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"namegen/pkg/namegen"
)

var version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "namegenctl",
		Short: "Train and sample conditional character-level name generators",
		Long: `namegenctl trains a conditional LSTM on one text file of names per
category, prints greedy samples for every category and records each
training run (configuration, averaged loss curve and samples).`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := loadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)
			if cfg.ConfigFile != "" {
				logger.Debug("using config file", "path", cfg.ConfigFile)
			}

			ctx := context.WithValue(cmd.Context(), configKey{}, cfg)
			ctx = context.WithValue(ctx, loggerKey{}, logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./namegen.yaml)")
	flags.BoolP("verbose", "v", false, "debug logging on stderr")
	flags.String("store", "", "run ledger backend: memory|sqlite")
	flags.String("db-path", "", "sqlite database path")
	flags.String("artifacts-dir", "", "directory for run artifacts")
	flags.String("exports-dir", "", "default directory for exported runs")

	_ = root.RegisterFlagCompletionFunc("store", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"memory", "sqlite"}, cobra.ShellCompDirectiveNoFileComp
	})

	root.AddCommand(newTrainCmd())
	root.AddCommand(newRunsCmd())
	root.AddCommand(newShowCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd(version))
	return root
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// newClient opens the run ledger described by the command configuration.
func newClient(ctx context.Context) (*namegen.Client, error) {
	cfg := getConfig(ctx)
	return namegen.New(namegen.Options{
		StoreKind:    cfg.Store,
		DBPath:       cfg.DBPath,
		ArtifactsDir: cfg.ArtifactsDir,
		ExportsDir:   cfg.ExportsDir,
		Logger:       getLogger(ctx),
	})
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "namegenctl v%s\n", version)
		},
	}
}
