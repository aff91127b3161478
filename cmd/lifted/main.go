package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wbrown/janus-lifted/lifted/config"
)

var (
	// Global flags
	configPath string
	verbose    bool

	// Logger
	logger *zap.Logger
)

// errNotSolved makes the process exit with status 1 without an error message
var errNotSolved = errors.New("no plan found")

var rootCmd = &cobra.Command{
	Use:   "lifted",
	Short: "Lifted classical planner",
	Long: `lifted solves STRIPS planning tasks written in PDDL without grounding
them up front. Applicable actions are computed per state by joining the
relations that a schema's precondition mentions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug := verbose
		if configPath != "" {
			opts, err := config.Load(configPath)
			if err != nil {
				return err
			}
			debug = debug || opts.Verbose
		}
		var err error
		logger, err = newLogger(debug)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging and search annotations on stderr")

	rootCmd.AddCommand(solveCmd, batchCmd, historyCmd)
}

// newLogger builds the production logger, at debug level when asked
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	log, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

// loadOptions reads the configuration file, if any, and applies the flags
// the user set explicitly on top of it
func loadOptions(cmd *cobra.Command, apply func(*config.Options)) (config.Options, error) {
	opts := config.Default()
	if configPath != "" {
		var err error
		if opts, err = config.Load(configPath); err != nil {
			return opts, err
		}
	}
	if verbose {
		opts.Verbose = true
	}
	if apply != nil {
		apply(&opts)
	}
	return opts, opts.Validate()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, errNotSolved):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
