package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/mrestimator/config"
	"github.com/YuminosukeSato/mrestimator/experiment"
	"github.com/YuminosukeSato/mrestimator/pkg/log"
)

var (
	configPath      string
	dataPath        string
	target          string
	features        []string
	trainSamples    int
	testSamples     int
	splitSeed       uint64
	augmentSeed     uint64
	logLevel        string
	isolateFailures bool
	noPlot          bool
	noStore         bool
)

var rootCmd = &cobra.Command{
	Use:           "mrestimate",
	Short:         "Estimate stellar mass and radius with uncertainty-aware augmentation",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Train every registered model and report its test MAE",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		if err := log.SetupLogger(cfg.LogLevel); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		outcome, err := experiment.Run(ctx, cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		log.GetLogger().Info("artifacts written",
			log.OperationKey, log.OperationPersist,
			"path.models", outcome.ModelsPath,
			"path.test_data", outcome.TestDataPath,
			"path.plot", outcome.PlotPath,
		)
		return nil
	},
}

// resolveConfig は設定ファイル (あれば) を読み、明示されたフラグで上書きする
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataPath = dataPath
	}
	if flags.Changed("target") {
		cfg.Target = target
	}
	if flags.Changed("features") {
		cfg.Features = features
	}
	if flags.Changed("train-samples") {
		cfg.TrainSamples = trainSamples
	}
	if flags.Changed("test-samples") {
		cfg.TestSamples = testSamples
	}
	if flags.Changed("split-seed") {
		cfg.SplitSeed = splitSeed
	}
	if flags.Changed("augment-seed") {
		cfg.AugmentSeed = augmentSeed
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if flags.Changed("isolate-failures") {
		cfg.IsolateFailures = isolateFailures
	}
	if noPlot {
		cfg.Plot = false
	}
	if noStore {
		cfg.Store = false
	}
	return cfg, cfg.Validate()
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.GetLogger().Error("mrestimate failed", err)
		os.Exit(1)
	}
}

func init() {
	defaults := config.Default()

	runCmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
	runCmd.Flags().StringVar(&dataPath, "data", defaults.DataPath, "Tab-separated stellar catalogue")
	runCmd.Flags().StringVar(&target, "target", defaults.Target, "Quantity to estimate: M (mass) or R (radius)")
	runCmd.Flags().StringSliceVar(&features, "features", nil, "Features to use (default Teff,logg,Meta,L)")
	runCmd.Flags().IntVar(&trainSamples, "train-samples", defaults.TrainSamples, "Synthetic samples drawn per training record")
	runCmd.Flags().IntVar(&testSamples, "test-samples", defaults.TestSamples, "Synthetic samples drawn per test record")
	runCmd.Flags().Uint64Var(&splitSeed, "split-seed", defaults.SplitSeed, "Seed of the train/test split")
	runCmd.Flags().Uint64Var(&augmentSeed, "augment-seed", defaults.AugmentSeed, "Seed of the augmentation sampler")
	runCmd.Flags().StringVar(&logLevel, "log-level", defaults.LogLevel, "Log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&isolateFailures, "isolate-failures", false, "Skip models that fail instead of aborting")
	runCmd.Flags().BoolVar(&noPlot, "no-plot", false, "Do not write the MAE bar chart")
	runCmd.Flags().BoolVar(&noStore, "no-store", false, "Do not record the run in the results database")

	rootCmd.AddCommand(runCmd)
}
