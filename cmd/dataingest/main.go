// Command dataingest downloads a labelled text CSV, keeps the label and text
// columns, and writes a reproducible train/test split to <data-path>/raw.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/YuminosukeSato/dataingest/config"
	"github.com/YuminosukeSato/dataingest/pipeline"
	"github.com/YuminosukeSato/dataingest/pkg/log"
)

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"source":    "data_ingestion.source",
	"data-path": "data_ingestion.data_path",
	"test-size": "data_ingestion.test_size",
	"seed":      "data_ingestion.random_state",
	"stratify":  "data_ingestion.stratify",
	"log-level": "logging.level",
}

type options struct {
	configPath string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}

// execute runs the CLI and returns the process exit status.
func execute(ctx context.Context, args []string, stdout io.Writer) int {
	root := newRootCmd(stdout)
	root.SetArgs(args)
	root.SetOut(stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stdout, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	opts := &options{}
	d := config.Default()

	rootCmd := &cobra.Command{
		Use:           "dataingest",
		Short:         "Load, clean and split a labelled text dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngestion(cmd.Context(), cmd.Root().PersistentFlags(), opts, stdout)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML parameter file")
	flags.String("source", d.DataIngestion.Source, "CSV URL or path")
	flags.String("data-path", d.DataIngestion.DataPath, "output root; files are written to <data-path>/raw")
	flags.Float64("test-size", d.DataIngestion.TestSize, "fraction of rows in the test subset")
	flags.Uint64("seed", d.DataIngestion.RandomState, "random seed for the shuffle")
	flags.Bool("stratify", d.DataIngestion.Stratify, "keep label proportions in both subsets")
	flags.String("log-level", d.Logging.Level, "debug, info, warn or error")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ingestion pipeline (default)",
		Example: `  dataingest run
  dataingest run --source ./spam.csv --data-path ./data --test-size 0.2 --seed 2`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngestion(cmd.Context(), cmd.Root().PersistentFlags(), opts, stdout)
		},
	}
	rootCmd.AddCommand(runCmd)

	configCmd := &cobra.Command{
		Use:     "config",
		Short:   "Print the effective configuration as YAML",
		Example: `  dataingest config -c params.yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := config.New()
			if err := config.BindFlags(v, cmd.Root().PersistentFlags(), flagKeys); err != nil {
				return err
			}
			cfg, err := config.LoadInto(v, opts.configPath, nil)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = stdout.Write(out)
			return err
		},
	}
	rootCmd.AddCommand(configCmd)

	return rootCmd
}

func runIngestion(ctx context.Context, flags *pflag.FlagSet, opts *options, stdout io.Writer) error {
	v := config.New()
	if err := config.BindFlags(v, flags, flagKeys); err != nil {
		return err
	}

	// Until the file is read, log with defaults, environment and flags.
	bootstrap := log.Options{
		Name:    v.GetString("logging.name"),
		Level:   v.GetString("logging.level"),
		Dir:     v.GetString("logging.dir"),
		File:    v.GetString("logging.file"),
		Console: stdout,
	}
	logger, closer, err := log.Setup(bootstrap)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	cfg, err := config.LoadInto(v, opts.configPath, logger)
	if err != nil {
		return err
	}

	final := log.Options{
		Name:    cfg.Logging.Name,
		Level:   cfg.Logging.Level,
		Dir:     cfg.Logging.Dir,
		File:    cfg.Logging.File,
		Console: stdout,
	}
	if final != bootstrap {
		reloaded, reloadedCloser, err := log.Setup(final)
		if err != nil {
			logger.Error("Invalid logging parameters", err)
			return err
		}
		_ = closer.Close()
		logger, closer = reloaded, reloadedCloser
	}

	_, err = pipeline.New(cfg, logger).Run(ctx)
	return err
}
