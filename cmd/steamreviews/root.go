package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"steamreviews/pkg/config"
	"steamreviews/pkg/logger"
	"steamreviews/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "steamreviews",
	Short: "Crawl the daily review count history of Steam apps",
	Long: `steamreviews rebuilds how the number of reviews of Steam apps evolved
over time by querying the store's review summary backwards, one day at a time,
from a start date until the count reaches zero.

Each app is written to <output>/<app_id>.csv. Apps that could not be completed
are listed in the unfinished file so a later run can pick them up.

Configuration is read from, in increasing priority:
  - Default values
  - Configuration file (.steamreviews.yaml or --config)
  - .env file and STEAMREVIEWS_* environment variables
  - Command line flags`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet || logLevel == "error" {
			ui.SetQuietMode(true)
		}
		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Parent() == cmd.Root() {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Command failed", err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.steamreviews.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write JSON logs to this file, rotated")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors")

	rootCmd.SetVersionTemplate(`steamreviews {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// changedFlags collects the flags set on the command line, keyed the way
// config.MergeCommandLineFlags expects.
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch f.Value.Type() {
		case "int":
			v, _ := cmd.Flags().GetInt(f.Name)
			flags[f.Name] = v
		case "duration":
			v, _ := cmd.Flags().GetDuration(f.Name)
			flags[f.Name] = v
		case "string":
			flags[f.Name] = f.Value.String()
		}
	})
	return flags
}

// setup loads the configuration for cmd and initializes the global logger.
func setup(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configFile, changedFlags(cmd))
	if err != nil {
		return nil, nil, err
	}
	log, err := initLogging(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// initLogging initializes the global logger. Extra writers, such as the
// dashboard, receive every record as JSON.
func initLogging(cmd *cobra.Command, cfg *config.Config, extra ...io.Writer) (logger.Logger, error) {
	if useTUI {
		cfg.Logging.DisableConsole = true
		ui.SetOutput(io.Discard)
	}
	if err := logger.Initialize(&cfg.Logging, extra...); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()
	log.WithFields(map[string]interface{}{
		"version": version,
		"command": cmd.Name(),
	}).Info("steamreviews starting")

	return log, nil
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Second).String()
}
