package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"steamreviews/pkg/metrics"
	"steamreviews/pkg/scraper"
	"steamreviews/pkg/steam"
	"steamreviews/pkg/storage"
	"steamreviews/pkg/tasks"
	"steamreviews/pkg/ui"
)

// releaseCmd represents the release command
var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Look up the release year of every app in a task list",
	Long: `Look up the release year of every app in the task list from the store's
app details and write them as an "id,year" CSV.

Empty answers mean the store is throttling; the lookup waits and asks again.
Apps that are not released yet are reported but left out of the file.`,
	Example: `  steamreviews release --tasks ids.txt --release-output years.csv`,
	Args:    cobra.NoArgs,
	RunE:    runRelease,
}

func init() {
	rootCmd.AddCommand(releaseCmd)

	f := releaseCmd.Flags()
	f.StringP("tasks", "t", "", "task list file, one app id per line")
	f.String("release-output", "", "CSV file to write")
	f.String("base-url", "", "store base URL")
	f.Duration("timeout", 0, "HTTP request timeout")
}

func runRelease(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	ids, err := tasks.LoadIDs(cfg.Tasks.Path, log)
	if err != nil {
		return err
	}
	ui.PrintInfo("Apps", fmt.Sprintf("%d from %s", len(ids), cfg.Tasks.Path))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	client := steam.NewClient(cfg.Steam, log)
	client.SetMetrics(m)

	lookup := scraper.NewReleaseLookup(client, cfg.Release, log, m)
	report, err := lookup.Run(ctx, ids)
	if writeErr := storage.WriteReleaseCSV(cfg.Release.OutputFile, report.Results); writeErr != nil {
		return writeErr
	}
	if err != nil {
		ui.PrintWarning("Lookup interrupted", fmt.Sprintf("%d years written", len(report.Results)))
		return nil
	}

	ui.PrintInfo("Release years", fmt.Sprintf("%d written to %s", len(report.Results), cfg.Release.OutputFile))
	if len(report.Coming) > 0 {
		ui.PrintWarning("Not released yet", fmt.Sprint(report.Coming))
	}
	if len(report.Failed) > 0 {
		ui.PrintWarning("No release date", fmt.Sprint(report.Failed))
	}
	ui.PrintSuccess("[LOOKUP COMPLETED]")
	return nil
}
