package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"steamreviews/pkg/config"
	"steamreviews/pkg/crawler"
	"steamreviews/pkg/logger"
	"steamreviews/pkg/metrics"
	"steamreviews/pkg/models"
	"steamreviews/pkg/ratelimit"
	"steamreviews/pkg/scraper"
	"steamreviews/pkg/steam"
	"steamreviews/pkg/storage"
	"steamreviews/pkg/tasks"
	"steamreviews/pkg/ui"
	"steamreviews/pkg/ui/tui"
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the review count history of every app in a task list",
	Long: `Crawl the review count history of every app in the task list.

For each app the store is asked for its review totals as of the end of the
start date, then one or two days earlier at a time until the count drops to
zero. Apps with no more reviews than the threshold are skipped.

Every run rewrites the unfinished file with the apps that did not complete,
so feeding it back as --tasks resumes the work.`,
	Example: `  # Crawl the default task list
  steamreviews crawl

  # Crawl a custom list from a later date, keeping small apps too
  steamreviews crawl --tasks ids.txt --start-date 2023-06-30 --threshold 0

  # Resume what the previous run left behind
  steamreviews crawl --tasks unfinished.txt --unfinished unfinished-2.txt

  # Expose Prometheus metrics while crawling
  steamreviews crawl --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	f := crawlCmd.Flags()
	f.StringP("tasks", "t", "", "task list file, one app id per line")
	f.String("unfinished", "", "where to write the ids left unfinished")
	f.StringP("output", "o", "", "output directory for series files")
	f.String("report", "", "run report file name, inside the output directory")
	f.String("start-date", "", "crawl start date (YYYY-MM-DD)")
	f.Int("threshold", 0, "skip apps with no more reviews than this")
	f.Int("max-queries", 0, "queries allowed before a cooldown")
	f.Duration("cooldown", 0, "cooldown length")
	f.Duration("politeness", 0, "pause after every query")
	f.String("base-url", "", "store base URL")
	f.Duration("timeout", 0, "HTTP request timeout")
	f.String("metrics-addr", "", "Prometheus metrics listen address (e.g. :9090)")
	f.BoolVar(&useTUI, "tui", false, "show a live dashboard instead of console lines")
}

var useTUI bool

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, changedFlags(cmd))
	if err != nil {
		return err
	}

	var dashboard *tui.TUI
	var extra []io.Writer
	if useTUI {
		dashboard = tui.NewTUI(cfg.RateLimit.MaxQueriesPerWindow)
		extra = append(extra, dashboard)
	}
	log, err := initLogging(cmd, cfg, extra...)
	if err != nil {
		return err
	}

	ids, err := tasks.LoadIDs(cfg.Tasks.Path, log)
	if err != nil {
		return err
	}
	list := tasks.Build(ids, cfg.Crawl.StartDate, cfg.Crawl.Threshold)

	ui.PrintInfo("Tasks", fmt.Sprintf("%d apps from %s", len(list), cfg.Tasks.Path))
	ui.PrintInfo("Start date", cfg.Crawl.StartDate)
	ui.PrintInfo("Threshold", strconv.Itoa(cfg.Crawl.Threshold))

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	ctx, stop := interruptible(context.Background(), sigs, log)
	defer stop()

	m := metrics.New()
	shutdownMetrics := serveMetrics(cfg.Metrics.Addr, m, log)
	defer shutdownMetrics()

	s, err := buildScraper(cfg, log, m, dashboard)
	if err != nil {
		return err
	}

	var report *scraper.Report
	if dashboard != nil {
		report, err = runWithDashboard(ctx, stop, dashboard, s, list)
	} else {
		ui.PrintHighlight("[CRAWL STARTED]")
		report, err = s.Run(ctx, list)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			ui.PrintWarning("Crawl interrupted", fmt.Sprintf("%d apps left in %s", len(report.Unfinished), cfg.Tasks.UnfinishedFile))
			return nil
		}
		return err
	}

	ui.PrintInfo("Elapsed", formatDuration(report.FinishedAt.Sub(report.StartedAt)))
	ui.PrintSuccess("[CRAWL COMPLETED]")
	return nil
}

// interruptible returns a context cancelled by the first signal on sigs.
// stop cancels it too, without reporting a signal.
func interruptible(parent context.Context, sigs <-chan os.Signal, log logger.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	go func() {
		select {
		case sig := <-sigs:
			log.WithField("signal", sig.String()).Info("shutdown signal received, finishing current task")
			cancel()
		case <-done:
		}
	}()

	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			close(done)
			cancel()
		})
	}
}

// runWithDashboard runs the crawl in the background while the dashboard
// holds the terminal. Quitting the dashboard cancels the run after the
// current app.
func runWithDashboard(ctx context.Context, cancel context.CancelFunc, dashboard *tui.TUI, s *scraper.Scraper, list []models.Task) (*scraper.Report, error) {
	ids := make([]uint32, len(list))
	for i, task := range list {
		ids[i] = task.AppID
	}

	type result struct {
		report *scraper.Report
		err    error
	}
	done := make(chan result, 1)
	go func() {
		dashboard.Queue(ids)
		report, err := s.Run(ctx, list)
		done <- result{report, err}
		dashboard.Stop()
	}()

	if err := dashboard.Start(); err != nil {
		cancel()
		res := <-done
		return res.report, fmt.Errorf("dashboard failed: %w", err)
	}
	// the user quit early, or the run ended and stopped the dashboard
	cancel()
	res := <-done
	return res.report, res.err
}

// buildScraper wires the client, crawler and store of a run. A non-nil
// dashboard observes both the crawler and the run.
func buildScraper(cfg *config.Config, log logger.Logger, m *metrics.Metrics, dashboard *tui.TUI) (*scraper.Scraper, error) {
	client := steam.NewClient(cfg.Steam, log)
	client.SetMetrics(m)

	policy, err := ratelimit.NewPolicy(cfg.RateLimit.MaxQueriesPerWindow, cfg.RateLimit.Cooldown)
	if err != nil {
		return nil, err
	}
	log.WithField("policy", policy.String()).Debug("cooldown policy")

	opts := []crawler.Option{
		crawler.WithPoliteness(cfg.RateLimit.PolitenessDelay),
		crawler.WithLogger(log),
		crawler.WithMetrics(m),
	}
	if dashboard != nil {
		opts = append(opts, crawler.WithObserver(dashboard))
	}
	c, err := crawler.New(client, policy, opts...)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		return nil, err
	}
	if n := store.GetSavedCount(); n > 0 {
		log.WithField("count", n).Info("existing series will be replaced when recrawled")
	}

	runOpts := scraper.Options{UnfinishedFile: cfg.Tasks.UnfinishedFile}
	if cfg.Output.ReportFile != "" {
		runOpts.ReportFile = filepath.Join(cfg.Output.BaseDirectory, cfg.Output.ReportFile)
	}
	s, err := scraper.New(c, store, runOpts, log, m)
	if err != nil {
		return nil, err
	}
	if dashboard != nil {
		s.SetObserver(dashboard)
	}
	return s, nil
}

// serveMetrics starts the Prometheus endpoint when addr is set and returns
// a function shutting it down.
func serveMetrics(addr string, m *metrics.Metrics, log logger.Logger) func() {
	if addr == "" {
		return func() {}
	}

	server := &http.Server{
		Addr:    addr,
		Handler: promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()
	log.WithField("addr", addr).Info("metrics server enabled")

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Error("metrics server shutdown failed")
		}
	}
}
