package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "steamreviews/pkg/errors"
	"steamreviews/pkg/logger"
	"steamreviews/pkg/metrics"
	"steamreviews/pkg/models"
	"steamreviews/pkg/tasks"
	"steamreviews/pkg/ui"
)

// Options holds the run output locations. An empty ReportFile disables the
// JSON report.
type Options struct {
	UnfinishedFile string
	ReportFile     string
}

// Scraper runs the crawler over a task list, one task at a time
type Scraper struct {
	crawler  Crawler
	store    SeriesStore
	opts     Options
	logger   logger.Logger
	metrics  *metrics.Metrics
	observer Observer
}

// New creates a new Scraper instance
func New(crawler Crawler, store SeriesStore, opts Options, log logger.Logger, m *metrics.Metrics) (*Scraper, error) {
	if crawler == nil || store == nil {
		return nil, errs.NewConfigurationError("scraper", "crawler and store are required")
	}
	if opts.UnfinishedFile == "" {
		return nil, errs.NewConfigurationError("tasks.unfinished_file", "must not be empty")
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		crawler: crawler,
		store:   store,
		opts:    opts,
		logger:  log,
		metrics: m,
	}, nil
}

// SetObserver reports task starts and outcomes to o
func (s *Scraper) SetObserver(o Observer) {
	s.observer = o
}

// runState is the accumulator folded over the task list
type runState struct {
	unfinished tasks.UnfinishedSet
	stop       error
}

// Run crawls every task in order. A task that ends below threshold or with
// a failed fetch is logged and skipped and its id stays unfinished; a
// persisted task is removed from the unfinished set. Cancellation stops the
// run between tasks; the task in flight is crawled and saved first.
//
// The unfinished list is always written once the loop ends, even after
// cancellation. A ConfigurationError from the crawler aborts the run and is
// returned with the report.
func (s *Scraper) Run(ctx context.Context, list []models.Task) (*Report, error) {
	report := newReport()
	log := s.logger.WithField("run_id", report.RunID)
	tracker := ui.NewStatusTracker(len(list))

	log.InfoWithFields("run started", map[string]interface{}{
		"tasks":      len(list),
		"unfinished": s.opts.UnfinishedFile,
	})

	state := runState{unfinished: tasks.NewUnfinishedSet(list)}
	s.metrics.SetUnfinished(state.unfinished.Len())

	for _, task := range list {
		var res TaskResult
		res, state = s.step(ctx, task, state, log, tracker)
		report.add(res)
		tracker.Record(string(res.Outcome))
		s.metrics.IncTask(string(res.Outcome))
		s.metrics.SetUnfinished(state.unfinished.Len())
	}

	report.FinishedAt = time.Now().UTC()
	report.Unfinished = state.unfinished.IDs()

	if err := state.unfinished.Save(s.opts.UnfinishedFile); err != nil {
		log.WithError(err).Error("failed to write unfinished list")
		return report, err
	}
	if s.opts.ReportFile != "" {
		if err := report.Save(s.opts.ReportFile); err != nil {
			log.WithError(err).Error("failed to write run report")
			return report, err
		}
	}

	tracker.PrintSummary(state.unfinished.Len())
	log.InfoWithFields("run finished", map[string]interface{}{
		"succeeded":  report.Count(OutcomeSucceeded),
		"skipped":    report.Count(OutcomeBelowThreshold) + report.Count(OutcomeSkipped),
		"failed":     report.Count(OutcomeFetchFailed) + report.Count(OutcomePersistFailed),
		"unfinished": state.unfinished.Len(),
	})

	if state.stop != nil {
		return report, state.stop
	}
	return report, nil
}

// step crawls and persists one task and returns the updated run state
func (s *Scraper) step(ctx context.Context, task models.Task, state runState, log logger.Logger, tracker *ui.StatusTracker) (TaskResult, runState) {
	res := TaskResult{AppID: task.AppID}

	if state.stop == nil && ctx.Err() != nil {
		state.stop = ctx.Err()
	}
	if state.stop != nil {
		res.Outcome = OutcomeSkipped
		res.Error = state.stop.Error()
		if s.observer != nil {
			s.observer.TaskFinished(task.AppID, string(res.Outcome), 0, state.stop)
		}
		return res, state
	}

	taskLog := log.WithField("app_id", task.AppID)
	taskLog.Info("crawling app")
	tracker.PrintTaskStart(task.AppID)
	if s.observer != nil {
		s.observer.TaskStarted(task.AppID)
	}

	// cancellation only takes effect between tasks
	start := time.Now()
	series, err := s.crawler.Crawl(context.WithoutCancel(ctx), task)
	res.Duration = time.Since(start)

	switch {
	case err == nil:
		if s.store.IsSaved(task.AppID) {
			taskLog.Debug("replacing existing series")
		}
		path, saveErr := s.store.SaveSeries(series)
		if saveErr != nil {
			res.Outcome = OutcomePersistFailed
			err = fmt.Errorf("save series: %w", saveErr)
			break
		}
		res.Outcome = OutcomeSucceeded
		res.Points = series.Len()
		res.Path = path
		s.metrics.AddPoints(series.Len())
		state.unfinished = state.unfinished.Remove(task.AppID)
	case errors.Is(err, errs.ErrBelowThreshold):
		res.Outcome = OutcomeBelowThreshold
	case errs.IsConfiguration(err):
		res.Outcome = OutcomeSkipped
		state.stop = err
	default:
		res.Outcome = OutcomeFetchFailed
	}

	if err != nil {
		res.Error = err.Error()
	}
	logger.LogTaskOutcome(log, task.AppID, string(res.Outcome), res.Points, err)
	tracker.PrintTaskResult(task.AppID, string(res.Outcome), res.Points, err)
	if s.observer != nil {
		s.observer.TaskFinished(task.AppID, string(res.Outcome), res.Points, err)
	}

	return res, state
}
