package crawler

import (
	"context"
	"fmt"
	"time"

	errs "steamreviews/pkg/errors"
	"steamreviews/pkg/logger"
	"steamreviews/pkg/metrics"
	"steamreviews/pkg/models"
	"steamreviews/pkg/ratelimit"
)

// DefaultPolitenessDelay is the pause after every successful fetch
const DefaultPolitenessDelay = 100 * time.Millisecond

// Fetcher returns the cumulative review statistics of an app as of an instant
type Fetcher interface {
	FetchSummary(ctx context.Context, appID uint32, asOf time.Time) (*models.Snapshot, error)
}

// Observer is told about every query and cooldown as it starts
type Observer interface {
	QueryStarted(appID uint32, asOf time.Time, query int)
	CooldownStarted(appID uint32, d time.Duration)
}

// CrawlState is the per-task loop state. It is passed into and returned
// from every step of the crawl.
type CrawlState struct {
	ProbeDate  time.Time
	LastCount  int
	StepDays   int
	QueryCount int
}

// Crawler walks an app's review history backward one snapshot at a time
type Crawler struct {
	fetcher    Fetcher
	policy     ratelimit.Policy
	waiter     ratelimit.Waiter
	politeness time.Duration
	logger     logger.Logger
	metrics    *metrics.Metrics
	observer   Observer
}

// Option configures a Crawler
type Option func(*Crawler)

// WithWaiter replaces the SleepWaiter
func WithWaiter(w ratelimit.Waiter) Option {
	return func(c *Crawler) { c.waiter = w }
}

// WithPoliteness sets the pause after every successful fetch
func WithPoliteness(d time.Duration) Option {
	return func(c *Crawler) { c.politeness = d }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(c *Crawler) { c.logger = l }
}

// WithMetrics attaches Prometheus collectors
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Crawler) { c.metrics = m }
}

// WithObserver reports progress to o
func WithObserver(o Observer) Option {
	return func(c *Crawler) { c.observer = o }
}

// New creates a Crawler. An invalid policy is a ConfigurationError.
func New(fetcher Fetcher, policy ratelimit.Policy, opts ...Option) (*Crawler, error) {
	if fetcher == nil {
		return nil, errs.NewConfigurationError("fetcher", "is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	c := &Crawler{
		fetcher:    fetcher,
		policy:     policy,
		waiter:     ratelimit.SleepWaiter{},
		politeness: DefaultPolitenessDelay,
		logger:     logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.politeness < 0 {
		return nil, errs.NewConfigurationError("rate_limit.politeness_delay", "must not be negative, got %s", c.politeness)
	}
	return c, nil
}

// Cutoff returns the last instant of the given calendar day in UTC.
func Cutoff(startDate string) (time.Time, error) {
	day, err := time.ParseInLocation(models.DateLayout, startDate, time.UTC)
	if err != nil {
		return time.Time{}, errs.NewConfigurationError("crawl.start_date", "invalid date %q: %v", startDate, err)
	}
	return day.Add(24*time.Hour - time.Second), nil
}

// Crawl fetches the snapshot at the end of task.StartDate and then steps
// back one day at a time, two when the count did not change, until the
// remote reports zero reviews. The zero snapshot is not recorded.
//
// A first snapshot not above task.Threshold yields a BelowThresholdError.
// Any failed fetch yields a FetchError and discards every point gathered
// for the task, as does a count that never reaches zero before the epoch.
func (c *Crawler) Crawl(ctx context.Context, task models.Task) (*models.Series, error) {
	cutoff, err := Cutoff(task.StartDate)
	if err != nil {
		return nil, err
	}

	log := c.logger.WithField("app_id", task.AppID)

	state := CrawlState{ProbeDate: cutoff, StepDays: 1}
	snap, state, err := c.fetch(ctx, task.AppID, state, log)
	if err != nil {
		return nil, err
	}

	if snap.TotalReviews <= task.Threshold {
		return nil, &errs.BelowThresholdError{
			AppID:        task.AppID,
			TotalReviews: snap.TotalReviews,
			Threshold:    task.Threshold,
		}
	}

	series := models.NewSeries(task.AppID)
	state.LastCount = snap.TotalReviews

	for state.LastCount != 0 {
		series.Add(state.ProbeDate, *snap)

		snap, state, err = c.step(ctx, task.AppID, state, log)
		if err != nil {
			return nil, err
		}
	}

	log.DebugWithFields("crawl finished", map[string]interface{}{
		"points":  series.Len(),
		"queries": state.QueryCount,
	})

	return series, nil
}

// step moves the probe date back and fetches the snapshot there, returning
// the updated state. A probe date before 1970-01-01T00:00:01Z ends the crawl
// with a FetchError.
func (c *Crawler) step(ctx context.Context, appID uint32, state CrawlState, log logger.Logger) (*models.Snapshot, CrawlState, error) {
	state.ProbeDate = state.ProbeDate.AddDate(0, 0, -state.StepDays)
	if state.ProbeDate.Unix() < 1 {
		return nil, state, &errs.FetchError{
			AppID: appID,
			Date:  state.ProbeDate,
			Err:   fmt.Errorf("review count still %d before the Unix epoch", state.LastCount),
		}
	}

	snap, state, err := c.fetch(ctx, appID, state, log)
	if err != nil {
		return nil, state, err
	}

	if snap.TotalReviews == state.LastCount {
		state.StepDays = 2
	} else {
		state.StepDays = 1
	}
	state.LastCount = snap.TotalReviews

	return snap, state, nil
}

// fetch issues the next numbered query at state.ProbeDate, taking the
// cooldown first when the query number completes a window.
func (c *Crawler) fetch(ctx context.Context, appID uint32, state CrawlState, log logger.Logger) (*models.Snapshot, CrawlState, error) {
	state.QueryCount++

	if c.policy.Due(state.QueryCount) {
		logger.LogCooldown(log, appID, state.QueryCount, c.policy.Cooldown)
		c.metrics.IncCooldown(c.policy.Cooldown)
		if c.observer != nil {
			c.observer.CooldownStarted(appID, c.policy.Cooldown)
		}
		c.waiter.Wait(c.policy.Cooldown)
	}

	logger.LogQuery(log, appID, state.QueryCount, state.ProbeDate)
	if c.observer != nil {
		c.observer.QueryStarted(appID, state.ProbeDate, state.QueryCount)
	}

	snap, err := c.fetcher.FetchSummary(ctx, appID, state.ProbeDate)
	if err != nil {
		return nil, state, &errs.FetchError{AppID: appID, Date: state.ProbeDate, Err: err}
	}
	if snap == nil {
		return nil, state, &errs.FetchError{AppID: appID, Date: state.ProbeDate, Err: fmt.Errorf("empty snapshot")}
	}

	c.waiter.Wait(c.politeness)

	return snap, state, nil
}
