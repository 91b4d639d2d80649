package scraper

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"steamreviews/pkg/config"
	errs "steamreviews/pkg/errors"
	"steamreviews/pkg/logger"
	"steamreviews/pkg/metrics"
	"steamreviews/pkg/models"
	"steamreviews/pkg/retry"
	"steamreviews/pkg/steam"
)

// ReleaseReport is the result of a release year lookup
type ReleaseReport struct {
	Results []models.ReleaseInfo
	Coming  []uint32
	Failed  []uint32
}

// ReleaseLookup resolves the release year of apps from their store details
type ReleaseLookup struct {
	client  AppDetailsClient
	limiter *rate.Limiter
	retry   *retry.Config
	logger  logger.Logger
	metrics *metrics.Metrics
}

// NewReleaseLookup creates a lookup paced at cfg.RequestsPerSecond. Empty
// store answers are retried after cfg.RetryDelay; network errors and 5xx
// answers back off exponentially from cfg.NetworkRetryDelay. An app gets at
// most cfg.MaxAttempts attempts.
func NewReleaseLookup(client AppDetailsClient, cfg config.ReleaseConfig, log logger.Logger, m *metrics.Metrics) *ReleaseLookup {
	if log == nil {
		log = logger.GetLogger()
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &ReleaseLookup{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		retry: &retry.Config{
			MaxAttempts: cfg.MaxAttempts,
			Backoff:     releaseBackoff(cfg),
			RetryIf:     retry.DefaultRetryIf,
			OnRetry: func(attempt int, err error, delay time.Duration) {
				m.IncRetries()
			},
			Logger: log,
		},
		logger:  log,
		metrics: m,
	}
}

func releaseBackoff(cfg config.ReleaseConfig) retry.BackoffStrategy {
	network := retry.DefaultExponentialBackoff()
	network.BaseDelay = cfg.NetworkRetryDelay
	return &retry.ThrottleBackoff{
		Throttled: &retry.ConstantBackoff{Delay: cfg.RetryDelay},
		Other:     network,
	}
}

// Run looks up every id in order. Apps the store does not know, or that
// have no release date, end up in Failed; unreleased apps in Coming.
// Cancellation returns what was gathered so far together with the error.
func (r *ReleaseLookup) Run(ctx context.Context, ids []uint32) (*ReleaseReport, error) {
	report := &ReleaseReport{}

	for _, id := range ids {
		if err := r.limiter.Wait(ctx); err != nil {
			return report, err
		}

		log := r.logger.WithField("app_id", id)

		entry, err := retry.DoWithResult(ctx, func(ctx context.Context) (*steam.AppDetailsEntry, error) {
			return r.client.FetchAppDetails(ctx, id)
		}, r.retry)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			log.WithError(err).Warn("app details lookup failed")
			report.Failed = append(report.Failed, id)
			continue
		}

		info, err := releaseInfo(id, entry)
		switch {
		case err != nil:
			log.WithError(err).Warn("no release date")
			report.Failed = append(report.Failed, id)
		case info.ComingSoon:
			log.Info("app not released yet")
			report.Coming = append(report.Coming, id)
		default:
			log.WithField("year", info.Year).Info("release year found")
			report.Results = append(report.Results, info)
		}
	}

	return report, nil
}

func releaseInfo(id uint32, entry *steam.AppDetailsEntry) (models.ReleaseInfo, error) {
	if !entry.Success {
		return models.ReleaseInfo{}, &errs.Error{
			Type:    errs.ErrorTypeNotFound,
			Message: fmt.Sprintf("store has no details for app %d", id),
		}
	}
	if entry.Data == nil || entry.Data.ReleaseDate == nil {
		return models.ReleaseInfo{}, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("app %d has no release_date", id),
		}
	}

	rd := entry.Data.ReleaseDate
	if rd.ComingSoon {
		return models.ReleaseInfo{AppID: id, ComingSoon: true}, nil
	}
	return models.ReleaseInfo{AppID: id, Year: rd.Year()}, nil
}
