package scraper

import (
	"context"

	"steamreviews/pkg/models"
	"steamreviews/pkg/steam"
)

// Crawler produces the review series of one task
type Crawler interface {
	Crawl(ctx context.Context, task models.Task) (*models.Series, error)
}

// SeriesStore persists crawl results
type SeriesStore interface {
	SaveSeries(series *models.Series) (string, error)
	IsSaved(appID uint32) bool
}

// AppDetailsClient fetches store details for the release lookup
type AppDetailsClient interface {
	FetchAppDetails(ctx context.Context, appID uint32) (*steam.AppDetailsEntry, error)
}

// Observer is told when a task starts and how it ended
type Observer interface {
	TaskStarted(appID uint32)
	TaskFinished(appID uint32, outcome string, points int, err error)
}
