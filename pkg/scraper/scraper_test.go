package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "steamreviews/pkg/errors"
	"steamreviews/pkg/logger"
	"steamreviews/pkg/metrics"
	"steamreviews/pkg/models"
	"steamreviews/pkg/tasks"
	"steamreviews/pkg/ui"
)

func TestMain(m *testing.M) {
	ui.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type crawlResult struct {
	series *models.Series
	err    error
}

type fakeCrawler struct {
	results map[uint32]crawlResult
	onCrawl func(task models.Task)
	crawled []uint32
}

func (f *fakeCrawler) Crawl(ctx context.Context, task models.Task) (*models.Series, error) {
	f.crawled = append(f.crawled, task.AppID)
	if f.onCrawl != nil {
		f.onCrawl(task)
	}
	r, ok := f.results[task.AppID]
	if !ok {
		return nil, fmt.Errorf("no result for %d", task.AppID)
	}
	return r.series, r.err
}

type fakeStore struct {
	fail  map[uint32]bool
	saved map[uint32]*models.Series
}

func newFakeStore() *fakeStore {
	return &fakeStore{fail: map[uint32]bool{}, saved: map[uint32]*models.Series{}}
}

func (f *fakeStore) SaveSeries(series *models.Series) (string, error) {
	if f.fail[series.AppID] {
		return "", errors.New("disk full")
	}
	f.saved[series.AppID] = series
	return fmt.Sprintf("/data/%d.csv", series.AppID), nil
}

func (f *fakeStore) IsSaved(appID uint32) bool {
	_, ok := f.saved[appID]
	return ok
}

func seriesOf(appID uint32, counts ...int) *models.Series {
	s := models.NewSeries(appID)
	d := time.Date(2022, 10, 22, 23, 59, 59, 0, time.UTC)
	for _, c := range counts {
		s.Add(d, models.Snapshot{TotalReviews: c})
		d = d.AddDate(0, 0, -1)
	}
	return s
}

func newTestScraper(t *testing.T, c Crawler, store SeriesStore, log logger.Logger) (*Scraper, Options) {
	t.Helper()
	dir := t.TempDir()
	opts := Options{
		UnfinishedFile: filepath.Join(dir, "unfinished.txt"),
		ReportFile:     filepath.Join(dir, "report.json"),
	}
	s, err := New(c, store, opts, log, metrics.New())
	require.NoError(t, err)
	return s, opts
}

func readIDs(t *testing.T, path string) []uint32 {
	t.Helper()
	ids, err := tasks.LoadIDs(path, nil)
	require.NoError(t, err)
	return ids
}

func TestNew(t *testing.T) {
	_, err := New(nil, newFakeStore(), Options{UnfinishedFile: "u.txt"}, nil, nil)
	assert.True(t, errs.IsConfiguration(err))

	_, err = New(&fakeCrawler{}, newFakeStore(), Options{}, nil, nil)
	assert.True(t, errs.IsConfiguration(err))
}

func TestRunOutcomes(t *testing.T) {
	crawler := &fakeCrawler{results: map[uint32]crawlResult{
		10: {series: seriesOf(10, 300, 200, 100)},
		20: {err: &errs.BelowThresholdError{AppID: 20, TotalReviews: 3, Threshold: 50}},
		30: {err: &errs.FetchError{AppID: 30, Err: errors.New("timeout")}},
		40: {series: seriesOf(40, 90)},
		50: {series: seriesOf(50, 60, 55)},
	}}
	store := newFakeStore()
	store.fail[40] = true
	log := logger.NewTestLogger()

	s, opts := newTestScraper(t, crawler, store, log)
	list := tasks.Build([]uint32{10, 20, 30, 40, 50}, "2022-10-22", 50)

	report, err := s.Run(context.Background(), list)
	require.NoError(t, err)

	assert.Equal(t, []uint32{10, 20, 30, 40, 50}, crawler.crawled)
	require.Len(t, report.Tasks, 5)
	assert.Equal(t, OutcomeSucceeded, report.Tasks[0].Outcome)
	assert.Equal(t, 3, report.Tasks[0].Points)
	assert.Equal(t, "/data/10.csv", report.Tasks[0].Path)
	assert.Equal(t, OutcomeBelowThreshold, report.Tasks[1].Outcome)
	assert.Equal(t, OutcomeFetchFailed, report.Tasks[2].Outcome)
	assert.Contains(t, report.Tasks[2].Error, "timeout")
	assert.Equal(t, OutcomePersistFailed, report.Tasks[3].Outcome)
	assert.Equal(t, OutcomeSucceeded, report.Tasks[4].Outcome)

	assert.Equal(t, 2, report.Count(OutcomeSucceeded))
	assert.Equal(t, []uint32{20, 30, 40}, report.Unfinished)
	assert.Equal(t, []uint32{20, 30, 40}, readIDs(t, opts.UnfinishedFile))

	assert.Contains(t, store.saved, uint32(10))
	assert.NotContains(t, store.saved, uint32(20))
	assert.NotContains(t, store.saved, uint32(30))

	assert.Equal(t, 5, log.CountMessage("crawling app"))
	assert.Equal(t, 2, log.CountMessage("task completed"))
	assert.Equal(t, 1, log.CountMessage("task skipped"))
	assert.Equal(t, 2, log.CountMessage("task failed"))
	for _, msg := range log.GetMessages() {
		assert.Equal(t, report.RunID, msg.Fields["run_id"], msg.Message)
	}
}

func TestRunWritesReport(t *testing.T) {
	crawler := &fakeCrawler{results: map[uint32]crawlResult{
		1: {series: seriesOf(1, 80, 70)},
		2: {err: &errs.BelowThresholdError{AppID: 2, TotalReviews: 0, Threshold: 50}},
	}}
	s, opts := newTestScraper(t, crawler, newFakeStore(), logger.NewNopLogger())

	report, err := s.Run(context.Background(), tasks.Build([]uint32{1, 2}, "2022-10-22", 50))
	require.NoError(t, err)

	_, err = uuid.Parse(report.RunID)
	require.NoError(t, err)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	data, err := os.ReadFile(opts.ReportFile)
	require.NoError(t, err)

	var saved Report
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, report.RunID, saved.RunID)
	assert.Equal(t, []uint32{2}, saved.Unfinished)
	assert.Equal(t, 1, saved.Counts[OutcomeSucceeded])
	assert.Equal(t, 1, saved.Counts[OutcomeBelowThreshold])
}

func TestRunWithoutReportFile(t *testing.T) {
	dir := t.TempDir()
	crawler := &fakeCrawler{results: map[uint32]crawlResult{1: {series: seriesOf(1, 5)}}}
	s, err := New(crawler, newFakeStore(), Options{UnfinishedFile: filepath.Join(dir, "u.txt")}, logger.NewNopLogger(), nil)
	require.NoError(t, err)

	_, err = s.Run(context.Background(), tasks.Build([]uint32{1}, "2022-10-22", 0))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "u.txt", entries[0].Name())
	assert.Empty(t, readIDs(t, filepath.Join(dir, "u.txt")))
}

func TestRunCancelledBetweenTasks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	crawler := &fakeCrawler{
		results: map[uint32]crawlResult{
			1: {series: seriesOf(1, 10)},
			2: {series: seriesOf(2, 10)},
			3: {series: seriesOf(3, 10)},
		},
		onCrawl: func(task models.Task) {
			if task.AppID == 1 {
				cancel()
			}
		},
	}
	s, opts := newTestScraper(t, crawler, newFakeStore(), logger.NewNopLogger())

	report, err := s.Run(ctx, tasks.Build([]uint32{1, 2, 3}, "2022-10-22", 0))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)

	assert.Equal(t, []uint32{1}, crawler.crawled)
	assert.Equal(t, OutcomeSucceeded, report.Tasks[0].Outcome)
	assert.Equal(t, OutcomeSkipped, report.Tasks[1].Outcome)
	assert.Equal(t, OutcomeSkipped, report.Tasks[2].Outcome)
	assert.Equal(t, []uint32{2, 3}, readIDs(t, opts.UnfinishedFile))
}

func TestRunConfigurationErrorAborts(t *testing.T) {
	crawler := &fakeCrawler{results: map[uint32]crawlResult{
		1: {err: errs.NewConfigurationError("crawl.start_date", "invalid date")},
		2: {series: seriesOf(2, 10)},
	}}
	s, opts := newTestScraper(t, crawler, newFakeStore(), logger.NewNopLogger())

	report, err := s.Run(context.Background(), tasks.Build([]uint32{1, 2}, "bad", 0))
	require.True(t, errs.IsConfiguration(err))

	assert.Equal(t, []uint32{1}, crawler.crawled)
	assert.Equal(t, 2, report.Count(OutcomeSkipped))
	assert.Equal(t, []uint32{1, 2}, readIDs(t, opts.UnfinishedFile))
}

func TestRunUnfinishedWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	crawler := &fakeCrawler{results: map[uint32]crawlResult{1: {series: seriesOf(1, 10)}}}
	s, err := New(crawler, newFakeStore(), Options{UnfinishedFile: filepath.Join(blocker, "u.txt")}, logger.NewNopLogger(), nil)
	require.NoError(t, err)

	report, err := s.Run(context.Background(), tasks.Build([]uint32{1}, "2022-10-22", 0))
	require.Error(t, err)
	assert.NotNil(t, report)
}

type eventLog struct {
	events []string
}

func (e *eventLog) TaskStarted(appID uint32) {
	e.events = append(e.events, fmt.Sprintf("start %d", appID))
}

func (e *eventLog) TaskFinished(appID uint32, outcome string, points int, err error) {
	e.events = append(e.events, fmt.Sprintf("finish %d %s %d", appID, outcome, points))
}

func TestRunReportsToObserver(t *testing.T) {
	crawler := &fakeCrawler{results: map[uint32]crawlResult{
		1: {series: seriesOf(1, 30, 20)},
		2: {err: errs.NewConfigurationError("crawl.start_date", "invalid date")},
	}}
	s, _ := newTestScraper(t, crawler, newFakeStore(), logger.NewNopLogger())
	obs := &eventLog{}
	s.SetObserver(obs)

	_, err := s.Run(context.Background(), tasks.Build([]uint32{1, 2, 3}, "2022-10-22", 0))
	require.Error(t, err)

	assert.Equal(t, []string{
		"start 1",
		"finish 1 succeeded 2",
		"start 2",
		"finish 2 skipped 0",
		"finish 3 skipped 0",
	}, obs.events)
}
