package crawler

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "steamreviews/pkg/errors"
	"steamreviews/pkg/logger"
	"steamreviews/pkg/models"
	"steamreviews/pkg/ratelimit"
)

// scriptedFetcher answers the n-th call with counts[n] and fails on the
// call numbered failAt (1-based, 0 disables).
type scriptedFetcher struct {
	counts []int
	failAt int
	calls  []time.Time
}

func (f *scriptedFetcher) FetchSummary(ctx context.Context, appID uint32, asOf time.Time) (*models.Snapshot, error) {
	f.calls = append(f.calls, asOf)
	n := len(f.calls)
	if n == f.failAt {
		return nil, &errs.Error{Type: errs.ErrorTypeServerError, Message: "boom", Code: 500}
	}
	if n > len(f.counts) {
		return nil, fmt.Errorf("unexpected call %d", n)
	}
	count := f.counts[n-1]
	return &models.Snapshot{
		TotalReviews:  count,
		TotalPositive: count * 3 / 4,
		TotalNegative: count - count*3/4,
		ReviewScore:   7,
	}, nil
}

func (f *scriptedFetcher) dates() []string {
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Format(models.DateLayout)
	}
	return out
}

var testPolicy = ratelimit.Policy{MaxQueriesPerWindow: 150, Cooldown: 128 * time.Second}

func newTestCrawler(t *testing.T, f Fetcher, policy ratelimit.Policy, opts ...Option) (*Crawler, *ratelimit.RecordingWaiter) {
	t.Helper()
	waiter := ratelimit.NewRecordingWaiter()
	opts = append([]Option{WithWaiter(waiter)}, opts...)
	c, err := New(f, policy, opts...)
	require.NoError(t, err)
	return c, waiter
}

func TestCutoff(t *testing.T) {
	cutoff, err := Cutoff("2022-10-22")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2022, 10, 22, 23, 59, 59, 0, time.UTC), cutoff)
	assert.Equal(t, int64(1666483199), cutoff.Unix())

	for _, bad := range []string{"", "2022-13-01", "22-10-2022", "yesterday"} {
		_, err := Cutoff(bad)
		assert.True(t, errs.IsConfiguration(err), bad)
	}
}

func TestNewValidates(t *testing.T) {
	_, err := New(&scriptedFetcher{}, ratelimit.Policy{MaxQueriesPerWindow: 0, Cooldown: time.Second})
	assert.True(t, errs.IsConfiguration(err))

	_, err = New(&scriptedFetcher{}, ratelimit.Policy{MaxQueriesPerWindow: 5})
	assert.True(t, errs.IsConfiguration(err))

	_, err = New(nil, testPolicy)
	assert.True(t, errs.IsConfiguration(err))

	_, err = New(&scriptedFetcher{}, testPolicy, WithPoliteness(-time.Second))
	assert.True(t, errs.IsConfiguration(err))
}

func TestCrawlEndToEndSequence(t *testing.T) {
	f := &scriptedFetcher{counts: []int{200, 200, 150, 0}}
	c, waiter := newTestCrawler(t, f, testPolicy)

	series, err := c.Crawl(context.Background(), models.Task{AppID: 100, StartDate: "2022-10-22", Threshold: 50})
	require.NoError(t, err)

	assert.Equal(t, []string{"2022-10-22", "2022-10-21", "2022-10-19", "2022-10-18"}, f.dates())
	assert.Equal(t, []string{"2022-10-22", "2022-10-21", "2022-10-19"}, series.Dates())
	assert.Equal(t, uint32(100), series.AppID)

	snap, ok := series.Get("2022-10-19")
	require.True(t, ok)
	assert.Equal(t, 150, snap.TotalReviews)

	_, ok = series.Get("2022-10-18")
	assert.False(t, ok)

	// one politeness pause per successful fetch, no cooldown
	assert.Equal(t, 4, waiter.Count(DefaultPolitenessDelay))
	assert.Equal(t, 0, waiter.Count(testPolicy.Cooldown))
}

func TestCrawlRecordsOnlyPositiveStrictlyDecreasingDates(t *testing.T) {
	f := &scriptedFetcher{counts: []int{90, 80, 80, 80, 70, 10, 10, 0}}
	c, _ := newTestCrawler(t, f, testPolicy)

	series, err := c.Crawl(context.Background(), models.Task{AppID: 7, StartDate: "2021-03-02", Threshold: 0})
	require.NoError(t, err)
	require.Equal(t, 7, series.Len())

	for i, p := range series.Points {
		assert.Positive(t, p.Snapshot.TotalReviews)
		if i > 0 {
			gap := series.Points[i-1].Date.Sub(p.Date)
			assert.True(t, gap == 24*time.Hour || gap == 48*time.Hour, "gap %s", gap)
		}
	}
}

func TestCrawlStagnationSkipsTwoDays(t *testing.T) {
	f := &scriptedFetcher{counts: []int{60, 55, 55, 55, 40, 0}}
	c, _ := newTestCrawler(t, f, testPolicy)

	_, err := c.Crawl(context.Background(), models.Task{AppID: 1, StartDate: "2022-03-01", Threshold: 50})
	require.NoError(t, err)

	// 55 == 55 twice in a row: two 2-day steps, then 40 != 55 resets to one day
	assert.Equal(t, []string{
		"2022-03-01",
		"2022-02-28",
		"2022-02-27",
		"2022-02-25",
		"2022-02-23",
		"2022-02-22",
	}, f.dates())
}

func TestCrawlCooldownSchedule(t *testing.T) {
	tests := []struct {
		name   string
		window int
		fetch  int
	}{
		{"window 3, 10 fetches", 3, 10},
		{"window 4, 8 fetches", 4, 8},
		{"window 5, 4 fetches", 5, 4},
		{"window 1, 3 fetches", 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counts := make([]int, tt.fetch)
			for i := range counts {
				counts[i] = (tt.fetch - 1 - i) * 10
			}
			f := &scriptedFetcher{counts: counts}
			policy := ratelimit.Policy{MaxQueriesPerWindow: tt.window, Cooldown: time.Minute}
			log := logger.NewTestLogger()
			c, waiter := newTestCrawler(t, f, policy, WithLogger(log))

			_, err := c.Crawl(context.Background(), models.Task{AppID: 9, StartDate: "2020-01-31", Threshold: 0})
			require.NoError(t, err)
			require.Len(t, f.calls, tt.fetch)

			assert.Equal(t, tt.fetch/tt.window, waiter.Count(time.Minute))
			assert.Equal(t, tt.fetch/tt.window, log.CountMessage("query quota reached, cooling down"))

			// every cooldown sits right before the k*W-th fetch
			fetchNo := 0
			for _, w := range waiter.Waits() {
				if w == DefaultPolitenessDelay {
					fetchNo++
					continue
				}
				assert.Equal(t, 0, (fetchNo+1)%tt.window, "cooldown before fetch %d", fetchNo+1)
			}
		})
	}
}

func TestCrawlBelowThreshold(t *testing.T) {
	for _, count := range []int{0, 10, 50} {
		t.Run(fmt.Sprint(count), func(t *testing.T) {
			f := &scriptedFetcher{counts: []int{count}}
			c, _ := newTestCrawler(t, f, testPolicy)

			series, err := c.Crawl(context.Background(), models.Task{AppID: 3, StartDate: "2022-10-22", Threshold: 50})
			assert.Nil(t, series)
			require.ErrorIs(t, err, errs.ErrBelowThreshold)

			var bt *errs.BelowThresholdError
			require.True(t, errors.As(err, &bt))
			assert.Equal(t, count, bt.TotalReviews)
			assert.Len(t, f.calls, 1)
		})
	}
}

func TestCrawlZeroFirstWithNegativeThreshold(t *testing.T) {
	f := &scriptedFetcher{counts: []int{0}}
	c, _ := newTestCrawler(t, f, testPolicy)

	series, err := c.Crawl(context.Background(), models.Task{AppID: 3, StartDate: "2022-10-22", Threshold: -1})
	require.NoError(t, err)
	require.NotNil(t, series)
	assert.Zero(t, series.Len())
}

func TestCrawlFirstFetchFails(t *testing.T) {
	f := &scriptedFetcher{counts: []int{100}, failAt: 1}
	c, waiter := newTestCrawler(t, f, testPolicy)

	series, err := c.Crawl(context.Background(), models.Task{AppID: 4, StartDate: "2022-10-22", Threshold: 50})
	assert.Nil(t, series)
	require.True(t, errs.IsFetch(err))
	assert.Empty(t, waiter.Waits())
}

func TestCrawlMidFailureDiscardsPoints(t *testing.T) {
	f := &scriptedFetcher{counts: []int{300, 250, 200, 150, 0}, failAt: 3}
	c, _ := newTestCrawler(t, f, testPolicy)

	series, err := c.Crawl(context.Background(), models.Task{AppID: 5, StartDate: "2022-10-22", Threshold: 50})
	assert.Nil(t, series)
	require.Error(t, err)

	var fe *errs.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, uint32(5), fe.AppID)
	assert.Equal(t, "2022-10-20", fe.Date.Format(models.DateLayout))
	assert.Equal(t, errs.ErrorTypeServerError, errs.TypeOf(err))
	assert.Len(t, f.calls, 3)
}

func TestCrawlStopsAtEpoch(t *testing.T) {
	f := &scriptedFetcher{counts: []int{5, 5, 5, 5}}
	c, _ := newTestCrawler(t, f, testPolicy)

	series, err := c.Crawl(context.Background(), models.Task{AppID: 8, StartDate: "1970-01-03", Threshold: 0})
	assert.Nil(t, series)
	require.True(t, errs.IsFetch(err))

	var fe *errs.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "1969-12-31", fe.Date.Format(models.DateLayout))
	// 01-03, then 01-02; the equal count steps two days past the epoch
	assert.Equal(t, []string{"1970-01-03", "1970-01-02"}, f.dates())
}

func TestCrawlInvalidStartDate(t *testing.T) {
	f := &scriptedFetcher{counts: []int{100}}
	c, _ := newTestCrawler(t, f, testPolicy)

	_, err := c.Crawl(context.Background(), models.Task{AppID: 1, StartDate: "10/22/2022"})
	require.True(t, errs.IsConfiguration(err))
	assert.Empty(t, f.calls)
}

func TestCrawlCustomPoliteness(t *testing.T) {
	f := &scriptedFetcher{counts: []int{5, 0}}
	c, waiter := newTestCrawler(t, f, testPolicy, WithPoliteness(0))

	series, err := c.Crawl(context.Background(), models.Task{AppID: 1, StartDate: "2022-10-22"})
	require.NoError(t, err)
	assert.Equal(t, 1, series.Len())
	assert.Equal(t, []time.Duration{0, 0}, waiter.Waits())
}

func TestCrawlLogsQueries(t *testing.T) {
	f := &scriptedFetcher{counts: []int{5, 0}}
	log := logger.NewTestLogger()
	c, _ := newTestCrawler(t, f, testPolicy, WithLogger(log))

	_, err := c.Crawl(context.Background(), models.Task{AppID: 77, StartDate: "2022-10-22"})
	require.NoError(t, err)

	queries := log.GetMessagesByLevel("DEBUG")
	require.GreaterOrEqual(t, len(queries), 2)
	assert.Equal(t, "querying review summary", queries[0].Message)
	assert.Equal(t, uint32(77), queries[0].Fields["app_id"])
	assert.Equal(t, 1, queries[0].Fields["query"])
}

type recordingObserver struct {
	queries   []int
	cooldowns int
}

func (o *recordingObserver) QueryStarted(appID uint32, asOf time.Time, query int) {
	o.queries = append(o.queries, query)
}

func (o *recordingObserver) CooldownStarted(appID uint32, d time.Duration) {
	o.cooldowns++
}

func TestCrawlReportsToObserver(t *testing.T) {
	f := &scriptedFetcher{counts: []int{50, 40, 30, 20, 0}}
	obs := &recordingObserver{}
	c, _ := newTestCrawler(t, f, ratelimit.Policy{MaxQueriesPerWindow: 2, Cooldown: time.Second}, WithObserver(obs))

	_, err := c.Crawl(context.Background(), models.Task{AppID: 1, StartDate: "2022-10-22", Threshold: 0})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, obs.queries)
	assert.Equal(t, 2, obs.cooldowns)
}
