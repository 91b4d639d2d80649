// Package crawler implements the backward review-history crawl.
//
// A crawl starts at the last second of the task's start day and steps back
// in time, one day per query or two when the cumulative count did not move,
// until the store reports zero reviews. Every query is numbered; a cooldown
// is taken before each query whose number is a multiple of the policy
// window, and a short politeness pause follows every successful fetch.
//
// Usage:
//
//	c, err := crawler.New(client, policy,
//	    crawler.WithLogger(log),
//	    crawler.WithWaiter(ratelimit.SleepWaiter{}),
//	)
//	series, err := c.Crawl(ctx, models.Task{AppID: 440, StartDate: "2022-10-22", Threshold: 50})
//	switch {
//	case errors.Is(err, errs.ErrBelowThreshold):
//	    // skipped
//	case errs.IsFetch(err):
//	    // abandoned, nothing kept
//	}
package crawler
