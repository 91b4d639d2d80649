// Package scraper drives whole runs.
//
// Scraper.Run folds the crawler over a task list in input order, one task at
// a time. Every task ends with one outcome:
//   - succeeded: series saved, id leaves the unfinished set
//   - below_threshold: too few reviews, nothing saved, id stays
//   - fetch_failed: a request failed, nothing saved, id stays
//   - persist_failed: the CSV could not be written, id stays
//   - skipped: not attempted because the run was cancelled or aborted
//
// After the loop the unfinished ids are written one per line and a JSON run
// report with a unique run id is saved.
//
// ReleaseLookup reads the store's app details to find each app's release
// year, pacing requests with a token bucket and waiting out empty answers.
//
// Usage:
//
//	s, err := scraper.New(c, store, scraper.Options{
//	    UnfinishedFile: "unfinished.txt",
//	    ReportFile:     "data/report.json",
//	}, log, m)
//	report, err := s.Run(ctx, taskList)
package scraper
