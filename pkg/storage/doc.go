// Package storage persists crawl results.
//
// The storage package handles:
//   - One CSV file per app, named {app_id}.csv, newest date first
//   - Reading series files back without loss
//   - The id,year release CSV
//   - Atomic writes through a temporary file and rename
//
// A series file looks like:
//
//	Date,total_reviews,total_positive,total_negative,review_score
//	2022-10-22,200,180,20,8
//	2022-10-21,200,180,20,8
//
// Usage:
//
//	manager, err := storage.NewManager("./data")
//	if err != nil {
//	    return err
//	}
//	path, err := manager.SaveSeries(series)
package storage
