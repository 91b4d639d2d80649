// Package ratelimit holds the request pacing pieces of a crawl.
//
// Policy:
//   - MaxQueriesPerWindow numbered queries per window
//   - Cooldown taken before every query whose number is a multiple of the window
//
// Waiter:
//
// All pauses go through the Waiter interface so crawls can be run against a
// RecordingWaiter in tests:
//   - SleepWaiter - blocks with time.Sleep, not cancellable
//   - RecordingWaiter - records durations and returns immediately
//
// Usage:
//
//	policy, err := ratelimit.NewPolicy(150, 128*time.Second)
//	if err != nil {
//	    return err
//	}
//	if policy.Due(queryNumber) {
//	    waiter.Wait(policy.Cooldown)
//	}
package ratelimit
