// Package retry provides a retry loop with pluggable backoff.
//
// Store lookups that answer with an empty body or a transient status are
// retried; everything else fails immediately. Delays are cancellable through
// the context.
//
// Usage:
//
//	entry, err := retry.DoWithResult(ctx, func(ctx context.Context) (*steam.AppDetailsEntry, error) {
//	    return client.FetchAppDetails(ctx, appID)
//	}, &retry.Config{
//	    MaxAttempts: 5,
//	    Backoff:     &retry.ConstantBackoff{Delay: time.Minute},
//	})
package retry
