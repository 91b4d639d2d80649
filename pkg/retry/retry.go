package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "steamreviews/pkg/errors"
	"steamreviews/pkg/logger"
)

// Operation is one attempt at a store call.
type Operation func(ctx context.Context) error

// Config controls Do. MaxAttempts of 0 retries until ctx ends; nil RetryIf
// and Backoff fall back to DefaultRetryIf and DefaultExponentialBackoff.
type Config struct {
	MaxAttempts int
	Backoff     BackoffStrategy
	RetryIf     func(error) bool
	// OnRetry runs after a failed attempt, before the pause.
	OnRetry func(attempt int, err error, delay time.Duration)
	Logger  logger.Logger
}

// DefaultConfig allows three attempts with exponential backoff.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 3,
		Backoff:     DefaultExponentialBackoff(),
		RetryIf:     DefaultRetryIf,
	}
}

// DefaultRetryIf retries store errors whose type is retryable and never
// retries context errors.
func DefaultRetryIf(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return errs.IsRetryable(apiErr.Type)
	}
	return false
}

// withDefaults fills the unset hooks of cfg without mutating it.
func (cfg *Config) withDefaults() Config {
	c := *cfg
	if c.RetryIf == nil {
		c.RetryIf = DefaultRetryIf
	}
	if c.Backoff == nil {
		c.Backoff = DefaultExponentialBackoff()
	}
	return c
}

func (cfg *Config) exhausted(attempt int) bool {
	return cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts
}

// Do runs op until it succeeds, fails with an error RetryIf rejects, uses up
// MaxAttempts or ctx ends.
func Do(ctx context.Context, op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := cfg.withDefaults()
	log := c.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	attempt := 1
	for {
		err := op(ctx)
		switch {
		case err == nil:
			if attempt > 1 {
				log.DebugWithFields("store call recovered", map[string]interface{}{"attempt": attempt})
			}
			return nil
		case !c.RetryIf(err):
			return err
		case c.exhausted(attempt):
			log.WithError(err).ErrorWithFields("giving up on store call", map[string]interface{}{"attempts": attempt})
			return fmt.Errorf("max retry attempts (%d) exceeded: %w", c.MaxAttempts, err)
		}

		pause := delayFor(c.Backoff, attempt, err)
		if c.OnRetry != nil {
			c.OnRetry(attempt, err, pause)
		}
		log.WithError(err).WarnWithFields("store call failed, will retry", map[string]interface{}{
			"attempt": attempt,
			"pause":   pause,
			"limit":   c.MaxAttempts,
		})

		if werr := Wait(ctx, pause); werr != nil {
			return fmt.Errorf("retry cancelled: %w", werr)
		}
		attempt++
	}
}

// DoWithResult is Do for calls that produce a value. The value of the last
// attempt is returned alongside its error.
func DoWithResult[T any](ctx context.Context, op func(ctx context.Context) (T, error), cfg *Config) (T, error) {
	var out T
	err := Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		out = v
		return err
	}, cfg)
	return out, err
}
