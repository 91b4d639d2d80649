package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogQuery records one snapshot request of a crawl.
func LogQuery(l Logger, appID uint32, query int, asOf time.Time) {
	l.DebugWithFields("querying review summary", map[string]interface{}{
		"app_id": appID,
		"query":  query,
		"as_of":  asOf.Unix(),
	})
}

// LogCooldown records a cooldown pause before it starts.
func LogCooldown(l Logger, appID uint32, query int, cooldown time.Duration) {
	l.WarnWithFields("query quota reached, cooling down", map[string]interface{}{
		"app_id":   appID,
		"query":    query,
		"cooldown": cooldown,
		"action":   "cooldown",
	})
}

// LogTaskOutcome records how a task ended. Failures are logged as errors,
// skips as warnings.
func LogTaskOutcome(l Logger, appID uint32, outcome string, points int, err error) {
	fields := map[string]interface{}{
		"app_id":  appID,
		"outcome": outcome,
		"points":  points,
	}

	entry := l.WithFields(fields)
	switch {
	case err == nil:
		entry.Info("task completed")
	case outcome == "below_threshold" || outcome == "skipped":
		entry.WithError(err).Warn("task skipped")
	default:
		entry.WithError(err).Error("task failed")
	}
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) GetZerolog() *zerolog.Logger                               { return nil }
