// Package logger provides a structured logging interface for the review crawler.
//
// It wraps zerolog with a small field-map API:
//   - Levels Debug, Info, Warn, Error, Fatal
//   - Child loggers via WithField, WithFields and WithError
//   - Colored console output
//   - Optional JSON file output rotated by lumberjack
//
// Basic Usage:
//
//	err := logger.Initialize(&cfg.Logging)
//	logger.GetLogger().WithField("app_id", 440).Info("crawling app")
//
// Crawl-specific helpers (LogQuery, LogCooldown, LogTaskOutcome) take the
// Logger explicitly so components can be handed a TestLogger in tests.
package logger
