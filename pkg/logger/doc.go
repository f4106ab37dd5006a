// Package logger provides the structured logging interface used across
// creatorjoy.
//
// It wraps zerolog behind a small Logger interface so packages can accept a
// logger without importing zerolog directly, and so tests can swap in
// NewNopLogger or NewTestLogger.
//
// Basic usage:
//
//	err := logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("component", "reel_crawler")
//	log.InfoWithFields("Page fetched", map[string]interface{}{
//	    "handle": "someone",
//	    "items":  12,
//	})
//
// Request and crawl ids travel through context.Context via
// ContextWithRequestID and are attached by WithContext.
package logger
