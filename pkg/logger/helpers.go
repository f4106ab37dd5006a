package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type requestIDKey struct{}

// ContextWithRequestID attaches a request or crawl id to ctx.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// LogRequest logs HTTP request information
func LogRequest(l Logger, method, path string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"path":        path,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.InfoWithFields("HTTP request completed", fields)
	}
}

// LogCrawl logs the outcome of a finished crawl.
func LogCrawl(l Logger, platform, handle string, items int, duration time.Duration, err error) {
	entry := l.WithFields(map[string]interface{}{
		"platform":    platform,
		"handle":      handle,
		"items":       items,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		entry.WithError(err).Error("Crawl failed")
		return
	}
	entry.Info("Crawl completed")
}

// LogSessionRefresh logs a browser refresh attempt.
func LogSessionRefresh(l Logger, trigger string, expiresAt time.Time, err error) {
	entry := l.WithField("trigger", trigger)
	if err != nil {
		entry.WithError(err).Error("Session refresh failed")
		return
	}
	entry.WithField("expires_at", expiresAt).Info("Session refreshed")
}

// LogEnrichment logs a single enrichment job outcome.
func LogEnrichment(l Logger, videoID string, filled []string, err error) {
	entry := l.WithField("video_id", videoID)
	if err != nil {
		entry.WithError(err).Warn("Enrichment failed, keeping flat metadata")
		return
	}
	entry.WithField("filled", filled).Debug("Enrichment completed")
}

// LogRateLimit logs rate limiting events
func LogRateLimit(l Logger, endpoint string, waited time.Duration) {
	l.WithFields(map[string]interface{}{
		"endpoint": endpoint,
		"waited":   waited,
		"action":   "rate_limited",
	}).Debug("Waited for rate limiter")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	entry := l.WithField("component", component)
	if len(config) > 0 {
		entry = entry.WithFields(config)
	}
	entry.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component string, reason string) {
	l.WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
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
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
