package logger

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// LogRequest logs a completed feed request at a level chosen by status
func LogRequest(l Logger, method, url string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": duration.Milliseconds(),
	}

	switch {
	case statusCode >= 500 || statusCode == 0:
		OrDefault(l).ErrorWithFields("HTTP request failed", fields)
	case statusCode >= 400:
		OrDefault(l).WarnWithFields("HTTP request client error", fields)
	default:
		OrDefault(l).DebugWithFields("HTTP request completed", fields)
	}
}

// LogPage logs one page of an account's feed
func LogPage(l Logger, account string, page, items int, hasMore bool) {
	OrDefault(l).DebugWithFields("Fetched feed page", map[string]interface{}{
		"account":  account,
		"page":     page,
		"items":    items,
		"has_more": hasMore,
	})
}

// LogDownload logs the outcome of a single item fetch
func LogDownload(l Logger, itemID, url, status string, bytes int64, err error) {
	log := OrDefault(l).WithFields(map[string]interface{}{
		"item_id": itemID,
		"url":     url,
		"status":  status,
	})

	switch {
	case err != nil:
		log.WithError(err).Error("Download failed")
	case status == "already_present":
		log.Debug("Download skipped, file exists")
	default:
		log.WithField("bytes", bytes).Info("Download completed")
	}
}

// LogRateLimit logs a wait imposed by the rate limiter
func LogRateLimit(l Logger, endpoint string, wait time.Duration) {
	OrDefault(l).WarnWithFields("Rate limit reached, backing off", map[string]interface{}{
		"endpoint": endpoint,
		"wait":     wait,
		"action":   "rate_limited",
	})
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, settings map[string]interface{}) {
	log := OrDefault(l).WithField("component", component)
	if len(settings) > 0 {
		log = log.WithFields(settings)
	}
	log.Info("Component started")
}

// LogComponentStop logs when a component stops
func LogComponentStop(l Logger, component, reason string) {
	OrDefault(l).WithFields(map[string]interface{}{
		"component": component,
		"reason":    reason,
	}).Info("Component stopped")
}

// NewNopLogger creates a logger that discards everything
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
	zl := zerolog.Nop()
	return &zl
}
