package logger

import (
	"time"
)

// LogRequest logs a completed API call at a level matching its outcome
func LogRequest(l Logger, method, endpoint string, statusCode int, duration time.Duration) {
	fields := map[string]interface{}{
		"method":      method,
		"endpoint":    endpoint,
		"status_code": statusCode,
		"duration":    duration,
	}

	switch {
	case statusCode >= 200 && statusCode < 300:
		l.DebugWithFields("API request completed", fields)
	case statusCode >= 400 && statusCode < 500:
		l.WarnWithFields("API request client error", fields)
	default:
		l.ErrorWithFields("API request failed", fields)
	}
}

// LogThrottle logs a blocking wait imposed by the rate limiter, a backoff
// advisory or the daily quota.
func LogThrottle(l Logger, kind, endpoint string, wait time.Duration) {
	l.WarnWithFields("throttling API traffic", map[string]interface{}{
		"kind":     kind,
		"endpoint": endpoint,
		"wait":     wait,
	})
}

// LogBackupProgress logs the outcome of one site/kind backup pass
func LogBackupProgress(l Logger, site, kind string, written, skipped int) {
	l.InfoWithFields("backup pass finished", map[string]interface{}{
		"site":    site,
		"kind":    kind,
		"written": written,
		"skipped": skipped,
	})
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (n nopLogger) Debug(string)                                   {}
func (n nopLogger) Info(string)                                    {}
func (n nopLogger) Warn(string)                                    {}
func (n nopLogger) Error(string)                                   {}
func (n nopLogger) WithField(string, interface{}) Logger           { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger       { return n }
func (n nopLogger) WithError(error) Logger                         { return n }
func (n nopLogger) DebugWithFields(string, map[string]interface{}) {}
func (n nopLogger) InfoWithFields(string, map[string]interface{})  {}
func (n nopLogger) WarnWithFields(string, map[string]interface{})  {}
func (n nopLogger) ErrorWithFields(string, map[string]interface{}) {}
