// Package logger provides the structured logging interface used across the
// backup tool.
//
// It wraps zerolog: console output on stderr with compact colored levels, and
// an optional JSON file sink. Components take a Logger explicitly; the
// package-level helpers operate on a lazily created global instance for the
// command line entry point.
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "debug"})
//	log := logger.GetLogger().WithField("site", "stackoverflow.com")
//	log.InfoWithFields("questions written", map[string]interface{}{
//	    "written": 12,
//	    "skipped": 3,
//	})
//
// NewTestLogger captures messages for assertions; NewNopLogger discards them.
package logger
