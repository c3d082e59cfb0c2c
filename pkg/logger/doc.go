// Package logger provides the structured logging interface used across
// dankrank. It wraps zerolog.
//
// Components take a Logger in their constructor; a nil Logger falls back to
// the global one (see OrDefault). The global logger is configured once from
// the logging section of the configuration:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("account", "dankmemes").Info("Harvest started")
//
// Tests use NewTestLogger to capture and assert on messages, or
// NewNopLogger to discard them.
package logger
