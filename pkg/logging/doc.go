// Package logging configures the log/slog loggers used across mockscope.
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.LevelInfo,
//	    Format: logging.FormatJSON,
//	})
//	logger.Info("engine started", "port", port)
//
// Components accept a *slog.Logger through an option and fall back to Nop.
// Inside tests, ForTest routes records to the running test's log.
package logging
