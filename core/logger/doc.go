// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments (development vs production)
// and integrates with both the sync engine and the Fiber ops server.
//
// # Correlation
//
// Two helpers attach correlation fields to log entries:
//   - WithRun tags entries with the run_id of a sync run, so output from
//     concurrent fan-out workers can be separated per run.
//   - WithRayID extracts the request id from a Fiber context, correlating all
//     logs produced while serving one ops API request.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Daemon started")
//
//	// Inside a sync run:
//	l := logger.WithRun(log, outcome.RunID)
//	l.Warn("Retrying modify", zap.Error(err))
package logger
