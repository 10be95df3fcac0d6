// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) and both console and json encodings.
//
// # Run Awareness
//
// Every reconciliation pass gets a run id. The WithRun helper attaches it,
// together with the pass mode, so all entries of one pass can be correlated
// with its exported report and metrics.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Format: json or console
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "console"})
//	log = logger.WithRun(log, runID, "version")
//	log.Info("Fill pass complete")
package logger
