// Package logging provides a process-wide structured logger for the engine.
//
// The package wraps [log/slog] and exposes a single lazily-initialized
// logger instance, retrieved via GetLogger, so that subsystems obtain a
// logger through this package rather than constructing their own
// slog.Logger values.
//
// # Retrieving the logger
//
//	logger := logging.GetLogger()
//	logger.Info("engine started")
//
// GetLogger initializes a default INFO-level text logger writing to stdout
// on first call (via sync.Once), so packages that log during package init
// are safe regardless of call order.
//
// # Context helpers
//
// Several helpers return child loggers pre-populated with structured
// fields, reducing repetition in hot paths:
//
//	log := logging.WithTx(txID)             // adds tx_id field
//	log := logging.WithOperator("Join")     // adds operator field
//	log := logging.WithComponent("dpccp")   // adds component field
//	log := logging.WithQuery(fingerprint)   // adds fingerprint field
package logging
