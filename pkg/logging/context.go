package logging

import (
	"log/slog"

	"coredb/pkg/primitives"
)

// WithTx creates a logger with transaction context.
//
// Example:
//
//	log := logging.WithTx(txID)
//	log.Info("snapshot acquired", "commit_id", snapshotCID)
func WithTx(txID primitives.TransactionID) *slog.Logger {
	return GetLogger().With("tx_id", txID)
}

// WithOperator creates a logger with operator context, used by execution
// operators (§4.4) to trace individual pipeline steps.
//
// Example:
//
//	log := logging.WithOperator("NestedLoopJoin")
//	log.Debug("probing chunk", "left_chunk", i, "right_chunk", j)
func WithOperator(name string) *slog.Logger {
	return GetLogger().With("operator", name)
}

// WithComponent creates a logger with component/subsystem context, e.g.
// "segment", "joingraph", "histogram", "cache".
//
// Example:
//
//	log := logging.WithComponent("dpccp")
//	log.Info("component initialized")
func WithComponent(component string) *slog.Logger {
	return GetLogger().With("component", component)
}

// WithQuery creates a logger with query-plan context, keyed by the plan's
// structural fingerprint (§4.10) so log lines for one optimization pass can
// be correlated across operators and cache lookups.
//
// Example:
//
//	log := logging.WithQuery(fingerprint)
//	log.Debug("cache hit", "cardinality", card)
func WithQuery(fingerprint string) *slog.Logger {
	return GetLogger().With("fingerprint", fingerprint)
}

// WithError creates a logger with error context.
//
// Example:
//
//	log := logging.WithError(err)
//	log.Error("join failed", "operation", "NestedLoopJoin")
func WithError(err error) *slog.Logger {
	return GetLogger().With("error", err.Error())
}
