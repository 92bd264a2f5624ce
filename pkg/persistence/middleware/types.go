// Package middleware provides composable wrappers for commit logs: record
// encryption at rest and PII masking, applied transparently between the
// tree and the storage backend.
package middleware

import "github.com/aretw0/canopy/pkg/ports"

// Middleware allows wrapping a CommitLog to add behavior.
type Middleware func(ports.CommitLog) ports.CommitLog

// Chain applies middlewares right to left, so the first one listed sees
// records first on the write path.
func Chain(log ports.CommitLog, mws ...Middleware) ports.CommitLog {
	for i := len(mws) - 1; i >= 0; i-- {
		log = mws[i](log)
	}
	return log
}
