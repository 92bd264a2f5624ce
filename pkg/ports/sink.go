package ports

import (
	"context"

	"github.com/aretw0/canopy/pkg/domain"
)

// CommitSink receives the record of every element the tree commits.
// This allows for durable builds, enabling a document to be reconstructed
// from its commit log after the process exits.
type CommitSink interface {
	// Commit persists one record. The tree calls it exactly once per node,
	// in post-order, except that a kid held back in a waiting state commits
	// later than its parent, once released. An error leaves the node
	// uncommitted; the tree does not retry.
	Commit(ctx context.Context, rec *domain.CommitRecord) error
}

// CommitLog extends CommitSink with read access for sinks that store what
// they receive. Fire-and-forget sinks (e.g. a message producer) implement
// CommitSink only.
type CommitLog interface {
	CommitSink

	// Committed returns all records written for the given document, in
	// commit (Seq) order.
	Committed(ctx context.Context, docID string) ([]domain.CommitRecord, error)
}
