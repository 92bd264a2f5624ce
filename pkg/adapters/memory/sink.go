// Package memory provides an in-memory commit log, the default sink for
// tests and for builds that only need the live tree.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/canopy/pkg/domain"
)

// Sink implements ports.CommitLog in memory.
// Safe for concurrent use.
type Sink struct {
	mu   sync.RWMutex
	docs map[string][]domain.CommitRecord
}

// NewSink creates a new in-memory sink.
func NewSink() *Sink {
	return &Sink{
		docs: make(map[string][]domain.CommitRecord),
	}
}

// Commit stores a copy of the record so the caller cannot mutate the log
// through retained references.
func (s *Sink) Commit(ctx context.Context, rec *domain.CommitRecord) error {
	copied := *rec
	if rec.Attrs != nil {
		copied.Attrs = make(map[string]string, len(rec.Attrs))
		for k, v := range rec.Attrs {
			copied.Attrs[k] = v
		}
	}
	if rec.Kids != nil {
		copied.Kids = make([]domain.KidRef, len(rec.Kids))
		copy(copied.Kids, rec.Kids)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[rec.DocID] = append(s.docs[rec.DocID], copied)
	return nil
}

// Committed returns the document's records in Seq order.
func (s *Sink) Committed(ctx context.Context, docID string) ([]domain.CommitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := slices.Clone(s.docs[docID])
	slices.SortStableFunc(records, func(a, b domain.CommitRecord) int {
		return int(a.Seq - b.Seq)
	})
	return records, nil
}
