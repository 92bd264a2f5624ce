// Package file provides a commit log on the local filesystem, for durable
// builds that need no database. Each document is one NDJSON file.
package file

import (
	"bufio"
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/aretw0/canopy/pkg/domain"
)

// Sink implements ports.CommitLog using the local filesystem.
// Records are appended to one file per document in a configured directory.
type Sink struct {
	BasePath string
}

// NewSink creates a new file sink with the given base path.
// If basePath is empty, it defaults to ".canopy/commits".
func NewSink(basePath string) *Sink {
	if basePath == "" {
		basePath = filepath.Join(".canopy", "commits")
	}
	return &Sink{BasePath: basePath}
}

// Commit appends the record to the document's file as one JSON line.
func (f *Sink) Commit(ctx context.Context, rec *domain.CommitRecord) error {
	if rec.DocID == "" {
		return fmt.Errorf("docID cannot be empty")
	}

	// Ensure directory exists
	if err := os.MkdirAll(f.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure commit directory: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	fh, err := os.OpenFile(f.docPath(rec.DocID), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open commit file: %w", err)
	}
	defer fh.Close()

	if _, err := fh.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write commit file: %w", err)
	}
	return nil
}

// Committed reads the document's records back in Seq order.
// An unknown document is empty, not an error.
func (f *Sink) Committed(ctx context.Context, docID string) ([]domain.CommitRecord, error) {
	if docID == "" {
		return nil, fmt.Errorf("docID cannot be empty")
	}

	data, err := os.ReadFile(f.docPath(docID))
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.CommitRecord{}, nil
		}
		return nil, fmt.Errorf("failed to read commit file: %w", err)
	}

	var records []domain.CommitRecord
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec domain.CommitRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record line: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan commit file: %w", err)
	}

	slices.SortStableFunc(records, func(a, b domain.CommitRecord) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	return records, nil
}

// Delete removes a document's commit file.
func (f *Sink) Delete(ctx context.Context, docID string) error {
	if docID == "" {
		return fmt.Errorf("docID cannot be empty")
	}

	err := os.Remove(f.docPath(docID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete commit file: %w", err)
	}
	return nil
}

// List returns the IDs of all documents with a commit file.
func (f *Sink) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list commit files: %w", err)
	}

	var docs []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".ndjson" {
			// Remove .ndjson extension
			name := entry.Name()
			docs = append(docs, name[:len(name)-len(".ndjson")])
		}
	}
	return docs, nil
}

func (f *Sink) docPath(docID string) string {
	return filepath.Join(f.BasePath, docID+".ndjson")
}
