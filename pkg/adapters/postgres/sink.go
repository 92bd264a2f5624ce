// Package postgres provides a commit log backed by PostgreSQL, for builds
// whose records feed downstream document assembly.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/aretw0/canopy/pkg/domain"
)

// Schema creates the commit log table. Deployments run it once at
// provisioning time; the sink never creates or alters tables on its own.
const Schema = `
CREATE TABLE IF NOT EXISTS canopy_commits (
	doc_id       TEXT        NOT NULL,
	seq          BIGINT      NOT NULL,
	node_id      BIGINT      NOT NULL,
	parent_id    BIGINT      NOT NULL DEFAULT 0,
	role         TEXT        NOT NULL,
	title        TEXT        NOT NULL DEFAULT '',
	attrs        JSONB,
	kids         JSONB,
	committed_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (doc_id, node_id)
)`

// Config holds database configuration.
type Config struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns pool settings suitable for one builder process.
func DefaultConfig(url string) Config {
	return Config{
		URL:             url,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// Connect establishes a database connection with the given configuration.
func Connect(cfg Config) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// Sink implements ports.CommitLog on a PostgreSQL connection.
type Sink struct {
	db *sql.DB
}

// NewSink wraps an open connection. The caller keeps ownership of db
// unless it lets Close do the closing.
func NewSink(db *sql.DB) *Sink {
	return &Sink{db: db}
}

const insertQuery = `
INSERT INTO canopy_commits (doc_id, seq, node_id, parent_id, role, title, attrs, kids, committed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Commit inserts one record. The (doc_id, node_id) primary key makes a
// duplicate commit a hard error rather than a silent overwrite.
func (s *Sink) Commit(ctx context.Context, rec *domain.CommitRecord) error {
	attrs, err := marshalNullable(rec.Attrs, len(rec.Attrs) == 0)
	if err != nil {
		return fmt.Errorf("failed to marshal attrs: %w", err)
	}
	kids, err := marshalNullable(rec.Kids, len(rec.Kids) == 0)
	if err != nil {
		return fmt.Errorf("failed to marshal kids: %w", err)
	}

	_, err = s.db.ExecContext(ctx, insertQuery,
		rec.DocID,
		rec.Seq,
		int64(rec.NodeID),
		int64(rec.ParentID),
		string(rec.Role),
		rec.Title,
		attrs,
		kids,
		rec.CommittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert commit record: %w", err)
	}
	return nil
}

const selectQuery = `
SELECT doc_id, seq, node_id, parent_id, role, title, attrs, kids, committed_at
FROM canopy_commits
WHERE doc_id = $1
ORDER BY seq`

// Committed returns the document's records in Seq order.
func (s *Sink) Committed(ctx context.Context, docID string) ([]domain.CommitRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectQuery, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query commit records: %w", err)
	}
	defer rows.Close()

	var records []domain.CommitRecord
	for rows.Next() {
		var (
			rec         domain.CommitRecord
			nodeID      int64
			parentID    int64
			role        string
			attrs, kids []byte
		)
		if err := rows.Scan(&rec.DocID, &rec.Seq, &nodeID, &parentID, &role, &rec.Title, &attrs, &kids, &rec.CommittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commit record: %w", err)
		}
		rec.NodeID = domain.NodeID(nodeID)
		rec.ParentID = domain.NodeID(parentID)
		rec.Role = domain.Role(role)
		if len(attrs) > 0 {
			if err := json.Unmarshal(attrs, &rec.Attrs); err != nil {
				return nil, fmt.Errorf("failed to unmarshal attrs: %w", err)
			}
		}
		if len(kids) > 0 {
			if err := json.Unmarshal(kids, &rec.Kids); err != nil {
				return nil, fmt.Errorf("failed to unmarshal kids: %w", err)
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate commit records: %w", err)
	}
	return records, nil
}

// Close closes the underlying connection.
func (s *Sink) Close() error {
	return s.db.Close()
}

func marshalNullable(v any, empty bool) ([]byte, error) {
	if empty {
		return nil, nil
	}
	return json.Marshal(v)
}
