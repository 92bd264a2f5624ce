package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/canopy/pkg/adapters/redis"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

func newTestSink(t *testing.T, opts ...redis.Option) *redis.Sink {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return redis.NewFromClient(client, opts...)
}

func TestRedisSink_Contract(t *testing.T) {
	sink := newTestSink(t)
	ports.RunCommitSinkContract(t, sink)
}

func TestRedisSink_DocsIndex(t *testing.T) {
	sink := newTestSink(t, redis.WithPrefix("test:doc:"))
	ctx := context.Background()

	for _, docID := range []string{"doc-a", "doc-b"} {
		err := sink.Commit(ctx, &domain.CommitRecord{
			DocID:       docID,
			Seq:         1,
			NodeID:      1,
			Role:        domain.RoleDocument,
			CommittedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
	}

	docs, err := sink.Docs(ctx)
	if err != nil {
		t.Fatalf("Docs failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %v", docs)
	}
}
