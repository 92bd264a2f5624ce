package middleware_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
)

func TestPIIMiddleware_MasksMatchingAttrs(t *testing.T) {
	underlying := memory.NewSink()
	mw := middleware.NewPIIMiddleware([]string{"(?i)email", "token"})
	masked := mw(underlying)

	ctx := context.Background()
	original := &domain.CommitRecord{
		DocID:  "doc-pii",
		Seq:    1,
		NodeID: 2,
		Role:   domain.RoleParagraph,
		Attrs: map[string]string{
			"author_Email": "ana@example.com",
			"api_token":    "s3cr3t",
			"lang":         "pt-BR",
		},
		CommittedAt: time.Now().UTC(),
	}

	if err := masked.Commit(ctx, original); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	records, err := masked.Committed(ctx, "doc-pii")
	if err != nil {
		t.Fatalf("Committed failed: %v", err)
	}
	attrs := records[0].Attrs
	if attrs["author_Email"] != "***" {
		t.Errorf("Expected author_Email masked, got %q", attrs["author_Email"])
	}
	if attrs["api_token"] != "***" {
		t.Errorf("Expected api_token masked, got %q", attrs["api_token"])
	}
	if attrs["lang"] != "pt-BR" {
		t.Errorf("Expected lang untouched, got %q", attrs["lang"])
	}

	// The caller's record keeps its real values.
	if original.Attrs["author_Email"] != "ana@example.com" {
		t.Fatal("Commit must not mutate the caller's record")
	}
}

func TestChain_OrdersMiddlewares(t *testing.T) {
	underlying := memory.NewSink()

	// PII masking must run before encryption, so the sealed payload
	// already has the masked values.
	key := make([]byte, 32)
	secured := middleware.Chain(underlying,
		middleware.NewPIIMiddleware([]string{"secret"}),
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key}),
	)

	ctx := context.Background()
	rec := &domain.CommitRecord{
		DocID:       "doc-chain",
		Seq:         1,
		NodeID:      1,
		Role:        domain.RoleDocument,
		Attrs:       map[string]string{"secret": "open sesame"},
		CommittedAt: time.Now().UTC(),
	}
	if err := secured.Commit(ctx, rec); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	records, err := secured.Committed(ctx, "doc-chain")
	if err != nil {
		t.Fatalf("Committed failed: %v", err)
	}
	if records[0].Attrs["secret"] != "***" {
		t.Errorf("Expected masked value inside the envelope, got %q", records[0].Attrs["secret"])
	}
}
