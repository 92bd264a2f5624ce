package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/persistence/middleware"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func sampleRecord() *domain.CommitRecord {
	return &domain.CommitRecord{
		DocID:    "doc-enc",
		Seq:      1,
		NodeID:   2,
		ParentID: 1,
		Role:     domain.RoleSection,
		Title:    "Quarterly Numbers",
		Attrs:    map[string]string{"owner": "finance"},
		Kids: []domain.KidRef{
			{Kind: domain.KidContent, Content: []byte("revenue up 4%")},
		},
		CommittedAt: time.Now().UTC(),
	}
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewSink()
	key := generateKey(t)
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	secured := mw(underlying)

	ctx := context.Background()
	original := sampleRecord()

	// 1. Commit
	if err := secured.Commit(ctx, original); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// 2. Verify the underlying log directly (should be sealed)
	stored, err := underlying.Committed(ctx, "doc-enc")
	if err != nil {
		t.Fatalf("Underlying read failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("Expected 1 stored record, got %d", len(stored))
	}
	if stored[0].Title != "" {
		t.Fatalf("Expected title to be hidden, found: %v", stored[0].Title)
	}
	if len(stored[0].Kids) != 0 {
		t.Fatalf("Expected kids to be hidden, found %d", len(stored[0].Kids))
	}
	if _, ok := stored[0].Attrs["__encrypted__"]; !ok {
		t.Fatal("Expected __encrypted__ attribute on the envelope")
	}
	if stored[0].NodeID != 2 || stored[0].Role != domain.RoleSection {
		t.Fatal("Structural fields must stay readable on the envelope")
	}

	// 3. Read via middleware (should be unsealed)
	records, err := secured.Committed(ctx, "doc-enc")
	if err != nil {
		t.Fatalf("Read via middleware failed: %v", err)
	}
	if records[0].Title != "Quarterly Numbers" {
		t.Errorf("Expected 'Quarterly Numbers', got %v", records[0].Title)
	}
	if records[0].Attrs["owner"] != "finance" {
		t.Errorf("Expected attrs restored, got %v", records[0].Attrs)
	}
	if string(records[0].Kids[0].Content) != "revenue up 4%" {
		t.Errorf("Expected content restored, got %q", records[0].Kids[0].Content)
	}

	// 4. Caller's record is untouched
	if original.Title != "Quarterly Numbers" || len(original.Kids) != 1 {
		t.Fatal("Commit must not mutate the caller's record")
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewSink()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	ctx := context.Background()

	// 1. Commit with the OLD key
	mwOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	if err := mwOld(underlying).Commit(ctx, sampleRecord()); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// 2. Read with NEW key active and OLD key as fallback
	mwNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	records, err := mwNew(underlying).Committed(ctx, "doc-enc")
	if err != nil {
		t.Fatalf("Read with fallback key failed: %v", err)
	}
	if records[0].Title != "Quarterly Numbers" {
		t.Errorf("Expected decrypted title, got %v", records[0].Title)
	}

	// 3. Without the fallback the read must fail
	mwLost := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})
	if _, err := mwLost(underlying).Committed(ctx, "doc-enc"); err == nil {
		t.Fatal("Expected decryption failure without the old key")
	}
}

func TestEncryptionMiddleware_RejectsPlainRecords(t *testing.T) {
	underlying := memory.NewSink()
	ctx := context.Background()

	// A plain record slipped into the log outside the middleware.
	if err := underlying.Commit(ctx, sampleRecord()); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if _, err := mw(underlying).Committed(ctx, "doc-enc"); err == nil {
		t.Fatal("Expected an error for a record without an envelope")
	}
}
