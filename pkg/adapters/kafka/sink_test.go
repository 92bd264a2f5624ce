package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
)

func TestNewRecord(t *testing.T) {
	rec := &domain.CommitRecord{
		DocID:       "doc-7",
		Seq:         3,
		NodeID:      5,
		ParentID:    2,
		Role:        domain.RoleParagraph,
		Title:       "p",
		Kids:        []domain.KidRef{{Kind: domain.KidContent, Content: []byte("body")}},
		CommittedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	record, err := newRecord("canopy.commits", rec)
	if err != nil {
		t.Fatalf("newRecord failed: %v", err)
	}

	if record.Topic != "canopy.commits" {
		t.Errorf("unexpected topic: %s", record.Topic)
	}
	if string(record.Key) != "doc-7" {
		t.Errorf("the document ID must be the partition key, got %q", record.Key)
	}

	var decoded domain.CommitRecord
	if err := json.Unmarshal(record.Value, &decoded); err != nil {
		t.Fatalf("value is not valid JSON: %v", err)
	}
	if decoded.NodeID != 5 || decoded.Seq != 3 || decoded.Role != domain.RoleParagraph {
		t.Errorf("value lost fields: %+v", decoded)
	}
	if string(decoded.Kids[0].Content) != "body" {
		t.Errorf("kid payload lost: %+v", decoded.Kids)
	}

	headers := map[string]string{}
	for _, h := range record.Headers {
		headers[h.Key] = string(h.Value)
	}
	if headers["role"] != "paragraph" || headers["node_id"] != "5" {
		t.Errorf("unexpected headers: %v", headers)
	}
}
