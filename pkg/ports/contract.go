package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunCommitSinkContract runs a suite of tests to verify that a CommitLog
// implementation adheres to the defined interface contract.
func RunCommitSinkContract(t *testing.T, log CommitLog) {
	ctx := context.Background()
	docID := uuid.NewString()

	rec := func(seq int64, nodeID, parentID domain.NodeID, role domain.Role) *domain.CommitRecord {
		return &domain.CommitRecord{
			DocID:       docID,
			Seq:         seq,
			NodeID:      nodeID,
			ParentID:    parentID,
			Role:        role,
			CommittedAt: time.Now().UTC(),
		}
	}

	t.Run("Commit and Read Back", func(t *testing.T) {
		require.NoError(t, log.Commit(ctx, rec(1, 3, 2, domain.RoleParagraph)))
		require.NoError(t, log.Commit(ctx, rec(2, 2, 1, domain.RoleSection)))

		records, err := log.Committed(ctx, docID)
		require.NoError(t, err, "Committed should not return error")
		require.Len(t, records, 2)

		// Seq order, not insertion-id order.
		assert.Equal(t, int64(1), records[0].Seq)
		assert.Equal(t, domain.NodeID(3), records[0].NodeID)
		assert.Equal(t, int64(2), records[1].Seq)
		assert.Equal(t, domain.NodeID(2), records[1].NodeID)
		assert.Equal(t, domain.RoleSection, records[1].Role)
	})

	t.Run("Fields Preserved", func(t *testing.T) {
		r := rec(3, 4, 2, domain.RoleFigure)
		r.Title = "Architecture overview"
		r.Attrs = map[string]string{"lang": "en", "alt": "boxes and arrows"}
		r.Kids = []domain.KidRef{
			{Kind: domain.KidNode, NodeID: 5},
			{Kind: domain.KidContent, Content: []byte("figure body")},
		}
		require.NoError(t, log.Commit(ctx, r))

		records, err := log.Committed(ctx, docID)
		require.NoError(t, err)
		got := records[len(records)-1]
		assert.Equal(t, "Architecture overview", got.Title)
		assert.Equal(t, "en", got.Attrs["lang"])
		require.Len(t, got.Kids, 2)
		assert.Equal(t, domain.KidNode, got.Kids[0].Kind)
		assert.Equal(t, domain.NodeID(5), got.Kids[0].NodeID)
		assert.Equal(t, []byte("figure body"), got.Kids[1].Content)
	})

	t.Run("Unknown Document", func(t *testing.T) {
		records, err := log.Committed(ctx, uuid.NewString())
		require.NoError(t, err, "an unknown document is empty, not an error")
		assert.Empty(t, records)
	})

	t.Run("Document Isolation", func(t *testing.T) {
		other := uuid.NewString()
		require.NoError(t, log.Commit(ctx, &domain.CommitRecord{
			DocID: other, Seq: 1, NodeID: 1, Role: domain.RoleDocument, CommittedAt: time.Now().UTC(),
		}))

		records, err := log.Committed(ctx, other)
		require.NoError(t, err)
		require.Len(t, records, 1)

		records, err = log.Committed(ctx, docID)
		require.NoError(t, err)
		for _, r := range records {
			assert.Equal(t, docID, r.DocID)
		}
	})
}
