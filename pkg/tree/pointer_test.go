package tree_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/domain"
)

func TestPointer_OpenCloseNavigation(t *testing.T) {
	tr, _ := newTestTree(t)
	p := tr.NewPointer()
	assert.Same(t, tr.Root(), p.Current())
	assert.Equal(t, domain.RoleDocument, p.Role())

	require.NoError(t, p.Open(domain.RoleSection))
	assert.Equal(t, domain.RoleSection, p.Role())
	require.NoError(t, p.Open(domain.RoleParagraph))
	assert.Equal(t, domain.NodeID(3), p.Current().ID())

	require.NoError(t, p.Close())
	assert.Equal(t, domain.RoleSection, p.Role())
	require.NoError(t, p.Close())
	assert.Same(t, tr.Root(), p.Current())
	assert.ErrorIs(t, p.Close(), domain.ErrAtRoot)

	require.NoError(t, p.MoveToChild(0))
	require.NoError(t, p.MoveToChild(0))
	assert.Equal(t, domain.RoleParagraph, p.Role())
	p.MoveToRoot()
	assert.Same(t, tr.Root(), p.Current())

	assert.ErrorIs(t, p.MoveToChild(5), domain.ErrNoSuchChild)
	assert.ErrorIs(t, p.MoveToChild(-1), domain.ErrNoSuchChild)
}

func TestPointer_ContentDoesNotCountAsChild(t *testing.T) {
	tr, _ := newTestTree(t)
	p := tr.NewPointer()
	require.NoError(t, p.Open(domain.RoleParagraph))
	require.NoError(t, p.AddContent([]byte("before")))
	require.NoError(t, p.Open(domain.RoleSpan))
	span := p.Current()
	require.NoError(t, p.Close())
	require.NoError(t, p.AddContent([]byte("after")))

	// Index 0 is the span: content payloads are skipped.
	require.NoError(t, p.MoveToChild(0))
	assert.Same(t, span, p.Current())
	require.NoError(t, p.MoveToParent())
	assert.ErrorIs(t, p.MoveToChild(1), domain.ErrNoSuchChild)

	assert.Len(t, p.Current().Kids(), 3)
	assert.Len(t, p.Current().KidNodes(), 1)
}

func TestPointer_MutationGuards(t *testing.T) {
	tr, _ := newTestTree(t)
	ctx := context.Background()
	p := tr.NewPointer()
	require.NoError(t, p.Open(domain.RoleSection))
	require.NoError(t, p.SetTitle("Intro"))
	require.NoError(t, p.SetAttr("lang", "en"))
	require.NoError(t, p.Flush(ctx))

	require.NoError(t, p.MoveToChild(0))
	assert.ErrorIs(t, p.Open(domain.RoleParagraph), domain.ErrNodeCommitted)
	assert.ErrorIs(t, p.AddContent([]byte("x")), domain.ErrNodeCommitted)
	assert.ErrorIs(t, p.SetTitle("Late"), domain.ErrNodeCommitted)
	assert.ErrorIs(t, p.SetAttr("k", "v"), domain.ErrNodeCommitted)

	// Navigation still works from a committed element.
	p.MoveToRoot()
	assert.Same(t, tr.Root(), p.Current())
}

func TestPointer_FlushRepositionsToParent(t *testing.T) {
	tr, _ := newTestTree(t)
	ctx := context.Background()
	p := tr.NewPointer()
	require.NoError(t, p.Open(domain.RoleSection))
	section := p.Current()
	require.NoError(t, p.Open(domain.RoleParagraph))

	require.NoError(t, p.Flush(ctx))
	assert.Same(t, section, p.Current(), "flush leaves the pointer on the parent")
	assert.False(t, section.Committed())

	require.NoError(t, p.Flush(ctx))
	assert.Same(t, tr.Root(), p.Current())
	assert.True(t, section.Committed())
}

func TestPointer_FlushRootRefused(t *testing.T) {
	tr, sink := newTestTree(t)
	ctx := context.Background()
	p := tr.NewPointer()

	assert.ErrorIs(t, p.Flush(ctx), domain.ErrFlushRoot)

	records, err := sink.Committed(ctx, tr.DocID())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.False(t, tr.Finalized())
}

func TestPointer_SeveralPointersShareOneTree(t *testing.T) {
	tr, _ := newTestTree(t)
	build := tr.NewPointer()
	require.NoError(t, build.Open(domain.RoleSection))

	probe := tr.NewPointer()
	require.NoError(t, probe.MoveToChild(0))
	assert.Same(t, build.Current(), probe.Current())

	// A flush through one pointer is visible to the other.
	require.NoError(t, build.Flush(context.Background()))
	assert.True(t, probe.Current().Committed())
}
