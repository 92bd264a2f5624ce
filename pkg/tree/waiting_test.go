package tree_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canopy/pkg/adapters/memory"
	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/tree"
)

type owner struct{ name string }

func newTestTree(t *testing.T) (*tree.Tree, *memory.Sink) {
	t.Helper()
	sink := memory.NewSink()
	return tree.New(sink, tree.WithDocumentID("doc-"+t.Name())), sink
}

func TestWaiting_AssignReturnsPreviousOwnerOfNode(t *testing.T) {
	tr, _ := newTestTree(t)
	p := tr.NewPointer()
	require.NoError(t, p.Open(domain.RoleSection))

	a := &owner{name: "a"}
	b := &owner{name: "b"}

	prev, err := tr.Waiting().Assign(p, a)
	require.NoError(t, err)
	assert.Nil(t, prev, "first assignment finds no previous owner")

	prev, err = tr.Waiting().Assign(p, b)
	require.NoError(t, err)
	assert.Same(t, a, prev, "second assignment returns the node's previous owner")

	// The displaced owner no longer holds anything.
	held, err := tr.Waiting().IsAssociated(a)
	require.NoError(t, err)
	assert.False(t, held)
	held, err = tr.Waiting().IsAssociated(b)
	require.NoError(t, err)
	assert.True(t, held)

	// Re-assigning the same pair is a no-op that reports the owner itself.
	prev, err = tr.Waiting().Assign(p, b)
	require.NoError(t, err)
	assert.Same(t, b, prev)
}

func TestWaiting_SupersessionMovesOwnerBetweenNodes(t *testing.T) {
	tr, _ := newTestTree(t)
	id := &owner{name: "id"}

	p := tr.NewPointer()
	require.NoError(t, p.Open(domain.RoleSection)) // node 2
	_, err := tr.Waiting().Assign(p, id)
	require.NoError(t, err)
	first := p.Current()

	p.MoveToRoot()
	require.NoError(t, p.Open(domain.RoleSection)) // node 3
	prev, err := tr.Waiting().Assign(p, id)
	require.NoError(t, err)
	assert.Nil(t, prev, "the new node had no owner of its own")

	assert.Equal(t, 1, tr.Waiting().Count(), "one association after supersession")

	probe := tr.NewPointer()
	require.True(t, tr.Waiting().MoveTo(probe, id))
	assert.Same(t, p.Current(), probe.Current(), "owner follows to the new node")
	assert.NotSame(t, first, probe.Current())

	// The first node silently lost its waiting status.
	probe.MoveToRoot()
	require.NoError(t, probe.MoveToChild(0))
	assert.Same(t, first, probe.Current())
	assert.Nil(t, tr.Waiting().OwnerOf(probe))
	assert.False(t, probe.Current().Committed(), "losing waiting status commits nothing")
}

func TestWaiting_BijectionUnderChurn(t *testing.T) {
	tr, _ := newTestTree(t)
	w := tr.Waiting()
	ctx := context.Background()

	ids := []*owner{{name: "x"}, {name: "y"}, {name: "z"}}
	p := tr.NewPointer()
	for range 3 {
		require.NoError(t, p.Open(domain.RoleSection))
		p.MoveToRoot()
	}

	// x -> node2, y -> node3, then x -> node3 (double supersession), z -> node2.
	require.NoError(t, p.MoveToChild(0))
	_, err := w.Assign(p, ids[0])
	require.NoError(t, err)
	p.MoveToRoot()
	require.NoError(t, p.MoveToChild(1))
	_, err = w.Assign(p, ids[1])
	require.NoError(t, err)
	prev, err := w.Assign(p, ids[0])
	require.NoError(t, err)
	assert.Same(t, ids[1], prev)
	p.MoveToRoot()
	require.NoError(t, p.MoveToChild(0))
	_, err = w.Assign(p, ids[2])
	require.NoError(t, err)

	assert.Equal(t, 2, w.Count())
	for i, want := range []bool{true, false, true} {
		held, err := w.IsAssociated(ids[i])
		require.NoError(t, err)
		assert.Equal(t, want, held, "owner %d", i)
	}

	// Each held owner resolves to a distinct node whose OwnerOf agrees.
	seen := make(map[*tree.Node]bool)
	for _, id := range []*owner{ids[0], ids[2]} {
		probe := tr.NewPointer()
		require.True(t, w.MoveTo(probe, id))
		assert.False(t, seen[probe.Current()], "two owners may not share a node")
		seen[probe.Current()] = true
		assert.Same(t, id, w.OwnerOf(probe))
	}
	_, err = w.Release(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 1, w.Count())
}

func TestWaiting_InvalidOwners(t *testing.T) {
	tr, _ := newTestTree(t)
	w := tr.Waiting()
	p := tr.NewPointer()
	require.NoError(t, p.Open(domain.RoleSection))

	_, err := w.Assign(p, nil)
	assert.ErrorIs(t, err, domain.ErrNilOwner)

	_, err = w.Assign(p, []int{1, 2})
	assert.ErrorIs(t, err, domain.ErrOwnerNotComparable)

	_, err = w.IsAssociated(nil)
	assert.ErrorIs(t, err, domain.ErrNilOwner)

	_, err = w.IsAssociated(map[string]int{})
	assert.ErrorIs(t, err, domain.ErrOwnerNotComparable)

	// The soft operations treat the same inputs as "nothing to do".
	assert.False(t, w.MoveTo(p, nil))
	assert.False(t, w.MoveTo(p, []int{1}))

	ctx := context.Background()
	ok, err := w.Release(ctx, nil)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = w.Release(ctx, []string{"x"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWaiting_AssignOnCommittedNode(t *testing.T) {
	tr, _ := newTestTree(t)
	ctx := context.Background()
	p := tr.NewPointer()
	require.NoError(t, p.Open(domain.RoleSection))
	require.NoError(t, p.Flush(ctx))

	require.NoError(t, p.MoveToChild(0))
	_, err := tr.Waiting().Assign(p, &owner{name: "late"})
	assert.ErrorIs(t, err, domain.ErrNodeCommitted)
}

func TestWaiting_MoveToUnassociatedLeavesPointer(t *testing.T) {
	tr, _ := newTestTree(t)
	p := tr.NewPointer()
	require.NoError(t, p.Open(domain.RoleSection))
	at := p.Current()

	assert.False(t, tr.Waiting().MoveTo(p, &owner{name: "ghost"}))
	assert.Same(t, at, p.Current(), "failed move leaves the pointer untouched")
}

func TestWaiting_ReleaseIsIdempotent(t *testing.T) {
	tr, _ := newTestTree(t)
	ctx := context.Background()
	id := &owner{name: "once"}

	p := tr.NewPointer()
	require.NoError(t, p.Open(domain.RoleSection))
	_, err := tr.Waiting().Assign(p, id)
	require.NoError(t, err)

	ok, err := tr.Waiting().Release(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tr.Waiting().Release(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok, "second release finds nothing")
	assert.Equal(t, 0, tr.Waiting().Count())
}

// The release cascade only fires beneath an already-committed parent.
func TestWaiting_ReleaseUnderUncommittedParent(t *testing.T) {
	tr, sink := newTestTree(t)
	ctx := context.Background()
	id := &owner{name: "held"}

	p := tr.NewPointer()
	require.NoError(t, p.Open(domain.RoleSection))   // A, stays uncommitted
	require.NoError(t, p.Open(domain.RoleSection))   // B, waiting
	_, err := tr.Waiting().Assign(p, id)
	require.NoError(t, err)
	require.NoError(t, p.Open(domain.RoleParagraph)) // C
	b := p.Current().Parent()

	ok, err := tr.Waiting().Release(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.False(t, b.Committed(), "B stays uncommitted under uncommitted A")
	assert.False(t, p.Current().Committed(), "C stays uncommitted")
	records, err := sink.Committed(ctx, tr.DocID())
	require.NoError(t, err)
	assert.Empty(t, records, "nothing reached the sink")
}

// R (committed) -> N (waiting, owner obj) -> L. Releasing obj must commit
// L first, then N, because N now sits beneath a committed parent.
func TestWaiting_ReleaseUnderCommittedParentCascades(t *testing.T) {
	tr, sink := newTestTree(t)
	ctx := context.Background()
	obj := &owner{name: "obj"}

	p := tr.NewPointer()
	require.NoError(t, p.Open(domain.RoleSection)) // R
	r := p.Current()
	require.NoError(t, p.Open(domain.RoleSection)) // N
	n := p.Current()
	_, err := tr.Waiting().Assign(p, obj)
	require.NoError(t, err)
	require.NoError(t, p.Open(domain.RoleParagraph)) // L
	l := p.Current()

	p.MoveToRoot()
	require.NoError(t, p.MoveToChild(0))
	require.NoError(t, p.Flush(ctx))

	require.True(t, r.Committed(), "R commits, its waiting kid does not hold it back")
	assert.False(t, n.Committed())
	assert.False(t, l.Committed())

	ok, err := tr.Waiting().Release(ctx, obj)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, n.Committed())
	assert.True(t, l.Committed())

	records, err := sink.Committed(ctx, tr.DocID())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, r.ID(), records[0].NodeID)
	assert.Equal(t, l.ID(), records[1].NodeID, "L commits before N")
	assert.Equal(t, n.ID(), records[2].NodeID)

	held, err := tr.Waiting().IsAssociated(obj)
	require.NoError(t, err)
	assert.False(t, held)
}

func TestWaiting_ReleaseAll(t *testing.T) {
	tr, sink := newTestTree(t)
	ctx := context.Background()
	w := tr.Waiting()

	// A (flushed) holds waiting kid B; D (never flushed) holds waiting kid E.
	p := tr.NewPointer()
	require.NoError(t, p.Open(domain.RoleSection)) // A
	a := p.Current()
	require.NoError(t, p.Open(domain.RoleSection)) // B
	b := p.Current()
	idB := &owner{name: "b"}
	_, err := w.Assign(p, idB)
	require.NoError(t, err)

	p.MoveToRoot()
	require.NoError(t, p.Open(domain.RoleSection)) // D
	d := p.Current()
	require.NoError(t, p.Open(domain.RoleSection)) // E
	e := p.Current()
	idE := &owner{name: "e"}
	_, err = w.Assign(p, idE)
	require.NoError(t, err)

	p.MoveToRoot()
	require.NoError(t, p.MoveToChild(0))
	require.NoError(t, p.Flush(ctx)) // commits A, skips B

	require.NoError(t, w.ReleaseAll(ctx))

	assert.Equal(t, 0, w.Count())
	for _, id := range []*owner{idB, idE} {
		held, err := w.IsAssociated(id)
		require.NoError(t, err)
		assert.False(t, held)
	}

	assert.True(t, a.Committed())
	assert.True(t, b.Committed(), "B was released under committed A")
	assert.False(t, d.Committed(), "D was never flushed")
	assert.False(t, e.Committed(), "E released under uncommitted D stays put")

	records, err := sink.Committed(ctx, tr.DocID())
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestWaiting_Hooks(t *testing.T) {
	var assigns, releases []domain.NodeID
	var superseded []bool
	hooks := domain.LifecycleHooks{
		OnWaitingAssign: func(_ context.Context, e *domain.WaitingEvent) {
			assigns = append(assigns, e.NodeID)
			superseded = append(superseded, e.Superseded)
		},
		OnWaitingRelease: func(_ context.Context, e *domain.WaitingEvent) {
			releases = append(releases, e.NodeID)
		},
	}
	tr := tree.New(memory.NewSink(), tree.WithLifecycleHooks(hooks))
	ctx := context.Background()

	p := tr.NewPointer()
	if err := p.Open(domain.RoleSection); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	id := &owner{name: "hooked"}
	if _, err := tr.Waiting().Assign(p, id); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if _, err := tr.Waiting().Assign(p, &owner{name: "usurper"}); err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	// Owners match by reference, not by field equality: a fresh value with
	// the same fields releases nothing.
	ok, err := tr.Waiting().Release(ctx, &owner{name: "usurper"})
	if err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if ok || tr.Waiting().Count() != 1 {
		t.Fatalf("foreign release must not match, ok=%v count=%d", ok, tr.Waiting().Count())
	}

	if err := tr.Waiting().ReleaseAll(ctx); err != nil {
		t.Fatalf("ReleaseAll failed: %v", err)
	}

	if len(assigns) != 2 {
		t.Errorf("expected 2 assign events, got %v", assigns)
	}
	if len(superseded) != 2 || superseded[0] || !superseded[1] {
		t.Errorf("expected supersession only on the second assign, got %v", superseded)
	}
	if len(releases) != 1 {
		t.Errorf("expected 1 release event, got %v", releases)
	}
}
