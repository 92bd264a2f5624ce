package tree

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// Tree builds one structured document against a CommitSink.
type Tree struct {
	docID    string
	rootRole domain.Role
	logger   *slog.Logger
	hooks    domain.LifecycleHooks

	sink    ports.CommitSink
	root    *Node
	waiting *Waiting

	nextID    domain.NodeID
	seq       int64
	nodes     int
	committed int
}

// Option defines a functional option for configuring a Tree.
type Option func(*Tree)

// WithLogger sets a custom structured logger for the tree.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Tree) { t.logger = logger }
}

// WithDocumentID fixes the document ID instead of generating one.
func WithDocumentID(id string) Option {
	return func(t *Tree) { t.docID = id }
}

// WithRootRole sets the root element's role (default: RoleDocument).
func WithRootRole(role domain.Role) Option {
	return func(t *Tree) { t.rootRole = role }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(t *Tree) { t.hooks = hooks }
}

// New creates an empty document tree that writes committed elements to sink.
func New(sink ports.CommitSink, opts ...Option) *Tree {
	t := &Tree{
		sink:     sink,
		rootRole: domain.RoleDocument,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.docID == "" {
		t.docID = uuid.NewString()
	}
	if t.logger == nil {
		t.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	t.logger = t.logger.With("doc", t.docID)

	t.root = &Node{id: 1, role: t.rootRole}
	t.nextID = 2
	t.nodes = 1
	t.waiting = &Waiting{
		tree:        t,
		ownerToNode: make(map[any]*Node),
		nodeToOwner: make(map[*Node]any),
	}
	return t
}

// DocID returns the document's unique identifier.
func (t *Tree) DocID() string { return t.docID }

// Root returns the root element.
func (t *Tree) Root() *Node { return t.root }

// Waiting returns the registry of owner/element associations.
func (t *Tree) Waiting() *Waiting { return t.waiting }

// NewPointer returns a cursor positioned at the root.
func (t *Tree) NewPointer() *Pointer {
	return &Pointer{tree: t, current: t.root}
}

func (t *Tree) newNode(parent *Node, role domain.Role) *Node {
	n := &Node{id: t.nextID, role: role, parent: parent}
	t.nextID++
	t.nodes++
	parent.kids = append(parent.kids, n)
	return n
}

// commit writes one element's record to the sink and marks it committed.
// Already-committed elements are skipped. The committed flag is set only
// after the sink accepted the record, so a failed write leaves the element
// uncommitted and its sequence number unconsumed.
func (t *Tree) commit(ctx context.Context, n *Node) error {
	if n.committed {
		return nil
	}
	rec := t.record(n)
	if err := t.sink.Commit(ctx, rec); err != nil {
		return fmt.Errorf("commit %s node %d: %w", n.role, n.id, err)
	}
	n.committed = true
	t.seq = rec.Seq
	t.committed++

	t.logger.Debug("node committed", "node", int64(n.id), "role", n.role, "seq", rec.Seq)
	if h := t.hooks.OnNodeCommit; h != nil {
		h(ctx, &domain.CommitEvent{
			EventBase: t.eventBase(domain.EventNodeCommit),
			NodeID:    n.id,
			Role:      n.role,
			Seq:       rec.Seq,
		})
	}
	return nil
}

func (t *Tree) record(n *Node) *domain.CommitRecord {
	rec := &domain.CommitRecord{
		DocID:       t.docID,
		Seq:         t.seq + 1,
		NodeID:      n.id,
		Role:        n.role,
		Title:       n.title,
		Attrs:       n.Attrs(),
		CommittedAt: time.Now().UTC(),
	}
	if n.parent != nil {
		rec.ParentID = n.parent.id
	}
	for _, it := range n.kids {
		switch kid := it.(type) {
		case *Node:
			rec.Kids = append(rec.Kids, domain.KidRef{Kind: domain.KidNode, NodeID: kid.id})
		case ContentRef:
			rec.Kids = append(rec.Kids, domain.KidRef{Kind: domain.KidContent, Content: kid.Data})
		}
	}
	return rec
}

func (t *Tree) eventBase(typ domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now().UTC(),
		Type:      typ,
		DocID:     t.docID,
	}
}

// Snapshot returns a read-only view of every element, parents before kids,
// siblings in document order.
func (t *Tree) Snapshot() []domain.NodeInfo {
	infos := make([]domain.NodeInfo, 0, t.nodes)
	type frame struct {
		n     *Node
		depth int
	}
	stack := []frame{{n: t.root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		infos = append(infos, t.info(f.n, f.depth))
		for i := len(f.n.kids) - 1; i >= 0; i-- {
			if kid, ok := f.n.kids[i].(*Node); ok {
				stack = append(stack, frame{n: kid, depth: f.depth + 1})
			}
		}
	}
	return infos
}

func (t *Tree) info(n *Node, depth int) domain.NodeInfo {
	info := domain.NodeInfo{
		ID:        n.id,
		Role:      n.role,
		Title:     n.title,
		Depth:     depth,
		Committed: n.committed,
		Waiting:   t.waiting.isWaiting(n),
	}
	if n.parent != nil {
		info.ParentID = n.parent.id
	}
	for _, it := range n.kids {
		if _, ok := it.(*Node); ok {
			info.Kids++
		} else {
			info.Content++
		}
	}
	return info
}

// Stats summarizes the build in progress.
func (t *Tree) Stats() domain.TreeStats {
	return domain.TreeStats{
		DocID:     t.docID,
		Nodes:     t.nodes,
		Committed: t.committed,
		Waiting:   t.waiting.Count(),
		Finalized: t.root.committed,
	}
}

// Finalized reports whether the root element has been committed.
func (t *Tree) Finalized() bool { return t.root.committed }

// Finalize resolves every remaining association, then commits the whole
// remaining tree, root included. After Finalize the document is complete:
// no element is waiting, every element is committed, and no further
// mutation is possible.
func (t *Tree) Finalize(ctx context.Context) error {
	if t.root.committed {
		return domain.ErrFinalized
	}
	if err := t.waiting.ReleaseAll(ctx); err != nil {
		return err
	}
	if err := t.cascade(ctx, t.root); err != nil {
		return err
	}
	t.logger.Info("document finalized", "nodes", t.nodes, "seq", t.seq)
	return nil
}
