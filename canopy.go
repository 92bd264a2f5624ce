package canopy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/observability"
	"github.com/aretw0/canopy/pkg/ports"
	"github.com/aretw0/canopy/pkg/tree"
)

// Builder is the high-level entry point for the Canopy library.
// It wraps a document tree and its commit sink, and interns string "hold"
// handles to the opaque owner values the waiting registry works with, so
// hosts (CLI, HTTP, MCP) never juggle raw owners.
type Builder struct {
	tree     *tree.Tree
	pointer  *tree.Pointer
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	metrics  *observability.Metrics
	docID    string
	rootRole domain.Role
	holds    map[string]*holdToken
}

// holdToken is the owner value interned for a string handle. Owners match
// by reference, so every handle gets exactly one token for its lifetime.
type holdToken struct {
	handle string
}

// Option defines a functional option for configuring the Builder.
type Option func(*Builder)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Builder) {
		b.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the builder.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithDocumentID fixes the document ID instead of generating one.
func WithDocumentID(id string) Option {
	return func(b *Builder) {
		b.docID = id
	}
}

// WithRootRole sets the root element's role (default: document).
func WithRootRole(role domain.Role) Option {
	return func(b *Builder) {
		b.rootRole = role
	}
}

// WithMetrics feeds build events into the given Prometheus collectors,
// alongside any hooks registered via WithLifecycleHooks.
func WithMetrics(m *observability.Metrics) Option {
	return func(b *Builder) {
		b.metrics = m
	}
}

// New initializes a new Canopy Builder writing to the given sink.
func New(sink ports.CommitSink, opts ...Option) (*Builder, error) {
	b := &Builder{
		holds: make(map[string]*holdToken),
	}
	for _, opt := range opts {
		opt(b)
	}

	if sink == nil {
		return nil, fmt.Errorf("a commit sink is required")
	}

	// Ensure logger is initialized (so we don't pass nil to the tree,
	// which would overwrite its default).
	if b.logger == nil {
		b.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	hooks := b.hooks
	if b.metrics != nil {
		hooks = observability.Combine(hooks, b.metrics.Hooks())
	}

	treeOpts := []tree.Option{
		tree.WithLogger(b.logger),
		tree.WithLifecycleHooks(hooks),
	}
	if b.docID != "" {
		treeOpts = append(treeOpts, tree.WithDocumentID(b.docID))
	}
	if b.rootRole != "" {
		treeOpts = append(treeOpts, tree.WithRootRole(b.rootRole))
	}

	b.tree = tree.New(sink, treeOpts...)
	b.pointer = b.tree.NewPointer()
	return b, nil
}

// DocID returns the document's unique identifier.
func (b *Builder) DocID() string { return b.tree.DocID() }

// CursorID returns the ID of the element the cursor points at.
func (b *Builder) CursorID() domain.NodeID { return b.pointer.Current().ID() }

// CursorRole returns the role of the element the cursor points at.
func (b *Builder) CursorRole() domain.Role { return b.pointer.Role() }

// Tree returns the underlying document tree.
func (b *Builder) Tree() *tree.Tree { return b.tree }

// Pointer returns the builder's cursor.
func (b *Builder) Pointer() *tree.Pointer { return b.pointer }

// Open creates a child element under the cursor and descends into it.
func (b *Builder) Open(role domain.Role) error {
	return b.pointer.Open(role)
}

// Close ascends to the parent element.
func (b *Builder) Close() error {
	return b.pointer.Close()
}

// AddContent appends an inline content payload to the current element.
func (b *Builder) AddContent(data []byte) error {
	return b.pointer.AddContent(data)
}

// AddText appends a text payload to the current element.
func (b *Builder) AddText(text string) error {
	return b.pointer.AddContent([]byte(text))
}

// SetTitle sets the current element's title.
func (b *Builder) SetTitle(title string) error {
	return b.pointer.SetTitle(title)
}

// SetAttr sets one attribute on the current element.
func (b *Builder) SetAttr(key, value string) error {
	return b.pointer.SetAttr(key, value)
}

// Flush commits the current element and its subtree and moves the cursor
// to its parent. Elements held under a handle are skipped until released.
func (b *Builder) Flush(ctx context.Context) error {
	return b.countFailure(b.pointer.Flush(ctx))
}

// Hold parks the current element in the waiting state under handle. The
// element, and everything beneath it, stays uncommitted through any flush
// until the handle is released. Re-holding an already used handle moves it
// to the current element; holding an element that already has a handle
// displaces the old one.
func (b *Builder) Hold(handle string) error {
	if handle == "" {
		return fmt.Errorf("empty hold handle: %w", domain.ErrNilOwner)
	}
	token := b.holds[handle]
	if token == nil {
		token = &holdToken{handle: handle}
	}
	prev, err := b.tree.Waiting().Assign(b.pointer, token)
	if err != nil {
		return err
	}
	b.holds[handle] = token
	if pt, ok := prev.(*holdToken); ok && pt != token {
		delete(b.holds, pt.handle)
	}
	return nil
}

// Release dissolves the handle's hold and reports whether one existed. A
// released element beneath an already-committed parent is committed right
// away, along with its subtree.
func (b *Builder) Release(ctx context.Context, handle string) (bool, error) {
	token := b.holds[handle]
	if token == nil {
		return false, nil
	}
	delete(b.holds, handle)
	released, err := b.tree.Waiting().Release(ctx, token)
	return released, b.countFailure(err)
}

// ReleaseAll dissolves every hold.
func (b *Builder) ReleaseAll(ctx context.Context) error {
	err := b.tree.Waiting().ReleaseAll(ctx)
	b.pruneHolds()
	return b.countFailure(err)
}

// Holds returns the currently held handles, sorted.
func (b *Builder) Holds() []string {
	return slices.Sorted(maps.Keys(b.holds))
}

// MoveToHold repositions the cursor at the element held under handle,
// reporting false for unknown handles.
func (b *Builder) MoveToHold(handle string) bool {
	token := b.holds[handle]
	if token == nil {
		return false
	}
	return b.tree.Waiting().MoveTo(b.pointer, token)
}

// Finalize releases every hold and commits the whole remaining tree, root
// included. The builder accepts no further mutation afterwards.
func (b *Builder) Finalize(ctx context.Context) error {
	start := time.Now()
	err := b.tree.Finalize(ctx)
	b.pruneHolds()
	if err == nil && b.metrics != nil {
		b.metrics.ObserveFinalize(time.Since(start))
	}
	return b.countFailure(err)
}

// Snapshot returns a read-only view of every element in document order.
func (b *Builder) Snapshot() []domain.NodeInfo {
	return b.tree.Snapshot()
}

// Stats summarizes the build in progress.
func (b *Builder) Stats() domain.TreeStats {
	return b.tree.Stats()
}

// Finalized reports whether the document is complete.
func (b *Builder) Finalized() bool {
	return b.tree.Finalized()
}

// countFailure feeds the commit-failure counter. Usage errors never reach
// the sink: a flush of the root and a double finalize fail before any
// cascade starts, so everything else coming back from a cascade is a sink
// rejection.
func (b *Builder) countFailure(err error) error {
	if err != nil && b.metrics != nil &&
		!errors.Is(err, domain.ErrFlushRoot) && !errors.Is(err, domain.ErrFinalized) {
		b.metrics.CommitFailure()
	}
	return err
}

// pruneHolds drops handles whose tokens are no longer associated, keeping
// the handle table honest after bulk releases and partial failures.
func (b *Builder) pruneHolds() {
	for handle, token := range b.holds {
		held, err := b.tree.Waiting().IsAssociated(token)
		if err == nil && !held {
			delete(b.holds, handle)
		}
	}
}
