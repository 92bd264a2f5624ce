package tree

import (
	"context"
	"reflect"

	"github.com/aretw0/canopy/pkg/domain"
)

// Waiting tracks which elements are intentionally left uncommitted, keyed
// by the external owner still working on them. The relation is a bijection:
// each waiting element has exactly one owner and each owner holds exactly
// one element. Assigning over either side supersedes the old association
// silently.
//
// Owners are opaque values compared by interface equality, so callers
// normally pass pointers. Non-comparable values (slices, maps, funcs) are
// rejected up front rather than allowed to panic as map keys.
type Waiting struct {
	tree        *Tree
	ownerToNode map[any]*Node
	nodeToOwner map[*Node]any
}

func comparableOwner(owner any) bool {
	return reflect.TypeOf(owner).Comparable()
}

// Assign associates owner with the pointer's current element, superseding
// any prior association on either side. It returns the owner previously
// holding that element, or nil if the element was not waiting.
//
// Assign mutates the association maps only; the tree itself is untouched,
// and no cascade runs for a superseded element.
func (w *Waiting) Assign(p *Pointer, owner any) (any, error) {
	if owner == nil {
		return nil, domain.ErrNilOwner
	}
	if !comparableOwner(owner) {
		return nil, domain.ErrOwnerNotComparable
	}
	n := p.current
	if n.committed {
		return nil, domain.ErrNodeCommitted
	}

	prevNode := w.ownerToNode[owner]
	prevOwner, hadOwner := w.nodeToOwner[n]
	w.ownerToNode[owner] = n
	w.nodeToOwner[n] = owner
	if hadOwner && prevOwner != owner {
		delete(w.ownerToNode, prevOwner)
	}
	if prevNode != nil && prevNode != n {
		delete(w.nodeToOwner, prevNode)
	}

	superseded := (hadOwner && prevOwner != owner) || (prevNode != nil && prevNode != n)
	w.tree.logger.Debug("waiting assigned",
		"node", int64(n.id), "role", n.role, "superseded", superseded)
	if h := w.tree.hooks.OnWaitingAssign; h != nil {
		h(context.Background(), &domain.WaitingEvent{
			EventBase:  w.tree.eventBase(domain.EventWaitingAssign),
			NodeID:     n.id,
			Role:       n.role,
			Superseded: superseded,
		})
	}

	if !hadOwner {
		return nil, nil
	}
	return prevOwner, nil
}

// IsAssociated reports whether owner currently holds a waiting element.
func (w *Waiting) IsAssociated(owner any) (bool, error) {
	if owner == nil {
		return false, domain.ErrNilOwner
	}
	if !comparableOwner(owner) {
		return false, domain.ErrOwnerNotComparable
	}
	_, ok := w.ownerToNode[owner]
	return ok, nil
}

// MoveTo repositions the pointer at the element held by owner. It returns
// false and leaves the pointer untouched when owner is nil, not comparable,
// or not associated; probing owners that are not waiting is a normal case,
// not an error.
func (w *Waiting) MoveTo(p *Pointer, owner any) bool {
	if owner == nil || !comparableOwner(owner) {
		return false
	}
	n, ok := w.ownerToNode[owner]
	if !ok {
		return false
	}
	p.current = n
	return true
}

// OwnerOf returns the owner holding the pointer's current element, or nil
// if the element is not waiting.
func (w *Waiting) OwnerOf(p *Pointer) any {
	return w.nodeToOwner[p.current]
}

// Count returns the number of live associations.
func (w *Waiting) Count() int { return len(w.ownerToNode) }

func (w *Waiting) isWaiting(n *Node) bool {
	_, ok := w.nodeToOwner[n]
	return ok
}

// Release dissolves owner's association and reports whether one existed;
// a nil, non-comparable, or unassociated owner is a no-op, not an error.
//
// If the released element sits under an already-committed parent it must
// not linger uncommitted there, so its subtree is committed on the spot. A
// sink failure during that commit is returned alongside true, since the
// association itself is already gone.
func (w *Waiting) Release(ctx context.Context, owner any) (bool, error) {
	if owner == nil || !comparableOwner(owner) {
		return false, nil
	}
	n, ok := w.ownerToNode[owner]
	if !ok {
		return false, nil
	}
	delete(w.ownerToNode, owner)
	return true, w.releaseAndFlush(ctx, n)
}

// ReleaseAll dissolves every association, committing newly released
// elements under committed parents exactly as Release does. Owners are
// snapshotted up front so cascades running mid-sweep cannot disturb the
// iteration. The first sink failure aborts the sweep, leaving the
// remaining associations in place.
func (w *Waiting) ReleaseAll(ctx context.Context) error {
	type pair struct {
		owner any
		n     *Node
	}
	held := make([]pair, 0, len(w.ownerToNode))
	for owner, n := range w.ownerToNode {
		held = append(held, pair{owner: owner, n: n})
	}
	for _, h := range held {
		delete(w.ownerToNode, h.owner)
		if err := w.releaseAndFlush(ctx, h.n); err != nil {
			return err
		}
	}
	clear(w.ownerToNode)
	clear(w.nodeToOwner)
	return nil
}

// releaseAndFlush is the removal cascade. The element's owner entry is
// dropped regardless; then, if its parent is already committed, the element
// is no longer protected by anything and its subtree is committed
// immediately. Under an uncommitted (or absent) parent the element just
// stays uncommitted for the normal flush path to pick up later.
func (w *Waiting) releaseAndFlush(ctx context.Context, n *Node) error {
	delete(w.nodeToOwner, n)
	w.released(ctx, n)
	if n.parent != nil && n.parent.committed {
		return w.tree.cascade(ctx, n)
	}
	return nil
}

// dissolve drops n's association on both sides, if it has one.
func (w *Waiting) dissolve(ctx context.Context, n *Node) {
	owner, ok := w.nodeToOwner[n]
	if !ok {
		return
	}
	delete(w.nodeToOwner, n)
	delete(w.ownerToNode, owner)
	w.released(ctx, n)
}

func (w *Waiting) released(ctx context.Context, n *Node) {
	w.tree.logger.Debug("waiting released", "node", int64(n.id), "role", n.role)
	if h := w.tree.hooks.OnWaitingRelease; h != nil {
		h(ctx, &domain.WaitingEvent{
			EventBase: w.tree.eventBase(domain.EventWaitingRelease),
			NodeID:    n.id,
			Role:      n.role,
		})
	}
}
