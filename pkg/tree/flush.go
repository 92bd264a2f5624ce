package tree

import "context"

// Flush commits n and its subtree, dissolving n's own association first if
// it has one. The parent is captured before any mutation and returned in
// both outcomes, so callers deciding commits up the tree can keep walking
// whether or not the whole subtree could be committed.
//
// Waiting descendants are not committed: the cascade stops at any element
// that still has an owner, leaving that element and everything beneath it
// untouched until its owner releases it. A sink failure stops the cascade
// at the failing element; elements committed before the failure stay
// committed, as commits are irrevocable and there is no rollback.
func (t *Tree) Flush(ctx context.Context, n *Node) (*Node, error) {
	t.waiting.dissolve(ctx, n)
	parent := n.parent
	if err := t.cascade(ctx, n); err != nil {
		return parent, err
	}
	return parent, nil
}

// cascade commits n and its element kids in post-order: kids strictly
// before their parent, siblings in document order. Already-committed
// elements are skipped, and an element that is still waiting ends the
// descent for its entire subtree.
//
// The traversal runs on an explicit stack so that pathologically deep
// trees cannot overflow the call stack.
func (t *Tree) cascade(ctx context.Context, n *Node) error {
	type frame struct {
		n        *Node
		expanded bool
	}
	stack := []frame{{n: n}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.expanded {
			if err := t.commit(ctx, f.n); err != nil {
				return err
			}
			continue
		}
		if f.n.committed || t.waiting.isWaiting(f.n) {
			continue
		}
		stack = append(stack, frame{n: f.n, expanded: true})
		for i := len(f.n.kids) - 1; i >= 0; i-- {
			if kid, ok := f.n.kids[i].(*Node); ok {
				stack = append(stack, frame{n: kid})
			}
		}
	}
	return nil
}
