package tree

import (
	"context"
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
)

// Pointer is a cursor over one tree. Several pointers may roam the same
// tree; they share its single-goroutine discipline.
//
// A pointer always designates some element. Mutating operations fail with
// domain.ErrNodeCommitted once the designated element has been committed;
// navigation keeps working, so a stranded pointer recovers via MoveToRoot.
type Pointer struct {
	tree    *Tree
	current *Node
}

// Current returns the element the pointer designates.
func (p *Pointer) Current() *Node { return p.current }

// Role returns the current element's role.
func (p *Pointer) Role() domain.Role { return p.current.role }

// Open creates a child element with the given role under the current
// element and descends into it.
func (p *Pointer) Open(role domain.Role) error {
	if p.current.committed {
		return domain.ErrNodeCommitted
	}
	p.current = p.tree.newNode(p.current, role)
	return nil
}

// Close ascends to the parent element, ending the current one's scope. The
// element itself stays open for later repositioning until it is committed.
func (p *Pointer) Close() error {
	return p.MoveToParent()
}

// AddContent appends an inline content payload to the current element.
func (p *Pointer) AddContent(data []byte) error {
	if p.current.committed {
		return domain.ErrNodeCommitted
	}
	p.current.kids = append(p.current.kids, ContentRef{Data: data})
	return nil
}

// SetTitle sets the current element's title.
func (p *Pointer) SetTitle(title string) error {
	if p.current.committed {
		return domain.ErrNodeCommitted
	}
	p.current.title = title
	return nil
}

// SetAttr sets one attribute on the current element.
func (p *Pointer) SetAttr(key, value string) error {
	if p.current.committed {
		return domain.ErrNodeCommitted
	}
	if p.current.attrs == nil {
		p.current.attrs = make(map[string]string)
	}
	p.current.attrs[key] = value
	return nil
}

// MoveToRoot repositions the pointer at the root element.
func (p *Pointer) MoveToRoot() {
	p.current = p.tree.root
}

// MoveToParent repositions the pointer at the current element's parent.
func (p *Pointer) MoveToParent() error {
	if p.current.parent == nil {
		return domain.ErrAtRoot
	}
	p.current = p.current.parent
	return nil
}

// MoveToChild repositions the pointer at the i-th element kid. Content
// payloads are not navigable and do not count toward the index.
func (p *Pointer) MoveToChild(i int) error {
	kids := p.current.KidNodes()
	if i < 0 || i >= len(kids) {
		return fmt.Errorf("move to child %d of node %d: %w", i, p.current.id, domain.ErrNoSuchChild)
	}
	p.current = kids[i]
	return nil
}

// Flush commits the current element and its subtree, then repositions the
// pointer at the element's parent. The root cannot be flushed through a
// pointer; committing it is Tree.Finalize's job. On a sink failure the
// pointer stays where it was.
func (p *Pointer) Flush(ctx context.Context) error {
	if p.current == p.tree.root {
		return domain.ErrFlushRoot
	}
	parent, err := p.tree.Flush(ctx, p.current)
	if err != nil {
		return err
	}
	p.current = parent
	return nil
}
