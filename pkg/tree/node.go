package tree

import (
	"maps"

	"github.com/aretw0/canopy/pkg/domain"
)

// Item is one entry in an element's ordered kid list. The tree admits
// heterogeneous kids: child elements (*Node) and inline content (ContentRef).
type Item interface{ isItem() }

// ContentRef is an inline content payload attached to an element. Content
// kids are carried into the element's commit record; they are not navigable
// and never commit on their own.
type ContentRef struct {
	Data []byte
}

func (ContentRef) isItem() {}

// Node is one structure element of the document tree.
//
// Nodes are created through a Pointer and owned by their tree. The parent
// link is a back-reference for traversal only; kids are owned by the node,
// in document order. The committed flag is set exactly once, by the tree's
// commit primitive, and never cleared.
type Node struct {
	id    domain.NodeID
	role  domain.Role
	title string
	attrs map[string]string

	parent *Node
	kids   []Item

	committed bool
}

func (*Node) isItem() {}

// ID returns the element's identifier, stable for the life of the build.
func (n *Node) ID() domain.NodeID { return n.id }

// Role returns the element's structural role.
func (n *Node) Role() domain.Role { return n.role }

// Title returns the element's title, or "" if none was set.
func (n *Node) Title() string { return n.title }

// Attr returns the value of a single attribute.
func (n *Node) Attr(key string) string { return n.attrs[key] }

// Attrs returns a copy of the element's attributes, nil when it has none.
func (n *Node) Attrs() map[string]string {
	if len(n.attrs) == 0 {
		return nil
	}
	return maps.Clone(n.attrs)
}

// Parent returns the parent element, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// Committed reports whether the element has been written to the sink.
func (n *Node) Committed() bool { return n.committed }

// Kids returns a copy of the element's ordered kid list.
func (n *Node) Kids() []Item {
	if len(n.kids) == 0 {
		return nil
	}
	out := make([]Item, len(n.kids))
	copy(out, n.kids)
	return out
}

// KidNodes returns the element kids only, in document order.
func (n *Node) KidNodes() []*Node {
	var out []*Node
	for _, it := range n.kids {
		if kid, ok := it.(*Node); ok {
			out = append(out, kid)
		}
	}
	return out
}
