package domain

import "time"

// NodeID identifies a structure element within a single document build.
// IDs are allocated sequentially starting at 1 (the root); 0 means "none".
type NodeID int64

// KidKind discriminates the entries of a committed element's child list.
type KidKind string

const (
	// KidNode references a child structure element by its NodeID.
	KidNode KidKind = "node"
	// KidContent carries an inline content payload (a non-element child).
	KidContent KidKind = "content"
)

// KidRef is one entry in the ordered child list of a committed element.
// Child elements are referenced by ID only; their own records are written
// separately (and, by the flush protocol, strictly before the parent's).
type KidRef struct {
	Kind    KidKind `json:"kind"`
	NodeID  NodeID  `json:"node_id,omitempty"`
	Content []byte  `json:"content,omitempty"`
}

// CommitRecord is the envelope handed to a CommitSink when an element is
// committed. Records are write-once: the tree never re-emits a record for
// the same node, and sinks may treat (DocID, NodeID) as a primary key.
//
// Seq is the document-wide commit sequence. Subtree commits are post-order,
// so a parent's Seq exceeds that of every descendant committed with it; a
// kid that was waiting when its parent committed arrives later, with a
// higher Seq.
type CommitRecord struct {
	DocID       string            `json:"doc_id"`
	Seq         int64             `json:"seq"`
	NodeID      NodeID            `json:"node_id"`
	ParentID    NodeID            `json:"parent_id,omitempty"`
	Role        Role              `json:"role"`
	Title       string            `json:"title,omitempty"`
	Attrs       map[string]string `json:"attrs,omitempty"`
	Kids        []KidRef          `json:"kids,omitempty"`
	CommittedAt time.Time         `json:"committed_at"`
}
