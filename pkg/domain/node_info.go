package domain

// NodeInfo is a read-only snapshot of one structure element, used by the
// inspection surfaces (CLI, HTTP, MCP). It carries no references back into
// the live tree, so callers may hold it across later mutations.
type NodeInfo struct {
	ID        NodeID `json:"id"`
	ParentID  NodeID `json:"parent_id,omitempty"`
	Role      Role   `json:"role"`
	Title     string `json:"title,omitempty"`
	Depth     int    `json:"depth"`
	Committed bool   `json:"committed"`
	Waiting   bool   `json:"waiting"`
	Kids      int    `json:"kids"`
	Content   int    `json:"content"`
}

// TreeStats summarizes a build in progress.
type TreeStats struct {
	DocID     string `json:"doc_id"`
	Nodes     int    `json:"nodes"`
	Committed int    `json:"committed"`
	Waiting   int    `json:"waiting"`
	Finalized bool   `json:"finalized"`
}
