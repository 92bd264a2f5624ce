package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeCommit     EventType = "node_commit"
	EventWaitingAssign  EventType = "waiting_assign"
	EventWaitingRelease EventType = "waiting_release"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	DocID     string    `json:"doc_id"`
}

// CommitEvent is emitted after an element's record has been accepted by
// the sink and the element marked committed.
type CommitEvent struct {
	EventBase
	NodeID NodeID `json:"node_id"`
	Role   Role   `json:"role"`
	Seq    int64  `json:"seq"`
}

// WaitingEvent is emitted when an owner/element association is created or
// dissolved. Superseded is set on assignment when the new association
// displaced an earlier one on either side.
type WaitingEvent struct {
	EventBase
	NodeID     NodeID `json:"node_id"`
	Role       Role   `json:"role"`
	Superseded bool   `json:"superseded,omitempty"`
}

// LifecycleHooks defines callbacks for build observability.
type LifecycleHooks struct {
	OnNodeCommit     func(context.Context, *CommitEvent)
	OnWaitingAssign  func(context.Context, *WaitingEvent)
	OnWaitingRelease func(context.Context, *WaitingEvent)
}
