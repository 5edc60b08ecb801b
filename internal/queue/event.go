// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// Activity event kinds.
const (
	KindRatingCreated = "rating.created"
	KindListUpdated   = "list.updated"
)

// ActivityEvent is published when a user rates a title or changes their
// list. Downstream consumers can log or aggregate without touching the
// primary database.
type ActivityEvent struct {
	Kind       string `json:"kind"`
	UserID     uint64 `json:"user_id"`
	TitleID    uint64 `json:"title_id"`
	Detail     string `json:"detail,omitempty"` // score or watch status
	OccurredAt string `json:"occurred_at"`
}
