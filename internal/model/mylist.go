package model

import (
	"fmt"
	"time"
)

// WatchStatus is the per-entry tracking state of a my-list row. Any status
// may follow any other; there is no enforced transition graph.
type WatchStatus string

const (
	StatusPlanToWatch WatchStatus = "PLAN_TO_WATCH"
	StatusWatching    WatchStatus = "WATCHING"
	StatusCompleted   WatchStatus = "COMPLETED"
	StatusOnHold      WatchStatus = "ON_HOLD"
	StatusDropped     WatchStatus = "DROPPED"
)

// ParseWatchStatus validates a raw status string against the closed set.
func ParseWatchStatus(s string) (WatchStatus, error) {
	switch WatchStatus(s) {
	case StatusPlanToWatch, StatusWatching, StatusCompleted, StatusOnHold, StatusDropped:
		return WatchStatus(s), nil
	}
	return "", fmt.Errorf("unknown watch status %q", s)
}

// ListEntry mirrors the `my_list` table. A user tracks a given title at
// most once; the (UserID, TitleID) pair is unique.
//
// AddedAt is set once when the entry is created. StatusUpdatedAt moves
// every time the status changes and never touches AddedAt.
type ListEntry struct {
	ID              uint64
	UserID          uint64
	TitleID         uint64
	Status          WatchStatus
	AddedAt         time.Time
	StatusUpdatedAt time.Time
}
