package model

import "time"

// Rating score bounds, inclusive.
const (
	MinScore = 1
	MaxScore = 10
)

// Rating mirrors the `ratings` table. A user rates a given title at most
// once; re-rating goes through an update of the existing row.
type Rating struct {
	ID        uint64
	UserID    uint64
	TitleID   uint64
	Score     int
	Comment   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
