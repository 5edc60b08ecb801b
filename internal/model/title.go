package model

import (
	"fmt"
	"time"
)

// TitleType distinguishes single films from episodic series. The type is
// fixed at creation; there is no migration path between the two.
type TitleType string

const (
	TypeMovie  TitleType = "MOVIE"
	TypeSeries TitleType = "SERIES"
)

// ParseTitleType validates a raw type string against the closed set.
func ParseTitleType(s string) (TitleType, error) {
	switch TitleType(s) {
	case TypeMovie, TypeSeries:
		return TitleType(s), nil
	}
	return "", fmt.Errorf("unknown title type %q", s)
}

// Title mirrors the `titles` table. SeasonsCount and EpisodesCount are only
// meaningful when Type is SERIES and stay NULL for movies.
type Title struct {
	ID            uint64
	Name          string
	Description   *string
	ReleaseYear   *int
	ImageURL      *string
	Type          TitleType
	SeasonsCount  *int
	EpisodesCount *int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Genre mirrors the `genres` table. Names are unique.
type Genre struct {
	ID   uint64
	Name string
}
