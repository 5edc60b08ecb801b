package model

import "time"

// User mirrors the `users` table. Nickname and Email are unique; Email is
// stored lower-cased. PasswordHash never leaves the repository and handler
// layers; response DTOs define their own JSON shapes.
type User struct {
	ID           uint64
	Nickname     string
	Email        string
	PasswordHash string
	Role         Role
	AvatarURL    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken models a row in the `refresh_tokens` table. Only the SHA-256
// hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
