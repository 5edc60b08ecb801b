package repository

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kavehm/watchlog/internal/model"
)

// newTestDB opens an in-memory sqlite database with the application schema.
// Placeholders and the duplicate-key detection both work across MySQL and
// sqlite, so repository behaviour under test matches production.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	stmts := []string{
		"PRAGMA foreign_keys = ON",
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nickname TEXT NOT NULL,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'USER',
			avatar_url TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			CONSTRAINT uq_users_nickname UNIQUE (nickname),
			CONSTRAINT uq_users_email UNIQUE (email)
		)`,
		`CREATE TABLE refresh_tokens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token_hash TEXT NOT NULL UNIQUE,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE titles (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT,
			release_year INTEGER,
			image_url TEXT,
			type TEXT NOT NULL,
			seasons_count INTEGER,
			episodes_count INTEGER,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE genres (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE title_genres (
			title_id INTEGER NOT NULL REFERENCES titles(id) ON DELETE CASCADE,
			genre_id INTEGER NOT NULL REFERENCES genres(id) ON DELETE CASCADE,
			PRIMARY KEY (title_id, genre_id)
		)`,
		`CREATE TABLE my_list (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title_id INTEGER NOT NULL REFERENCES titles(id) ON DELETE CASCADE,
			status TEXT NOT NULL DEFAULT 'PLAN_TO_WATCH',
			added_at DATETIME NOT NULL,
			status_updated_at DATETIME NOT NULL,
			CONSTRAINT uq_my_list_user_title UNIQUE (user_id, title_id)
		)`,
		`CREATE TABLE ratings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			title_id INTEGER NOT NULL REFERENCES titles(id) ON DELETE CASCADE,
			score INTEGER NOT NULL,
			comment TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			CONSTRAINT uq_ratings_user_title UNIQUE (user_id, title_id)
		)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("schema: %v", err)
		}
	}
	return db
}

// seedUser inserts a user directly and returns its id.
func seedUser(t *testing.T, db *sql.DB, nickname, email string) uint64 {
	t.Helper()
	id, err := NewUserRepo(db).Create(context.Background(), nickname, email, "secret1", model.RoleUser, 4)
	if err != nil {
		t.Fatalf("seed user %s: %v", nickname, err)
	}
	return id
}

// seedTitle inserts a movie with no genres and returns its id.
func seedTitle(t *testing.T, db *sql.DB, name string) uint64 {
	t.Helper()
	title := model.Title{Name: name, Type: model.TypeMovie}
	if err := NewTitleRepo(db).Create(context.Background(), &title, nil); err != nil {
		t.Fatalf("seed title %s: %v", name, err)
	}
	return title.ID
}

// seedGenre inserts a genre and returns its id.
func seedGenre(t *testing.T, db *sql.DB, name string) uint64 {
	t.Helper()
	g, err := NewGenreRepo(db).Create(context.Background(), name)
	if err != nil {
		t.Fatalf("seed genre %s: %v", name, err)
	}
	return g.ID
}
