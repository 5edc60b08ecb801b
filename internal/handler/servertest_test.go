package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	_ "github.com/mattn/go-sqlite3"

	"github.com/kavehm/watchlog/internal/handler"
	"github.com/kavehm/watchlog/internal/model"
	"github.com/kavehm/watchlog/internal/repository"
	"github.com/kavehm/watchlog/internal/router"
	"github.com/kavehm/watchlog/internal/utils"
)

var testTokenCfg = utils.TokenConfig{
	Secret:   "test-secret",
	Issuer:   "watchlog",
	Audience: "watchlog-api",
	TTLMin:   15,
}

// newTestServer wires the full route table over an in-memory sqlite
// database. Redis is nil, so rate limiting and response caching are
// disabled and requests go straight to the handlers.
func newTestServer(t *testing.T) (*echo.Echo, *sql.DB) {
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

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	titles := repository.NewTitleRepo(db)
	genres := repository.NewGenreRepo(db)
	lists := repository.NewListRepo(db)
	ratings := repository.NewRatingRepo(db)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Deps{
		TokenCfg: testTokenCfg,
		Auth:     handler.NewAuthHandler(testTokenCfg, 4, 7, users, tokens),
		Users:    handler.NewUserHandler(4, users, tokens),
		Titles:   handler.NewTitleHandler(titles, ratings),
		Genres:   handler.NewGenreHandler(genres),
		Lists:    handler.NewListHandler(lists, titles),
		Ratings:  handler.NewRatingHandler(ratings, titles),
	})
	return e, db
}

// doJSON performs a request against the test server. An empty token sends
// no Authorization header.
func doJSON(t *testing.T, e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

type sessionResp struct {
	User struct {
		ID       uint64 `json:"id"`
		Nickname string `json:"nickname"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	} `json:"user"`
	Access struct {
		Token   string    `json:"token"`
		Expires time.Time `json:"expires"`
	} `json:"access"`
	Refresh struct {
		Token string `json:"token"`
	} `json:"refresh"`
}

// register creates a user through the HTTP API and returns the session.
func register(t *testing.T, e *echo.Echo, nickname, email, password string) sessionResp {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/v1/auth/register", "", echo.Map{
		"nickname": nickname, "email": email, "password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", nickname, rec.Code, rec.Body.String())
	}
	var s sessionResp
	decode(t, rec, &s)
	return s
}

// promoteAdmin flips a user's role directly in the database. The new role
// only takes effect on tokens issued afterwards.
func promoteAdmin(t *testing.T, db *sql.DB, userID uint64) {
	t.Helper()
	if _, err := db.Exec("UPDATE users SET role=? WHERE id=?", string(model.RoleAdmin), userID); err != nil {
		t.Fatalf("promote admin: %v", err)
	}
}

// seedCatalogTitle inserts a movie directly, bypassing the admin routes.
func seedCatalogTitle(t *testing.T, db *sql.DB, name string) uint64 {
	t.Helper()
	title := model.Title{Name: name, Type: model.TypeMovie}
	if err := repository.NewTitleRepo(db).Create(context.Background(), &title, nil); err != nil {
		t.Fatalf("seed title %s: %v", name, err)
	}
	return title.ID
}
