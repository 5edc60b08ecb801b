package handler_test

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/watchlog/internal/utils"
)

func TestRegisterLoginFlow(t *testing.T) {
	e, _ := newTestServer(t)

	s1 := register(t, e, "alice", "a@x.com", "secret1")
	if s1.Access.Token == "" || s1.User.Nickname != "alice" || s1.User.Role != "USER" {
		t.Fatalf("unexpected session: %+v", s1)
	}

	// Same email again, different nickname: conflict.
	rec := doJSON(t, e, http.MethodPost, "/v1/auth/register", "", echo.Map{
		"nickname": "alice2", "email": "a@x.com", "password": "secret1",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d body %s", rec.Code, rec.Body.String())
	}

	// Same nickname again, different email: conflict too.
	rec = doJSON(t, e, http.MethodPost, "/v1/auth/register", "", echo.Map{
		"nickname": "alice", "email": "other@x.com", "password": "secret1",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate nickname: expected 409, got %d", rec.Code)
	}

	// Wrong password: unauthorized.
	rec = doJSON(t, e, http.MethodPost, "/v1/auth/login", "", echo.Map{
		"email": "a@x.com", "password": "wrongpass",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: expected 401, got %d", rec.Code)
	}

	// Unknown email answers identically to a wrong password.
	rec = doJSON(t, e, http.MethodPost, "/v1/auth/login", "", echo.Map{
		"email": "nobody@x.com", "password": "secret1",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email: expected 401, got %d", rec.Code)
	}

	// Correct credentials: a fresh token for the same subject.
	rec = doJSON(t, e, http.MethodPost, "/v1/auth/login", "", echo.Map{
		"email": "a@x.com", "password": "secret1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body %s", rec.Code, rec.Body.String())
	}
	var s2 sessionResp
	decode(t, rec, &s2)
	if s2.Access.Token == s1.Access.Token {
		t.Fatal("login must issue a new access token")
	}

	c1, err := utils.VerifyAccessToken(testTokenCfg, s1.Access.Token)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := utils.VerifyAccessToken(testTokenCfg, s2.Access.Token)
	if err != nil {
		t.Fatal(err)
	}
	if c1.UserID != c2.UserID {
		t.Fatalf("subjects differ: %d vs %d", c1.UserID, c2.UserID)
	}
	if c1.TokenID == c2.TokenID {
		t.Fatal("token ids must be unique per issue")
	}
}

func TestRegisterValidation(t *testing.T) {
	e, _ := newTestServer(t)

	cases := []echo.Map{
		{"nickname": "al", "email": "a@x.com", "password": "secret1"},      // nickname too short
		{"nickname": "has space", "email": "a@x.com", "password": "sec1"},  // bad charset
		{"nickname": "alice", "email": "not-an-email", "password": "sec1"}, // bad email
		{"nickname": "alice", "email": "a@x.com", "password": "short"},     // password too short
	}
	for i, body := range cases {
		rec := doJSON(t, e, http.MethodPost, "/v1/auth/register", "", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d body %s", i, rec.Code, rec.Body.String())
		}
	}
}

func TestRegisterNormalizesEmailCase(t *testing.T) {
	e, _ := newTestServer(t)

	s := register(t, e, "alice", "Alice@X.COM", "secret1")
	if s.User.Email != "alice@x.com" {
		t.Fatalf("email not lower-cased: %q", s.User.Email)
	}

	// Login works with any casing of the same address.
	rec := doJSON(t, e, http.MethodPost, "/v1/auth/login", "", echo.Map{
		"email": "ALICE@x.com", "password": "secret1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("case-insensitive login: expected 200, got %d", rec.Code)
	}

	// And a differently-cased duplicate still conflicts.
	rec = doJSON(t, e, http.MethodPost, "/v1/auth/register", "", echo.Map{
		"nickname": "bob", "email": "aLiCe@x.CoM", "password": "secret1",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("cased duplicate: expected 409, got %d", rec.Code)
	}
}

func TestRefreshRotation(t *testing.T) {
	e, _ := newTestServer(t)

	s := register(t, e, "alice", "a@x.com", "secret1")

	rec := doJSON(t, e, http.MethodPost, "/v1/auth/refresh", "", echo.Map{
		"refresh_token": s.Refresh.Token,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d body %s", rec.Code, rec.Body.String())
	}
	var next sessionResp
	decode(t, rec, &next)
	if next.Refresh.Token == s.Refresh.Token {
		t.Fatal("refresh must rotate the refresh token")
	}

	// The consumed token is dead.
	rec = doJSON(t, e, http.MethodPost, "/v1/auth/refresh", "", echo.Map{
		"refresh_token": s.Refresh.Token,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh: expected 401, got %d", rec.Code)
	}

	// The rotated one still works.
	rec = doJSON(t, e, http.MethodPost, "/v1/auth/refresh", "", echo.Map{
		"refresh_token": next.Refresh.Token,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("rotated refresh: expected 200, got %d", rec.Code)
	}
}

func TestLogoutRevokesRefresh(t *testing.T) {
	e, _ := newTestServer(t)

	s := register(t, e, "alice", "a@x.com", "secret1")

	rec := doJSON(t, e, http.MethodPost, "/v1/auth/logout", "", echo.Map{
		"refresh_token": s.Refresh.Token,
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/auth/refresh", "", echo.Map{
		"refresh_token": s.Refresh.Token,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: expected 401, got %d", rec.Code)
	}

	// The access token is stateless and stays valid until expiry.
	rec = doJSON(t, e, http.MethodGet, "/v1/me", s.Access.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("me after logout: expected 200, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(t, e, http.MethodGet, "/v1/me", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, e, http.MethodGet, "/v1/me", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", rec.Code)
	}
}
