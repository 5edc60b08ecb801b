// Package utils provides the token and hashing primitives used by the auth
// flow: signed access tokens, opaque refresh tokens and bcrypt wrappers.
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kavehm/watchlog/internal/model"
)

// TokenConfig carries everything needed to mint and verify access tokens.
// It is built once from the application config and passed at construction
// time; nothing reads signing parameters ambiently.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience string
	TTLMin   int
}

// AccessToken is a signed JWT plus its expiry, returned to clients in the
// auth responses.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// Claims is the verified identity carried by an access token.
type Claims struct {
	UserID   uint64
	Nickname string
	Email    string
	Role     model.Role
	TokenID  string
}

// ErrInvalidToken covers every verification failure: bad signature, wrong
// issuer or audience, expiry, malformed claims. Callers get no finer
// distinction so responses cannot leak which check failed.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs an HS256 JWT for a user. Claims: subject
// (user id), email, nickname, role, a unique jti for auditing, issuer,
// audience, issued-at and expiry.
func NewAccessToken(cfg TokenConfig, u model.User) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(cfg.TTLMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":      u.ID,
		"email":    u.Email,
		"nickname": u.Nickname,
		"role":     u.Role.String(),
		"jti":      uuid.NewString(),
		"iss":      cfg.Issuer,
		"aud":      cfg.Audience,
		"iat":      now.Unix(),
		"exp":      exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(cfg.Secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifyAccessToken parses and validates a raw token string. Signature,
// expiry, issuer and audience are all enforced, with zero clock-skew
// leeway. On success the identity claims are returned.
func VerifyAccessToken(cfg TokenConfig, raw string) (Claims, error) {
	tok, err := jwt.Parse(raw,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(0),
	)
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	sub, ok := mc["sub"].(float64) // numeric claims decode as float64
	if !ok || sub <= 0 {
		return Claims{}, ErrInvalidToken
	}
	roleStr, _ := mc["role"].(string)
	role, err := model.ParseRole(roleStr)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	c := Claims{
		UserID: uint64(sub),
		Role:   role,
	}
	c.Email, _ = mc["email"].(string)
	c.Nickname, _ = mc["nickname"].(string)
	c.TokenID, _ = mc["jti"].(string)
	return c, nil
}

// RefreshToken is a long-lived opaque token used to obtain new access
// tokens. Only its SHA-256 hash is persisted.
type RefreshToken struct {
	Raw string
	Exp time.Time
}

// NewRefreshToken returns a cryptographically random token and its expiry.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshRaw returns the SHA-256 hex digest of a raw refresh token.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
