package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/kavehm/watchlog/internal/model"
	"github.com/kavehm/watchlog/internal/utils"
)

// UserRepo persists user accounts.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,nickname,email,password_hash,role,avatar_url,created_at,updated_at"

// Create hashes the password and inserts a new user. Duplicate nickname or
// email maps to the matching Conflict sentinel whether it is caught here or
// by the unique index under a race.
func (r *UserRepo) Create(ctx context.Context, nickname, email, password string, role model.Role, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	nickname = strings.TrimSpace(nickname)
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (nickname, email, password_hash, role, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		nickname, email, hash, role.String(), now, now)
	if err != nil {
		return 0, classifyUserDup(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// NicknameTaken reports whether a nickname is already registered.
func (r *UserRepo) NicknameTaken(ctx context.Context, nickname string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE nickname=? LIMIT 1", strings.TrimSpace(nickname)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// EmailTaken reports whether an email is already registered.
func (r *UserRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE email=? LIMIT 1", strings.ToLower(strings.TrimSpace(email))).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.scanOne(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1",
		strings.ToLower(strings.TrimSpace(email)))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// UpdateProfile changes nickname, email and avatar for a user. Uniqueness
// of the new nickname/email is enforced the same way as on Create.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, nickname, email string, avatarURL *string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	nickname = strings.TrimSpace(nickname)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET nickname=?, email=?, avatar_url=?, updated_at=? WHERE id=?",
		nickname, email, avatarURL, time.Now().UTC(), id)
	if err != nil {
		return classifyUserDup(err)
	}
	return noneAffectedIsNoRows(res)
}

// UpdatePassword stores a new password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, hash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=? WHERE id=?", hash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return noneAffectedIsNoRows(res)
}

// UpdateRole changes a user's role. Callers gate this behind ADMIN.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role model.Role) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=?, updated_at=? WHERE id=?", role.String(), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return noneAffectedIsNoRows(res)
}

// Delete removes a user. The store cascades the user's list entries,
// ratings and refresh tokens through foreign keys.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	return noneAffectedIsNoRows(res)
}

func (r *UserRepo) scanOne(ctx context.Context, query string, args ...any) (model.User, error) {
	var (
		u      model.User
		role   string
		avatar sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Nickname, &u.Email, &u.PasswordHash, &role, &avatar, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if u.Role, err = model.ParseRole(role); err != nil {
		return model.User{}, err
	}
	if avatar.Valid {
		s := avatar.String
		u.AvatarURL = &s
	}
	return u, nil
}

func classifyUserDup(err error) error {
	switch {
	case dupOn(err, "nickname"):
		return ErrNicknameExists
	case dupOn(err, "email"):
		return ErrEmailExists
	case isDuplicate(err):
		return ErrConflict
	}
	return err
}

// noneAffectedIsNoRows turns a zero-row UPDATE/DELETE into sql.ErrNoRows so
// handlers can answer 404 uniformly.
func noneAffectedIsNoRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
