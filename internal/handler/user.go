package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/watchlog/internal/model"
	"github.com/kavehm/watchlog/internal/repository"
	"github.com/kavehm/watchlog/internal/utils"
	"github.com/kavehm/watchlog/internal/validate"
)

// UserHandler implements account self-service plus the admin-only role
// change.
type UserHandler struct {
	BcryptCost int
	Users      *repository.UserRepo
	Tokens     *repository.TokenRepo
}

func NewUserHandler(bcryptCost int, u *repository.UserRepo, t *repository.TokenRepo) *UserHandler {
	return &UserHandler{BcryptCost: bcryptCost, Users: u, Tokens: t}
}

type updateProfileReq struct {
	Nickname  string  `json:"nickname" validate:"required,min=3,max=30,nickname"`
	Email     string  `json:"email" validate:"required,email"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,safeurl"`
}

type changePasswordReq struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=72"`
}

type changeRoleReq struct {
	Role string `json:"role"`
}

type profileResp struct {
	ID        uint64    `json:"id"`
	Nickname  string    `json:"nickname"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Me handles GET /v1/me.
func (h *UserHandler) Me(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return writeRepoError(c, err, "user not found")
	}
	return c.JSON(http.StatusOK, toProfileResp(u))
}

// UpdateProfile handles PUT /v1/me. The new nickname/email go through the
// same uniqueness rules as registration.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := validate.Map(req); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, p.UserID, req.Nickname, req.Email, req.AvatarURL); err != nil {
		return writeRepoError(c, err, "user not found")
	}
	u, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return writeRepoError(c, err, "user not found")
	}
	return c.JSON(http.StatusOK, toProfileResp(u))
}

// ChangePassword handles PUT /v1/me/password. The old password must
// verify; all refresh tokens are revoked afterwards.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := validate.Map(req); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		return writeRepoError(c, err, "user not found")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.OldPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	hash, err := utils.HashPassword(req.NewPassword, h.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	if err := h.Users.UpdatePassword(ctx, p.UserID, hash); err != nil {
		return writeRepoError(c, err, "user not found")
	}
	_ = h.Tokens.RevokeAllForUser(ctx, p.UserID)
	return c.NoContent(http.StatusNoContent)
}

// ChangeRole handles PUT /v1/users/:id/role (admin-only at the router).
func (h *UserHandler) ChangeRole(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req changeRoleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be USER or ADMIN"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateRole(ctx, id, role); err != nil {
		return writeRepoError(c, err, "user not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /v1/users/:id. A user may delete themselves; an
// admin may delete anyone. List entries and ratings cascade in the store.
func (h *UserHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := gateOwnership(p, id); err != nil {
		return writeRepoError(c, err, "user not found")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		return writeRepoError(c, err, "user not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func toProfileResp(u model.User) profileResp {
	return profileResp{
		ID:        u.ID,
		Nickname:  u.Nickname,
		Email:     u.Email,
		Role:      u.Role.String(),
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}
