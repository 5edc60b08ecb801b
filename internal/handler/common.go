// Package handler defines the HTTP handlers. Handlers bind and validate
// request DTOs, run the ownership gate where a per-user resource is
// touched, call into repositories and translate sentinel errors into
// status codes. All claim parsing happens in the JWT middleware; handlers
// only ever see the resolved Principal.
package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/watchlog/internal/middleware"
	"github.com/kavehm/watchlog/internal/model"
	"github.com/kavehm/watchlog/internal/repository"
)

// dbTimeout bounds every database round-trip started from a handler.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// principal returns the authenticated caller or fails the request with 401.
func principal(c echo.Context) (model.Principal, error) {
	p, ok := middleware.Principal(c)
	if !ok {
		return model.Principal{}, c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return p, nil
}

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// writeRepoError maps repository sentinels onto HTTP responses. notFound is
// the 404 message, since callers know which entity was being addressed.
func writeRepoError(c echo.Context, err error, notFound string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return c.JSON(http.StatusNotFound, echo.Map{"error": notFound})
	case errors.Is(err, repository.ErrGenreMissing):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": strings.TrimPrefix(err.Error(), "conflict: ")})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// gateOwnership is the ownership check applied to my-list and rating
// mutations: the owner may proceed, an admin may proceed, everyone else is
// rejected. Pure; runs before any write.
func gateOwnership(p model.Principal, ownerID uint64) error {
	if !p.CanActFor(ownerID) {
		return repository.ErrForbidden
	}
	return nil
}
