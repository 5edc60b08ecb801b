package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/watchlog/internal/repository"
	"github.com/kavehm/watchlog/internal/validate"
)

// GenreHandler implements genre CRUD. Reads are public; writes are
// admin-only (enforced at the router).
type GenreHandler struct {
	Genres *repository.GenreRepo
}

func NewGenreHandler(g *repository.GenreRepo) *GenreHandler { return &GenreHandler{Genres: g} }

type genreReq struct {
	Name string `json:"name" validate:"required,max=50"`
}

type genreResp struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// Create handles POST /v1/genres.
func (h *GenreHandler) Create(c echo.Context) error {
	var req genreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := validate.Map(req); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	g, err := h.Genres.Create(ctx, req.Name)
	if err != nil {
		return writeRepoError(c, err, "genre not found")
	}
	return c.JSON(http.StatusCreated, genreResp{ID: g.ID, Name: g.Name})
}

// List handles GET /v1/genres.
func (h *GenreHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	genres, err := h.Genres.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]genreResp, 0, len(genres))
	for _, g := range genres {
		out = append(out, genreResp{ID: g.ID, Name: g.Name})
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/genres/:id.
func (h *GenreHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	g, err := h.Genres.GetByID(ctx, id)
	if err != nil {
		return writeRepoError(c, err, "genre not found")
	}
	return c.JSON(http.StatusOK, genreResp{ID: g.ID, Name: g.Name})
}

// Update handles PUT /v1/genres/:id.
func (h *GenreHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req genreReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := validate.Map(req); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Genres.Update(ctx, id, req.Name); err != nil {
		return writeRepoError(c, err, "genre not found")
	}
	return c.JSON(http.StatusOK, genreResp{ID: id, Name: req.Name})
}

// Delete handles DELETE /v1/genres/:id. Title associations cascade.
func (h *GenreHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Genres.Delete(ctx, id); err != nil {
		return writeRepoError(c, err, "genre not found")
	}
	return c.NoContent(http.StatusNoContent)
}
