package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/watchlog/internal/model"
	"github.com/kavehm/watchlog/internal/repository"
	"github.com/kavehm/watchlog/internal/validate"
)

// TitleHandler implements title CRUD and the genre-set replacement that
// goes with it. Reads are public; writes are admin-only (router-enforced).
type TitleHandler struct {
	Titles  *repository.TitleRepo
	Ratings *repository.RatingRepo
}

func NewTitleHandler(t *repository.TitleRepo, r *repository.RatingRepo) *TitleHandler {
	return &TitleHandler{Titles: t, Ratings: r}
}

type createTitleReq struct {
	Name          string   `json:"name" validate:"required,max=100"`
	Description   *string  `json:"description" validate:"omitempty,max=500"`
	ReleaseYear   *int     `json:"release_year" validate:"omitempty,gte=1800,lte=2100"`
	ImageURL      *string  `json:"image_url" validate:"omitempty,safeurl"`
	Type          string   `json:"type" validate:"required"`
	SeasonsCount  *int     `json:"seasons_count" validate:"omitempty,gte=0"`
	EpisodesCount *int     `json:"episodes_count" validate:"omitempty,gte=0"`
	GenreIDs      []uint64 `json:"genre_ids"`
}

type updateTitleReq struct {
	Name          string    `json:"name" validate:"required,max=100"`
	Description   *string   `json:"description" validate:"omitempty,max=500"`
	ReleaseYear   *int      `json:"release_year" validate:"omitempty,gte=1800,lte=2100"`
	ImageURL      *string   `json:"image_url" validate:"omitempty,safeurl"`
	SeasonsCount  *int      `json:"seasons_count" validate:"omitempty,gte=0"`
	EpisodesCount *int      `json:"episodes_count" validate:"omitempty,gte=0"`
	GenreIDs      *[]uint64 `json:"genre_ids"` // nil leaves the genre set alone
}

type titleResp struct {
	ID            uint64      `json:"id"`
	Name          string      `json:"name"`
	Description   *string     `json:"description,omitempty"`
	ReleaseYear   *int        `json:"release_year,omitempty"`
	ImageURL      *string     `json:"image_url,omitempty"`
	Type          string      `json:"type"`
	SeasonsCount  *int        `json:"seasons_count,omitempty"`
	EpisodesCount *int        `json:"episodes_count,omitempty"`
	Genres        []genreResp `json:"genres"`
	AvgScore      *float64    `json:"avg_score,omitempty"`
	RatingsCount  int         `json:"ratings_count"`
}

// Create handles POST /v1/titles. Title row and genre links are written in
// one transaction; an unknown genre id leaves nothing behind.
func (h *TitleHandler) Create(c echo.Context) error {
	var req createTitleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := validate.Map(req); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}
	typ, err := model.ParseTitleType(req.Type)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be MOVIE or SERIES"})
	}
	if typ == model.TypeMovie && (req.SeasonsCount != nil || req.EpisodesCount != nil) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "season/episode counts are only valid for series"})
	}

	t := model.Title{
		Name:          req.Name,
		Description:   req.Description,
		ReleaseYear:   req.ReleaseYear,
		ImageURL:      req.ImageURL,
		Type:          typ,
		SeasonsCount:  req.SeasonsCount,
		EpisodesCount: req.EpisodesCount,
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Titles.Create(ctx, &t, req.GenreIDs); err != nil {
		return writeRepoError(c, err, "title not found")
	}
	return h.respondWithTitle(c, http.StatusCreated, t)
}

// Update handles PUT /v1/titles/:id. The title type is immutable; genre
// ids, when present, replace the full genre set through the same
// validate-then-swap path as Create.
func (h *TitleHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateTitleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := validate.Map(req); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Titles.GetByID(ctx, id)
	if err != nil {
		return writeRepoError(c, err, "title not found")
	}
	if t.Type == model.TypeMovie && (req.SeasonsCount != nil || req.EpisodesCount != nil) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "season/episode counts are only valid for series"})
	}

	t.Name = req.Name
	t.Description = req.Description
	t.ReleaseYear = req.ReleaseYear
	t.ImageURL = req.ImageURL
	t.SeasonsCount = req.SeasonsCount
	t.EpisodesCount = req.EpisodesCount

	if err := h.Titles.Update(ctx, &t); err != nil {
		return writeRepoError(c, err, "title not found")
	}
	if req.GenreIDs != nil {
		if err := h.Titles.ReplaceGenres(ctx, id, *req.GenreIDs); err != nil {
			return writeRepoError(c, err, "title not found")
		}
	}
	return h.respondWithTitle(c, http.StatusOK, t)
}

// Get handles GET /v1/titles/:id.
func (h *TitleHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	t, err := h.Titles.GetByID(ctx, id)
	if err != nil {
		return writeRepoError(c, err, "title not found")
	}
	return h.respondWithTitle(c, http.StatusOK, t)
}

// List handles GET /v1/titles.
func (h *TitleHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	titles, err := h.Titles.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]titleResp, 0, len(titles))
	for _, t := range titles {
		genres, err := h.Titles.GenresFor(ctx, t.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		out = append(out, buildTitleResp(t, genres, nil, 0))
	}
	return c.JSON(http.StatusOK, out)
}

// Delete handles DELETE /v1/titles/:id. Genre links, list entries and
// ratings cascade in the store.
func (h *TitleHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Titles.Delete(ctx, id); err != nil {
		return writeRepoError(c, err, "title not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TitleHandler) respondWithTitle(c echo.Context, status int, t model.Title) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	genres, err := h.Titles.GenresFor(ctx, t.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	avg, count, err := h.Ratings.SummaryForTitle(ctx, t.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	var avgPtr *float64
	if count > 0 {
		avgPtr = &avg
	}
	return c.JSON(status, buildTitleResp(t, genres, avgPtr, count))
}

func buildTitleResp(t model.Title, genres []model.Genre, avg *float64, count int) titleResp {
	gs := make([]genreResp, 0, len(genres))
	for _, g := range genres {
		gs = append(gs, genreResp{ID: g.ID, Name: g.Name})
	}
	return titleResp{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		ReleaseYear:   t.ReleaseYear,
		ImageURL:      t.ImageURL,
		Type:          string(t.Type),
		SeasonsCount:  t.SeasonsCount,
		EpisodesCount: t.EpisodesCount,
		Genres:        gs,
		AvgScore:      avg,
		RatingsCount:  count,
	}
}
