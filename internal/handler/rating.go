package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/watchlog/internal/model"
	"github.com/kavehm/watchlog/internal/queue"
	"github.com/kavehm/watchlog/internal/repository"
	"github.com/kavehm/watchlog/internal/service"
	"github.com/kavehm/watchlog/internal/validate"
)

// RatingHandler implements ratings. Mutations run the same ownership gate
// as the watch list.
type RatingHandler struct {
	Ratings *repository.RatingRepo
	Titles  *repository.TitleRepo
}

func NewRatingHandler(r *repository.RatingRepo, t *repository.TitleRepo) *RatingHandler {
	return &RatingHandler{Ratings: r, Titles: t}
}

type createRatingReq struct {
	TitleID uint64  `json:"title_id" validate:"required"`
	Score   int     `json:"score" validate:"required,gte=1,lte=10"`
	Comment *string `json:"comment" validate:"omitempty,max=300"`
}

type updateRatingReq struct {
	Score   *int    `json:"score" validate:"omitempty,gte=1,lte=10"`
	Comment *string `json:"comment" validate:"omitempty,max=300"`
}

type ratingResp struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	TitleID   uint64    `json:"title_id"`
	Score     int       `json:"score"`
	Comment   *string   `json:"comment,omitempty"`
	Nickname  string    `json:"nickname,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Create handles POST /v1/ratings. Scores live in [1,10] and a user rates
// a title once; a second attempt answers Conflict and clients update the
// existing rating instead.
func (h *RatingHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req createRatingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := validate.Map(req); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	exists, err := h.Titles.Exists(ctx, req.TitleID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "title not found"})
	}

	rt, err := h.Ratings.Create(ctx, p.UserID, req.TitleID, req.Score, req.Comment)
	if err != nil {
		return writeRepoError(c, err, "title not found")
	}

	_ = service.PublishActivity(ctx, queue.ActivityEvent{
		Kind:       queue.KindRatingCreated,
		UserID:     p.UserID,
		TitleID:    req.TitleID,
		Detail:     strconv.Itoa(req.Score),
		OccurredAt: rt.CreatedAt.Format(time.RFC3339),
	})
	return c.JSON(http.StatusCreated, toRatingResp(rt, ""))
}

// Update handles PATCH /v1/ratings/:id. Partial: only provided fields
// change.
func (h *RatingHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateRatingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if fields := validate.Map(req); fields != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": fields})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rt, err := h.Ratings.GetByID(ctx, id)
	if err != nil {
		return writeRepoError(c, err, "rating not found")
	}
	if err := gateOwnership(p, rt.UserID); err != nil {
		return writeRepoError(c, err, "rating not found")
	}
	if err := h.Ratings.Update(ctx, id, req.Score, req.Comment); err != nil {
		return writeRepoError(c, err, "rating not found")
	}
	if req.Score != nil {
		rt.Score = *req.Score
	}
	if req.Comment != nil {
		rt.Comment = req.Comment
	}
	return c.JSON(http.StatusOK, toRatingResp(rt, ""))
}

// Delete handles DELETE /v1/ratings/:id.
func (h *RatingHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	rt, err := h.Ratings.GetByID(ctx, id)
	if err != nil {
		return writeRepoError(c, err, "rating not found")
	}
	if err := gateOwnership(p, rt.UserID); err != nil {
		return writeRepoError(c, err, "rating not found")
	}
	if err := h.Ratings.Delete(ctx, id); err != nil {
		return writeRepoError(c, err, "rating not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// ListForTitle handles GET /v1/titles/:id/ratings (public).
func (h *RatingHandler) ListForTitle(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	exists, err := h.Titles.Exists(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "title not found"})
	}

	ratings, err := h.Ratings.ListByTitle(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]ratingResp, 0, len(ratings))
	for _, r := range ratings {
		out = append(out, toRatingResp(r.Rating, r.Nickname))
	}
	return c.JSON(http.StatusOK, out)
}

func toRatingResp(r model.Rating, nickname string) ratingResp {
	return ratingResp{
		ID:        r.ID,
		UserID:    r.UserID,
		TitleID:   r.TitleID,
		Score:     r.Score,
		Comment:   r.Comment,
		Nickname:  nickname,
		CreatedAt: r.CreatedAt,
	}
}
