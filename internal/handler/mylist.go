package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kavehm/watchlog/internal/model"
	"github.com/kavehm/watchlog/internal/queue"
	"github.com/kavehm/watchlog/internal/repository"
	"github.com/kavehm/watchlog/internal/service"
)

// ListHandler implements the per-user watch list. Every mutation runs the
// ownership gate: load the entry, 404 if absent, 403 unless the caller
// owns it or is an admin, and only then write.
type ListHandler struct {
	Lists  *repository.ListRepo
	Titles *repository.TitleRepo
}

func NewListHandler(l *repository.ListRepo, t *repository.TitleRepo) *ListHandler {
	return &ListHandler{Lists: l, Titles: t}
}

type addListReq struct {
	TitleID uint64  `json:"title_id"`
	Status  *string `json:"status"`
}

type updateStatusReq struct {
	Status string `json:"status"`
}

type listEntryResp struct {
	ID              uint64    `json:"id"`
	TitleID         uint64    `json:"title_id"`
	Status          string    `json:"status"`
	AddedAt         time.Time `json:"added_at"`
	StatusUpdatedAt time.Time `json:"status_updated_at"`
	TitleName       string    `json:"title_name,omitempty"`
	TitleType       string    `json:"title_type,omitempty"`
}

// Add handles POST /v1/my-list. Status defaults to PLAN_TO_WATCH. A title
// may be tracked at most once per user.
func (h *ListHandler) Add(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req addListReq
	if err := c.Bind(&req); err != nil || req.TitleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title_id required"})
	}
	status := model.StatusPlanToWatch
	if req.Status != nil {
		if status, err = model.ParseWatchStatus(*req.Status); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
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

	entry, err := h.Lists.Add(ctx, p.UserID, req.TitleID, status)
	if err != nil {
		return writeRepoError(c, err, "title not found")
	}

	_ = service.PublishActivity(ctx, queue.ActivityEvent{
		Kind:       queue.KindListUpdated,
		UserID:     p.UserID,
		TitleID:    req.TitleID,
		Detail:     string(status),
		OccurredAt: entry.AddedAt.Format(time.RFC3339),
	})
	return c.JSON(http.StatusCreated, entryResp(entry))
}

// UpdateStatus handles PATCH /v1/my-list/:id. Only status_updated_at
// moves; added_at stays as it was.
func (h *ListHandler) UpdateStatus(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	status, err := model.ParseWatchStatus(req.Status)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	entry, err := h.Lists.GetByID(ctx, id)
	if err != nil {
		return writeRepoError(c, err, "list entry not found")
	}
	if err := gateOwnership(p, entry.UserID); err != nil {
		return writeRepoError(c, err, "list entry not found")
	}
	if err := h.Lists.UpdateStatus(ctx, id, status); err != nil {
		return writeRepoError(c, err, "list entry not found")
	}
	entry.Status = status
	entry.StatusUpdatedAt = time.Now().UTC()

	_ = service.PublishActivity(ctx, queue.ActivityEvent{
		Kind:       queue.KindListUpdated,
		UserID:     entry.UserID,
		TitleID:    entry.TitleID,
		Detail:     string(status),
		OccurredAt: entry.StatusUpdatedAt.Format(time.RFC3339),
	})
	return c.JSON(http.StatusOK, entryResp(entry))
}

// Remove handles DELETE /v1/my-list/:id.
func (h *ListHandler) Remove(c echo.Context) error {
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

	entry, err := h.Lists.GetByID(ctx, id)
	if err != nil {
		return writeRepoError(c, err, "list entry not found")
	}
	if err := gateOwnership(p, entry.UserID); err != nil {
		return writeRepoError(c, err, "list entry not found")
	}
	if err := h.Lists.Delete(ctx, id); err != nil {
		return writeRepoError(c, err, "list entry not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/my-list with an optional ?status= filter. Callers
// only ever see their own entries.
func (h *ListHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var filter *model.WatchStatus
	if s := c.QueryParam("status"); s != "" {
		st, err := model.ParseWatchStatus(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
		}
		filter = &st
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	entries, err := h.Lists.ListByUser(ctx, p.UserID, filter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]listEntryResp, 0, len(entries))
	for _, e := range entries {
		r := entryResp(e.ListEntry)
		r.TitleName = e.TitleName
		r.TitleType = string(e.TitleType)
		out = append(out, r)
	}
	return c.JSON(http.StatusOK, out)
}

func entryResp(e model.ListEntry) listEntryResp {
	return listEntryResp{
		ID:              e.ID,
		TitleID:         e.TitleID,
		Status:          string(e.Status),
		AddedAt:         e.AddedAt,
		StatusUpdatedAt: e.StatusUpdatedAt,
	}
}
