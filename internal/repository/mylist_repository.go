package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/kavehm/watchlog/internal/model"
)

// ListRepo persists my-list entries. The (user_id, title_id) pair is
// unique; the existence pre-check gives the friendly Conflict on the common
// path and the unique index catches the race.
type ListRepo struct{ DB *sql.DB }

func NewListRepo(db *sql.DB) *ListRepo { return &ListRepo{DB: db} }

// Add inserts a tracking entry for a title. Both AddedAt and
// StatusUpdatedAt start at now.
func (r *ListRepo) Add(ctx context.Context, userID, titleID uint64, status model.WatchStatus) (model.ListEntry, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM my_list WHERE user_id=? AND title_id=? LIMIT 1",
		userID, titleID).Scan(&one)
	if err == nil {
		return model.ListEntry{}, ErrAlreadyListed
	}
	if err != sql.ErrNoRows {
		return model.ListEntry{}, err
	}

	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO my_list (user_id, title_id, status, added_at, status_updated_at) VALUES (?,?,?,?,?)",
		userID, titleID, string(status), now, now)
	if err != nil {
		if isDuplicate(err) {
			return model.ListEntry{}, ErrAlreadyListed
		}
		return model.ListEntry{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.ListEntry{}, err
	}
	return model.ListEntry{
		ID:              uint64(id),
		UserID:          userID,
		TitleID:         titleID,
		Status:          status,
		AddedAt:         now,
		StatusUpdatedAt: now,
	}, nil
}

// GetByID fetches a single entry, for the ownership gate before mutations.
func (r *ListRepo) GetByID(ctx context.Context, id uint64) (model.ListEntry, error) {
	var (
		e      model.ListEntry
		status string
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, title_id, status, added_at, status_updated_at FROM my_list WHERE id=? LIMIT 1",
		id).Scan(&e.ID, &e.UserID, &e.TitleID, &status, &e.AddedAt, &e.StatusUpdatedAt)
	if err != nil {
		return model.ListEntry{}, err
	}
	if e.Status, err = model.ParseWatchStatus(status); err != nil {
		return model.ListEntry{}, err
	}
	return e, nil
}

// UpdateStatus sets a new status and refreshes status_updated_at. AddedAt
// is never touched.
func (r *ListRepo) UpdateStatus(ctx context.Context, id uint64, status model.WatchStatus) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE my_list SET status=?, status_updated_at=? WHERE id=?",
		string(status), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return noneAffectedIsNoRows(res)
}

// Delete hard-deletes an entry.
func (r *ListRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM my_list WHERE id=?", id)
	if err != nil {
		return err
	}
	return noneAffectedIsNoRows(res)
}

// EntryWithTitle is a list entry joined with its title summary for the
// user's list view.
type EntryWithTitle struct {
	model.ListEntry
	TitleName string
	TitleType model.TitleType
}

// ListByUser returns a user's entries, newest first, optionally filtered by
// status.
func (r *ListRepo) ListByUser(ctx context.Context, userID uint64, status *model.WatchStatus) ([]EntryWithTitle, error) {
	query := `SELECT e.id, e.user_id, e.title_id, e.status, e.added_at, e.status_updated_at, t.name, t.type
	          FROM my_list e JOIN titles t ON t.id = e.title_id
	          WHERE e.user_id = ?`
	args := []any{userID}
	if status != nil {
		query += " AND e.status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY e.added_at DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []EntryWithTitle{}
	for rows.Next() {
		var (
			e       EntryWithTitle
			st, typ string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.TitleID, &st, &e.AddedAt, &e.StatusUpdatedAt, &e.TitleName, &typ); err != nil {
			return nil, err
		}
		if e.Status, err = model.ParseWatchStatus(st); err != nil {
			return nil, err
		}
		if e.TitleType, err = model.ParseTitleType(typ); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
