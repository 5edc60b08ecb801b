package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/kavehm/watchlog/internal/model"
)

// RatingRepo persists ratings. One rating per (user, title); re-rating
// goes through Update.
type RatingRepo struct{ DB *sql.DB }

func NewRatingRepo(db *sql.DB) *RatingRepo { return &RatingRepo{DB: db} }

// Create inserts a rating. Score bounds are validated by the handler
// before this is called; the duplicate pair maps to ErrAlreadyRated.
func (r *RatingRepo) Create(ctx context.Context, userID, titleID uint64, score int, comment *string) (model.Rating, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM ratings WHERE user_id=? AND title_id=? LIMIT 1",
		userID, titleID).Scan(&one)
	if err == nil {
		return model.Rating{}, ErrAlreadyRated
	}
	if err != sql.ErrNoRows {
		return model.Rating{}, err
	}

	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO ratings (user_id, title_id, score, comment, created_at, updated_at) VALUES (?,?,?,?,?,?)",
		userID, titleID, score, comment, now, now)
	if err != nil {
		if isDuplicate(err) {
			return model.Rating{}, ErrAlreadyRated
		}
		return model.Rating{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Rating{}, err
	}
	return model.Rating{
		ID:        uint64(id),
		UserID:    userID,
		TitleID:   titleID,
		Score:     score,
		Comment:   comment,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// GetByID fetches a single rating, for the ownership gate before mutations.
func (r *RatingRepo) GetByID(ctx context.Context, id uint64) (model.Rating, error) {
	var (
		rt      model.Rating
		comment sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, title_id, score, comment, created_at, updated_at FROM ratings WHERE id=? LIMIT 1",
		id).Scan(&rt.ID, &rt.UserID, &rt.TitleID, &rt.Score, &comment, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return model.Rating{}, err
	}
	if comment.Valid {
		s := comment.String
		rt.Comment = &s
	}
	return rt, nil
}

// Update applies a partial change: only non-nil fields are written.
// Passing neither field is a no-op.
func (r *RatingRepo) Update(ctx context.Context, id uint64, score *int, comment *string) error {
	set := ""
	args := []any{}
	if score != nil {
		set += "score=?, "
		args = append(args, *score)
	}
	if comment != nil {
		set += "comment=?, "
		args = append(args, *comment)
	}
	if len(args) == 0 {
		return nil
	}
	args = append(args, time.Now().UTC(), id)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE ratings SET "+set+"updated_at=? WHERE id=?", args...)
	if err != nil {
		return err
	}
	return noneAffectedIsNoRows(res)
}

// Delete hard-deletes a rating.
func (r *RatingRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM ratings WHERE id=?", id)
	if err != nil {
		return err
	}
	return noneAffectedIsNoRows(res)
}

// RatingWithUser is a rating joined with the rater's nickname for the
// public per-title listing.
type RatingWithUser struct {
	model.Rating
	Nickname string
}

// ListByTitle returns all ratings for a title, newest first.
func (r *RatingRepo) ListByTitle(ctx context.Context, titleID uint64) ([]RatingWithUser, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT r.id, r.user_id, r.title_id, r.score, r.comment, r.created_at, r.updated_at, u.nickname
		 FROM ratings r JOIN users u ON u.id = r.user_id
		 WHERE r.title_id = ? ORDER BY r.created_at DESC`, titleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RatingWithUser{}
	for rows.Next() {
		var (
			rt      RatingWithUser
			comment sql.NullString
		)
		if err := rows.Scan(&rt.ID, &rt.UserID, &rt.TitleID, &rt.Score, &comment,
			&rt.CreatedAt, &rt.UpdatedAt, &rt.Nickname); err != nil {
			return nil, err
		}
		if comment.Valid {
			s := comment.String
			rt.Comment = &s
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// SummaryForTitle returns the average score and rating count for a title.
// A title with no ratings yields (0, 0).
func (r *RatingRepo) SummaryForTitle(ctx context.Context, titleID uint64) (float64, int, error) {
	var (
		avg   sql.NullFloat64
		count int
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT AVG(score), COUNT(*) FROM ratings WHERE title_id=?", titleID).Scan(&avg, &count)
	if err != nil {
		return 0, 0, err
	}
	return avg.Float64, count, nil
}
