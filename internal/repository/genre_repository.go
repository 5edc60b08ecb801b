package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/kavehm/watchlog/internal/model"
)

// GenreRepo persists genres. Names are unique; duplicates map to
// ErrGenreExists whether caught by the pre-check or the unique index.
type GenreRepo struct{ DB *sql.DB }

func NewGenreRepo(db *sql.DB) *GenreRepo { return &GenreRepo{DB: db} }

// Create inserts a genre and returns it with its generated id.
func (r *GenreRepo) Create(ctx context.Context, name string) (model.Genre, error) {
	name = strings.TrimSpace(name)
	res, err := r.DB.ExecContext(ctx, "INSERT INTO genres (name) VALUES (?)", name)
	if err != nil {
		if isDuplicate(err) {
			return model.Genre{}, ErrGenreExists
		}
		return model.Genre{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Genre{}, err
	}
	return model.Genre{ID: uint64(id), Name: name}, nil
}

// GetByID fetches a single genre.
func (r *GenreRepo) GetByID(ctx context.Context, id uint64) (model.Genre, error) {
	var g model.Genre
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name FROM genres WHERE id=? LIMIT 1", id).Scan(&g.ID, &g.Name)
	return g, err
}

// List returns all genres ordered by name.
func (r *GenreRepo) List(ctx context.Context) ([]model.Genre, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, name FROM genres ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Genre{}
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Name); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Update renames a genre.
func (r *GenreRepo) Update(ctx context.Context, id uint64, name string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE genres SET name=? WHERE id=?", strings.TrimSpace(name), id)
	if err != nil {
		if isDuplicate(err) {
			return ErrGenreExists
		}
		return err
	}
	return noneAffectedIsNoRows(res)
}

// Delete removes a genre; its title associations cascade in the store.
func (r *GenreRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM genres WHERE id=?", id)
	if err != nil {
		return err
	}
	return noneAffectedIsNoRows(res)
}
