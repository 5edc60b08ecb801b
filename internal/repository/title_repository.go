package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kavehm/watchlog/internal/model"
)

// TitleRepo persists titles and owns the title↔genre association. The
// genre set of a title is replaced as a whole: every referenced genre id is
// validated before a single row is touched, and the delete + reinsert runs
// inside one transaction so callers never observe a partial set.
type TitleRepo struct{ DB *sql.DB }

func NewTitleRepo(db *sql.DB) *TitleRepo { return &TitleRepo{DB: db} }

// Create inserts a title together with its genre links. Title insert and
// link insert share a transaction: an unknown genre id rolls the whole
// thing back, so a title never lands with a half-written genre set.
func (r *TitleRepo) Create(ctx context.Context, t *model.Title, genreIDs []uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO titles (name, description, release_year, image_url, type, seasons_count, episodes_count, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		t.Name, t.Description, t.ReleaseYear, t.ImageURL, string(t.Type),
		t.SeasonsCount, t.EpisodesCount, now, now)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.CreatedAt = now
	t.UpdatedAt = now

	ids, err := validateGenresTx(ctx, tx, genreIDs)
	if err != nil {
		return err
	}
	if err := insertGenreLinksTx(ctx, tx, t.ID, ids); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceGenres swaps the full genre set of a title: validate every id,
// delete the existing links, insert the new deduplicated set. An empty id
// list is legal and leaves the title with zero genres. On any failure the
// previous associations stay untouched.
func (r *TitleRepo) ReplaceGenres(ctx context.Context, titleID uint64, genreIDs []uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	if err := tx.QueryRowContext(ctx,
		"SELECT 1 FROM titles WHERE id=? LIMIT 1", titleID).Scan(&one); err != nil {
		return err // sql.ErrNoRows when the title is absent
	}
	ids, err := validateGenresTx(ctx, tx, genreIDs)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM title_genres WHERE title_id=?", titleID); err != nil {
		return err
	}
	if err := insertGenreLinksTx(ctx, tx, titleID, ids); err != nil {
		return err
	}
	return tx.Commit()
}

// validateGenresTx deduplicates the ids and confirms each references an
// existing genre. The first missing id is reported wrapped around
// ErrGenreMissing. Runs before any mutation.
func validateGenresTx(ctx context.Context, tx *sql.Tx, genreIDs []uint64) ([]uint64, error) {
	ids := dedupeIDs(genreIDs)
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := tx.QueryContext(ctx,
		"SELECT id FROM genres WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	found := make(map[uint64]bool, len(ids))
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if !found[id] {
			return nil, fmt.Errorf("genre %d: %w", id, ErrGenreMissing)
		}
	}
	return ids, nil
}

func insertGenreLinksTx(ctx context.Context, tx *sql.Tx, titleID uint64, genreIDs []uint64) error {
	if len(genreIDs) == 0 {
		return nil
	}
	query := "INSERT INTO title_genres (title_id, genre_id) VALUES "
	args := make([]any, 0, len(genreIDs)*2)
	for i, gid := range genreIDs {
		if i > 0 {
			query += ","
		}
		query += "(?,?)"
		args = append(args, titleID, gid)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func dedupeIDs(ids []uint64) []uint64 {
	seen := make(map[uint64]bool, len(ids))
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

const titleColumns = "id,name,description,release_year,image_url,type,seasons_count,episodes_count,created_at,updated_at"

// GetByID fetches a single title.
func (r *TitleRepo) GetByID(ctx context.Context, id uint64) (model.Title, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+titleColumns+" FROM titles WHERE id=? LIMIT 1", id)
	return scanTitle(row)
}

// Exists reports whether a title id is present.
func (r *TitleRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM titles WHERE id=? LIMIT 1", id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

// List returns all titles ordered by name.
func (r *TitleRepo) List(ctx context.Context) ([]model.Title, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+titleColumns+" FROM titles ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Title{}
	for rows.Next() {
		t, err := scanTitle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GenresFor returns the genres linked to a title, ordered by name.
func (r *TitleRepo) GenresFor(ctx context.Context, titleID uint64) ([]model.Genre, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT g.id, g.name FROM genres g
		 JOIN title_genres tg ON tg.genre_id = g.id
		 WHERE tg.title_id = ? ORDER BY g.name`, titleID)
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

// Update rewrites the mutable fields of a title. Type is immutable and is
// not part of the statement.
func (r *TitleRepo) Update(ctx context.Context, t *model.Title) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE titles SET name=?, description=?, release_year=?, image_url=?,
		 seasons_count=?, episodes_count=?, updated_at=? WHERE id=?`,
		t.Name, t.Description, t.ReleaseYear, t.ImageURL,
		t.SeasonsCount, t.EpisodesCount, time.Now().UTC(), t.ID)
	if err != nil {
		return err
	}
	return noneAffectedIsNoRows(res)
}

// Delete removes a title; genre links, list entries and ratings cascade.
func (r *TitleRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM titles WHERE id=?", id)
	if err != nil {
		return err
	}
	return noneAffectedIsNoRows(res)
}

type rowScanner interface{ Scan(dest ...any) error }

func scanTitle(row rowScanner) (model.Title, error) {
	var (
		t        model.Title
		typ      string
		desc     sql.NullString
		img      sql.NullString
		year     sql.NullInt64
		seasons  sql.NullInt64
		episodes sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.Name, &desc, &year, &img, &typ,
		&seasons, &episodes, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.Title{}, err
	}
	if t.Type, err = model.ParseTitleType(typ); err != nil {
		return model.Title{}, err
	}
	if desc.Valid {
		s := desc.String
		t.Description = &s
	}
	if img.Valid {
		s := img.String
		t.ImageURL = &s
	}
	if year.Valid {
		n := int(year.Int64)
		t.ReleaseYear = &n
	}
	if seasons.Valid {
		n := int(seasons.Int64)
		t.SeasonsCount = &n
	}
	if episodes.Valid {
		n := int(episodes.Int64)
		t.EpisodesCount = &n
	}
	return t, nil
}
