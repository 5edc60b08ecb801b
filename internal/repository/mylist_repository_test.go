package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/kavehm/watchlog/internal/model"
)

func TestListRepoAdd(t *testing.T) {
	db := newTestDB(t)
	r := NewListRepo(db)
	ctx := context.Background()

	uid := seedUser(t, db, "alice", "a@x.com")
	tid := seedTitle(t, db, "Dune")

	e, err := r.Add(ctx, uid, tid, model.StatusPlanToWatch)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if e.ID == 0 || e.UserID != uid || e.TitleID != tid {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.AddedAt.IsZero() || !e.AddedAt.Equal(e.StatusUpdatedAt) {
		t.Fatalf("added_at and status_updated_at must start equal: %+v", e)
	}
}

func TestListRepoDuplicatePair(t *testing.T) {
	db := newTestDB(t)
	r := NewListRepo(db)
	ctx := context.Background()

	uid := seedUser(t, db, "alice", "a@x.com")
	tid := seedTitle(t, db, "Dune")

	if _, err := r.Add(ctx, uid, tid, model.StatusPlanToWatch); err != nil {
		t.Fatal(err)
	}
	_, err := r.Add(ctx, uid, tid, model.StatusWatching)
	if !errors.Is(err, ErrAlreadyListed) {
		t.Fatalf("expected ErrAlreadyListed, got %v", err)
	}

	// A different user may track the same title.
	uid2 := seedUser(t, db, "bob", "b@x.com")
	if _, err := r.Add(ctx, uid2, tid, model.StatusPlanToWatch); err != nil {
		t.Fatalf("second user add: %v", err)
	}
}

func TestListRepoUpdateStatusKeepsAddedAt(t *testing.T) {
	db := newTestDB(t)
	r := NewListRepo(db)
	ctx := context.Background()

	uid := seedUser(t, db, "alice", "a@x.com")
	tid := seedTitle(t, db, "Dune")
	e, err := r.Add(ctx, uid, tid, model.StatusPlanToWatch)
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond)
	if err := r.UpdateStatus(ctx, e.ID, model.StatusCompleted); err != nil {
		t.Fatalf("update status: %v", err)
	}

	got, err := r.GetByID(ctx, e.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.StatusCompleted {
		t.Fatalf("status not updated: %q", got.Status)
	}
	if !got.AddedAt.Equal(e.AddedAt) {
		t.Fatalf("added_at must not move: %v -> %v", e.AddedAt, got.AddedAt)
	}
	if !got.StatusUpdatedAt.After(got.AddedAt) {
		t.Fatalf("status_updated_at must advance: %+v", got)
	}
}

func TestListRepoDelete(t *testing.T) {
	db := newTestDB(t)
	r := NewListRepo(db)
	ctx := context.Background()

	uid := seedUser(t, db, "alice", "a@x.com")
	tid := seedTitle(t, db, "Dune")
	e, err := r.Add(ctx, uid, tid, model.StatusPlanToWatch)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.Delete(ctx, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.GetByID(ctx, e.ID); err != sql.ErrNoRows {
		t.Fatalf("expected sql.ErrNoRows after delete, got %v", err)
	}
	if err := r.Delete(ctx, e.ID); err != sql.ErrNoRows {
		t.Fatalf("double delete: expected sql.ErrNoRows, got %v", err)
	}
}

func TestListRepoListByUserWithFilter(t *testing.T) {
	db := newTestDB(t)
	r := NewListRepo(db)
	ctx := context.Background()

	uid := seedUser(t, db, "alice", "a@x.com")
	dune := seedTitle(t, db, "Dune")
	alien := seedTitle(t, db, "Alien")

	if _, err := r.Add(ctx, uid, dune, model.StatusWatching); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Add(ctx, uid, alien, model.StatusCompleted); err != nil {
		t.Fatal(err)
	}

	all, err := r.ListByUser(ctx, uid, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
	if all[0].TitleName == "" {
		t.Fatal("entries must carry the joined title name")
	}

	watching := model.StatusWatching
	filtered, err := r.ListByUser(ctx, uid, &watching)
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 || filtered[0].TitleID != dune {
		t.Fatalf("unexpected filtered result: %+v", filtered)
	}
}
