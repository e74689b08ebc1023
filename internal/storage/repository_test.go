package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "fintrack.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryUpsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, err := repo.Get(ctx, "2024-01"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	in := core.Snapshot{Month: "2024-01", IncomeCents: 150000, ExpenseCents: 80000, BalanceCents: 320050}
	if err := repo.Upsert(ctx, in); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	in.BalanceCents = -100
	if err := repo.Upsert(ctx, in); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := repo.Get(ctx, "2024-01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != in {
		t.Fatalf("got %+v, want %+v", got, in)
	}

	if err := repo.Upsert(ctx, core.Snapshot{Month: "2024-13"}); !errors.Is(err, core.ErrInvalidMonthKey) {
		t.Fatalf("expected ErrInvalidMonthKey, got %v", err)
	}
}

func TestSQLiteRepositoryUpsertManyAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	batch := []core.Snapshot{
		{Month: "2024-02", IncomeCents: 2},
		{Month: "2023-12", IncomeCents: 1},
		{Month: "2024-02", IncomeCents: 3},
	}
	if err := repo.UpsertMany(ctx, batch); err != nil {
		t.Fatalf("upsert many: %v", err)
	}
	all, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 || all[0].Month != "2023-12" || all[1].Month != "2024-02" || all[1].IncomeCents != 3 {
		t.Fatalf("unexpected snapshots: %+v", all)
	}

	if err := repo.UpsertMany(ctx, []core.Snapshot{{Month: "2025-01"}, {Month: "oops"}}); err == nil {
		t.Fatal("expected invalid batch to fail")
	}
	if all, _ := repo.ListAll(ctx); len(all) != 2 {
		t.Fatalf("invalid batch partially applied: %+v", all)
	}
}

func TestSQLiteRepositoryDeletes(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if err := repo.UpsertMany(ctx, []core.Snapshot{
		{Month: "2023-12"}, {Month: "2024-01"}, {Month: "2024-06"}, {Month: "2025-01"},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := repo.DeleteOne(ctx, "2025-01"); err != nil {
		t.Fatalf("delete one: %v", err)
	}
	if err := repo.DeleteYear(ctx, "2024"); err != nil {
		t.Fatalf("delete year: %v", err)
	}
	all, _ := repo.ListAll(ctx)
	if len(all) != 1 || all[0].Month != "2023-12" {
		t.Fatalf("unexpected remaining: %+v", all)
	}
	if err := repo.DeleteYear(ctx, "2%"); !errors.Is(err, core.ErrInvalidYear) {
		t.Fatalf("expected ErrInvalidYear, got %v", err)
	}
	if err := repo.DeleteAll(ctx); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if all, _ := repo.ListAll(ctx); len(all) != 0 {
		t.Fatalf("expected empty table, got %+v", all)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		repo.Close()
	}
}

func TestSchema(t *testing.T) {
	s := Schema()
	if !strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS monthly_snapshots") {
		t.Fatalf("unexpected schema: %q", s)
	}
}
