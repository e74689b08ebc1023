package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"fintrack/internal/config"
)

const seedHistory = "mes;ingresos;gastos;saldo\n2024-01;1500,00;800,00;3200,50\n2024-02;100;50;3250,50"

func writeSeed(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.csv")
	if err := os.WriteFile(path, []byte(seedHistory), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromAppConfig(t *testing.T) {
	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
	cfg, err := FromAppConfig(&config.Config{DataBackend: "sqlite", SQLiteDBPath: "x.db", SeedCSV: "seed.csv"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.SQLiteDBPath != "x.db" || cfg.SeedCSV != "seed.csv" {
		t.Fatalf("unexpected backend config %+v", cfg)
	}
}

func TestCreateBackend_Memory(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend, SeedCSV: writeSeed(t)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := res.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}
	all, err := res.Store.ListAll(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected seeded store, got %v %+v", err, all)
	}
}

func TestCreateBackend_SQLiteSeedsOnce(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "fintrack.db")
	seed := writeSeed(t)
	f := NewFactory(nil)

	res, err := f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: dbPath, SeedCSV: seed})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := res.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if err := res.Store.DeleteOne(ctx, "2024-02"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := res.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	// a populated database is not re-seeded
	res, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: dbPath, SeedCSV: seed})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer res.Cleanup()
	all, err := res.Store.ListAll(ctx)
	if err != nil || len(all) != 1 || all[0].Month != "2024-01" {
		t.Fatalf("unexpected snapshots after reopen: %v %+v", err, all)
	}
}

func TestCreateBackend_Invalid(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend}); err == nil {
		t.Fatal("expected error for sqlite without path")
	}
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: "sheets"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
