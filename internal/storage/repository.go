package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

const (
	selectOneSQL = `
SELECT month, income_cents, expense_cents, balance_cents
FROM monthly_snapshots
WHERE month = ?;`

	selectAllSQL = `
SELECT month, income_cents, expense_cents, balance_cents
FROM monthly_snapshots
ORDER BY month;`

	upsertSQL = `
INSERT INTO monthly_snapshots (month, income_cents, expense_cents, balance_cents)
VALUES (?, ?, ?, ?)
ON CONFLICT(month) DO UPDATE SET
  income_cents = excluded.income_cents,
  expense_cents = excluded.expense_cents,
  balance_cents = excluded.balance_cents;`

	deleteOneSQL  = `DELETE FROM monthly_snapshots WHERE month = ?;`
	deleteYearSQL = `DELETE FROM monthly_snapshots WHERE month LIKE ?;`
	deleteAllSQL  = `DELETE FROM monthly_snapshots;`
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements a readiness check.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Get implements store.SnapshotReader
func (r *SQLiteRepository) Get(ctx context.Context, month string) (core.Snapshot, error) {
	var s core.Snapshot
	err := r.db.QueryRowContext(ctx, selectOneSQL, month).
		Scan(&s.Month, &s.IncomeCents, &s.ExpenseCents, &s.BalanceCents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Snapshot{}, core.ErrNotFound
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("get snapshot %s: %w", month, err)
	}
	return s, nil
}

// ListAll implements store.SnapshotReader
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, selectAllSQL)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []core.Snapshot
	for rows.Next() {
		var s core.Snapshot
		if err := rows.Scan(&s.Month, &s.IncomeCents, &s.ExpenseCents, &s.BalanceCents); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}

// Upsert implements store.SnapshotWriter
func (r *SQLiteRepository) Upsert(ctx context.Context, s core.Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, upsertSQL, s.Month, s.IncomeCents, s.ExpenseCents, s.BalanceCents); err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", s.Month, err)
	}

	slog.InfoContext(ctx, "Snapshot saved to SQLite",
		"month", s.Month,
		"income_cents", s.IncomeCents,
		"expense_cents", s.ExpenseCents,
		"balance_cents", s.BalanceCents)
	return nil
}

// UpsertMany writes the batch in a single transaction.
func (r *SQLiteRepository) UpsertMany(ctx context.Context, batch []core.Snapshot) error {
	for _, s := range batch {
		if err := s.Validate(); err != nil {
			return err
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, s := range batch {
		if _, err := stmt.ExecContext(ctx, s.Month, s.IncomeCents, s.ExpenseCents, s.BalanceCents); err != nil {
			return fmt.Errorf("upsert snapshot %s: %w", s.Month, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import transaction: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot batch saved to SQLite", "count", len(batch))
	return nil
}

// DeleteOne implements store.SnapshotWriter
func (r *SQLiteRepository) DeleteOne(ctx context.Context, month string) error {
	if _, err := r.db.ExecContext(ctx, deleteOneSQL, month); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", month, err)
	}
	slog.InfoContext(ctx, "Snapshot deleted", "month", month)
	return nil
}

// DeleteYear implements store.SnapshotWriter
func (r *SQLiteRepository) DeleteYear(ctx context.Context, year string) error {
	if err := core.ValidateYear(year); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, deleteYearSQL, year+"-%")
	if err != nil {
		return fmt.Errorf("delete year %s: %w", year, err)
	}
	n, _ := res.RowsAffected()
	slog.InfoContext(ctx, "Year deleted", "year", year, "rows", n)
	return nil
}

// DeleteAll implements store.SnapshotWriter
func (r *SQLiteRepository) DeleteAll(ctx context.Context) error {
	res, err := r.db.ExecContext(ctx, deleteAllSQL)
	if err != nil {
		return fmt.Errorf("delete all snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.WarnContext(ctx, "All snapshots deleted", "rows", n)
	return nil
}
