package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/export"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

// Mirror receives the full snapshot table after every change.
type Mirror interface {
	Sync(ctx context.Context, snapshots []core.Snapshot) error
}

// BackupWorker rewrites the CSV and SQL backups and the optional mirror from
// the store. Change messages only carry keys, so every run reloads everything.
type BackupWorker struct {
	store     store.SnapshotReader
	exportDir string
	locale    string
	mirror    Mirror
	logger    *applog.Logger

	mu       sync.Mutex
	lastRun  time.Time
	lastSize int
}

// NewBackupWorker creates a worker. An empty exportDir disables file backups
// and a nil mirror disables the spreadsheet copy.
func NewBackupWorker(st store.SnapshotReader, exportDir, locale string, mirror Mirror, logger *applog.Logger) *BackupWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &BackupWorker{
		store:     st,
		exportDir: exportDir,
		locale:    locale,
		mirror:    mirror,
		logger:    logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleChange processes one change message from AMQP.
func (w *BackupWorker) HandleChange(ctx context.Context, msg *amqp.SnapshotChangeMessage) error {
	w.logger.InfoContext(ctx, "Processing change message",
		"id", msg.ID,
		applog.FieldOperation, string(msg.Operation),
		"months", len(msg.Months))

	if err := w.Backup(ctx); err != nil {
		return fmt.Errorf("backup after %s: %w", msg.Operation, err)
	}
	return nil
}

// Backup writes every configured target concurrently. Runs are serialised so
// two messages never interleave writes to the same files.
func (w *BackupWorker) Backup(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	snapshots, err := w.store.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	if w.exportDir != "" {
		g.Go(func() error {
			return writeFileAtomic(filepath.Join(w.exportDir, export.FileName("csv")), export.CSV(snapshots, w.locale))
		})
		g.Go(func() error {
			return writeFileAtomic(filepath.Join(w.exportDir, export.FileName("sql")), export.SQLDump(snapshots))
		})
	}
	if w.mirror != nil {
		g.Go(func() error {
			if err := w.mirror.Sync(gctx, snapshots); err != nil {
				return fmt.Errorf("sync mirror: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		w.logger.ErrorContext(ctx, "Backup failed", applog.FieldError, err)
		return err
	}

	w.lastRun = time.Now()
	w.lastSize = len(snapshots)
	w.logger.InfoContext(ctx, "Backup completed",
		applog.FieldRecords, len(snapshots),
		"export_dir", w.exportDir,
		"mirror", w.mirror != nil)
	return nil
}

// LastRun returns the time and size of the last successful backup.
func (w *BackupWorker) LastRun() (time.Time, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastRun, w.lastSize
}

// StartupBackup runs one backup so missed messages are covered after downtime.
func (w *BackupWorker) StartupBackup(ctx context.Context) error {
	if err := w.Backup(ctx); err != nil {
		return fmt.Errorf("startup backup: %w", err)
	}
	return nil
}

func writeFileAtomic(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
