package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/importer"
	applog "fintrack/internal/log"
	"fintrack/internal/store/memory"
)

type fakeMirror struct {
	calls atomic.Int32
	rows  atomic.Int32
	err   error
}

func (m *fakeMirror) Sync(_ context.Context, snapshots []core.Snapshot) error {
	m.calls.Add(1)
	m.rows.Store(int32(len(snapshots)))
	return m.err
}

func seededStore() *memory.Store {
	return memory.New(
		core.Snapshot{Month: "2024-01", IncomeCents: 150000, ExpenseCents: 80000, BalanceCents: 320050},
		core.Snapshot{Month: "2024-02", IncomeCents: 100000, ExpenseCents: 50000, BalanceCents: 370050},
	)
}

func TestBackupWorker_HandleChange(t *testing.T) {
	dir := t.TempDir()
	mirror := &fakeMirror{}
	w := NewBackupWorker(seededStore(), dir, "es", mirror, applog.Discard())

	msg := amqp.NewSnapshotChangeMessage(amqp.OpImport, "2024-01", "2024-02")
	if err := w.HandleChange(context.Background(), msg); err != nil {
		t.Fatalf("handle change: %v", err)
	}

	csvData, err := os.ReadFile(filepath.Join(dir, "fintrack-snapshots.csv"))
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !strings.HasPrefix(string(csvData), "mes;ingresos;gastos;saldo al cierre\n2024-01;1500,00;800,00;3200,50") {
		t.Fatalf("unexpected csv:\n%s", csvData)
	}
	back, err := importer.ParseHistory(string(csvData))
	if err != nil || len(back) != 2 {
		t.Fatalf("csv backup does not re-import: %v %+v", err, back)
	}

	sqlData, err := os.ReadFile(filepath.Join(dir, "fintrack-snapshots.sql"))
	if err != nil {
		t.Fatalf("read sql: %v", err)
	}
	if strings.Count(string(sqlData), "INSERT INTO monthly_snapshots") != 2 {
		t.Fatalf("unexpected sql dump:\n%s", sqlData)
	}

	if mirror.calls.Load() != 1 || mirror.rows.Load() != 2 {
		t.Fatalf("mirror called %d times with %d rows", mirror.calls.Load(), mirror.rows.Load())
	}
	if at, n := w.LastRun(); at.IsZero() || n != 2 {
		t.Fatalf("unexpected last run %v %d", at, n)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestBackupWorker_MirrorFailure(t *testing.T) {
	mirror := &fakeMirror{err: errors.New("quota exceeded")}
	w := NewBackupWorker(seededStore(), "", "en", mirror, applog.Discard())

	err := w.HandleChange(context.Background(), amqp.NewSnapshotChangeMessage(amqp.OpDeleteAll))
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected mirror error, got %v", err)
	}
	if at, _ := w.LastRun(); !at.IsZero() {
		t.Fatal("failed backup must not update last run")
	}
}

func TestBackupWorker_NoTargets(t *testing.T) {
	w := NewBackupWorker(memory.New(), "", "", nil, nil)
	if err := w.StartupBackup(context.Background()); err != nil {
		t.Fatalf("startup backup: %v", err)
	}
	if _, n := w.LastRun(); n != 0 {
		t.Fatalf("expected empty backup, got %d", n)
	}
}

type countingBackuper struct{ n atomic.Int32 }

func (c *countingBackuper) Backup(context.Context) error {
	c.n.Add(1)
	return nil
}

func TestScheduler_RunsPeriodically(t *testing.T) {
	b := &countingBackuper{}
	s := NewScheduler(b, SchedulerConfig{Interval: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("scheduler should be running")
	}
	if err := s.Start(ctx); err == nil {
		t.Fatal("expected error when starting twice")
	}

	deadline := time.Now().Add(2 * time.Second)
	for b.n.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if b.n.Load() < 2 {
		t.Fatalf("expected at least two runs, got %d", b.n.Load())
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := s.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if s.IsRunning() {
		t.Fatal("scheduler should be stopped")
	}
}

func TestScheduler_StopNotRunning(t *testing.T) {
	s := NewScheduler(&countingBackuper{}, SchedulerConfig{})
	if s.config.Interval != time.Hour {
		t.Fatalf("expected default interval, got %v", s.config.Interval)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop should not error when not running: %v", err)
	}
}
