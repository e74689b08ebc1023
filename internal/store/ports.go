package store

import (
	"context"

	"fintrack/internal/core"
)

// Ports for the snapshot persistence collaborator.
type (
	SnapshotReader interface {
		// Get returns the snapshot for month, or core.ErrNotFound.
		Get(ctx context.Context, month string) (core.Snapshot, error)
		// ListAll returns every stored snapshot ordered by month.
		ListAll(ctx context.Context) ([]core.Snapshot, error)
	}

	SnapshotWriter interface {
		// Upsert inserts or overwrites the snapshot keyed by its month.
		Upsert(ctx context.Context, s core.Snapshot) error
		// UpsertMany applies a whole import batch, all or nothing. Later
		// entries win over earlier ones with the same month.
		UpsertMany(ctx context.Context, batch []core.Snapshot) error
		DeleteOne(ctx context.Context, month string) error
		// DeleteYear removes every month whose key starts with "YYYY-".
		DeleteYear(ctx context.Context, year string) error
		DeleteAll(ctx context.Context) error
	}

	SnapshotStore interface {
		SnapshotReader
		SnapshotWriter
	}
)
