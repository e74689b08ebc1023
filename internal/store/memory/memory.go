package memory

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/importer"
)

type Store struct {
	mu    sync.Mutex
	items map[string]core.Snapshot
}

func New(seed ...core.Snapshot) *Store {
	s := &Store{items: make(map[string]core.Snapshot, len(seed))}
	for _, snap := range seed {
		s.items[snap.Month] = snap
	}
	return s
}

// NewFromFile seeds the store with a history CSV. A missing path yields an
// empty store; a file that fails to import is an error.
func NewFromFile(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return New(), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	batch, err := importer.ParseHistory(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return New(batch...), nil
}

// Get returns the snapshot for month.
func (s *Store) Get(_ context.Context, month string) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.items[month]
	if !ok {
		return core.Snapshot{}, core.ErrNotFound
	}
	return snap, nil
}

// ListAll returns a copy of every snapshot ordered by month.
func (s *Store) ListAll(_ context.Context) ([]core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Snapshot, 0, len(s.items))
	for _, snap := range s.items {
		out = append(out, snap)
	}
	slices.SortFunc(out, func(a, b core.Snapshot) int { return strings.Compare(a.Month, b.Month) })
	return out, nil
}

func (s *Store) Upsert(_ context.Context, snap core.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[snap.Month] = snap
	return nil
}

// UpsertMany validates the whole batch before touching the map.
func (s *Store) UpsertMany(_ context.Context, batch []core.Snapshot) error {
	for _, snap := range batch {
		if err := snap.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range batch {
		s.items[snap.Month] = snap
	}
	return nil
}

func (s *Store) DeleteOne(_ context.Context, month string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, month)
	return nil
}

func (s *Store) DeleteYear(_ context.Context, year string) error {
	if err := core.ValidateYear(year); err != nil {
		return err
	}
	prefix := year + "-"
	s.mu.Lock()
	defer s.mu.Unlock()
	for month := range s.items {
		if strings.HasPrefix(month, prefix) {
			delete(s.items, month)
		}
	}
	return nil
}

func (s *Store) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.items)
	return nil
}
