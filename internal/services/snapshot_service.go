package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/importer"
	applog "fintrack/internal/log"
	"fintrack/internal/store"
)

var (
	ErrReadOnly      = errors.New("read-only mode: changes are disabled")
	ErrInvalidAmount = errors.New("invalid amount")

	// Income and expense cannot be negative. Both match ErrInvalidAmount.
	ErrInvalidIncome  = fmt.Errorf("%w: negative income", ErrInvalidAmount)
	ErrInvalidExpense = fmt.Errorf("%w: negative expense", ErrInvalidAmount)
)

// ChangePublisher announces snapshot changes to downstream consumers.
type ChangePublisher interface {
	PublishSnapshotChange(ctx context.Context, msg *amqp.SnapshotChangeMessage) error
}

// SnapshotService orchestrates snapshot mutations and reads across the store
// and the change publisher. Mutations run one at a time.
type SnapshotService struct {
	store     store.SnapshotStore
	publisher ChangePublisher
	readOnly  bool
	logger    *applog.Logger
	now       func() time.Time

	mu       sync.Mutex
	onChange []func()
}

// Option configures a SnapshotService.
type Option func(*SnapshotService)

// WithPublisher sets the change publisher; nil disables publishing.
func WithPublisher(p ChangePublisher) Option {
	return func(s *SnapshotService) { s.publisher = p }
}

// WithReadOnly rejects every mutation with ErrReadOnly.
func WithReadOnly(readOnly bool) Option {
	return func(s *SnapshotService) { s.readOnly = readOnly }
}

// WithClock overrides the clock used to detect the current month.
func WithClock(now func() time.Time) Option {
	return func(s *SnapshotService) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(l *applog.Logger) Option {
	return func(s *SnapshotService) { s.logger = l }
}

func NewSnapshotService(st store.SnapshotStore, opts ...Option) *SnapshotService {
	s := &SnapshotService{
		store:  st,
		now:    time.Now,
		logger: applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentSnapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers a callback run after every successful mutation.
func (s *SnapshotService) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// ReadOnly reports whether mutations are disabled.
func (s *SnapshotService) ReadOnly() bool { return s.readOnly }

// CurrentMonth returns the month key of the service clock.
func (s *SnapshotService) CurrentMonth() string {
	t := s.now()
	return core.FormatMonthKey(t.Year(), int(t.Month()))
}

// mutate serialises mutations, then publishes the change and fires the hooks.
func (s *SnapshotService) mutate(ctx context.Context, msg *amqp.SnapshotChangeMessage, fn func() error) error {
	if s.readOnly {
		return ErrReadOnly
	}
	s.mu.Lock()
	err := fn()
	hooks := append([]func(){}, s.onChange...)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	for _, h := range hooks {
		h()
	}
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No change publisher configured, skipping change message")
		return nil
	}
	if err := s.publisher.PublishSnapshotChange(ctx, msg); err != nil {
		// The change is already stored; consumers catch up on the next event.
		s.logger.ErrorContext(ctx, "Failed to publish change message",
			applog.NewFields().WithOperation(string(msg.Operation)).WithError(err).ToSlice()...)
	}
	return nil
}

// Save validates and upserts one month.
func (s *SnapshotService) Save(ctx context.Context, snap core.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	err := s.mutate(ctx, amqp.NewSnapshotChangeMessage(amqp.OpUpsert, snap.Month), func() error {
		if err := s.store.Upsert(ctx, snap); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		return nil
	})
	if err == nil {
		s.logger.InfoContext(ctx, "Snapshot saved", applog.NewFields().WithSnapshot(snap).WithOperation(applog.OpUpdate).ToSlice()...)
	}
	return err
}

// SaveAmounts parses loosely formatted amounts and saves the month. A blank
// field counts as zero. Only the balance may be negative.
func (s *SnapshotService) SaveAmounts(ctx context.Context, month, income, expense, balance string) (core.Snapshot, error) {
	snap := core.Snapshot{Month: month}
	fields := []struct {
		name     string
		raw      string
		dst      *int64
		negative error
	}{
		{"income", income, &snap.IncomeCents, ErrInvalidIncome},
		{"expense", expense, &snap.ExpenseCents, ErrInvalidExpense},
		{"balance", balance, &snap.BalanceCents, nil},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		v, ok := core.ParseLooseCents(f.raw)
		if !ok {
			return core.Snapshot{}, fmt.Errorf("%w: %s %q", ErrInvalidAmount, f.name, f.raw)
		}
		if v < 0 && f.negative != nil {
			return core.Snapshot{}, f.negative
		}
		*f.dst = v
	}
	if err := s.Save(ctx, snap); err != nil {
		return core.Snapshot{}, err
	}
	return snap, nil
}

// ImportResult describes a parsed import. Applied is false for previews.
type ImportResult struct {
	BatchID string          `json:"batchId"`
	Scope   importer.Scope  `json:"scope"`
	Target  string          `json:"target,omitempty"`
	Records []core.Snapshot `json:"records"`
	Applied bool            `json:"applied"`
}

// Import parses text for scope and, when confirm is set, persists the whole
// batch. A parse failure returns an *importer.Error and writes nothing.
func (s *SnapshotService) Import(ctx context.Context, scope importer.Scope, text, target string, confirm bool) (*ImportResult, error) {
	records, err := importer.Parse(scope, text, target)
	if err != nil {
		fields := applog.NewFields().WithOperation(applog.OpParse).WithError(err)
		if ie, ok := importer.AsError(err); ok {
			fields = fields.WithImportError(string(ie.Kind), ie.Line)
		}
		s.logger.WarnContext(ctx, "Import rejected", fields.ToSlice()...)
		return nil, err
	}

	res := &ImportResult{BatchID: uuid.NewString(), Scope: scope, Target: target, Records: records}
	if !confirm {
		return res, nil
	}

	months := make([]string, len(records))
	for i, r := range records {
		months[i] = r.Month
	}
	msg := amqp.NewSnapshotChangeMessage(amqp.OpImport, months...)
	msg.ID = res.BatchID

	err = s.mutate(ctx, msg, func() error {
		if err := s.store.UpsertMany(ctx, records); err != nil {
			return fmt.Errorf("apply import: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	res.Applied = true
	s.logger.InfoContext(ctx, "Import applied",
		applog.NewFields().WithImport(res.BatchID, string(scope), len(records)).WithOperation(applog.OpImport).ToSlice()...)
	return res, nil
}

// DeleteMonth removes one month.
func (s *SnapshotService) DeleteMonth(ctx context.Context, month string) error {
	if _, _, err := core.ParseMonthKey(month); err != nil {
		return err
	}
	return s.mutate(ctx, amqp.NewSnapshotChangeMessage(amqp.OpDeleteMonth, month), func() error {
		return s.store.DeleteOne(ctx, month)
	})
}

// DeleteYear removes every month of year.
func (s *SnapshotService) DeleteYear(ctx context.Context, year string) error {
	if err := core.ValidateYear(year); err != nil {
		return err
	}
	msg := amqp.NewSnapshotChangeMessage(amqp.OpDeleteYear)
	msg.Year = year
	return s.mutate(ctx, msg, func() error {
		return s.store.DeleteYear(ctx, year)
	})
}

// DeleteAll empties the store.
func (s *SnapshotService) DeleteAll(ctx context.Context) error {
	return s.mutate(ctx, amqp.NewSnapshotChangeMessage(amqp.OpDeleteAll), func() error {
		return s.store.DeleteAll(ctx)
	})
}

// Snapshots returns every stored snapshot ordered by month.
func (s *SnapshotService) Snapshots(ctx context.Context) ([]core.Snapshot, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return all, nil
}

// loadMonth fetches the month and the full list concurrently.
func (s *SnapshotService) loadMonth(ctx context.Context, month string) (core.Snapshot, bool, []core.Snapshot, error) {
	var (
		snap  core.Snapshot
		found bool
		all   []core.Snapshot
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		got, err := s.store.Get(gctx, month)
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get snapshot: %w", err)
		}
		snap, found = got, true
		return nil
	})
	g.Go(func() error {
		var err error
		all, err = s.Snapshots(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Snapshot{}, false, nil, err
	}
	return snap, found, all, nil
}

// Close closes the store when it owns resources.
func (s *SnapshotService) Close() error {
	if c, ok := s.store.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close snapshot store: %w", err)
		}
	}
	return nil
}
