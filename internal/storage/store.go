package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/xpasha85/treadlogic-server/internal/models"
)

var (
	// ErrNotFound is returned when no plan has the requested id.
	ErrNotFound = errors.New("workout plan not found")

	// ErrCorrupt is returned when stored data cannot be decoded as a
	// collection of plans.
	ErrCorrupt = errors.New("stored workout data is corrupt")
)

// Backend reads and writes the whole plan collection at once. Implementations
// must preserve the order of the slice passed to Save.
type Backend interface {
	Load(ctx context.Context) ([]models.Plan, error)
	Save(ctx context.Context, plans []models.Plan) error
	Close() error
}

// Store implements upsert and delete over a Backend with a load-mutate-save
// cycle. Nothing is cached between calls.
type Store struct {
	backend Backend
	log     *slog.Logger

	// mu is nil unless writes are serialized.
	mu *sync.Mutex
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSerializedWrites runs every load+save pair under one exclusive lock so
// concurrent mutations within this process cannot lose updates.
func WithSerializedWrites() StoreOption {
	return func(s *Store) {
		s.mu = &sync.Mutex{}
	}
}

// NewStore creates a Store on top of backend.
func NewStore(backend Backend, log *slog.Logger, opts ...StoreOption) *Store {
	s := &Store{backend: backend, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every stored plan in collection order.
func (s *Store) List(ctx context.Context) ([]models.Plan, error) {
	plans, err := s.backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading plans: %w", err)
	}
	return plans, nil
}

// Upsert replaces the first plan with the same id in place, or appends plan
// at the end when the id is new. It returns plan as given.
func (s *Store) Upsert(ctx context.Context, plan models.Plan) (models.Plan, error) {
	unlock := s.lock()
	defer unlock()

	plans, err := s.backend.Load(ctx)
	if err != nil {
		return models.Plan{}, fmt.Errorf("loading plans: %w", err)
	}

	plans, replaced := upsertPlan(plans, plan)
	if err := s.backend.Save(ctx, plans); err != nil {
		return models.Plan{}, fmt.Errorf("saving plans: %w", err)
	}
	s.log.Debug("plan upserted", "id", plan.ID, "replaced", replaced, "total", len(plans))
	return plan, nil
}

// Delete removes every plan with the given id. It returns ErrNotFound and
// leaves storage untouched when nothing matched.
func (s *Store) Delete(ctx context.Context, id string) error {
	unlock := s.lock()
	defer unlock()

	plans, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading plans: %w", err)
	}

	kept := removePlans(plans, id)
	if len(kept) == len(plans) {
		return ErrNotFound
	}
	if err := s.backend.Save(ctx, kept); err != nil {
		return fmt.Errorf("saving plans: %w", err)
	}
	s.log.Debug("plan deleted", "id", id, "removed", len(plans)-len(kept), "total", len(kept))
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) lock() func() {
	if s.mu == nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// upsertPlan scans linearly; the first matching id wins if storage already
// holds duplicates.
func upsertPlan(plans []models.Plan, plan models.Plan) ([]models.Plan, bool) {
	for i := range plans {
		if plans[i].ID == plan.ID {
			plans[i] = plan
			return plans, true
		}
	}
	return append(plans, plan), false
}

func removePlans(plans []models.Plan, id string) []models.Plan {
	kept := make([]models.Plan, 0, len(plans))
	for _, p := range plans {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return kept
}
