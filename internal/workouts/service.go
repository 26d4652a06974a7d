package workouts

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/xpasha85/treadlogic-server/internal/models"
	"github.com/xpasha85/treadlogic-server/internal/observability"
	"github.com/xpasha85/treadlogic-server/internal/storage"
)

// ErrNotFound is returned when no plan has the requested id.
var ErrNotFound = storage.ErrNotFound

// Service is the boundary the HTTP and MCP layers call: raw input is run
// through the workout model before it reaches the store.
type Service struct {
	store *storage.Store
	log   *slog.Logger
}

// NewService creates a Service over store.
func NewService(store *storage.Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log}
}

// ListAll returns every plan in collection order.
func (s *Service) ListAll(ctx context.Context) ([]models.Plan, error) {
	started := time.Now()
	plans, err := s.store.List(ctx)
	if err != nil {
		observability.RecordOperation("list", observability.ResultError, started)
		return nil, err
	}
	observability.RecordOperation("list", observability.ResultOK, started)
	observability.RecordPlanCount(len(plans))
	return plans, nil
}

// Get returns the first plan with the given id.
func (s *Service) Get(ctx context.Context, id string) (models.Plan, error) {
	plans, err := s.store.List(ctx)
	if err != nil {
		return models.Plan{}, err
	}
	for _, p := range plans {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Plan{}, ErrNotFound
}

// Upsert validates raw JSON as a plan and inserts or replaces it by id.
// A *models.ValidationError means nothing was written.
func (s *Service) Upsert(ctx context.Context, raw []byte) (models.Plan, error) {
	started := time.Now()
	plan, err := models.ParsePlan(raw)
	if err != nil {
		observability.RecordOperation("upsert", observability.ResultInvalid, started)
		return models.Plan{}, err
	}
	return s.upsert(ctx, plan, started)
}

// UpsertPlan stores an already validated plan.
func (s *Service) UpsertPlan(ctx context.Context, plan models.Plan) (models.Plan, error) {
	return s.upsert(ctx, plan, time.Now())
}

func (s *Service) upsert(ctx context.Context, plan models.Plan, started time.Time) (models.Plan, error) {
	saved, err := s.store.Upsert(ctx, plan)
	if err != nil {
		observability.RecordOperation("upsert", observability.ResultError, started)
		s.log.Error("upsert failed", "id", plan.ID, "error", err)
		return models.Plan{}, err
	}
	observability.RecordOperation("upsert", observability.ResultOK, started)
	s.log.Info("workout saved", "id", plan.ID, "segments", len(plan.Segments))
	return saved, nil
}

// Delete removes every plan with the given id, or returns ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	started := time.Now()
	err := s.store.Delete(ctx, id)
	switch {
	case err == nil:
		observability.RecordOperation("delete", observability.ResultOK, started)
		s.log.Info("workout deleted", "id", id)
		return nil
	case errors.Is(err, storage.ErrNotFound):
		observability.RecordOperation("delete", observability.ResultNotFound, started)
		return ErrNotFound
	default:
		observability.RecordOperation("delete", observability.ResultError, started)
		s.log.Error("delete failed", "id", id, "error", err)
		return err
	}
}
