package workouts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/xpasha85/treadlogic-server/internal/models"
	"github.com/xpasha85/treadlogic-server/internal/storage"
)

const easyRun = `{
  "id": "easy-1",
  "meta": {"date": "2024-06-01", "title": "Easy", "workoutType": "Easy", "description": "",
           "totalDurationEstimateSec": 1800, "coachNotes": "", "gear": "Treadmill"},
  "segments": [{"kind": "simple", "stepType": "work", "title": "Run", "durationSec": 1800, "speedKph": 9, "inclinePercent": 1}]
}`

func newService(t *testing.T) (*Service, string) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	path := filepath.Join(t.TempDir(), "workouts.json")
	store := storage.NewStore(storage.NewJSONFileBackend(path, log), log, storage.WithSerializedWrites())
	return NewService(store, log), path
}

// TestUpsertValidPlan verifies a valid raw plan is stored and listed.
func TestUpsertValidPlan(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	plan, err := svc.Upsert(ctx, []byte(easyRun))
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if plan.ID != "easy-1" {
		t.Errorf("id = %q, want easy-1", plan.ID)
	}

	plans, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(plans) != 1 || plans[0].ID != "easy-1" {
		t.Errorf("plans = %v, want [easy-1]", plans)
	}

	got, err := svc.Get(ctx, "easy-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Meta.WorkoutType != models.WorkoutEasy {
		t.Errorf("workoutType = %q, want Easy", got.Meta.WorkoutType)
	}
}

// TestUpsertInvalidPlanWritesNothing verifies validation failures never touch storage.
func TestUpsertInvalidPlanWritesNothing(t *testing.T) {
	ctx := context.Background()
	svc, path := newService(t)

	_, err := svc.Upsert(ctx, []byte(`{"id": "x", "meta": {}, "segments": []}`))
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("backing file exists after rejected upsert (stat err: %v)", err)
	}
}

// TestDeleteAndNotFound verifies delete succeeds once and then reports ErrNotFound.
func TestDeleteAndNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	if _, err := svc.Upsert(ctx, []byte(easyRun)); err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx, "easy-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, "easy-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Get(ctx, "easy-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get err = %v, want ErrNotFound", err)
	}
}
