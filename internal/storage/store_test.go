package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/xpasha85/treadlogic-server/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func plan(id, title string) models.Plan {
	return models.Plan{
		ID: id,
		Meta: models.WorkoutMeta{
			Date:        "2024-05-01",
			Title:       title,
			WorkoutType: models.WorkoutEasy,
			Gear:        "Treadmill",
		},
		Segments: []models.Segment{
			models.SimpleSegment{StepType: models.StepWork, Title: "Run", DurationSec: 1800, SpeedKph: 9.5},
		},
	}
}

func ids(plans []models.Plan) []string {
	out := make([]string, len(plans))
	for i, p := range plans {
		out[i] = p.ID
	}
	return out
}

// memBackend is an in-memory Backend that counts saves.
type memBackend struct {
	mu    sync.Mutex
	plans []models.Plan
	saves int
}

func (m *memBackend) Load(context.Context) ([]models.Plan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Plan{}, m.plans...), nil
}

func (m *memBackend) Save(_ context.Context, plans []models.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = append([]models.Plan{}, plans...)
	m.saves++
	return nil
}

func (m *memBackend) Close() error { return nil }

func newJSONStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "workouts.json")
	return NewStore(NewJSONFileBackend(path, testLogger()), testLogger())
}

// TestUpsertAppendsNewIDs verifies new ids are appended in call order.
func TestUpsertAppendsNewIDs(t *testing.T) {
	ctx := context.Background()
	s := newJSONStore(t)

	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.Upsert(ctx, plan(id, id)); err != nil {
			t.Fatalf("upsert %s: %v", id, err)
		}
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("ids = %v, want %v", ids(got), want)
	}
}

// TestUpsertReplacesInPlace verifies an existing id keeps its position while
// its content is replaced.
func TestUpsertReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	s := newJSONStore(t)
	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.Upsert(ctx, plan(id, id)); err != nil {
			t.Fatal(err)
		}
	}

	updated := plan("b", "changed")
	ret, err := s.Upsert(ctx, updated)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !reflect.DeepEqual(ret, updated) {
		t.Errorf("returned plan differs from input")
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("ids = %v, want %v", ids(got), want)
	}
	if !reflect.DeepEqual(got[1], updated) {
		t.Errorf("plan b = %#v, want %#v", got[1], updated)
	}
}

// TestUpsertIdempotent verifies upserting the same plan twice leaves exactly
// one record at the position of the first call.
func TestUpsertIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newJSONStore(t)
	if _, err := s.Upsert(ctx, plan("a", "a")); err != nil {
		t.Fatal(err)
	}
	p := plan("x", "x")
	for i := 0; i < 2; i++ {
		if _, err := s.Upsert(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Upsert(ctx, plan("z", "z")); err != nil {
		t.Fatal(err)
	}

	got, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "x", "z"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("ids = %v, want %v", ids(got), want)
	}
	if !reflect.DeepEqual(got[1], p) {
		t.Errorf("stored plan differs from upserted plan")
	}
}

// TestUpsertFirstDuplicateWins verifies pre-existing duplicate ids are not
// healed: only the first match is replaced.
func TestUpsertFirstDuplicateWins(t *testing.T) {
	ctx := context.Background()
	mem := &memBackend{plans: []models.Plan{plan("d", "one"), plan("e", "e"), plan("d", "two")}}
	s := NewStore(mem, testLogger())

	if _, err := s.Upsert(ctx, plan("d", "new")); err != nil {
		t.Fatal(err)
	}
	if mem.plans[0].Meta.Title != "new" {
		t.Errorf("first duplicate title = %q, want new", mem.plans[0].Meta.Title)
	}
	if mem.plans[2].Meta.Title != "two" {
		t.Errorf("second duplicate title = %q, want two", mem.plans[2].Meta.Title)
	}
}

// TestDeleteRemovesMatch verifies delete(b) on [a b c] yields [a c].
func TestDeleteRemovesMatch(t *testing.T) {
	ctx := context.Background()
	s := newJSONStore(t)
	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.Upsert(ctx, plan(id, id)); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Delete(ctx, "b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "c"}; !reflect.DeepEqual(ids(got), want) {
		t.Errorf("ids = %v, want %v", ids(got), want)
	}
}

// TestDeleteNotFound verifies an absent id reports ErrNotFound and does not
// rewrite storage.
func TestDeleteNotFound(t *testing.T) {
	ctx := context.Background()
	mem := &memBackend{plans: []models.Plan{plan("a", "a"), plan("b", "b"), plan("c", "c")}}
	s := NewStore(mem, testLogger())

	if err := s.Delete(ctx, "z"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if mem.saves != 0 {
		t.Errorf("saves = %d, want 0", mem.saves)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(ids(mem.plans), want) {
		t.Errorf("ids = %v, want %v", ids(mem.plans), want)
	}
}

// TestDeleteRemovesAllDuplicates verifies every record with the id goes.
func TestDeleteRemovesAllDuplicates(t *testing.T) {
	ctx := context.Background()
	mem := &memBackend{plans: []models.Plan{plan("d", "1"), plan("e", "e"), plan("d", "2")}}
	s := NewStore(mem, testLogger())

	if err := s.Delete(ctx, "d"); err != nil {
		t.Fatal(err)
	}
	if want := []string{"e"}; !reflect.DeepEqual(ids(mem.plans), want) {
		t.Errorf("ids = %v, want %v", ids(mem.plans), want)
	}
}

// TestSerializedWritesNoLostUpdates verifies concurrent upserts of distinct
// ids all survive when writes are serialized.
func TestSerializedWritesNoLostUpdates(t *testing.T) {
	ctx := context.Background()
	mem := &memBackend{}
	s := NewStore(mem, testLogger(), WithSerializedWrites())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			if _, err := s.Upsert(ctx, plan(id, id)); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	if len(mem.plans) != 20 {
		t.Errorf("plans = %d, want 20", len(mem.plans))
	}
}
