package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xpasha85/treadlogic-server/internal/models"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesErrored   int

	PlansReceived int
	PlansUpserted int
	PlansInvalid  int

	InvalidPlans []string
}

// Upserter stores validated plans. *workouts.Service satisfies it.
type Upserter interface {
	UpsertPlan(ctx context.Context, plan models.Plan) (models.Plan, error)
}

// Importer reads plan export files (a JSON array of plans, or a single plan
// object) and upserts every valid plan into the collection.
type Importer struct {
	dst    Upserter
	log    *slog.Logger
	dryRun bool
	stats  Stats
}

// New creates a new Importer.
func New(dst Upserter, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{dst: dst, log: log, dryRun: dryRun}
}

// Import processes path, which is either a single export file or a directory
// whose *.json and *.json.gz files are imported in name order.
func (imp *Importer) Import(ctx context.Context, path string) (*Stats, error) {
	info, err := os.Stat(path)
	if err != nil {
		return &imp.stats, err
	}

	files := []string{path}
	if info.IsDir() {
		files, err = planFiles(path)
		if err != nil {
			return &imp.stats, err
		}
	}

	for _, f := range files {
		if err := imp.importFile(ctx, f); err != nil {
			return &imp.stats, fmt.Errorf("importing %s: %w", filepath.Base(f), err)
		}
	}
	return &imp.stats, nil
}

func planFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.gz")) {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// importFile returns an error only when storing fails. Unreadable files and
// invalid plans are counted and skipped.
func (imp *Importer) importFile(ctx context.Context, path string) error {
	data, err := ReadPlanFile(path)
	if err != nil {
		imp.log.Warn("read failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}

	elements, err := splitPlans(data)
	if err != nil {
		imp.log.Warn("parse failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}
	imp.stats.FilesProcessed++

	for i, el := range elements {
		imp.stats.PlansReceived++
		plan, err := models.ParsePlanValue(el)
		if err != nil {
			imp.log.Warn("invalid plan", "file", filepath.Base(path), "index", i, "error", err)
			imp.stats.PlansInvalid++
			imp.stats.InvalidPlans = append(imp.stats.InvalidPlans, fmt.Sprintf("%s[%d]", filepath.Base(path), i))
			continue
		}

		if imp.dryRun {
			imp.stats.PlansUpserted++
			continue
		}
		if _, err := imp.dst.UpsertPlan(ctx, plan); err != nil {
			return fmt.Errorf("upserting %q: %w", plan.ID, err)
		}
		imp.stats.PlansUpserted++
	}
	return nil
}

// splitPlans decodes data as either an array of plans or one plan object.
func splitPlans(data []byte) ([]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case []any:
		return x, nil
	case map[string]any:
		return []any{x}, nil
	default:
		return nil, fmt.Errorf("expected a plan object or an array of plans, got %T", v)
	}
}
