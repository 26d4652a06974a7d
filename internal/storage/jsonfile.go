package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xpasha85/treadlogic-server/internal/models"
)

// JSONFileBackend keeps the collection as one JSON array in a file.
type JSONFileBackend struct {
	path        string
	failOpen    bool
	atomicWrite bool
	log         *slog.Logger
}

// JSONFileOption configures a JSONFileBackend.
type JSONFileOption func(*JSONFileBackend)

// WithStrictRead makes Load return ErrCorrupt for a file that is not valid
// JSON instead of treating it as an empty collection.
func WithStrictRead() JSONFileOption {
	return func(b *JSONFileBackend) {
		b.failOpen = false
	}
}

// WithAtomicWrite makes Save write a temp file and rename it over the target.
func WithAtomicWrite() JSONFileOption {
	return func(b *JSONFileBackend) {
		b.atomicWrite = true
	}
}

// NewJSONFileBackend creates a backend for the file at path. The file and its
// directory are created on first Save.
func NewJSONFileBackend(path string, log *slog.Logger, opts ...JSONFileOption) *JSONFileBackend {
	b := &JSONFileBackend{path: path, failOpen: true, log: log}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Path returns the backing file path.
func (b *JSONFileBackend) Path() string {
	return b.path
}

// Load reads the collection. A missing file is an empty collection. A file
// that is not valid JSON is also an empty collection unless strict reads are
// enabled. Valid JSON that is not an array of valid plans is always
// ErrCorrupt, so the next save cannot overwrite it.
func (b *JSONFileBackend) Load(_ context.Context) ([]models.Plan, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Plan{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", b.path, err)
	}

	if !json.Valid(data) {
		if b.failOpen {
			b.log.Warn("workout file is not valid JSON, treating as empty", "path", b.path)
			return []models.Plan{}, nil
		}
		return nil, fmt.Errorf("%w: %s: not valid JSON", ErrCorrupt, b.path)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %s: expected a JSON array: %v", ErrCorrupt, b.path, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s: expected a JSON array, got null", ErrCorrupt, b.path)
	}

	plans := make([]models.Plan, 0, len(raw))
	for i, item := range raw {
		p, err := models.ParsePlan(item)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: element %d: %w", ErrCorrupt, b.path, i, err)
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// Save overwrites the file with the whole collection.
func (b *JSONFileBackend) Save(_ context.Context, plans []models.Plan) error {
	if plans == nil {
		plans = []models.Plan{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plans); err != nil {
		return fmt.Errorf("encoding plans: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	if !b.atomicWrite {
		if err := os.WriteFile(b.path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", b.path, err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path); err != nil {
		return fmt.Errorf("replacing %s: %w", b.path, err)
	}
	return nil
}

// Close is a no-op; the file is opened per call.
func (b *JSONFileBackend) Close() error {
	return nil
}
