package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xpasha85/treadlogic-server/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteBackend keeps the collection in a single-file SQLite database, one
// row per plan ordered by position.
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the SQLite database at path.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single connection keeps the delete+insert transaction on one file handle.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS workout_plans (
		position INTEGER PRIMARY KEY,
		id       TEXT NOT NULL,
		body     TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating workout_plans table: %w", err)
	}

	return &SQLiteBackend{db: db}, nil
}

// Load returns all plans ordered by position.
func (b *SQLiteBackend) Load(ctx context.Context) ([]models.Plan, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT position, body FROM workout_plans ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying workout plans: %w", err)
	}
	defer rows.Close()

	plans := []models.Plan{}
	for rows.Next() {
		var (
			pos  int
			body string
		)
		if err := rows.Scan(&pos, &body); err != nil {
			return nil, fmt.Errorf("scanning workout plan: %w", err)
		}
		p, err := models.ParsePlan([]byte(body))
		if err != nil {
			return nil, fmt.Errorf("%w: position %d: %w", ErrCorrupt, pos, err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// Save replaces every row in one transaction.
func (b *SQLiteBackend) Save(ctx context.Context, plans []models.Plan) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM workout_plans`); err != nil {
		return fmt.Errorf("clearing workout plans: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO workout_plans (position, id, body) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range plans {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding plan %q: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, i, p.ID, string(body)); err != nil {
			return fmt.Errorf("inserting plan %q: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing workout plans: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
