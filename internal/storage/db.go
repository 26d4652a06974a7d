package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xpasha85/treadlogic-server/internal/models"
)

// DB keeps the collection in PostgreSQL, one JSONB row per plan ordered by
// position.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new DB with a connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

// Load returns all plans ordered by position.
func (db *DB) Load(ctx context.Context) ([]models.Plan, error) {
	rows, err := db.Pool.Query(ctx, `SELECT position, body::text FROM workout_plans ORDER BY position`)
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
func (db *DB) Save(ctx context.Context, plans []models.Plan) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM workout_plans`); err != nil {
		return fmt.Errorf("clearing workout plans: %w", err)
	}
	for i, p := range plans {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding plan %q: %w", p.ID, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO workout_plans (position, id, body) VALUES ($1, $2, $3::jsonb)`,
			i, p.ID, string(body)); err != nil {
			return fmt.Errorf("inserting plan %q: %w", p.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing workout plans: %w", err)
	}
	return nil
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}
