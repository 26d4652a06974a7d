package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xpasha85/treadlogic-server/internal/config"
)

// Open builds the Store selected by cfg.Storage.Backend. For postgres the
// migrations are applied before connecting.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Store, error) {
	var (
		backend Backend
		err     error
	)

	switch cfg.Storage.Backend {
	case config.BackendJSON:
		var opts []JSONFileOption
		if !cfg.Storage.FailOpenEnabled() {
			opts = append(opts, WithStrictRead())
		}
		if cfg.Storage.AtomicWrite {
			opts = append(opts, WithAtomicWrite())
		}
		backend = NewJSONFileBackend(cfg.Storage.Path, log, opts...)
		log.Info("storage backend", "backend", "json", "path", cfg.Storage.Path)

	case config.BackendSQLite:
		backend, err = OpenSQLite(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		log.Info("storage backend", "backend", "sqlite", "path", cfg.Storage.Path)

	case config.BackendPostgres:
		dsn := cfg.Database.DSN()
		if err := RunMigrations(dsn, cfg.Database.MigrationsDir); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
		log.Info("migrations applied")
		backend, err = New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		log.Info("storage backend", "backend", "postgres", "host", cfg.Database.Host, "database", cfg.Database.Name)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	var opts []StoreOption
	if cfg.Storage.SerializeWritesEnabled() {
		opts = append(opts, WithSerializedWrites())
	}
	return NewStore(backend, log, opts...), nil
}
