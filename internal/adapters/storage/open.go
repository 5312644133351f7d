// Package storage elige e inicializa el document store según la config.
package storage

import (
	"context"
	"fmt"

	"clinic-console/internal/adapters/storage/memory"
	docmongo "clinic-console/internal/adapters/storage/mongo"
	"clinic-console/internal/adapters/storage/postgres"
	"clinic-console/internal/config"
	"clinic-console/internal/platform/logger"
	"clinic-console/internal/ports/docstore"
)

// Open devuelve el store configurado y un func para liberar sus recursos.
func Open(ctx context.Context, cfg config.StoreConfig, log logger.Logger) (docstore.Store, func(), error) {
	if log == nil {
		log = logger.Nop()
	}

	switch cfg.Driver {
	case config.DriverPostgres:
		if cfg.AutoMigrate {
			results, err := postgres.Migrate(ctx, cfg.DSN)
			if err != nil {
				return nil, nil, fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrations applied", map[string]any{"count": len(results)})
		}
		pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
			DSN:             cfg.DSN,
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		s := postgres.NewStore(pool, log)
		return s, func() {
			s.Close()
			pool.Close()
		}, nil

	case config.DriverMongo:
		db, err := docmongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		s := docmongo.NewStore(db, log)
		return s, func() {
			s.Close()
			_ = db.Client().Disconnect(context.Background())
		}, nil

	case config.DriverMemory, "":
		return memory.NewStore(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}
