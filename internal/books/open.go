package books

import (
	"context"
	"fmt"

	"bookhub/pkg/database"
	"bookhub/pkg/utils"
)

// Open connects the backend named by cfg.Driver and applies its schema.
func Open(ctx context.Context, cfg utils.Config) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		pool, err := database.OpenPostgres(ctx, database.PostgresConfig{DSN: cfg.PostgresDSN})
		if err != nil {
			return nil, err
		}
		if err := database.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("db migrate failed: %w", err)
		}
		return NewPGRepo(pool), nil
	case "sqlite", "":
		db, err := database.Open(database.Config{Path: cfg.DBPath})
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db migrate failed: %w", err)
		}
		return NewRepo(db), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}
