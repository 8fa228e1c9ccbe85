package config

import (
	"context"
	"fmt"

	"citysnap-be/store"
	"citysnap-be/store/gormstore"
	"citysnap-be/store/mongostore"

	"github.com/rs/zerolog"
)

// OpenStore connects the backend named by cfg.StoreDriver and prepares its
// schema or indexes.
func OpenStore(ctx context.Context, cfg *Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case DriverMongo:
		client, err := ConnectMongo(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		s := mongostore.New(client, cfg.MongoDatabase)
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case DriverPostgres, DriverSQLite:
		db, err := ConnectSQL(cfg, log)
		if err != nil {
			return nil, err
		}
		s := gormstore.New(db)
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
