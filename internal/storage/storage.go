// Package storage selects the configured store adapter.
package storage

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"scentshop/internal/domain"
	"scentshop/internal/shared"
	"scentshop/internal/storage/memory"
	"scentshop/internal/storage/mongodb"
	"scentshop/internal/storage/mysql"
)

type Store interface {
	domain.ProductRepository
	domain.ReviewRepository
	Ping(ctx context.Context) error
	Reset(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Store = (*memory.Store)(nil)
	_ Store = (*mongodb.Store)(nil)
	_ Store = (*mysql.Repo)(nil)
)

// Open connects the store named by cfg.StoreDriver.
func Open(ctx context.Context, cfg shared.Config) (Store, error) {
	switch cfg.StoreDriver {
	case shared.DriverMemory:
		log.Warn().Msg("using in-memory store; data is lost on exit")
		return memory.New(), nil
	case shared.DriverMySQL:
		return mysql.Open(ctx, cfg.MySQLDSN, cfg.StoreTimeout)
	case shared.DriverMongo, "":
		s, err := mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDB, cfg.StoreTimeout)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureIndexes(ctx); err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
