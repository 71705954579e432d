package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-collection-lists/internal/auth"
	"github.com/ariefcatur/go-collection-lists/internal/clock"
	"github.com/ariefcatur/go-collection-lists/internal/config"
	"github.com/ariefcatur/go-collection-lists/internal/lists"
	"github.com/ariefcatur/go-collection-lists/internal/payments"
	"github.com/ariefcatur/go-collection-lists/internal/postgres"
	"github.com/ariefcatur/go-collection-lists/internal/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Backend is everything the processes need from the selected database.
type Backend interface {
	lists.Store
	auth.UserStore
	payments.Catalog
	CreateUser(ctx context.Context, username, passwordHash, shopID, role string) (*lists.User, error)
	SetUserActive(ctx context.Context, username string, active bool) (bool, error)
	UpsertProduct(ctx context.Context, sku, name string, price decimal.Decimal) error
}

var (
	_ Backend = (*postgres.Store)(nil)
	_ Backend = (*sqlite.Store)(nil)
)

// Open connects the backend named by cfg.StoreDriver, applying the schema
// when cfg.DBMigrate is set. The returned func releases the connections.
func Open(ctx context.Context, cfg *config.Config, clk clock.Clock, logger *zap.Logger) (Backend, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		if cfg.DBMigrate {
			if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
				return nil, nil, err
			}
			logger.Info("postgres schema up to date")
		}
		cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		pool, err := postgres.Connect(cctx, cfg.PostgresDSN, cfg.DBMaxConns)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("postgres connected", zap.Int("max_conns", cfg.DBMaxConns))
		return postgres.NewStore(pool, clk, cfg.DBAcquireTimeout), pool.Close, nil

	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if cfg.DBMigrate {
			if err := sqlite.EnsureSchema(db); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		logger.Info("sqlite opened", zap.String("path", cfg.SQLitePath))
		return sqlite.NewStore(db, clk, cfg.DBAcquireTimeout), func() { _ = db.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
