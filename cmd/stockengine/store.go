package main

import (
	"context"
	"fmt"

	"github.com/jhoicas/inventario-stock-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
	"github.com/jhoicas/inventario-stock-engine/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-stock-engine/internal/infrastructure/sqlite"
	"github.com/jhoicas/inventario-stock-engine/pkg/config"
)

// store repositorios del motor sobre el driver configurado.
type store struct {
	movements repository.MovementRepository
	aggs      repository.AggregateRepository
	policies  repository.PolicyRepository
	forecasts repository.ForecastRepository
	tx        inventory.TxRunner
	close     func()
}

func openStore(ctx context.Context, cfg config.DBConfig) (*store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("abrir sqlite %s: %w", cfg.SQLitePath, err)
		}
		return &store{
			movements: sqlite.NewMovementRepository(db),
			aggs:      sqlite.NewAggregateRepository(db),
			policies:  sqlite.NewPolicyRepository(db),
			forecasts: sqlite.NewForecastRepository(db),
			tx:        sqlite.NewTxRunner(db),
			close:     func() { _ = db.Close() },
		}, nil
	default:
		pool, err := postgres.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &store{
			movements: postgres.NewMovementRepository(pool),
			aggs:      postgres.NewAggregateRepository(pool),
			policies:  postgres.NewPolicyRepository(pool),
			forecasts: postgres.NewForecastRepository(pool),
			tx:        postgres.NewTxRunner(pool),
			close:     pool.Close,
		}, nil
	}
}
