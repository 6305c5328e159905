package repository

import (
	"context"

	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
)

// ForecastRepository puerto de persistencia de pronósticos (un registro por producto y mes).
type ForecastRepository interface {
	UpsertForecasts(ctx context.Context, points []entity.ForecastPoint) error
	ListByProduct(ctx context.Context, productID string) ([]entity.ForecastPoint, error)
}
