package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
)

var _ repository.ForecastRepository = (*ForecastRepo)(nil)

// ForecastRepo persistencia de consumption_forecasts (una fila por producto y mes).
type ForecastRepo struct {
	q Querier
}

// NewForecastRepository construye el adaptador. Pasar pool o tx (Querier).
func NewForecastRepository(q Querier) *ForecastRepo {
	return &ForecastRepo{q: q}
}

const upsertForecastSQL = `
	INSERT INTO consumption_forecasts (
		product_id, forecast_month, predicted_consumption, confidence,
		seasonal_factor, trend_factor, method, generated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (product_id, forecast_month) DO UPDATE SET
		predicted_consumption = EXCLUDED.predicted_consumption,
		confidence            = EXCLUDED.confidence,
		seasonal_factor       = EXCLUDED.seasonal_factor,
		trend_factor          = EXCLUDED.trend_factor,
		method                = EXCLUDED.method,
		generated_at          = EXCLUDED.generated_at`

// UpsertForecasts reemplaza los pronósticos del mismo producto y mes.
func (r *ForecastRepo) UpsertForecasts(ctx context.Context, points []entity.ForecastPoint) error {
	if len(points) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, p := range points {
		b.Queue(upsertForecastSQL,
			p.ProductID, p.ForecastMonth, p.PredictedConsumption, p.Confidence,
			p.SeasonalFactor, p.TrendFactor, p.Method, p.GeneratedAt,
		)
	}
	br := r.q.SendBatch(ctx, b)
	defer br.Close()
	for _, p := range points {
		if _, err := br.Exec(); err != nil {
			return wrapErr(fmt.Sprintf("upsert forecast %s %s", p.ProductID, p.MonthKey()), err)
		}
	}
	return wrapErr("upsert forecasts", br.Close())
}

// ListByProduct pronósticos guardados de un producto, por mes ascendente.
func (r *ForecastRepo) ListByProduct(ctx context.Context, productID string) ([]entity.ForecastPoint, error) {
	rows, err := r.q.Query(ctx, `
		SELECT product_id, forecast_month, predicted_consumption, confidence,
		       seasonal_factor, trend_factor, method, generated_at
		FROM consumption_forecasts WHERE product_id = $1 ORDER BY forecast_month`, productID)
	if err != nil {
		return nil, wrapErr("list forecasts", err)
	}
	defer rows.Close()
	var list []entity.ForecastPoint
	for rows.Next() {
		var p entity.ForecastPoint
		if err := rows.Scan(&p.ProductID, &p.ForecastMonth, &p.PredictedConsumption, &p.Confidence,
			&p.SeasonalFactor, &p.TrendFactor, &p.Method, &p.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan forecast: %w", err)
		}
		list = append(list, p)
	}
	return list, wrapErr("list forecasts", rows.Err())
}
