package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
)

var _ repository.ForecastRepository = (*ForecastRepo)(nil)

// ForecastRepo consumption_forecasts sobre SQLite.
type ForecastRepo struct {
	q DBTX
}

// NewForecastRepository construye el adaptador.
func NewForecastRepository(q DBTX) *ForecastRepo {
	return &ForecastRepo{q: q}
}

type forecastRow struct {
	ProductID            string          `db:"product_id"`
	ForecastMonth        time.Time       `db:"forecast_month"`
	PredictedConsumption decimal.Decimal `db:"predicted_consumption"`
	Confidence           int             `db:"confidence"`
	SeasonalFactor       decimal.Decimal `db:"seasonal_factor"`
	TrendFactor          decimal.Decimal `db:"trend_factor"`
	Method               string          `db:"method"`
	GeneratedAt          time.Time       `db:"generated_at"`
}

// UpsertForecasts una fila por producto y mes; repetir la corrida reemplaza.
func (r *ForecastRepo) UpsertForecasts(ctx context.Context, points []entity.ForecastPoint) error {
	if len(points) == 0 {
		return nil
	}
	stmt, err := r.q.PreparexContext(ctx, r.q.Rebind(`
		INSERT INTO consumption_forecasts (
			product_id, forecast_month, predicted_consumption, confidence,
			seasonal_factor, trend_factor, method, generated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(product_id, forecast_month) DO UPDATE SET
			predicted_consumption = excluded.predicted_consumption,
			confidence            = excluded.confidence,
			seasonal_factor       = excluded.seasonal_factor,
			trend_factor          = excluded.trend_factor,
			method                = excluded.method,
			generated_at          = excluded.generated_at`))
	if err != nil {
		return wrapErr("preparar upsert de pronósticos", err)
	}
	defer stmt.Close()
	for _, p := range points {
		if _, err := stmt.ExecContext(ctx,
			p.ProductID, p.ForecastMonth.UTC(), p.PredictedConsumption.String(), p.Confidence,
			p.SeasonalFactor.String(), p.TrendFactor.String(), p.Method, p.GeneratedAt.UTC(),
		); err != nil {
			return wrapErr(fmt.Sprintf("upsert pronóstico %s %s", p.ProductID, p.MonthKey()), err)
		}
	}
	return nil
}

// ListByProduct pronósticos de un producto por mes ascendente.
func (r *ForecastRepo) ListByProduct(ctx context.Context, productID string) ([]entity.ForecastPoint, error) {
	var rows []forecastRow
	if err := r.q.SelectContext(ctx, &rows, r.q.Rebind(`
		SELECT product_id, forecast_month, predicted_consumption, confidence,
		       seasonal_factor, trend_factor, method, generated_at
		FROM consumption_forecasts WHERE product_id = ? ORDER BY forecast_month`), productID); err != nil {
		return nil, wrapErr("listar pronósticos", err)
	}
	out := make([]entity.ForecastPoint, len(rows))
	for i, row := range rows {
		out[i] = entity.ForecastPoint{
			ProductID:            row.ProductID,
			ForecastMonth:        row.ForecastMonth.UTC(),
			PredictedConsumption: row.PredictedConsumption,
			Confidence:           row.Confidence,
			SeasonalFactor:       row.SeasonalFactor,
			TrendFactor:          row.TrendFactor,
			Method:               row.Method,
			GeneratedAt:          row.GeneratedAt.UTC(),
		}
	}
	return out, nil
}
