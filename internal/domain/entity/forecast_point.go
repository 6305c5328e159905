package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ForecastMethodSeasonalTrend promedio móvil + tendencia lineal + estacionalidad mensual.
const ForecastMethodSeasonalTrend = "seasonal_trend"

// ForecastPoint consumo estimado de un producto para un mes futuro.
// Cada punto es una estimación independiente, no una distribución conjunta.
type ForecastPoint struct {
	ProductID            string
	ForecastMonth        time.Time       // primer día del mes, UTC
	PredictedConsumption decimal.Decimal // nunca negativo
	Confidence           int             // puntaje heurístico 0-100, no es un intervalo estadístico
	SeasonalFactor       decimal.Decimal // multiplicativo
	TrendFactor          decimal.Decimal // aditivo por mes de horizonte
	Method               string
	GeneratedAt          time.Time
}

// MonthKey devuelve el mes pronosticado en formato YYYY-MM.
func (p ForecastPoint) MonthKey() string {
	return p.ForecastMonth.Format("2006-01")
}
