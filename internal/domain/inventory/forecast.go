package inventory

import (
	"sort"
	"time"

	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Mínimos de historia para aplicar tendencia y estacionalidad. Con menos datos no es un error:
// la tendencia queda en 0 y los factores estacionales en 1.0.
const (
	minTrendMonths    = 3
	minSeasonalMonths = 6
)

var (
	one             = decimal.NewFromInt(1)
	stabilityBand   = decimal.NewFromFloat(0.2)
	lowTrendCeiling = decimal.NewFromFloat(0.1)
)

// ForecastOptions parámetros del pronóstico (vienen de configuración).
type ForecastOptions struct {
	HorizonMonths        int // meses hacia adelante
	MovingAvgMonths      int // N meses más recientes para la tasa base
	SeasonalWindowMonths int // ventana de historia para los factores estacionales
}

// DefaultForecastOptions 3 meses de horizonte, promedio móvil de 3 meses, estacionalidad sobre 12.
func DefaultForecastOptions() ForecastOptions {
	return ForecastOptions{HorizonMonths: 3, MovingAvgMonths: 3, SeasonalWindowMonths: 12}
}

func (o ForecastOptions) withDefaults() ForecastOptions {
	def := DefaultForecastOptions()
	if o.HorizonMonths <= 0 {
		o.HorizonMonths = def.HorizonMonths
	}
	if o.MovingAvgMonths <= 0 {
		o.MovingAvgMonths = def.MovingAvgMonths
	}
	if o.SeasonalWindowMonths <= 0 {
		o.SeasonalWindowMonths = def.SeasonalWindowMonths
	}
	return o
}

// MonthlyConsumption total consumido (OUT con IncludeInAvg) en un mes calendario.
type MonthlyConsumption struct {
	Month time.Time // primer día del mes, UTC
	Total decimal.Decimal
}

// MonthlyTotals agrupa las salidas que cuentan para el promedio por mes calendario (UTC),
// solo hasta asOf, en orden cronológico. Los movimientos inválidos se ignoran.
func MonthlyTotals(history []entity.Movement, asOf time.Time) []MonthlyConsumption {
	byMonth := make(map[time.Time]decimal.Decimal)
	for _, m := range history {
		if !m.CountsTowardAverage() || m.Validate() != nil || m.Date.After(asOf) {
			continue
		}
		key := monthStart(m.Date)
		byMonth[key] = byMonth[key].Add(m.Quantity)
	}
	totals := make([]MonthlyConsumption, 0, len(byMonth))
	for month, total := range byMonth {
		totals = append(totals, MonthlyConsumption{Month: month, Total: total})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Month.Before(totals[j].Month) })
	return totals
}

// BaseRate promedio de los n meses más recientes con datos (menos de n está permitido; 0 meses → 0).
func BaseRate(totals []MonthlyConsumption, n int) decimal.Decimal {
	if len(totals) > n {
		totals = totals[len(totals)-n:]
	}
	return meanTotal(totals)
}

// Trend pendiente de mínimos cuadrados de los totales mensuales sobre el índice 0..k-1.
// Requiere al menos 3 meses distintos; si no, 0.
func Trend(totals []MonthlyConsumption) decimal.Decimal {
	k := len(totals)
	if k < minTrendMonths {
		return decimal.Zero
	}
	var sumX, sumY, sumXY, sumX2 decimal.Decimal
	for i, t := range totals {
		x := decimal.NewFromInt(int64(i))
		sumX = sumX.Add(x)
		sumY = sumY.Add(t.Total)
		sumXY = sumXY.Add(x.Mul(t.Total))
		sumX2 = sumX2.Add(x.Mul(x))
	}
	n := decimal.NewFromInt(int64(k))
	den := n.Mul(sumX2).Sub(sumX.Mul(sumX))
	if den.IsZero() {
		return decimal.Zero
	}
	return n.Mul(sumXY).Sub(sumX.Mul(sumY)).Div(den)
}

// SeasonalFactors factor por mes calendario (índice 0 = enero):
// promedio histórico de ese mes / promedio de todos los meses de la ventana.
// Con menos de 6 meses distintos en la ventana todos los factores son 1.0.
func SeasonalFactors(totals []MonthlyConsumption, asOf time.Time, windowMonths int) [12]decimal.Decimal {
	var factors [12]decimal.Decimal
	for i := range factors {
		factors[i] = one
	}

	from := monthStart(SubtractMonths(asOf, windowMonths))
	var sums [12]decimal.Decimal
	var counts [12]int64
	distinct := 0
	for _, t := range totals {
		if t.Month.Before(from) {
			continue
		}
		idx := int(t.Month.Month()) - 1
		sums[idx] = sums[idx].Add(t.Total)
		counts[idx]++
		distinct++
	}
	if distinct < minSeasonalMonths {
		return factors
	}

	var monthAvgs [12]decimal.Decimal
	yearSum := decimal.Zero
	var present int64
	for i := range sums {
		if counts[i] == 0 {
			continue
		}
		monthAvgs[i] = sums[i].Div(decimal.NewFromInt(counts[i]))
		yearSum = yearSum.Add(monthAvgs[i])
		present++
	}
	yearAvg := yearSum.Div(decimal.NewFromInt(present))
	if !yearAvg.IsPositive() {
		return factors
	}
	for i := range monthAvgs {
		if counts[i] > 0 {
			factors[i] = monthAvgs[i].Div(yearAvg)
		}
	}
	return factors
}

// Forecast pronostica el consumo de los próximos meses a partir del historial completo del producto.
//
//	predicho(i) = max(0, (base + tendencia*i) * estacional[mes destino]),  i = 1..HorizonMonths
//
// Confidence es un puntaje heurístico (50 base, +20 con historia, +20 si la tasa base está dentro del 20%
// del promedio de largo plazo, +10 con tendencia baja), no un intervalo de confianza estadístico.
func Forecast(productID string, history []entity.Movement, asOf time.Time, opts ForecastOptions) []entity.ForecastPoint {
	opts = opts.withDefaults()
	totals := MonthlyTotals(history, asOf)

	base := BaseRate(totals, opts.MovingAvgMonths)
	trend := Trend(totals)
	seasonal := SeasonalFactors(totals, asOf, opts.SeasonalWindowMonths)
	confidence := Confidence(meanTotal(totals), base, trend)

	points := make([]entity.ForecastPoint, 0, opts.HorizonMonths)
	current := monthStart(asOf)
	for i := 1; i <= opts.HorizonMonths; i++ {
		target := current.AddDate(0, i, 0)
		factor := seasonal[target.Month()-1]
		predicted := base.Add(trend.Mul(decimal.NewFromInt(int64(i)))).Mul(factor)
		if predicted.IsNegative() {
			predicted = decimal.Zero
		}
		points = append(points, entity.ForecastPoint{
			ProductID:            productID,
			ForecastMonth:        target,
			PredictedConsumption: predicted,
			Confidence:           confidence,
			SeasonalFactor:       factor,
			TrendFactor:          trend,
			Method:               entity.ForecastMethodSeasonalTrend,
			GeneratedAt:          asOf,
		})
	}
	return points
}

// Confidence puntaje heurístico 0-100 del pronóstico.
func Confidence(longRunAvg, movingAvg, trend decimal.Decimal) int {
	confidence := 50
	if !longRunAvg.IsZero() {
		confidence += 20
	}
	if longRunAvg.IsPositive() && longRunAvg.Sub(movingAvg).Abs().Div(longRunAvg).LessThan(stabilityBand) {
		confidence += 20
	}
	if trend.Abs().LessThan(lowTrendCeiling) {
		confidence += 10
	}
	if confidence > 100 {
		confidence = 100
	}
	return confidence
}

func meanTotal(totals []MonthlyConsumption) decimal.Decimal {
	if len(totals) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t.Total)
	}
	return sum.Div(decimal.NewFromInt(int64(len(totals))))
}

func monthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}
