package inventory

import (
	"fmt"
	"time"

	"github.com/jhoicas/inventario-stock-engine/internal/domain"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DefaultAvgWindowMonths ventana móvil de referencia para el consumo promedio.
const DefaultAvgWindowMonths = 12

// Aggregate calcula el saldo actual y el consumo promedio de un producto (servicio de dominio puro).
//
//	CurrentBalance = Σ (+q IN, -q OUT, +q CORRECTION)
//	AvgConsumption = promedio de q en OUT con IncludeInAvg y fecha en [asOf - avgWindowMonths, asOf]
//
// El orden de los movimientos no importa. Un movimiento inválido invalida el agregado completo
// (error que envuelve domain.ErrMalformedMovement); no se devuelven resultados parciales.
func Aggregate(productID string, movements []entity.Movement, asOf time.Time, avgWindowMonths int) (entity.ProductAggregate, error) {
	if avgWindowMonths <= 0 {
		avgWindowMonths = DefaultAvgWindowMonths
	}
	windowStart := SubtractMonths(asOf, avgWindowMonths)

	balance := decimal.Zero
	consumed := decimal.Zero
	var consumptions int64
	for _, m := range movements {
		if err := m.Validate(); err != nil {
			return entity.ProductAggregate{}, err
		}
		if m.ProductID != productID {
			return entity.ProductAggregate{}, fmt.Errorf("%w: movimiento %s pertenece a %s, no a %s",
				domain.ErrMalformedMovement, m.ID, m.ProductID, productID)
		}
		balance = balance.Add(m.SignedQuantity())
		if m.CountsTowardAverage() && !m.Date.Before(windowStart) && !m.Date.After(asOf) {
			consumed = consumed.Add(m.Quantity)
			consumptions++
		}
	}

	avg := decimal.Zero
	if consumptions > 0 {
		avg = consumed.Div(decimal.NewFromInt(consumptions))
	}
	return entity.ProductAggregate{
		ProductID:      productID,
		CurrentBalance: balance,
		AvgConsumption: avg,
		LastComputedAt: asOf,
	}, nil
}

// SubtractMonths resta meses calendario; si el día no existe en el mes destino
// se usa el último día de ese mes (31-mar menos 1 mes = 28/29-feb), igual que un INTERVAL de PostgreSQL.
func SubtractMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, -months, 0)
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
