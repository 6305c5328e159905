package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductAggregate saldo actual y consumo promedio de un producto, derivados de sus movimientos.
// Es una proyección reconstruible: se puede descartar y recalcular con idéntico resultado.
type ProductAggregate struct {
	ProductID      string
	CurrentBalance decimal.Decimal // puede ser negativo (sobreasignación); nunca se recorta a cero
	AvgConsumption decimal.Decimal // promedio de salidas OUT con IncludeInAvg en la ventana móvil
	LastComputedAt time.Time
}
