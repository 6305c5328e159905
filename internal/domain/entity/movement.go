package entity

import (
	"fmt"
	"time"

	"github.com/jhoicas/inventario-stock-engine/internal/domain"
	"github.com/shopspring/decimal"
)

// MovementKind tipo de movimiento de inventario.
type MovementKind string

// Tipos de movimiento. IN y CORRECTION suman al saldo; OUT resta.
// CORRECTION es un ajuste directo con cantidad firmada, no un flujo direccional.
const (
	MovementKindIN         MovementKind = "IN"         // entrada (compra)
	MovementKindOUT        MovementKind = "OUT"        // salida (consumo)
	MovementKindCORRECTION MovementKind = "CORRECTION" // ajuste firmado
)

// Valid indica si el tipo es uno de los conocidos.
func (k MovementKind) Valid() bool {
	switch k {
	case MovementKindIN, MovementKindOUT, MovementKindCORRECTION:
		return true
	}
	return false
}

// Movement es un hecho inmutable: una cantidad firmada, tipada y fechada contra un producto.
// Los movimientos solo se agregan; las correcciones históricas son nuevos movimientos CORRECTION.
type Movement struct {
	ID           string
	ProductID    string
	Kind         MovementKind
	Quantity     decimal.Decimal // no negativa en IN/OUT; firmada en CORRECTION
	Date         time.Time       // fecha del evento (puede ser retroactiva en importaciones históricas)
	IncludeInAvg bool            // solo OUT con este flag entra al promedio de consumo
	BatchID      string          // lote de importación (vacío si fue manual)
	CreatedAt    time.Time
}

// SignedQuantity devuelve el efecto del movimiento sobre el saldo.
func (m Movement) SignedQuantity() decimal.Decimal {
	if m.Kind == MovementKindOUT {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// CountsTowardAverage indica si el movimiento participa del promedio de consumo (sin mirar la ventana).
func (m Movement) CountsTowardAverage() bool {
	return m.Kind == MovementKindOUT && m.IncludeInAvg
}

// Validate verifica que el movimiento sea utilizable por el motor.
func (m Movement) Validate() error {
	switch {
	case m.ProductID == "":
		return fmt.Errorf("%w: movimiento %s sin producto", domain.ErrMalformedMovement, m.ID)
	case !m.Kind.Valid():
		return fmt.Errorf("%w: movimiento %s con tipo desconocido %q", domain.ErrMalformedMovement, m.ID, m.Kind)
	case m.Date.IsZero():
		return fmt.Errorf("%w: movimiento %s sin fecha", domain.ErrMalformedMovement, m.ID)
	case m.Kind != MovementKindCORRECTION && m.Quantity.IsNegative():
		return fmt.Errorf("%w: movimiento %s %s con cantidad negativa %s", domain.ErrMalformedMovement, m.ID, m.Kind, m.Quantity)
	}
	return nil
}
