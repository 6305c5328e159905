package inventory_test

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-stock-engine/internal/domain"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/inventory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

const testProductID = "11111111-1111-1111-1111-111111111111"

var asOf = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mov(kind entity.MovementKind, q string, date time.Time, includeInAvg bool) entity.Movement {
	return entity.Movement{
		ID:           string(kind) + "-" + date.Format(time.RFC3339Nano) + "-" + q,
		ProductID:    testProductID,
		Kind:         kind,
		Quantity:     qty(q),
		Date:         date,
		IncludeInAvg: includeInAvg,
	}
}

func daysAgo(n int) time.Time { return asOf.AddDate(0, 0, -n) }

func mixedLedger() []entity.Movement {
	return []entity.Movement{
		mov(entity.MovementKindIN, "500", daysAgo(200), false),
		mov(entity.MovementKindOUT, "120", daysAgo(150), true),
		mov(entity.MovementKindOUT, "80", daysAgo(90), true),
		mov(entity.MovementKindOUT, "1000", daysAgo(60), false), // carga inicial, no cuenta
		mov(entity.MovementKindCORRECTION, "-15.5", daysAgo(30), false),
		mov(entity.MovementKindIN, "700", daysAgo(10), false),
		mov(entity.MovementKindOUT, "100", daysAgo(5), true),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Propiedades del agregador
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregate_Idempotente(t *testing.T) {
	movs := mixedLedger()

	first, err1 := inventory.Aggregate(testProductID, movs, asOf, 12)
	second, err2 := inventory.Aggregate(testProductID, movs, asOf, 12)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, first, second, "la misma entrada debe producir exactamente el mismo agregado")
}

func TestAggregate_IndependienteDelOrden(t *testing.T) {
	movs := mixedLedger()
	want, err := inventory.Aggregate(testProductID, movs, asOf, 12)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]entity.Movement(nil), movs...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got, err := inventory.Aggregate(testProductID, shuffled, asOf, 12)
		require.NoError(t, err)
		assert.True(t, want.CurrentBalance.Equal(got.CurrentBalance), "saldo distinto tras reordenar")
		assert.True(t, want.AvgConsumption.Equal(got.AvgConsumption), "promedio distinto tras reordenar")
	}
}

func TestAggregate_LeyDeSignos(t *testing.T) {
	tests := []struct {
		name string
		kind entity.MovementKind
		qtys []string
		want string
	}{
		{"solo entradas suman", entity.MovementKindIN, []string{"10", "2.5", "7"}, "19.5"},
		{"solo salidas restan", entity.MovementKindOUT, []string{"10", "2.5", "7"}, "-19.5"},
		{"correcciones con signo propio", entity.MovementKindCORRECTION, []string{"10", "-2.5", "-7"}, "0.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var movs []entity.Movement
			for i, q := range tt.qtys {
				movs = append(movs, mov(tt.kind, q, daysAgo(i+1), false))
			}
			agg, err := inventory.Aggregate(testProductID, movs, asOf, 12)
			require.NoError(t, err)
			assert.True(t, qty(tt.want).Equal(agg.CurrentBalance), "saldo esperado %s, obtenido %s", tt.want, agg.CurrentBalance)
		})
	}
}

func TestAggregate_EntradaVacia(t *testing.T) {
	agg, err := inventory.Aggregate(testProductID, nil, asOf, 12)
	require.NoError(t, err)

	assert.True(t, agg.CurrentBalance.IsZero())
	assert.True(t, agg.AvgConsumption.IsZero())
	assert.Equal(t, testProductID, agg.ProductID)
	assert.Equal(t, asOf, agg.LastComputedAt)
}

func TestAggregate_SaldoNegativoNoSeRecorta(t *testing.T) {
	movs := []entity.Movement{
		mov(entity.MovementKindIN, "10", daysAgo(3), false),
		mov(entity.MovementKindOUT, "15", daysAgo(1), true),
	}
	agg, err := inventory.Aggregate(testProductID, movs, asOf, 12)
	require.NoError(t, err)
	assert.True(t, qty("-5").Equal(agg.CurrentBalance), "un saldo negativo debe exponerse tal cual")
}

func TestAggregate_PromedioExcluyeSinFlag(t *testing.T) {
	base := []entity.Movement{
		mov(entity.MovementKindOUT, "100", daysAgo(10), true),
		mov(entity.MovementKindOUT, "200", daysAgo(20), true),
	}
	want, err := inventory.Aggregate(testProductID, base, asOf, 12)
	require.NoError(t, err)
	require.True(t, qty("150").Equal(want.AvgConsumption))

	for _, d := range []int{1, 100, 300, 2000} {
		withExcluded := append(append([]entity.Movement(nil), base...),
			mov(entity.MovementKindOUT, "99999", daysAgo(d), false))
		got, err := inventory.Aggregate(testProductID, withExcluded, asOf, 12)
		require.NoError(t, err)
		assert.True(t, want.AvgConsumption.Equal(got.AvgConsumption),
			"una salida sin includeInAvg (hace %d días) no debe mover el promedio", d)
	}
}

func TestAggregate_CorreccionesNuncaEntranAlPromedio(t *testing.T) {
	movs := []entity.Movement{
		mov(entity.MovementKindOUT, "40", daysAgo(10), true),
		mov(entity.MovementKindCORRECTION, "-300", daysAgo(5), true),
	}
	agg, err := inventory.Aggregate(testProductID, movs, asOf, 12)
	require.NoError(t, err)
	assert.True(t, qty("40").Equal(agg.AvgConsumption))
	assert.True(t, qty("-340").Equal(agg.CurrentBalance))
}

func TestAggregate_LimiteDeVentana(t *testing.T) {
	exactBoundary := asOf.AddDate(0, -12, 0)
	oneMonthFurther := asOf.AddDate(0, -13, 0)

	movs := []entity.Movement{
		mov(entity.MovementKindOUT, "60", exactBoundary, true),
		mov(entity.MovementKindOUT, "500", oneMonthFurther, true),
	}
	agg, err := inventory.Aggregate(testProductID, movs, asOf, 12)
	require.NoError(t, err)

	assert.True(t, qty("60").Equal(agg.AvgConsumption),
		"la salida en el borde exacto de la ventana se incluye y la de un mes antes se excluye")
	assert.True(t, qty("-560").Equal(agg.CurrentBalance), "el saldo considera toda la historia")
}

func TestAggregate_VentanaConfigurable(t *testing.T) {
	movs := []entity.Movement{
		mov(entity.MovementKindOUT, "10", daysAgo(20), true),
		mov(entity.MovementKindOUT, "30", daysAgo(80), true),
	}
	threeMonths, err := inventory.Aggregate(testProductID, movs, asOf, 3)
	require.NoError(t, err)
	oneMonth, err := inventory.Aggregate(testProductID, movs, asOf, 1)
	require.NoError(t, err)

	assert.True(t, qty("20").Equal(threeMonths.AvgConsumption))
	assert.True(t, qty("10").Equal(oneMonth.AvgConsumption))
}

func TestAggregate_MovimientoMalFormado(t *testing.T) {
	bad := mov(entity.MovementKindOUT, "5", time.Time{}, true)
	_, err := inventory.Aggregate(testProductID, []entity.Movement{bad}, asOf, 12)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedMovement))

	unknown := mov("LOAN", "5", daysAgo(1), false)
	_, err = inventory.Aggregate(testProductID, []entity.Movement{unknown}, asOf, 12)
	assert.ErrorIs(t, err, domain.ErrMalformedMovement)

	foreign := mov(entity.MovementKindIN, "5", daysAgo(1), false)
	foreign.ProductID = "otro"
	_, err = inventory.Aggregate(testProductID, []entity.Movement{foreign}, asOf, 12)
	assert.ErrorIs(t, err, domain.ErrMalformedMovement)
}

func TestSubtractMonths_FinDeMes(t *testing.T) {
	march31 := time.Date(2024, time.March, 31, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, time.February, 29, 8, 0, 0, 0, time.UTC), inventory.SubtractMonths(march31, 1))
	assert.Equal(t, time.Date(2023, time.March, 31, 8, 0, 0, 0, time.UTC), inventory.SubtractMonths(march31, 12))
}
