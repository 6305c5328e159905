package inventory

import (
	"math"
	"time"

	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/shopspring/decimal"
)

const (
	daysPerMonth       = 30
	defaultOrderMonths = 2 // cantidad sugerida por defecto: dos meses de consumo
)

var (
	lowStockFactor = decimal.NewFromFloat(1.5)
	// tope de díasHastaQuiebre; saldo enorme con consumo ínfimo no debe desbordar int
	maxStockoutDays = decimal.NewFromInt(math.MaxInt32)
)

// Classify clasifica el riesgo de quiebre de stock de un producto (función pura).
//
//	consumoDiario = AvgConsumption / 30
//	díasHastaQuiebre = min(floor(saldo / consumoDiario), MaxInt32), nil si consumoDiario <= 0
//	puntoReorden = policy.ReorderPoint ?? consumoDiario * (lead + seguridad)
//
// Niveles, el primero que aplique: saldo<=0 STOCKOUT; saldo<=puntoReorden CRITICAL;
// días<=lead HIGH; días<=lead+seguridad MEDIUM; saldo<=1.5*puntoReorden LOW; si no SAFE.
func Classify(agg entity.ProductAggregate, policy entity.StockPolicy, now time.Time) entity.RiskAssessment {
	policy = policy.WithDefaults(entity.DefaultLeadTimeDays, entity.DefaultSafetyStockDays)
	lead, safety := policy.LeadTimeDays, policy.SafetyStockDays
	balance := agg.CurrentBalance

	daily := agg.AvgConsumption.Div(decimal.NewFromInt(daysPerMonth))

	var days *int
	var stockoutDate *time.Time
	if daily.IsPositive() {
		q := balance.Div(daily).Floor()
		if q.GreaterThan(maxStockoutDays) {
			q = maxStockoutDays
		}
		d := int(q.IntPart())
		days = &d
		sd := now.AddDate(0, 0, d)
		stockoutDate = &sd
	}

	reorderPoint := daily.Mul(decimal.NewFromInt(int64(lead + safety)))
	if policy.ReorderPoint != nil {
		reorderPoint = *policy.ReorderPoint
	}

	orderQty := agg.AvgConsumption.Mul(decimal.NewFromInt(defaultOrderMonths))
	if policy.OrderQuantity != nil {
		orderQty = *policy.OrderQuantity
	}

	orderDate := now
	if days != nil && *days > lead {
		orderDate = now.AddDate(0, 0, *days-lead)
	}

	return entity.RiskAssessment{
		ProductID:             agg.ProductID,
		RiskLevel:             riskLevel(balance, reorderPoint, days, lead, safety),
		CurrentBalance:        balance,
		AvgConsumption:        agg.AvgConsumption,
		DailyConsumption:      daily,
		ReorderPoint:          reorderPoint,
		DaysUntilStockout:     days,
		LeadTimeDays:          lead,
		SafetyStockDays:       safety,
		RecommendedOrderQty:   orderQty,
		RecommendedOrderDate:  orderDate,
		EstimatedStockoutDate: stockoutDate,
	}
}

// riskLevel cada condición es monótona en el saldo: bajar el saldo nunca mejora el nivel.
func riskLevel(balance, reorderPoint decimal.Decimal, days *int, lead, safety int) entity.RiskLevel {
	switch {
	case !balance.IsPositive():
		return entity.RiskStockout
	case balance.LessThanOrEqual(reorderPoint):
		return entity.RiskCritical
	case days != nil && *days <= lead:
		return entity.RiskHigh
	case days != nil && *days <= lead+safety:
		return entity.RiskMedium
	case balance.LessThanOrEqual(reorderPoint.Mul(lowStockFactor)):
		return entity.RiskLow
	default:
		return entity.RiskSafe
	}
}
