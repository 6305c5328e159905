package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RiskLevel nivel de riesgo de quiebre de stock, ordenado del más urgente al menos urgente.
type RiskLevel int

const (
	RiskStockout RiskLevel = iota
	RiskCritical
	RiskHigh
	RiskMedium
	RiskLow
	RiskSafe
)

var riskLevelNames = [...]string{"STOCKOUT", "CRITICAL", "HIGH", "MEDIUM", "LOW", "SAFE"}

// RiskLevels todos los niveles en orden de urgencia.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskStockout, RiskCritical, RiskHigh, RiskMedium, RiskLow, RiskSafe}
}

func (l RiskLevel) String() string {
	if l < RiskStockout || l > RiskSafe {
		return fmt.Sprintf("RiskLevel(%d)", int(l))
	}
	return riskLevelNames[l]
}

// MoreUrgentThan indica si l es más urgente que other.
func (l RiskLevel) MoreUrgentThan(other RiskLevel) bool { return l < other }

// ParseRiskLevel convierte el nombre (STOCKOUT, CRITICAL, ...) al nivel.
func ParseRiskLevel(s string) (RiskLevel, error) {
	for i, name := range riskLevelNames {
		if name == s {
			return RiskLevel(i), nil
		}
	}
	return 0, fmt.Errorf("nivel de riesgo desconocido: %q", s)
}

// MarshalText serializa el nivel por nombre (JSON incluido).
func (l RiskLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText acepta el nombre del nivel.
func (l *RiskLevel) UnmarshalText(b []byte) error {
	v, err := ParseRiskLevel(string(b))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// RiskAssessment clasificación de riesgo de un producto en una corrida.
// RecommendedOrderQty y RecommendedOrderDate son orientativos.
type RiskAssessment struct {
	ProductID             string
	RiskLevel             RiskLevel
	CurrentBalance        decimal.Decimal
	AvgConsumption        decimal.Decimal
	DailyConsumption      decimal.Decimal
	ReorderPoint          decimal.Decimal
	DaysUntilStockout     *int // nil si el consumo diario es cero
	LeadTimeDays          int
	SafetyStockDays       int
	RecommendedOrderQty   decimal.Decimal
	RecommendedOrderDate  time.Time
	EstimatedStockoutDate *time.Time
	PolicyDefaulted       bool // true si no había política y se usaron valores por defecto
}
