package entity

import "github.com/shopspring/decimal"

// Valores por defecto cuando el catálogo no define la política del producto.
const (
	DefaultLeadTimeDays    = 10
	DefaultSafetyStockDays = 15
)

// StockPolicy política de reposición de un producto (la provee el catálogo).
type StockPolicy struct {
	LeadTimeDays    int
	SafetyStockDays int
	ReorderPoint    *decimal.Decimal // nil = se calcula desde el consumo diario
	OrderQuantity   *decimal.Decimal // nil = dos meses de consumo
}

// WithDefaults completa los plazos ausentes (cero o negativos) con los valores indicados.
func (p StockPolicy) WithDefaults(leadTimeDays, safetyStockDays int) StockPolicy {
	if p.LeadTimeDays <= 0 {
		p.LeadTimeDays = leadTimeDays
	}
	if p.SafetyStockDays <= 0 {
		p.SafetyStockDays = safetyStockDays
	}
	return p
}
