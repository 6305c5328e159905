package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReconcileRequest body para POST /api/engine/reconcile. Sin IDs = catálogo completo.
type ReconcileRequest struct {
	ProductIDs []string `json:"product_ids"`
}

// ForecastRequest body para POST /api/engine/forecasts.
type ForecastRequest struct {
	ProductIDs    []string `json:"product_ids"`
	HorizonMonths int      `json:"horizon_months,omitempty"`
}

// ProductFailureDTO producto omitido en la conciliación.
type ProductFailureDTO struct {
	ProductID string `json:"product_id"`
	Reason    string `json:"reason"`
}

// ReconcileReportDTO respuesta de una conciliación.
type ReconcileReportDTO struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	Succeeded  []string            `json:"succeeded"`
	Skipped    []string            `json:"skipped"`
	Failed     []ProductFailureDTO `json:"failed"`
	DurationMs int64               `json:"duration_ms"`
}

// UndoBatchResponse respuesta de POST /api/engine/batches/:batch_id/undo.
type UndoBatchResponse struct {
	BatchID  string              `json:"batch_id"`
	Deleted  int64               `json:"deleted"`
	Products []string            `json:"products"`
	Report   *ReconcileReportDTO `json:"report,omitempty"`
}

// UndoBatchErrorResponse error al deshacer un lote cuyo borrado ya se confirmó: products
// debe reconciliarse de nuevo (POST /api/engine/reconcile).
type UndoBatchErrorResponse struct {
	ErrorResponse
	BatchID  string   `json:"batch_id"`
	Deleted  int64    `json:"deleted"`
	Products []string `json:"products"`
}

// ForecastPointDTO pronóstico de un mes.
type ForecastPointDTO struct {
	ProductID            string          `json:"product_id"`
	Month                string          `json:"month"` // YYYY-MM
	PredictedConsumption decimal.Decimal `json:"predicted_consumption"`
	Confidence           int             `json:"confidence"` // puntaje heurístico 0-100, no un intervalo estadístico
	SeasonalFactor       decimal.Decimal `json:"seasonal_factor"`
	TrendFactor          decimal.Decimal `json:"trend_factor"`
	Method               string          `json:"method"`
	GeneratedAt          time.Time       `json:"generated_at"`
}

// ForecastResponse pronósticos por producto.
type ForecastResponse struct {
	HorizonMonths int                           `json:"horizon_months"`
	Products      map[string][]ForecastPointDTO `json:"products"`
}

// RiskAssessmentDTO riesgo de quiebre de un producto.
type RiskAssessmentDTO struct {
	ProductID             string          `json:"product_id"`
	RiskLevel             string          `json:"risk_level"`
	CurrentBalance        decimal.Decimal `json:"current_balance"`
	AvgConsumption        decimal.Decimal `json:"avg_consumption"`
	DailyConsumption      decimal.Decimal `json:"daily_consumption"`
	ReorderPoint          decimal.Decimal `json:"reorder_point"`
	DaysUntilStockout     *int            `json:"days_until_stockout"`
	LeadTimeDays          int             `json:"lead_time_days"`
	SafetyStockDays       int             `json:"safety_stock_days"`
	RecommendedOrderQty   decimal.Decimal `json:"recommended_order_qty"`
	RecommendedOrderDate  string          `json:"recommended_order_date"` // YYYY-MM-DD
	EstimatedStockoutDate *string         `json:"estimated_stockout_date"`
	PolicyDefaulted       bool            `json:"policy_defaulted"`
}

// RiskReportDTO respuesta de GET /api/engine/risks.
type RiskReportDTO struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Counts      map[string]int      `json:"counts"`
	Items       []RiskAssessmentDTO `json:"items"`
}

// OverstockAlertDTO producto con exceso de inventario.
type OverstockAlertDTO struct {
	RiskAssessmentDTO
	MonthsOfStock decimal.Decimal `json:"months_of_stock"`
}

// ProcurementAlertsDTO respuesta de GET /api/engine/risks/alerts.
type ProcurementAlertsDTO struct {
	Critical  []RiskAssessmentDTO `json:"critical"`
	Upcoming  []RiskAssessmentDTO `json:"upcoming"`
	Overstock []OverstockAlertDTO `json:"overstock"`
	Summary   AlertSummaryDTO     `json:"summary"`
}

// AlertSummaryDTO conteos de alertas.
type AlertSummaryDTO struct {
	Critical  int `json:"critical"`
	Upcoming  int `json:"upcoming"`
	Overstock int `json:"overstock"`
}
