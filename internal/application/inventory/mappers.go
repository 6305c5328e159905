package inventory

import (
	"github.com/jhoicas/inventario-stock-engine/internal/application/dto"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// ToReconcileReportDTO convierte el reporte de conciliación a su forma JSON.
func ToReconcileReportDTO(r *entity.ReconcileReport) *dto.ReconcileReportDTO {
	if r == nil {
		return nil
	}
	failed := make([]dto.ProductFailureDTO, len(r.Failed))
	for i, f := range r.Failed {
		failed[i] = dto.ProductFailureDTO{ProductID: f.ProductID, Reason: f.Reason}
	}
	return &dto.ReconcileReportDTO{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		Succeeded:  append([]string{}, r.Succeeded...),
		Skipped:    append([]string{}, r.Skipped...),
		Failed:     failed,
		DurationMs: r.DurationMs,
	}
}

// ToUndoBatchResponse convierte el resultado de deshacer un lote.
func ToUndoBatchResponse(r *UndoBatchResult) dto.UndoBatchResponse {
	return dto.UndoBatchResponse{
		BatchID:  r.BatchID,
		Deleted:  r.Deleted,
		Products: append([]string{}, r.Products...),
		Report:   ToReconcileReportDTO(r.Report),
	}
}

// ToForecastPointDTOs convierte los puntos de un producto.
func ToForecastPointDTOs(points []entity.ForecastPoint) []dto.ForecastPointDTO {
	out := make([]dto.ForecastPointDTO, len(points))
	for i, p := range points {
		out[i] = dto.ForecastPointDTO{
			ProductID:            p.ProductID,
			Month:                p.MonthKey(),
			PredictedConsumption: p.PredictedConsumption,
			Confidence:           p.Confidence,
			SeasonalFactor:       p.SeasonalFactor,
			TrendFactor:          p.TrendFactor,
			Method:               p.Method,
			GeneratedAt:          p.GeneratedAt,
		}
	}
	return out
}

// ToRiskAssessmentDTO convierte una evaluación de riesgo; las fechas van como YYYY-MM-DD.
func ToRiskAssessmentDTO(a entity.RiskAssessment) dto.RiskAssessmentDTO {
	out := dto.RiskAssessmentDTO{
		ProductID:            a.ProductID,
		RiskLevel:            a.RiskLevel.String(),
		CurrentBalance:       a.CurrentBalance,
		AvgConsumption:       a.AvgConsumption,
		DailyConsumption:     a.DailyConsumption.Round(4),
		ReorderPoint:         a.ReorderPoint.Round(2),
		DaysUntilStockout:    a.DaysUntilStockout,
		LeadTimeDays:         a.LeadTimeDays,
		SafetyStockDays:      a.SafetyStockDays,
		RecommendedOrderQty:  a.RecommendedOrderQty.Round(2),
		RecommendedOrderDate: a.RecommendedOrderDate.Format(dateLayout),
		PolicyDefaulted:      a.PolicyDefaulted,
	}
	if a.EstimatedStockoutDate != nil {
		d := a.EstimatedStockoutDate.Format(dateLayout)
		out.EstimatedStockoutDate = &d
	}
	return out
}

func toRiskAssessmentDTOs(as []entity.RiskAssessment) []dto.RiskAssessmentDTO {
	out := make([]dto.RiskAssessmentDTO, len(as))
	for i, a := range as {
		out[i] = ToRiskAssessmentDTO(a)
	}
	return out
}

// ToRiskReportDTO convierte el reporte; items puede venir filtrado por nivel.
func ToRiskReportDTO(r *RiskReport, items []entity.RiskAssessment) dto.RiskReportDTO {
	counts := make(map[string]int, len(entity.RiskLevels()))
	for _, l := range entity.RiskLevels() {
		counts[l.String()] = r.Counts[l]
	}
	return dto.RiskReportDTO{
		GeneratedAt: r.GeneratedAt,
		Counts:      counts,
		Items:       toRiskAssessmentDTOs(items),
	}
}

// ToProcurementAlertsDTO convierte las alertas de compras.
func ToProcurementAlertsDTO(a ProcurementAlerts) dto.ProcurementAlertsDTO {
	overstock := make([]dto.OverstockAlertDTO, len(a.Overstock))
	for i, o := range a.Overstock {
		overstock[i] = dto.OverstockAlertDTO{
			RiskAssessmentDTO: ToRiskAssessmentDTO(o.Assessment),
			MonthsOfStock:     o.MonthsOfStock,
		}
	}
	return dto.ProcurementAlertsDTO{
		Critical:  toRiskAssessmentDTOs(a.Critical),
		Upcoming:  toRiskAssessmentDTOs(a.Upcoming),
		Overstock: overstock,
		Summary: dto.AlertSummaryDTO{
			Critical:  len(a.Critical),
			Upcoming:  len(a.Upcoming),
			Overstock: len(a.Overstock),
		},
	}
}
