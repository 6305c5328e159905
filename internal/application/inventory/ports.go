package inventory

import (
	"context"

	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn retorna nil; Rollback en cualquier otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.MovementRepository,
		aggRepo repository.AggregateRepository,
		forecastRepo repository.ForecastRepository,
	) error) error
}

// RiskReportRenderer convierte un reporte de riesgo en un documento descargable (PDF).
type RiskReportRenderer interface {
	RenderRiskReport(ctx context.Context, report *RiskReport) ([]byte, error)
}
