package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-stock-engine/internal/domain"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-stock-engine/internal/domain/inventory"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
	"github.com/jhoicas/inventario-stock-engine/pkg/logger"
)

// RiskReport clasificación de riesgo de quiebre de un conjunto de productos.
type RiskReport struct {
	GeneratedAt time.Time
	Assessments []entity.RiskAssessment // más urgente primero
	Counts      map[entity.RiskLevel]int
}

// Filter devuelve solo las evaluaciones del nivel indicado.
func (r *RiskReport) Filter(level entity.RiskLevel) []entity.RiskAssessment {
	out := make([]entity.RiskAssessment, 0, r.Counts[level])
	for _, a := range r.Assessments {
		if a.RiskLevel == level {
			out = append(out, a)
		}
	}
	return out
}

// OverstockAlert producto con más stock del que se consume en OverstockMonths meses.
type OverstockAlert struct {
	Assessment    entity.RiskAssessment
	MonthsOfStock decimal.Decimal
}

// ProcurementAlerts alertas de compras derivadas de un RiskReport.
type ProcurementAlerts struct {
	Critical  []entity.RiskAssessment // STOCKOUT, CRITICAL, HIGH
	Upcoming  []entity.RiskAssessment // MEDIUM
	Overstock []OverstockAlert
}

// RiskReportUseCase clasifica el riesgo de quiebre a partir de los agregados y las políticas del catálogo.
type RiskReportUseCase struct {
	aggRepo    repository.AggregateRepository
	policyRepo repository.PolicyRepository
	log        *logger.Logger
	opts       Options
}

// NewRiskReportUseCase construye el caso de uso.
func NewRiskReportUseCase(
	aggRepo repository.AggregateRepository,
	policyRepo repository.PolicyRepository,
	log *logger.Logger,
	opts Options,
) *RiskReportUseCase {
	return &RiskReportUseCase{
		aggRepo:    aggRepo,
		policyRepo: policyRepo,
		log:        log,
		opts:       opts.withDefaults(),
	}
}

// BuildReport clasifica los productos indicados (vacío = todos los agregados).
// Un producto sin agregado todavía no se incluye; uno sin política usa los valores por defecto.
func (uc *RiskReportUseCase) BuildReport(ctx context.Context, productIDs []string) (*RiskReport, error) {
	aggs, err := uc.loadAggregates(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(aggs))
	for _, a := range aggs {
		ids = append(ids, a.ProductID)
	}
	policies := map[string]entity.StockPolicy{}
	if len(ids) > 0 {
		policies, err = uc.policyRepo.GetByProducts(ctx, ids)
		if err != nil {
			return nil, storeError(ctx, "leer políticas", err)
		}
	}

	now := uc.opts.Clock()
	report := &RiskReport{
		GeneratedAt: now,
		Assessments: make([]entity.RiskAssessment, 0, len(aggs)),
		Counts:      make(map[entity.RiskLevel]int, len(entity.RiskLevels())),
	}
	for _, agg := range aggs {
		policy, err := policyFor(policies, agg.ProductID)
		defaulted := errors.Is(err, domain.ErrPolicyNotFound)
		if defaulted {
			uc.log.Debug().Err(err).Msg("se usan valores por defecto")
		}
		policy = policy.WithDefaults(uc.opts.DefaultLeadTimeDays, uc.opts.DefaultSafetyStockDays)

		a := domaininv.Classify(agg, policy, now)
		a.PolicyDefaulted = defaulted
		report.Assessments = append(report.Assessments, a)
		report.Counts[a.RiskLevel]++
	}
	sortByUrgency(report.Assessments)
	return report, nil
}

func policyFor(policies map[string]entity.StockPolicy, productID string) (entity.StockPolicy, error) {
	p, ok := policies[productID]
	if !ok {
		return entity.StockPolicy{}, fmt.Errorf("producto %s: %w", productID, domain.ErrPolicyNotFound)
	}
	return p, nil
}

func (uc *RiskReportUseCase) loadAggregates(ctx context.Context, productIDs []string) ([]entity.ProductAggregate, error) {
	if len(productIDs) == 0 {
		all, err := uc.aggRepo.ListAll(ctx)
		if err != nil {
			return nil, storeError(ctx, "leer agregados", err)
		}
		return all, nil
	}
	ids := uniqueIDs(productIDs)
	byID, err := uc.aggRepo.ListByProducts(ctx, ids)
	if err != nil {
		return nil, storeError(ctx, "leer agregados", err)
	}
	out := make([]entity.ProductAggregate, 0, len(byID))
	for _, id := range ids {
		agg, ok := byID[id]
		if !ok {
			uc.log.Debug().Str("product_id", id).Msg("producto sin agregado, no se clasifica")
			continue
		}
		out = append(out, agg)
	}
	return out, nil
}

// Alerts agrupa el reporte en alertas de compras: urgentes, próximas y sobrestock.
func (uc *RiskReportUseCase) Alerts(report *RiskReport) ProcurementAlerts {
	alerts := ProcurementAlerts{
		Critical:  []entity.RiskAssessment{},
		Upcoming:  []entity.RiskAssessment{},
		Overstock: []OverstockAlert{},
	}
	months := decimal.NewFromInt(int64(uc.opts.OverstockMonths))
	for _, a := range report.Assessments {
		switch a.RiskLevel {
		case entity.RiskStockout, entity.RiskCritical, entity.RiskHigh:
			alerts.Critical = append(alerts.Critical, a)
		case entity.RiskMedium:
			alerts.Upcoming = append(alerts.Upcoming, a)
		}
		if a.AvgConsumption.IsPositive() && a.CurrentBalance.GreaterThan(a.AvgConsumption.Mul(months)) {
			alerts.Overstock = append(alerts.Overstock, OverstockAlert{
				Assessment:    a,
				MonthsOfStock: a.CurrentBalance.Div(a.AvgConsumption).Round(1),
			})
		}
	}
	sort.SliceStable(alerts.Overstock, func(i, j int) bool {
		return alerts.Overstock[i].MonthsOfStock.GreaterThan(alerts.Overstock[j].MonthsOfStock)
	})
	return alerts
}

// sortByUrgency: nivel más urgente primero, luego menos días hasta el quiebre, luego ID.
func sortByUrgency(as []entity.RiskAssessment) {
	sort.SliceStable(as, func(i, j int) bool {
		a, b := as[i], as[j]
		if a.RiskLevel != b.RiskLevel {
			return a.RiskLevel.MoreUrgentThan(b.RiskLevel)
		}
		da, db := a.DaysUntilStockout, b.DaysUntilStockout
		switch {
		case da != nil && db != nil && *da != *db:
			return *da < *db
		case da != nil && db == nil:
			return true
		case da == nil && db != nil:
			return false
		}
		return a.ProductID < b.ProductID
	})
}
