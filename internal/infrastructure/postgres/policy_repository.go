package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
)

var _ repository.PolicyRepository = (*PolicyRepo)(nil)

// PolicyRepo lectura de stock_policies (la mantiene el catálogo de productos).
type PolicyRepo struct {
	q Querier
}

// NewPolicyRepository construye el adaptador.
func NewPolicyRepository(q Querier) *PolicyRepo {
	return &PolicyRepo{q: q}
}

// GetByProducts devuelve solo las políticas existentes; las columnas NULL quedan en cero/nil
// para que el llamador aplique los valores por defecto.
func (r *PolicyRepo) GetByProducts(ctx context.Context, productIDs []string) (map[string]entity.StockPolicy, error) {
	out := make(map[string]entity.StockPolicy, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT product_id, lead_time_days, safety_stock_days, reorder_point, order_quantity
		FROM stock_policies WHERE product_id = ANY($1)`, productIDs)
	if err != nil {
		return nil, wrapErr("list policies", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		var lead, safety *int32
		var reorderPoint, orderQty decimal.NullDecimal
		if err := rows.Scan(&id, &lead, &safety, &reorderPoint, &orderQty); err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		var p entity.StockPolicy
		if lead != nil {
			p.LeadTimeDays = int(*lead)
		}
		if safety != nil {
			p.SafetyStockDays = int(*safety)
		}
		if reorderPoint.Valid {
			p.ReorderPoint = &reorderPoint.Decimal
		}
		if orderQty.Valid {
			p.OrderQuantity = &orderQty.Decimal
		}
		out[id] = p
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list policies", err)
	}
	return out, nil
}
