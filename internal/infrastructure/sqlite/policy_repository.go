package sqlite

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
)

var _ repository.PolicyRepository = (*PolicyRepo)(nil)

// PolicyRepo stock_policies sobre SQLite.
type PolicyRepo struct {
	q DBTX
}

// NewPolicyRepository construye el adaptador.
func NewPolicyRepository(q DBTX) *PolicyRepo {
	return &PolicyRepo{q: q}
}

type policyRow struct {
	ProductID       string              `db:"product_id"`
	LeadTimeDays    sql.NullInt64       `db:"lead_time_days"`
	SafetyStockDays sql.NullInt64       `db:"safety_stock_days"`
	ReorderPoint    decimal.NullDecimal `db:"reorder_point"`
	OrderQuantity   decimal.NullDecimal `db:"order_quantity"`
}

// GetByProducts solo las políticas existentes; NULL queda en cero/nil.
func (r *PolicyRepo) GetByProducts(ctx context.Context, productIDs []string) (map[string]entity.StockPolicy, error) {
	out := make(map[string]entity.StockPolicy, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	query, args, err := in(r.q, `
		SELECT product_id, lead_time_days, safety_stock_days, reorder_point, order_quantity
		FROM stock_policies WHERE product_id IN (?)`, productIDs)
	if err != nil {
		return nil, err
	}
	var rows []policyRow
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr("listar políticas", err)
	}
	for _, row := range rows {
		p := entity.StockPolicy{
			LeadTimeDays:    int(row.LeadTimeDays.Int64),
			SafetyStockDays: int(row.SafetyStockDays.Int64),
		}
		if row.ReorderPoint.Valid {
			rp := row.ReorderPoint.Decimal
			p.ReorderPoint = &rp
		}
		if row.OrderQuantity.Valid {
			oq := row.OrderQuantity.Decimal
			p.OrderQuantity = &oq
		}
		out[row.ProductID] = p
	}
	return out, nil
}

// SavePolicy upsert de una política (lo usa el catálogo; aquí para corridas locales y pruebas).
func (r *PolicyRepo) SavePolicy(ctx context.Context, productID string, p entity.StockPolicy) error {
	nullInt := func(v int) sql.NullInt64 { return sql.NullInt64{Int64: int64(v), Valid: v > 0} }
	nullDec := func(d *decimal.Decimal) sql.NullString {
		if d == nil {
			return sql.NullString{}
		}
		return sql.NullString{String: d.String(), Valid: true}
	}
	_, err := r.q.ExecContext(ctx, r.q.Rebind(`
		INSERT INTO stock_policies (product_id, lead_time_days, safety_stock_days, reorder_point, order_quantity)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(product_id) DO UPDATE SET
			lead_time_days    = excluded.lead_time_days,
			safety_stock_days = excluded.safety_stock_days,
			reorder_point     = excluded.reorder_point,
			order_quantity    = excluded.order_quantity`),
		productID, nullInt(p.LeadTimeDays), nullInt(p.SafetyStockDays), nullDec(p.ReorderPoint), nullDec(p.OrderQuantity))
	return wrapErr("guardar política", err)
}
