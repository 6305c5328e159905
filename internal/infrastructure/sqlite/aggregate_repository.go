package sqlite

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
)

var _ repository.AggregateRepository = (*AggregateRepo)(nil)

// AggregateRepo product_aggregates sobre SQLite.
type AggregateRepo struct {
	q DBTX
}

// NewAggregateRepository construye el adaptador.
func NewAggregateRepository(q DBTX) *AggregateRepo {
	return &AggregateRepo{q: q}
}

type aggregateRow struct {
	ProductID      string          `db:"product_id"`
	CurrentBalance decimal.Decimal `db:"current_balance"`
	AvgConsumption decimal.Decimal `db:"avg_consumption"`
	LastComputedAt time.Time       `db:"last_computed_at"`
}

func (r aggregateRow) toEntity() entity.ProductAggregate {
	return entity.ProductAggregate{
		ProductID:      r.ProductID,
		CurrentBalance: r.CurrentBalance,
		AvgConsumption: r.AvgConsumption,
		LastComputedAt: r.LastComputedAt.UTC(),
	}
}

// Las fechas se guardan en UTC con el mismo formato, así la comparación de texto respeta el orden temporal.
const upsertAggregateSQL = `
	INSERT INTO product_aggregates (product_id, current_balance, avg_consumption, last_computed_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(product_id) DO UPDATE SET
		current_balance  = excluded.current_balance,
		avg_consumption  = excluded.avg_consumption,
		last_computed_at = excluded.last_computed_at
	WHERE product_aggregates.last_computed_at <= excluded.last_computed_at`

// WriteAggregates upsert de todos los agregados; atómico cuando corre dentro de TxRunner.Run.
// Devuelve los productos cuyo upsert descartó la condición de last_computed_at.
func (r *AggregateRepo) WriteAggregates(ctx context.Context, aggregates map[string]entity.ProductAggregate) ([]string, error) {
	skipped := []string{}
	if len(aggregates) == 0 {
		return skipped, nil
	}
	ids := make([]string, 0, len(aggregates))
	for id := range aggregates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	stmt, err := r.q.PreparexContext(ctx, r.q.Rebind(upsertAggregateSQL))
	if err != nil {
		return nil, wrapErr("preparar upsert de agregados", err)
	}
	defer stmt.Close()
	for _, id := range ids {
		a := aggregates[id]
		res, err := stmt.ExecContext(ctx, id, a.CurrentBalance.String(), a.AvgConsumption.String(), a.LastComputedAt.UTC())
		if err != nil {
			return nil, wrapErr(fmt.Sprintf("upsert agregado %s", id), err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, wrapErr(fmt.Sprintf("upsert agregado %s", id), err)
		}
		if n == 0 {
			skipped = append(skipped, id)
		}
	}
	return skipped, nil
}

// ListByProducts agregados existentes de los productos indicados.
func (r *AggregateRepo) ListByProducts(ctx context.Context, productIDs []string) (map[string]entity.ProductAggregate, error) {
	out := make(map[string]entity.ProductAggregate, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	query, args, err := in(r.q, `
		SELECT product_id, current_balance, avg_consumption, last_computed_at
		FROM product_aggregates WHERE product_id IN (?)`, productIDs)
	if err != nil {
		return nil, err
	}
	var rows []aggregateRow
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr("listar agregados", err)
	}
	for _, row := range rows {
		out[row.ProductID] = row.toEntity()
	}
	return out, nil
}

// ListAll todos los agregados, ordenados por producto.
func (r *AggregateRepo) ListAll(ctx context.Context) ([]entity.ProductAggregate, error) {
	var rows []aggregateRow
	if err := r.q.SelectContext(ctx, &rows, `
		SELECT product_id, current_balance, avg_consumption, last_computed_at
		FROM product_aggregates ORDER BY product_id`); err != nil {
		return nil, wrapErr("listar agregados", err)
	}
	out := make([]entity.ProductAggregate, len(rows))
	for i, row := range rows {
		out[i] = row.toEntity()
	}
	return out, nil
}

// ListProductIDs productos con agregado guardado.
func (r *AggregateRepo) ListProductIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.q.SelectContext(ctx, &ids, `SELECT product_id FROM product_aggregates ORDER BY product_id`); err != nil {
		return nil, wrapErr("listar productos con agregado", err)
	}
	return ids, nil
}
