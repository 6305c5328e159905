package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
)

var _ repository.AggregateRepository = (*AggregateRepo)(nil)

// AggregateRepo persistencia de product_aggregates (usable con pool o tx).
type AggregateRepo struct {
	q Querier
}

// NewAggregateRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAggregateRepository(q Querier) *AggregateRepo {
	return &AggregateRepo{q: q}
}

// El upsert bloquea la fila; la condición sobre last_computed_at impide que una corrida
// más vieja reemplace el resultado de una más nueva.
const upsertAggregateSQL = `
	INSERT INTO product_aggregates (product_id, current_balance, avg_consumption, last_computed_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (product_id) DO UPDATE SET
		current_balance  = EXCLUDED.current_balance,
		avg_consumption  = EXCLUDED.avg_consumption,
		last_computed_at = EXCLUDED.last_computed_at
	WHERE product_aggregates.last_computed_at <= EXCLUDED.last_computed_at`

// WriteAggregates envía todos los upserts en un solo pgx.Batch.
// Los IDs van ordenados para que dos corridas concurrentes tomen los bloqueos en el mismo orden.
// Un upsert que la condición de last_computed_at descarta afecta 0 filas y se reporta en skipped.
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

	b := &pgx.Batch{}
	for _, id := range ids {
		a := aggregates[id]
		b.Queue(upsertAggregateSQL, id, a.CurrentBalance, a.AvgConsumption, a.LastComputedAt)
	}
	br := r.q.SendBatch(ctx, b)
	defer br.Close()
	for _, id := range ids {
		tag, err := br.Exec()
		if err != nil {
			return nil, wrapErr(fmt.Sprintf("upsert aggregate %s", id), err)
		}
		if tag.RowsAffected() == 0 {
			skipped = append(skipped, id)
		}
	}
	if err := br.Close(); err != nil {
		return nil, wrapErr("upsert aggregates", err)
	}
	return skipped, nil
}

func scanAggregates(rows pgx.Rows) ([]entity.ProductAggregate, error) {
	defer rows.Close()
	var list []entity.ProductAggregate
	for rows.Next() {
		var a entity.ProductAggregate
		if err := rows.Scan(&a.ProductID, &a.CurrentBalance, &a.AvgConsumption, &a.LastComputedAt); err != nil {
			return nil, fmt.Errorf("scan aggregate: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

// ListByProducts agregados existentes de los productos indicados.
func (r *AggregateRepo) ListByProducts(ctx context.Context, productIDs []string) (map[string]entity.ProductAggregate, error) {
	out := make(map[string]entity.ProductAggregate, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := r.q.Query(ctx, `
		SELECT product_id, current_balance, avg_consumption, last_computed_at
		FROM product_aggregates WHERE product_id = ANY($1)`, productIDs)
	if err != nil {
		return nil, wrapErr("list aggregates", err)
	}
	list, err := scanAggregates(rows)
	if err != nil {
		return nil, wrapErr("list aggregates", err)
	}
	for _, a := range list {
		out[a.ProductID] = a
	}
	return out, nil
}

// ListAll todos los agregados, ordenados por producto.
func (r *AggregateRepo) ListAll(ctx context.Context) ([]entity.ProductAggregate, error) {
	rows, err := r.q.Query(ctx, `
		SELECT product_id, current_balance, avg_consumption, last_computed_at
		FROM product_aggregates ORDER BY product_id`)
	if err != nil {
		return nil, wrapErr("list all aggregates", err)
	}
	list, err := scanAggregates(rows)
	if err != nil {
		return nil, wrapErr("list all aggregates", err)
	}
	return list, nil
}

// ListProductIDs productos con agregado guardado.
func (r *AggregateRepo) ListProductIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT product_id FROM product_aggregates ORDER BY product_id`)
	if err != nil {
		return nil, wrapErr("list aggregate product ids", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrapErr("list aggregate product ids", err)
	}
	return ids, nil
}
