package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-stock-engine/internal/domain"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo lectura del libro stock_movements (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, product_id, kind, quantity, date, include_in_avg, COALESCE(batch_id, ''), created_at`

// movementRow fila tal cual viene de la importación: cantidad y fecha pueden faltar.
type movementRow struct {
	m        entity.Movement
	quantity decimal.NullDecimal
	date     *time.Time
}

func scanMovement(rows pgx.Rows) (movementRow, error) {
	var r movementRow
	var kind string
	err := rows.Scan(&r.m.ID, &r.m.ProductID, &kind, &r.quantity, &r.date, &r.m.IncludeInAvg, &r.m.BatchID, &r.m.CreatedAt)
	r.m.Kind = entity.MovementKind(kind)
	return r, err
}

// toMovement devuelve error (ErrMalformedMovement) si la fila no se puede usar.
func (r movementRow) toMovement() (entity.Movement, error) {
	if !r.quantity.Valid {
		return entity.Movement{}, fmt.Errorf("%w: movimiento %s sin cantidad", domain.ErrMalformedMovement, r.m.ID)
	}
	if r.date == nil {
		return entity.Movement{}, fmt.Errorf("%w: movimiento %s sin fecha", domain.ErrMalformedMovement, r.m.ID)
	}
	m := r.m
	m.Quantity = r.quantity.Decimal
	m.Date = *r.date
	return m, nil
}

// ListByProduct historial completo de un producto, ordenado por fecha.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string) ([]entity.Movement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE product_id = $1 ORDER BY date, id`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, wrapErr("list movements by product", err)
	}
	defer rows.Close()
	var list []entity.Movement
	for rows.Next() {
		row, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		m, err := row.toMovement()
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, wrapErr("list movements by product", rows.Err())
}

// ListByProducts historial de varios productos en una sola consulta.
// Una fila ilegible marca solo a su producto (MovementHistory.Err).
func (r *MovementRepo) ListByProducts(ctx context.Context, productIDs []string) (map[string]repository.MovementHistory, error) {
	out := make(map[string]repository.MovementHistory, len(productIDs))
	for _, id := range productIDs {
		out[id] = repository.MovementHistory{Movements: []entity.Movement{}}
	}
	if len(productIDs) == 0 {
		return out, nil
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE product_id = ANY($1) ORDER BY product_id, date, id`
	rows, err := r.q.Query(ctx, query, productIDs)
	if err != nil {
		return nil, wrapErr("list movements by products", err)
	}
	defer rows.Close()
	for rows.Next() {
		row, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		h := out[row.m.ProductID]
		if h.Err != nil {
			continue
		}
		m, err := row.toMovement()
		if err != nil {
			out[row.m.ProductID] = repository.MovementHistory{Err: err}
			continue
		}
		h.Movements = append(h.Movements, m)
		out[row.m.ProductID] = h
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list movements by products", err)
	}
	return out, nil
}

// ListProductIDs productos con al menos un movimiento.
func (r *MovementRepo) ListProductIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT product_id FROM stock_movements ORDER BY product_id`)
	if err != nil {
		return nil, wrapErr("list product ids", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, wrapErr("list product ids", err)
	}
	return ids, nil
}

// DeleteBatch elimina los movimientos del lote. Usar dentro de TxRunner.Run.
func (r *MovementRepo) DeleteBatch(ctx context.Context, batchID string) ([]string, int64, error) {
	rows, err := r.q.Query(ctx, `DELETE FROM stock_movements WHERE batch_id = $1 RETURNING product_id`, batchID)
	if err != nil {
		return nil, 0, wrapErr("delete batch", err)
	}
	productIDs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, 0, wrapErr("delete batch", err)
	}
	seen := make(map[string]struct{}, len(productIDs))
	affected := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			affected = append(affected, id)
		}
	}
	return affected, int64(len(productIDs)), nil
}
