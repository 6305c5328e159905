package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/inventario-stock-engine/internal/domain"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos sobre SQLite (usable con db o tx).
type MovementRepo struct {
	q DBTX
}

// NewMovementRepository construye el adaptador.
func NewMovementRepository(q DBTX) *MovementRepo {
	return &MovementRepo{q: q}
}

type movementRow struct {
	ID           string         `db:"id"`
	ProductID    string         `db:"product_id"`
	Kind         string         `db:"kind"`
	Quantity     sql.NullString `db:"quantity"`
	Date         sql.NullTime   `db:"date"`
	IncludeInAvg bool           `db:"include_in_avg"`
	BatchID      sql.NullString `db:"batch_id"`
	CreatedAt    time.Time      `db:"created_at"`
}

const selectMovements = `
	SELECT id, product_id, kind, quantity, date, include_in_avg, batch_id, created_at
	FROM stock_movements`

// toMovement falla con ErrMalformedMovement si la cantidad no se puede leer o falta la fecha.
func (r movementRow) toMovement() (entity.Movement, error) {
	if !r.Quantity.Valid {
		return entity.Movement{}, fmt.Errorf("%w: movimiento %s sin cantidad", domain.ErrMalformedMovement, r.ID)
	}
	q, err := decimal.NewFromString(r.Quantity.String)
	if err != nil {
		return entity.Movement{}, fmt.Errorf("%w: movimiento %s con cantidad ilegible %q", domain.ErrMalformedMovement, r.ID, r.Quantity.String)
	}
	if !r.Date.Valid || r.Date.Time.IsZero() {
		return entity.Movement{}, fmt.Errorf("%w: movimiento %s sin fecha", domain.ErrMalformedMovement, r.ID)
	}
	return entity.Movement{
		ID:           r.ID,
		ProductID:    r.ProductID,
		Kind:         entity.MovementKind(r.Kind),
		Quantity:     q,
		Date:         r.Date.Time.UTC(),
		IncludeInAvg: r.IncludeInAvg,
		BatchID:      r.BatchID.String,
		CreatedAt:    r.CreatedAt.UTC(),
	}, nil
}

// ListByProduct historial completo de un producto, ordenado por fecha.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string) ([]entity.Movement, error) {
	var rows []movementRow
	if err := r.q.SelectContext(ctx, &rows, r.q.Rebind(selectMovements+` WHERE product_id = ? ORDER BY date, id`), productID); err != nil {
		return nil, wrapErr("listar movimientos", err)
	}
	list := make([]entity.Movement, 0, len(rows))
	for _, row := range rows {
		m, err := row.toMovement()
		if err != nil {
			return nil, err
		}
		list = append(list, m)
	}
	return list, nil
}

// ListByProducts historial de varios productos; una fila ilegible marca solo a su producto.
func (r *MovementRepo) ListByProducts(ctx context.Context, productIDs []string) (map[string]repository.MovementHistory, error) {
	out := make(map[string]repository.MovementHistory, len(productIDs))
	for _, id := range productIDs {
		out[id] = repository.MovementHistory{Movements: []entity.Movement{}}
	}
	if len(productIDs) == 0 {
		return out, nil
	}
	query, args, err := in(r.q, selectMovements+` WHERE product_id IN (?) ORDER BY product_id, date, id`, productIDs)
	if err != nil {
		return nil, err
	}
	var rows []movementRow
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, wrapErr("listar movimientos por productos", err)
	}
	for _, row := range rows {
		h := out[row.ProductID]
		if h.Err != nil {
			continue
		}
		m, err := row.toMovement()
		if err != nil {
			out[row.ProductID] = repository.MovementHistory{Err: err}
			continue
		}
		h.Movements = append(h.Movements, m)
		out[row.ProductID] = h
	}
	return out, nil
}

// ListProductIDs productos con al menos un movimiento.
func (r *MovementRepo) ListProductIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.q.SelectContext(ctx, &ids, `SELECT DISTINCT product_id FROM stock_movements ORDER BY product_id`); err != nil {
		return nil, wrapErr("listar productos", err)
	}
	return ids, nil
}

// DeleteBatch elimina los movimientos del lote. Usar dentro de TxRunner.Run.
func (r *MovementRepo) DeleteBatch(ctx context.Context, batchID string) ([]string, int64, error) {
	var ids []string
	if err := r.q.SelectContext(ctx, &ids, r.q.Rebind(`SELECT DISTINCT product_id FROM stock_movements WHERE batch_id = ?`), batchID); err != nil {
		return nil, 0, wrapErr("leer lote", err)
	}
	res, err := r.q.ExecContext(ctx, r.q.Rebind(`DELETE FROM stock_movements WHERE batch_id = ?`), batchID)
	if err != nil {
		return nil, 0, wrapErr("eliminar lote", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, 0, wrapErr("eliminar lote", err)
	}
	sort.Strings(ids)
	return ids, n, nil
}

// Import inserta movimientos tal como los entrega el subsistema de importación (corridas locales y pruebas).
// Un movimiento sin ID recibe un UUID nuevo.
func (r *MovementRepo) Import(ctx context.Context, movements []entity.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	stmt, err := r.q.PreparexContext(ctx, r.q.Rebind(`
		INSERT INTO stock_movements (id, product_id, kind, quantity, date, include_in_avg, batch_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		return wrapErr("preparar importación", err)
	}
	defer stmt.Close()
	for _, m := range movements {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		created := m.CreatedAt
		if created.IsZero() {
			created = m.Date
		}
		batch := sql.NullString{String: m.BatchID, Valid: m.BatchID != ""}
		if _, err := stmt.ExecContext(ctx, m.ID, m.ProductID, string(m.Kind), m.Quantity.String(),
			m.Date.UTC(), m.IncludeInAvg, batch, created.UTC()); err != nil {
			return wrapErr(fmt.Sprintf("importar movimiento %s", m.ID), err)
		}
	}
	return nil
}
