package repository

import (
	"context"

	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
)

// MovementHistory historial completo de un producto tal como lo devuelve el almacén.
// Err != nil (envuelve domain.ErrMalformedMovement) si alguna fila no pudo decodificarse;
// en ese caso el producto se omite de la corrida, sin abortar el lote.
type MovementHistory struct {
	Movements []entity.Movement
	Err       error
}

// MovementRepository puerto de lectura del libro de movimientos (lo escribe el subsistema de importación).
// Las consultas devuelven el historial completo sin filtrar; el motor aplica todos los filtros.
type MovementRepository interface {
	ListByProduct(ctx context.Context, productID string) ([]entity.Movement, error)

	// ListByProducts devuelve el historial por producto. Los productos sin movimientos
	// aparecen con historial vacío. Un error aquí es de infraestructura (todo el lote falla).
	ListByProducts(ctx context.Context, productIDs []string) (map[string]MovementHistory, error)

	// ListProductIDs lista los productos con al menos un movimiento (catálogo completo).
	ListProductIDs(ctx context.Context) ([]string, error)

	// DeleteBatch elimina todos los movimientos de un lote de importación y devuelve
	// los productos afectados y la cantidad de filas eliminadas.
	DeleteBatch(ctx context.Context, batchID string) (productIDs []string, deleted int64, err error)
}
