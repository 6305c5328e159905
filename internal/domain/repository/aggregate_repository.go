package repository

import (
	"context"

	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
)

// AggregateRepository puerto de persistencia de ProductAggregate.
// Solo el reconciliador escribe agregados.
type AggregateRepository interface {
	// WriteAggregates escribe todos los agregados como una unidad; usar dentro de TxRunner.Run
	// para que el lote completo sea atómico. Un agregado con LastComputedAt anterior al
	// almacenado no reemplaza al existente (una corrida vieja no pisa a una nueva); esos
	// productos se devuelven en skipped, ordenados.
	WriteAggregates(ctx context.Context, aggregates map[string]entity.ProductAggregate) (skipped []string, err error)

	ListByProducts(ctx context.Context, productIDs []string) (map[string]entity.ProductAggregate, error)
	ListAll(ctx context.Context) ([]entity.ProductAggregate, error)

	// ListProductIDs productos con agregado guardado, tengan o no movimientos.
	ListProductIDs(ctx context.Context) ([]string, error)
}
