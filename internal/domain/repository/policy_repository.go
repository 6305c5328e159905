package repository

import (
	"context"

	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
)

// PolicyRepository puerto de lectura de políticas de reposición (propiedad del catálogo de productos).
type PolicyRepository interface {
	// GetByProducts devuelve solo las políticas existentes; los productos sin política no aparecen.
	GetByProducts(ctx context.Context, productIDs []string) (map[string]entity.StockPolicy, error)
}
