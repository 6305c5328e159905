package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")

	// ErrMalformedMovement movimiento ilegible (cantidad no numérica, fecha ausente, tipo desconocido).
	// Se contiene a nivel de producto: el producto se omite y se reporta, el lote continúa.
	ErrMalformedMovement = errors.New("movimiento mal formado")
	// ErrStoreUnavailable el almacén de movimientos o de agregados no responde.
	// Es fatal para todo el lote: se aborta antes de escribir.
	ErrStoreUnavailable = errors.New("almacén no disponible")
	// ErrPolicyNotFound no hay política de reposición para el producto; el clasificador usa los valores por defecto.
	ErrPolicyNotFound = errors.New("política de reposición no encontrada")
)
