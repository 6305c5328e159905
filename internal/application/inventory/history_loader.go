package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-stock-engine/internal/domain"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
)

// uniqueIDs elimina vacíos y duplicados, devolviendo los IDs ordenados.
func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// uniqueMovements deja una sola copia de cada movimiento (por ID). Filas sin ID se conservan.
func uniqueMovements(movs []entity.Movement) []entity.Movement {
	seen := make(map[string]struct{}, len(movs))
	out := make([]entity.Movement, 0, len(movs))
	for _, m := range movs {
		if m.ID != "" {
			if _, ok := seen[m.ID]; ok {
				continue
			}
			seen[m.ID] = struct{}{}
		}
		out = append(out, m)
	}
	return out
}

// loadHistories trae el historial de los productos en bloques de chunkSize, con a lo sumo
// workers consultas simultáneas. Cualquier error de consulta cancela el resto y se devuelve
// como ErrStoreUnavailable: el llamador debe abortar antes de escribir.
func loadHistories(
	ctx context.Context,
	movRepo repository.MovementRepository,
	ids []string,
	chunkSize, workers int,
) (map[string]repository.MovementHistory, error) {
	histories := make(map[string]repository.MovementHistory, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < len(ids); start += chunkSize {
		chunk := ids[start:min(start+chunkSize, len(ids))]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			got, err := movRepo.ListByProducts(gctx, chunk)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range chunk {
				h := got[id]
				h.Movements = uniqueMovements(h.Movements)
				histories[id] = h
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, storeError(ctx, "leer movimientos", err)
	}
	return histories, nil
}

// storeError normaliza un error de infraestructura. La cancelación del llamador se respeta tal cual.
func storeError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
