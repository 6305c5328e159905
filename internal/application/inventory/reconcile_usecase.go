package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-stock-engine/internal/domain/inventory"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
	"github.com/jhoicas/inventario-stock-engine/pkg/logger"
)

// ReconcileUseCase recalcula los agregados (saldo y consumo promedio) desde el libro de movimientos.
// Es el único escritor de ProductAggregate.
type ReconcileUseCase struct {
	movRepo  repository.MovementRepository
	txRunner TxRunner
	log      *logger.Logger
	opts     Options
}

// NewReconcileUseCase construye el caso de uso.
func NewReconcileUseCase(
	movRepo repository.MovementRepository,
	txRunner TxRunner,
	log *logger.Logger,
	opts Options,
) *ReconcileUseCase {
	return &ReconcileUseCase{
		movRepo:  movRepo,
		txRunner: txRunner,
		log:      log,
		opts:     opts.withDefaults(),
	}
}

type aggregateResult struct {
	agg    entity.ProductAggregate
	reason string // vacío = éxito
}

// RunBatch reconcilia el conjunto de productos indicado.
//
// Falla cerrado: si la lectura de movimientos falla no se escribe nada (ErrStoreUnavailable).
// Un producto con historial mal formado se omite y queda en Failed; su agregado previo no se toca.
// Los agregados exitosos se escriben en una sola transacción, sin cancelarse a mitad de escritura.
//
// LastComputedAt es el instante en que terminó la lectura del libro: una corrida que leyó
// después gana frente a una que leyó antes, sin importar cuál arrancó primero. Los productos
// que pierden esa comparación quedan en Skipped y no en Succeeded.
func (uc *ReconcileUseCase) RunBatch(ctx context.Context, productIDs []string) (*entity.ReconcileReport, error) {
	started := uc.opts.Clock()
	report := &entity.ReconcileReport{
		RunID:     uuid.New().String(),
		StartedAt: started,
		Succeeded: []string{},
		Skipped:   []string{},
		Failed:    []entity.ProductFailure{},
	}
	log := uc.log.With().Str("run_id", report.RunID).Logger()

	ids := uniqueIDs(productIDs)
	if len(ids) == 0 {
		return report, nil
	}

	histories, err := loadHistories(ctx, uc.movRepo, ids, uc.opts.ChunkSize, uc.opts.Workers)
	if err != nil {
		log.Error().Err(err).Int("products", len(ids)).Msg("conciliación abortada antes de escribir")
		return nil, err
	}
	readAt := uc.opts.Clock()

	results := make([]aggregateResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.Workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h := histories[id]
			if h.Err != nil {
				results[i] = aggregateResult{reason: h.Err.Error()}
				return nil
			}
			agg, err := domaininv.Aggregate(id, h.Movements, readAt, uc.opts.AvgWindowMonths)
			if err != nil {
				results[i] = aggregateResult{reason: err.Error()}
				return nil
			}
			results[i] = aggregateResult{agg: agg}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("conciliación cancelada: %w", err)
	}

	aggregates := make(map[string]entity.ProductAggregate, len(ids))
	for i, id := range ids {
		if r := results[i]; r.reason != "" {
			report.Failed = append(report.Failed, entity.ProductFailure{ProductID: id, Reason: r.reason})
			log.Warn().Str("product_id", id).Str("reason", r.reason).Msg("producto omitido en conciliación")
			continue
		}
		aggregates[id] = results[i].agg
	}

	if len(aggregates) > 0 {
		wctx := context.WithoutCancel(ctx)
		var skipped []string
		err := uc.txRunner.Run(wctx, func(
			_ repository.MovementRepository,
			aggRepo repository.AggregateRepository,
			_ repository.ForecastRepository,
		) error {
			var err error
			skipped, err = aggRepo.WriteAggregates(wctx, aggregates)
			return err
		})
		if err != nil {
			log.Error().Err(err).Int("aggregates", len(aggregates)).Msg("escritura de agregados revertida")
			return nil, storeError(wctx, "escribir agregados", err)
		}
		for _, id := range skipped {
			delete(aggregates, id)
			report.Skipped = append(report.Skipped, id)
			log.Warn().Str("product_id", id).Msg("agregado más reciente ya guardado, escritura omitida")
		}
		for id := range aggregates {
			report.Succeeded = append(report.Succeeded, id)
		}
	}

	sort.Strings(report.Succeeded)
	sort.Strings(report.Skipped)
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].ProductID < report.Failed[j].ProductID })
	report.DurationMs = uc.opts.Clock().Sub(started).Milliseconds()

	log.Info().
		Int("succeeded", len(report.Succeeded)).
		Int("skipped", len(report.Skipped)).
		Int("failed", len(report.Failed)).
		Int64("duration_ms", report.DurationMs).
		Msg("conciliación completada")
	return report, nil
}

// RunFullCatalog reconcilia todos los productos con movimientos y también los que solo
// conservan un agregado guardado (por ejemplo tras deshacer el único lote que tenían),
// para que ese agregado se reconstruya en cero.
func (uc *ReconcileUseCase) RunFullCatalog(ctx context.Context) (*entity.ReconcileReport, error) {
	ids, err := uc.movRepo.ListProductIDs(ctx)
	if err != nil {
		return nil, storeError(ctx, "listar productos", err)
	}
	var stored []string
	err = uc.txRunner.Run(ctx, func(
		_ repository.MovementRepository,
		aggRepo repository.AggregateRepository,
		_ repository.ForecastRepository,
	) error {
		var err error
		stored, err = aggRepo.ListProductIDs(ctx)
		return err
	})
	if err != nil {
		return nil, storeError(ctx, "listar productos con agregado", err)
	}
	return uc.RunBatch(ctx, append(ids, stored...))
}
