package inventory

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-stock-engine/internal/domain"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-stock-engine/internal/domain/inventory"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
	"github.com/jhoicas/inventario-stock-engine/pkg/logger"
)

// ForecastUseCase genera y persiste pronósticos de consumo mensual (trabajo pesado, por lotes).
type ForecastUseCase struct {
	movRepo      repository.MovementRepository
	forecastRepo repository.ForecastRepository
	txRunner     TxRunner
	log          *logger.Logger
	opts         Options
}

// NewForecastUseCase construye el caso de uso.
func NewForecastUseCase(
	movRepo repository.MovementRepository,
	forecastRepo repository.ForecastRepository,
	txRunner TxRunner,
	log *logger.Logger,
	opts Options,
) *ForecastUseCase {
	return &ForecastUseCase{
		movRepo:      movRepo,
		forecastRepo: forecastRepo,
		txRunner:     txRunner,
		log:          log,
		opts:         opts.withDefaults(),
	}
}

// ForecastProducts pronostica horizonMonths meses (<= 0 usa el valor configurado) para los productos
// indicados; vacío = catálogo completo. Todos los puntos se guardan en una sola transacción
// (upsert por producto y mes). Los productos con historial ilegible se omiten.
func (uc *ForecastUseCase) ForecastProducts(
	ctx context.Context,
	productIDs []string,
	horizonMonths int,
) (map[string][]entity.ForecastPoint, error) {
	ids := uniqueIDs(productIDs)
	if len(productIDs) == 0 {
		all, err := uc.movRepo.ListProductIDs(ctx)
		if err != nil {
			return nil, storeError(ctx, "listar productos", err)
		}
		ids = uniqueIDs(all)
	}
	result := make(map[string][]entity.ForecastPoint, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	opts := uc.opts.Forecast
	if horizonMonths > 0 {
		opts.HorizonMonths = horizonMonths
	}
	asOf := uc.opts.Clock()

	histories, err := loadHistories(ctx, uc.movRepo, ids, uc.opts.ChunkSize, uc.opts.Workers)
	if err != nil {
		return nil, err
	}

	points := make([][]entity.ForecastPoint, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.opts.Workers)
	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			h := histories[id]
			if h.Err != nil {
				uc.log.Warn().Str("product_id", id).Err(h.Err).Msg("producto omitido en pronóstico")
				return nil
			}
			points[i] = domaininv.Forecast(id, h.Movements, asOf, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pronóstico cancelado: %w", err)
	}

	var all []entity.ForecastPoint
	for i, id := range ids {
		if points[i] == nil {
			continue
		}
		result[id] = points[i]
		all = append(all, points[i]...)
	}
	if len(all) == 0 {
		return result, nil
	}

	wctx := context.WithoutCancel(ctx)
	err = uc.txRunner.Run(wctx, func(
		_ repository.MovementRepository,
		_ repository.AggregateRepository,
		forecastRepo repository.ForecastRepository,
	) error {
		return forecastRepo.UpsertForecasts(wctx, all)
	})
	if err != nil {
		return nil, storeError(wctx, "guardar pronósticos", err)
	}

	uc.log.Info().
		Int("products", len(result)).
		Int("points", len(all)).
		Int("horizon_months", opts.HorizonMonths).
		Msg("pronósticos actualizados")
	return result, nil
}

// ProductForecasts devuelve los pronósticos guardados de un producto, ordenados por mes.
func (uc *ForecastUseCase) ProductForecasts(ctx context.Context, productID string) ([]entity.ForecastPoint, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, domain.ErrInvalidInput
	}
	points, err := uc.forecastRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, storeError(ctx, "leer pronósticos", err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("pronósticos de %s: %w", productID, domain.ErrNotFound)
	}
	return points, nil
}
