package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/jhoicas/inventario-stock-engine/internal/domain"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
	"github.com/jhoicas/inventario-stock-engine/pkg/logger"
)

// UndoBatchResult resultado de deshacer un lote de importación.
type UndoBatchResult struct {
	BatchID  string
	Deleted  int64
	Products []string
	Report   *entity.ReconcileReport
}

// UndoBatchUseCase elimina todos los movimientos de un lote y reconcilia los productos afectados.
// Nunca edita movimientos en sitio.
type UndoBatchUseCase struct {
	txRunner  TxRunner
	reconcile *ReconcileUseCase
	log       *logger.Logger
}

// NewUndoBatchUseCase construye el caso de uso.
func NewUndoBatchUseCase(txRunner TxRunner, reconcile *ReconcileUseCase, log *logger.Logger) *UndoBatchUseCase {
	return &UndoBatchUseCase{txRunner: txRunner, reconcile: reconcile, log: log}
}

// UndoBatch borra el lote en una transacción y luego reconcilia cada producto afectado.
// Si la reconciliación falla, repetir la operación es seguro: el lote ya no existe y
// basta con reconciliar los productos devueltos (la agregación es idempotente).
func (uc *UndoBatchUseCase) UndoBatch(ctx context.Context, batchID string) (*UndoBatchResult, error) {
	batchID = strings.TrimSpace(batchID)
	if batchID == "" {
		return nil, domain.ErrInvalidInput
	}

	var productIDs []string
	var deleted int64
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.MovementRepository,
		_ repository.AggregateRepository,
		_ repository.ForecastRepository,
	) error {
		var err error
		productIDs, deleted, err = movRepo.DeleteBatch(ctx, batchID)
		return err
	})
	if err != nil {
		return nil, storeError(ctx, "eliminar lote", err)
	}
	if deleted == 0 {
		return nil, fmt.Errorf("lote %s: %w", batchID, domain.ErrNotFound)
	}

	productIDs = uniqueIDs(productIDs)
	uc.log.Info().
		Str("batch_id", batchID).
		Int64("deleted", deleted).
		Int("products", len(productIDs)).
		Msg("lote eliminado, reconciliando productos afectados")

	report, err := uc.reconcile.RunBatch(ctx, productIDs)
	if err != nil {
		return &UndoBatchResult{BatchID: batchID, Deleted: deleted, Products: productIDs},
			fmt.Errorf("reconciliar tras deshacer lote %s: %w", batchID, err)
	}
	return &UndoBatchResult{
		BatchID:  batchID,
		Deleted:  deleted,
		Products: productIDs,
		Report:   report,
	}, nil
}
