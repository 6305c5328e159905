package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinv "github.com/jhoicas/inventario-stock-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-stock-engine/internal/domain"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
	"github.com/jhoicas/inventario-stock-engine/internal/infrastructure/sqlite"
	"github.com/jhoicas/inventario-stock-engine/pkg/logger"
)

var runAt = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func openDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func mov(id, productID string, kind entity.MovementKind, q string, daysAgo int, batchID string) entity.Movement {
	return entity.Movement{
		ID:           id,
		ProductID:    productID,
		Kind:         kind,
		Quantity:     qty(q),
		Date:         runAt.AddDate(0, 0, -daysAgo),
		IncludeInAvg: kind == entity.MovementKindOUT,
		BatchID:      batchID,
	}
}

func seed(t *testing.T, db *sqlx.DB) {
	t.Helper()
	err := sqlite.NewMovementRepository(db).Import(context.Background(), []entity.Movement{
		mov("a-1", "A", entity.MovementKindIN, "100.5", 40, ""),
		mov("a-2", "A", entity.MovementKindOUT, "30.25", 20, "imp-1"),
		mov("b-1", "B", entity.MovementKindIN, "50", 10, ""),
		mov("c-1", "C", entity.MovementKindIN, "10", 5, "imp-1"),
		mov("c-2", "C", entity.MovementKindCORRECTION, "-4", 1, ""),
	})
	require.NoError(t, err)
}

func opts() appinv.Options {
	o := appinv.DefaultOptions()
	o.Workers = 3
	o.ChunkSize = 2
	o.Clock = func() time.Time { return runAt }
	return o
}

// ──────────────────────────────────────────────────────────────────────────────
// Movimientos
// ──────────────────────────────────────────────────────────────────────────────

func TestMovementRepo_LecturaCompleta(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	repo := sqlite.NewMovementRepository(db)
	ctx := context.Background()

	list, err := repo.ListByProduct(ctx, "A")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a-1", list[0].ID, "orden por fecha")
	assert.True(t, qty("100.5").Equal(list[0].Quantity))
	assert.True(t, runAt.AddDate(0, 0, -40).Equal(list[0].Date))
	assert.Equal(t, "imp-1", list[1].BatchID)
	assert.True(t, list[1].IncludeInAvg)

	ids, err := repo.ListProductIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, ids)
}

func TestMovementRepo_ImportAsignaIDFaltante(t *testing.T) {
	db := openDB(t)
	repo := sqlite.NewMovementRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Import(ctx, []entity.Movement{mov("", "Z", entity.MovementKindIN, "5", 1, "")}))

	list, err := repo.ListByProduct(ctx, "Z")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].ID, 36, "UUID generado")
}

func TestMovementRepo_FilaIlegibleSoloAfectaASuProducto(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	_, err := db.Exec(`INSERT INTO stock_movements (id, product_id, kind, quantity, date, include_in_avg)
		VALUES ('b-bad', 'B', 'OUT', 'doce', '2025-06-01 00:00:00+00:00', 1)`)
	require.NoError(t, err)

	got, err := sqlite.NewMovementRepository(db).ListByProducts(context.Background(), []string{"A", "B", "C", "Z"})
	require.NoError(t, err)

	assert.Len(t, got["A"].Movements, 2)
	assert.NoError(t, got["A"].Err)
	assert.ErrorIs(t, got["B"].Err, domain.ErrMalformedMovement)
	assert.Len(t, got["C"].Movements, 2)
	assert.Empty(t, got["Z"].Movements, "producto sin movimientos")
}

func TestMovementRepo_FilaSinFecha(t *testing.T) {
	db := openDB(t)
	_, err := db.Exec(`INSERT INTO stock_movements (id, product_id, kind, quantity) VALUES ('x', 'X', 'IN', '5')`)
	require.NoError(t, err)

	got, err := sqlite.NewMovementRepository(db).ListByProducts(context.Background(), []string{"X"})
	require.NoError(t, err)
	assert.ErrorIs(t, got["X"].Err, domain.ErrMalformedMovement)
}

// ──────────────────────────────────────────────────────────────────────────────
// Agregados y transacciones
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregateRepo_UnaCorridaViejaNoPisaUnaNueva(t *testing.T) {
	db := openDB(t)
	repo := sqlite.NewAggregateRepository(db)
	ctx := context.Background()

	newer := entity.ProductAggregate{ProductID: "A", CurrentBalance: qty("10"), AvgConsumption: qty("1.5"), LastComputedAt: runAt}
	older := entity.ProductAggregate{ProductID: "A", CurrentBalance: qty("99"), AvgConsumption: qty("9"), LastComputedAt: runAt.Add(-time.Minute)}

	skipped, err := repo.WriteAggregates(ctx, map[string]entity.ProductAggregate{"A": newer})
	require.NoError(t, err)
	assert.Empty(t, skipped)
	skipped, err = repo.WriteAggregates(ctx, map[string]entity.ProductAggregate{"A": older})
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, skipped, "la escritura vieja se reporta como omitida")

	got, err := repo.ListByProducts(ctx, []string{"A"})
	require.NoError(t, err)
	assert.True(t, qty("10").Equal(got["A"].CurrentBalance))
	assert.True(t, qty("1.5").Equal(got["A"].AvgConsumption))
	assert.True(t, runAt.Equal(got["A"].LastComputedAt))

	same := newer
	same.CurrentBalance = qty("11")
	skipped, err = repo.WriteAggregates(ctx, map[string]entity.ProductAggregate{"A": same})
	require.NoError(t, err)
	assert.Empty(t, skipped)
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, qty("11").Equal(all[0].CurrentBalance), "misma corrida repetida reemplaza")
}

func TestTxRunner_RollbackEsAtomico(t *testing.T) {
	db := openDB(t)
	runner := sqlite.NewTxRunner(db)
	boom := errors.New("falla a mitad de lote")

	err := runner.Run(context.Background(), func(
		_ repository.MovementRepository,
		aggRepo repository.AggregateRepository,
		_ repository.ForecastRepository,
	) error {
		if _, err := aggRepo.WriteAggregates(context.Background(), map[string]entity.ProductAggregate{
			"A": {ProductID: "A", CurrentBalance: qty("1"), LastComputedAt: runAt},
			"B": {ProductID: "B", CurrentBalance: qty("2"), LastComputedAt: runAt},
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	all, err := sqlite.NewAggregateRepository(db).ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

// ──────────────────────────────────────────────────────────────────────────────
// Motor completo sobre SQLite
// ──────────────────────────────────────────────────────────────────────────────

func TestReconcile_LoteConUnProductoMalo(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	_, err := db.Exec(`INSERT INTO stock_movements (id, product_id, kind, quantity, date, include_in_avg)
		VALUES ('b-bad', 'B', 'OUT', 'N/A', '2025-06-01 00:00:00+00:00', 1)`)
	require.NoError(t, err)
	aggRepo := sqlite.NewAggregateRepository(db)
	previousB := entity.ProductAggregate{ProductID: "B", CurrentBalance: qty("42"), AvgConsumption: qty("0"), LastComputedAt: runAt.AddDate(0, 0, -1)}
	_, err = aggRepo.WriteAggregates(context.Background(), map[string]entity.ProductAggregate{"B": previousB})
	require.NoError(t, err)

	uc := appinv.NewReconcileUseCase(sqlite.NewMovementRepository(db), sqlite.NewTxRunner(db), logger.Discard(), opts())
	report, err := uc.RunBatch(context.Background(), []string{"A", "B", "C"})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "C"}, report.Succeeded)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "B", report.Failed[0].ProductID)

	got, err := aggRepo.ListByProducts(context.Background(), []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.True(t, qty("70.25").Equal(got["A"].CurrentBalance))
	assert.True(t, qty("30.25").Equal(got["A"].AvgConsumption))
	assert.True(t, qty("6").Equal(got["C"].CurrentBalance))
	assert.True(t, qty("42").Equal(got["B"].CurrentBalance), "B queda intacto")
}

func TestUndoBatch_SobreSQLite(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	movRepo := sqlite.NewMovementRepository(db)
	runner := sqlite.NewTxRunner(db)
	reconcile := appinv.NewReconcileUseCase(movRepo, runner, logger.Discard(), opts())
	_, err := reconcile.RunFullCatalog(context.Background())
	require.NoError(t, err)

	res, err := appinv.NewUndoBatchUseCase(runner, reconcile, logger.Discard()).UndoBatch(context.Background(), "imp-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Deleted)
	assert.Equal(t, []string{"A", "C"}, res.Products)

	got, err := sqlite.NewAggregateRepository(db).ListByProducts(context.Background(), []string{"A", "C"})
	require.NoError(t, err)
	assert.True(t, qty("100.5").Equal(got["A"].CurrentBalance))
	assert.True(t, got["A"].AvgConsumption.IsZero())
	assert.True(t, qty("-4").Equal(got["C"].CurrentBalance), "saldo negativo visible")

	_, err = appinv.NewUndoBatchUseCase(runner, reconcile, logger.Discard()).UndoBatch(context.Background(), "imp-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUndoBatch_ReconciliacionFallidaSeRecuperaSobreSQLite(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ctx := context.Background()
	movRepo := sqlite.NewMovementRepository(db)
	aggRepo := sqlite.NewAggregateRepository(db)
	runner := sqlite.NewTxRunner(db)
	require.NoError(t, movRepo.Import(ctx, []entity.Movement{mov("z-1", "Z", entity.MovementKindIN, "100", 2, "imp-z")}))

	reconcile := appinv.NewReconcileUseCase(movRepo, runner, logger.Discard(), opts())
	_, err := reconcile.RunBatch(ctx, []string{"Z"})
	require.NoError(t, err)

	// borrado confirmado sin reconciliar: el estado que deja un UndoBatch cuya conciliación falló
	err = runner.Run(ctx, func(
		movRepo repository.MovementRepository,
		_ repository.AggregateRepository,
		_ repository.ForecastRepository,
	) error {
		_, _, err := movRepo.DeleteBatch(ctx, "imp-z")
		return err
	})
	require.NoError(t, err)

	_, err = appinv.NewUndoBatchUseCase(runner, reconcile, logger.Discard()).UndoBatch(ctx, "imp-z")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ids, err := aggRepo.ListProductIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Z"}, ids)

	report, err := reconcile.RunFullCatalog(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "Z"}, report.Succeeded)

	got, err := aggRepo.ListByProducts(ctx, []string{"Z"})
	require.NoError(t, err)
	assert.True(t, got["Z"].CurrentBalance.IsZero(), "saldo = suma de movimientos = 0")
}

func TestReconcile_CorridaConLecturaViejaQuedaEnSkipped(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	ctx := context.Background()
	movRepo := sqlite.NewMovementRepository(db)
	runner := sqlite.NewTxRunner(db)

	later := opts()
	later.Clock = func() time.Time { return runAt.Add(time.Hour) }
	_, err := appinv.NewReconcileUseCase(movRepo, runner, logger.Discard(), later).RunBatch(ctx, []string{"A", "B"})
	require.NoError(t, err)

	report, err := appinv.NewReconcileUseCase(movRepo, runner, logger.Discard(), opts()).RunBatch(ctx, []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Equal(t, []string{"C"}, report.Succeeded)
	assert.Equal(t, []string{"A", "B"}, report.Skipped)

	got, err := sqlite.NewAggregateRepository(db).ListByProducts(ctx, []string{"A"})
	require.NoError(t, err)
	assert.True(t, runAt.Add(time.Hour).Equal(got["A"].LastComputedAt))
}

func TestForecastYRiesgo_SobreSQLite(t *testing.T) {
	db := openDB(t)
	seed(t, db)
	movRepo := sqlite.NewMovementRepository(db)
	forecastRepo := sqlite.NewForecastRepository(db)
	runner := sqlite.NewTxRunner(db)
	ctx := context.Background()

	fuc := appinv.NewForecastUseCase(movRepo, forecastRepo, runner, logger.Discard(), opts())
	_, err := fuc.ForecastProducts(ctx, []string{"A"}, 3)
	require.NoError(t, err)
	_, err = fuc.ForecastProducts(ctx, []string{"A"}, 3)
	require.NoError(t, err)

	points, err := fuc.ProductForecasts(ctx, "A")
	require.NoError(t, err)
	require.Len(t, points, 3, "upsert por producto y mes")
	assert.Equal(t, "2025-07", points[0].MonthKey())
	assert.True(t, qty("30.25").Equal(points[0].PredictedConsumption))
	assert.Equal(t, entity.ForecastMethodSeasonalTrend, points[0].Method)

	_, err = appinv.NewReconcileUseCase(movRepo, runner, logger.Discard(), opts()).RunFullCatalog(ctx)
	require.NoError(t, err)
	policyRepo := sqlite.NewPolicyRepository(db)
	rp := qty("80")
	require.NoError(t, policyRepo.SavePolicy(ctx, "A", entity.StockPolicy{LeadTimeDays: 7, ReorderPoint: &rp}))

	policies, err := policyRepo.GetByProducts(ctx, []string{"A", "B"})
	require.NoError(t, err)
	require.Contains(t, policies, "A")
	assert.NotContains(t, policies, "B")
	assert.Equal(t, 7, policies["A"].LeadTimeDays)
	assert.Zero(t, policies["A"].SafetyStockDays, "NULL queda en cero")
	assert.Nil(t, policies["A"].OrderQuantity)

	report, err := appinv.NewRiskReportUseCase(sqlite.NewAggregateRepository(db), policyRepo, logger.Discard(), opts()).
		BuildReport(ctx, nil)
	require.NoError(t, err)
	require.Len(t, report.Assessments, 3)
	byID := map[string]entity.RiskAssessment{}
	for _, a := range report.Assessments {
		byID[a.ProductID] = a
	}
	assert.Equal(t, entity.RiskCritical, byID["A"].RiskLevel, "70.25 <= 80")
	assert.False(t, byID["A"].PolicyDefaulted)
	assert.Equal(t, 15, byID["A"].SafetyStockDays)
	assert.True(t, byID["B"].PolicyDefaulted)
}
