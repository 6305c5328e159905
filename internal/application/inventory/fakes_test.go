package inventory_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	appinv "github.com/jhoicas/inventario-stock-engine/internal/application/inventory"
	"github.com/jhoicas/inventario-stock-engine/internal/domain"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	"github.com/jhoicas/inventario-stock-engine/internal/domain/repository"
	"github.com/jhoicas/inventario-stock-engine/pkg/logger"
)

var runAt = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

var errConnRefused = errors.New("dial tcp 10.0.0.5:5432: connection refused")

func qty(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testOptions() appinv.Options {
	opts := appinv.DefaultOptions()
	opts.Workers = 4
	opts.ChunkSize = 2
	opts.Clock = func() time.Time { return runAt }
	return opts
}

func movement(id, productID string, kind entity.MovementKind, q string, daysAgo int) entity.Movement {
	return entity.Movement{
		ID:           id,
		ProductID:    productID,
		Kind:         kind,
		Quantity:     qty(q),
		Date:         runAt.AddDate(0, 0, -daysAgo),
		IncludeInAvg: kind == entity.MovementKindOUT,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Libro de movimientos en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakeMovementRepo struct {
	mu        sync.Mutex
	movements map[string][]entity.Movement
	broken    map[string]error // producto → error de decodificación
	listErr   error
	calls     [][]string
}

func newFakeMovementRepo() *fakeMovementRepo {
	return &fakeMovementRepo{
		movements: map[string][]entity.Movement{},
		broken:    map[string]error{},
	}
}

func (r *fakeMovementRepo) add(ms ...entity.Movement) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range ms {
		r.movements[m.ProductID] = append(r.movements[m.ProductID], m)
	}
}

func (r *fakeMovementRepo) ListByProduct(_ context.Context, productID string) ([]entity.Movement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]entity.Movement(nil), r.movements[productID]...), nil
}

func (r *fakeMovementRepo) ListByProducts(_ context.Context, productIDs []string) (map[string]repository.MovementHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string(nil), productIDs...))
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make(map[string]repository.MovementHistory, len(productIDs))
	for _, id := range productIDs {
		if err, ok := r.broken[id]; ok {
			out[id] = repository.MovementHistory{Err: err}
			continue
		}
		out[id] = repository.MovementHistory{Movements: append([]entity.Movement(nil), r.movements[id]...)}
	}
	return out, nil
}

func (r *fakeMovementRepo) ListProductIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	ids := make([]string, 0, len(r.movements))
	for id := range r.movements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeMovementRepo) DeleteBatch(_ context.Context, batchID string) ([]string, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var affected []string
	var deleted int64
	for id, ms := range r.movements {
		kept := ms[:0]
		touched := false
		for _, m := range ms {
			if m.BatchID == batchID {
				deleted++
				touched = true
				continue
			}
			kept = append(kept, m)
		}
		if len(kept) == 0 {
			delete(r.movements, id)
		} else {
			r.movements[id] = kept
		}
		if touched {
			affected = append(affected, id)
		}
	}
	sort.Strings(affected)
	return affected, deleted, nil
}

func (r *fakeMovementRepo) fetchedIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, c := range r.calls {
		ids = append(ids, c...)
	}
	sort.Strings(ids)
	return ids
}

// ──────────────────────────────────────────────────────────────────────────────
// Agregados, pronósticos y políticas
// ──────────────────────────────────────────────────────────────────────────────

type fakeAggregateRepo struct {
	mu       sync.Mutex
	rows     map[string]entity.ProductAggregate
	writeErr error
	listErr  error
	writes   int
}

func newFakeAggregateRepo() *fakeAggregateRepo {
	return &fakeAggregateRepo{rows: map[string]entity.ProductAggregate{}}
}

func (r *fakeAggregateRepo) WriteAggregates(_ context.Context, aggs map[string]entity.ProductAggregate) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes++
	skipped := []string{}
	// escribe la mitad y falla: la transacción debe revertirlo todo
	for id, a := range aggs {
		if prev, ok := r.rows[id]; ok && prev.LastComputedAt.After(a.LastComputedAt) {
			skipped = append(skipped, id)
			continue
		}
		r.rows[id] = a
		if r.writeErr != nil {
			return nil, r.writeErr
		}
	}
	sort.Strings(skipped)
	return skipped, nil
}

func (r *fakeAggregateRepo) ListByProducts(_ context.Context, ids []string) (map[string]entity.ProductAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]entity.ProductAggregate{}
	for _, id := range ids {
		if a, ok := r.rows[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func (r *fakeAggregateRepo) ListAll(_ context.Context) ([]entity.ProductAggregate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.ProductAggregate, 0, len(r.rows))
	for _, a := range r.rows {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAggregateRepo) ListProductIDs(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	ids := make([]string, 0, len(r.rows))
	for id := range r.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *fakeAggregateRepo) snapshot() map[string]entity.ProductAggregate {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make(map[string]entity.ProductAggregate, len(r.rows))
	for k, v := range r.rows {
		cp[k] = v
	}
	return cp
}

func (r *fakeAggregateRepo) restore(rows map[string]entity.ProductAggregate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = rows
}

type fakeForecastRepo struct {
	mu        sync.Mutex
	points    map[string]entity.ForecastPoint // producto|mes
	upsertErr error
}

func newFakeForecastRepo() *fakeForecastRepo {
	return &fakeForecastRepo{points: map[string]entity.ForecastPoint{}}
}

func (r *fakeForecastRepo) UpsertForecasts(_ context.Context, points []entity.ForecastPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	for _, p := range points {
		r.points[p.ProductID+"|"+p.MonthKey()] = p
	}
	return nil
}

func (r *fakeForecastRepo) ListByProduct(_ context.Context, productID string) ([]entity.ForecastPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.ForecastPoint
	for _, p := range r.points {
		if p.ProductID == productID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ForecastMonth.Before(out[j].ForecastMonth) })
	return out, nil
}

type fakePolicyRepo struct {
	policies map[string]entity.StockPolicy
	err      error
}

func (r *fakePolicyRepo) GetByProducts(_ context.Context, ids []string) (map[string]entity.StockPolicy, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := map[string]entity.StockPolicy{}
	for _, id := range ids {
		if p, ok := r.policies[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// fakeTxRunner revierte los agregados si fn falla.
type fakeTxRunner struct {
	movRepo      *fakeMovementRepo
	aggRepo      *fakeAggregateRepo
	forecastRepo *fakeForecastRepo
	runs         int
}

func (r *fakeTxRunner) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	aggRepo repository.AggregateRepository,
	forecastRepo repository.ForecastRepository,
) error) error {
	r.runs++
	before := r.aggRepo.snapshot()
	if err := fn(r.movRepo, r.aggRepo, r.forecastRepo); err != nil {
		r.aggRepo.restore(before)
		return err
	}
	return nil
}

type engine struct {
	movements *fakeMovementRepo
	aggs      *fakeAggregateRepo
	forecasts *fakeForecastRepo
	tx        *fakeTxRunner
	reconcile *appinv.ReconcileUseCase
}

func newEngine() *engine {
	e := &engine{
		movements: newFakeMovementRepo(),
		aggs:      newFakeAggregateRepo(),
		forecasts: newFakeForecastRepo(),
	}
	e.tx = &fakeTxRunner{movRepo: e.movements, aggRepo: e.aggs, forecastRepo: e.forecasts}
	e.reconcile = appinv.NewReconcileUseCase(e.movements, e.tx, logger.Discard(), testOptions())
	return e
}

func isStoreUnavailable(err error) bool { return errors.Is(err, domain.ErrStoreUnavailable) }
