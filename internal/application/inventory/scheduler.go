package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/inventario-stock-engine/pkg/logger"
)

// Scheduler corre periódicamente la conciliación del catálogo completo y luego refresca
// los pronósticos de los productos conciliados.
type Scheduler struct {
	reconcile *ReconcileUseCase
	forecast  *ForecastUseCase
	interval  time.Duration
	log       *logger.Logger
}

// NewScheduler construye el planificador. interval < 1 minuto usa 24h.
func NewScheduler(reconcile *ReconcileUseCase, forecast *ForecastUseCase, interval time.Duration) *Scheduler {
	if interval < time.Minute {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		reconcile: reconcile,
		forecast:  forecast,
		interval:  interval,
		log:       reconcile.log.Component("scheduler"),
	}
}

// Interval período entre corridas.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Start bloquea hasta que ctx se cancele, corriendo RunOnce en cada tick.
// Una corrida fallida se registra y se reintenta en el siguiente tick.
func (s *Scheduler) Start(ctx context.Context) {
	log := s.log
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", s.interval).Msg("planificador del motor iniciado")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("planificador del motor detenido")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				log.Error().Err(err).Msg("corrida programada fallida")
			}
		}
	}
}

// RunOnce concilia todo el catálogo y pronostica los productos que se conciliaron sin error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	report, err := s.reconcile.RunFullCatalog(ctx)
	if err != nil {
		return err
	}
	if len(report.Succeeded) == 0 {
		return nil
	}
	_, err = s.forecast.ForecastProducts(ctx, report.Succeeded, 0)
	return err
}
