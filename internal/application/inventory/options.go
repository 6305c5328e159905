package inventory

import (
	"time"

	"github.com/jhoicas/inventario-stock-engine/internal/domain/entity"
	domaininv "github.com/jhoicas/inventario-stock-engine/internal/domain/inventory"
	"github.com/jhoicas/inventario-stock-engine/pkg/config"
)

// Options parámetros del motor compartidos por los casos de uso.
type Options struct {
	AvgWindowMonths        int
	Workers                int
	ChunkSize              int
	Forecast               domaininv.ForecastOptions
	DefaultLeadTimeDays    int
	DefaultSafetyStockDays int
	OverstockMonths        int
	Clock                  func() time.Time // nil = time.Now
}

// DefaultOptions valores de referencia del motor.
func DefaultOptions() Options {
	return Options{
		AvgWindowMonths:        domaininv.DefaultAvgWindowMonths,
		Workers:                8,
		ChunkSize:              500,
		Forecast:               domaininv.DefaultForecastOptions(),
		DefaultLeadTimeDays:    entity.DefaultLeadTimeDays,
		DefaultSafetyStockDays: entity.DefaultSafetyStockDays,
		OverstockMonths:        6,
	}
}

// OptionsFromConfig traduce la sección ENGINE_* de la configuración.
func OptionsFromConfig(cfg config.EngineConfig) Options {
	return Options{
		AvgWindowMonths: cfg.AvgWindowMonths,
		Workers:         cfg.Workers,
		ChunkSize:       cfg.ChunkSize,
		Forecast: domaininv.ForecastOptions{
			HorizonMonths:        cfg.HorizonMonths,
			MovingAvgMonths:      cfg.MovingAvgMonths,
			SeasonalWindowMonths: cfg.SeasonalWindowMonths,
		},
		DefaultLeadTimeDays:    cfg.DefaultLeadTimeDays,
		DefaultSafetyStockDays: cfg.DefaultSafetyStockDays,
		OverstockMonths:        cfg.OverstockMonths,
	}.withDefaults()
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.AvgWindowMonths <= 0 {
		o.AvgWindowMonths = def.AvgWindowMonths
	}
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = def.ChunkSize
	}
	if o.Forecast.HorizonMonths <= 0 {
		o.Forecast.HorizonMonths = def.Forecast.HorizonMonths
	}
	if o.Forecast.MovingAvgMonths <= 0 {
		o.Forecast.MovingAvgMonths = def.Forecast.MovingAvgMonths
	}
	if o.Forecast.SeasonalWindowMonths <= 0 {
		o.Forecast.SeasonalWindowMonths = def.Forecast.SeasonalWindowMonths
	}
	if o.DefaultLeadTimeDays <= 0 {
		o.DefaultLeadTimeDays = def.DefaultLeadTimeDays
	}
	if o.DefaultSafetyStockDays <= 0 {
		o.DefaultSafetyStockDays = def.DefaultSafetyStockDays
	}
	if o.OverstockMonths <= 0 {
		o.OverstockMonths = def.OverstockMonths
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}
