package entity

import "time"

// ProductFailure producto omitido en una reconciliación y el motivo.
type ProductFailure struct {
	ProductID string
	Reason    string
}

// ReconcileReport resultado de una corrida de reconciliación por lotes.
//
// Skipped lista los productos calculados cuyo agregado no se escribió porque otra
// corrida con lectura más reciente ya lo había guardado.
type ReconcileReport struct {
	RunID      string
	StartedAt  time.Time
	Succeeded  []string
	Skipped    []string
	Failed     []ProductFailure
	DurationMs int64
}
