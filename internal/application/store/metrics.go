package store

import "time"

// Metrics receives store counters. telemetry.Metrics implements it.
type Metrics interface {
	OrderTransition(status string)
	ObserveCheckout(elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) OrderTransition(string)        {}
func (noopMetrics) ObserveCheckout(time.Duration) {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
