// Package metricsrv exports cubeb's OpenTelemetry metrics for Prometheus.
//
// NewProvider builds a MeterProvider backed by a private Prometheus registry;
// pass it to cubeb.WithMeterProvider and serve Handler on /metrics.
package metricsrv
