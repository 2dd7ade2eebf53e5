// ABOUTME: Functional options for Context initialization
// ABOUTME: Selects the backend, logger and meter provider
package cubeb

import (
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

type options struct {
	backend       string
	logger        *zap.Logger
	meterProvider metric.MeterProvider
}

// Option configures Init.
type Option func(*options)

// WithBackend restricts discovery to the named driver.
func WithBackend(name string) Option {
	return func(o *options) { o.backend = name }
}

// WithLogger sets the logger for the context and its streams.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.logger = log }
}

// WithMeterProvider sets where stream metrics are recorded. Defaults to the
// global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}
