// ABOUTME: OpenTelemetry instruments for stream activity
// ABOUTME: Counts callbacks, frames, errors and transitions per backend
package cubeb

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/DingusDevOrg/cubeb"

type metrics struct {
	callbacks        metric.Int64Counter
	callbackDuration metric.Float64Histogram
	frames           metric.Int64Counter
	errors           metric.Int64Counter
	stateChanges     metric.Int64Counter
	active           metric.Int64UpDownCounter
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	meter := mp.Meter(meterName)
	m := &metrics{}
	var err error

	if m.callbacks, err = meter.Int64Counter("cubeb.stream.callbacks",
		metric.WithDescription("Data callback invocations."),
	); err != nil {
		return nil, fmt.Errorf("metrics: create callbacks counter: %w", err)
	}
	if m.callbackDuration, err = meter.Float64Histogram("cubeb.stream.callback.duration",
		metric.WithDescription("Time spent inside the data callback."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05),
	); err != nil {
		return nil, fmt.Errorf("metrics: create callback duration histogram: %w", err)
	}
	if m.frames, err = meter.Int64Counter("cubeb.stream.frames",
		metric.WithDescription("Frames handed to the backend."),
		metric.WithUnit("{frame}"),
	); err != nil {
		return nil, fmt.Errorf("metrics: create frames counter: %w", err)
	}
	if m.errors, err = meter.Int64Counter("cubeb.stream.errors",
		metric.WithDescription("Streams halted by an asynchronous failure."),
	); err != nil {
		return nil, fmt.Errorf("metrics: create errors counter: %w", err)
	}
	if m.stateChanges, err = meter.Int64Counter("cubeb.stream.state_changes",
		metric.WithDescription("Stream lifecycle transitions."),
	); err != nil {
		return nil, fmt.Errorf("metrics: create state changes counter: %w", err)
	}
	if m.active, err = meter.Int64UpDownCounter("cubeb.streams.active",
		metric.WithDescription("Streams created and not yet destroyed."),
	); err != nil {
		return nil, fmt.Errorf("metrics: create active streams counter: %w", err)
	}
	return m, nil
}

// backendAttrs is computed once per stream so the pump records without
// allocating an attribute set per callback.
func backendAttrs(name string) metric.MeasurementOption {
	return metric.WithAttributeSet(attribute.NewSet(attribute.String("backend", name)))
}

func transitionAttrs(backendName string, to StreamState) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("backend", backendName),
		attribute.String("state", to.String()),
	)
}
