// Package otel wires OpenTelemetry tracing for proxy binaries.
package otel

import (
	"context"
	"fmt"

	"github.com/justly-io/justly-soroban/internal/platform/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Config controls trace export. Export is off unless Endpoint is set.
type Config struct {
	Endpoint    string  `env:"JUSTLY_OTEL_ENDPOINT"`
	Enabled     bool    `env:"JUSTLY_OTEL_ENABLED" envDefault:"true"`
	SampleRatio float64 `env:"JUSTLY_OTEL_SAMPLE_RATIO" envDefault:"1"`
}

func (c Config) Validate() error {
	if c.SampleRatio < 0 || c.SampleRatio > 1 {
		return fmt.Errorf("JUSTLY_OTEL_SAMPLE_RATIO must be within [0, 1], got %v", c.SampleRatio)
	}
	return nil
}

func (c Config) exporting() bool { return c.Enabled && c.Endpoint != "" }

// Shutdown flushes and stops the tracer provider.
type Shutdown func(context.Context) error

func noop(context.Context) error { return nil }

// Setup reads Config from the environment and, when exporting, installs a
// batching OTLP/HTTP tracer provider and the W3C trace context propagator
// as globals. The returned Shutdown is never nil.
func Setup(ctx context.Context, service string) (Shutdown, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return noop, err
	}
	if !cfg.exporting() {
		return noop, nil
	}
	tp, err := newProvider(ctx, cfg, service)
	if err != nil {
		return noop, err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp.Shutdown, nil
}

func newProvider(ctx context.Context, cfg Config, service string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(service)))
	if err != nil {
		return nil, fmt.Errorf("trace resource: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SampleRatio)),
	), nil
}

// Tracer returns a tracer from the global provider. Spans are dropped when
// Setup installed nothing.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

func sampler(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}
