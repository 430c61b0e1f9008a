package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/skillsenselab/authgate/logger"
)

// InitMeter initializes the OpenTelemetry meter provider. The returned
// provider must be shut down on application exit.
func InitMeter(ctx context.Context, cfg Config, serviceName, version, environment string) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(serviceName, version, environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if cfg.MetricInterval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.MetricInterval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", serviceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.MetricInterval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// AuthMetrics holds the instruments recorded across the auth flow.
type AuthMetrics struct {
	flowTotal      metric.Int64Counter
	flowDuration   metric.Float64Histogram
	verifyDuration metric.Float64Histogram
	errorTotal     metric.Int64Counter
}

// NewAuthMetrics creates the auth-flow instruments on the given meter.
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	flowTotal, err := meter.Int64Counter("auth.flow.total",
		metric.WithDescription("Auth flow operations by operation and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.flow.total counter: %w", err)
	}

	flowDuration, err := meter.Float64Histogram("auth.flow.duration",
		metric.WithDescription("Duration of auth flow operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.flow.duration histogram: %w", err)
	}

	verifyDuration, err := meter.Float64Histogram("auth.verify.duration",
		metric.WithDescription("Duration of token verifications in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.verify.duration histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("auth.error.total",
		metric.WithDescription("Auth errors by code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.error.total counter: %w", err)
	}

	return &AuthMetrics{
		flowTotal:      flowTotal,
		flowDuration:   flowDuration,
		verifyDuration: verifyDuration,
		errorTotal:     errorTotal,
	}, nil
}

// RecordFlow records one auth flow operation (login, callback, refresh,
// logout) with its outcome.
func (m *AuthMetrics) RecordFlow(ctx context.Context, operation, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	m.flowTotal.Add(ctx, 1, attrs)
	m.flowDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
	))
}

// RecordVerify records one token verification.
func (m *AuthMetrics) RecordVerify(ctx context.Context, outcome string, duration time.Duration) {
	m.verifyDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordError records an auth error by its taxonomy code.
func (m *AuthMetrics) RecordError(ctx context.Context, code string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
	))
}
