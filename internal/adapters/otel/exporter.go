package otel

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/thrash-lab/viability-test/internal/ports"
)

const (
	serviceName    = "viability"
	serviceVersion = "1.0.0"
)

// ErrDisabled is returned by NewExporter when exporting is not configured.
var ErrDisabled = errors.New("OTEL exporter is disabled or endpoint not configured")

// Exporter exports estimator metrics to an OTEL Collector.
type Exporter struct {
	provider        *sdkmetric.MeterProvider
	meter           metric.Meter
	candidatesTotal metric.Int64Counter
	bootstrapsTotal metric.Int64Counter
	stageDuration   metric.Float64Histogram
	estimatesTotal  metric.Int64Counter
	estimateHist    metric.Float64Histogram
}

// NewExporter creates a new OTEL metrics exporter.
func NewExporter(ctx context.Context, cfg Config) (*Exporter, error) {
	if !cfg.Enabled || cfg.Endpoint == "" {
		return nil, ErrDisabled
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)

	return newExporter(provider)
}

func newExporter(provider *sdkmetric.MeterProvider) (*Exporter, error) {
	meter := provider.Meter(serviceName)

	candidatesTotal, err := meter.Int64Counter(
		"viability_candidates_total",
		metric.WithDescription("Candidate viabilities evaluated"),
		metric.WithUnit("{candidate}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating candidates counter: %w", err)
	}

	bootstrapsTotal, err := meter.Int64Counter(
		"viability_bootstraps_total",
		metric.WithDescription("Simulated DTE experiments"),
		metric.WithUnit("{experiment}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating bootstraps counter: %w", err)
	}

	stageDuration, err := meter.Float64Histogram(
		"viability_stage_duration_seconds",
		metric.WithDescription("Duration of one search sweep"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating stage duration histogram: %w", err)
	}

	estimatesTotal, err := meter.Int64Counter(
		"viability_estimates_total",
		metric.WithDescription("Completed viability estimates"),
		metric.WithUnit("{estimate}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating estimates counter: %w", err)
	}

	estimateHist, err := meter.Float64Histogram(
		"viability_estimate_duration_seconds",
		metric.WithDescription("Wall time of one viability estimate"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating estimate duration histogram: %w", err)
	}

	return &Exporter{
		provider:        provider,
		meter:           meter,
		candidatesTotal: candidatesTotal,
		bootstrapsTotal: bootstrapsTotal,
		stageDuration:   stageDuration,
		estimatesTotal:  estimatesTotal,
		estimateHist:    estimateHist,
	}, nil
}

// RecordStage records one completed sweep of the viability search.
func (e *Exporter) RecordStage(ctx context.Context, m *ports.StageMetrics) error {
	opt := metric.WithAttributes(
		attribute.String("run_id", m.RunID),
		attribute.String("stage", m.Stage),
	)

	e.candidatesTotal.Add(ctx, int64(m.Candidates), opt)
	e.bootstrapsTotal.Add(ctx, int64(m.Bootstraps), opt)
	e.stageDuration.Record(ctx, m.Duration.Seconds(), opt)

	return nil
}

// RecordEstimate records a finished estimate.
func (e *Exporter) RecordEstimate(ctx context.Context, m *ports.EstimateMetrics) error {
	opt := metric.WithAttributes(
		attribute.String("run_id", m.RunID),
		attribute.String("outcome", m.Outcome),
		attribute.Int("wells", m.Wells),
	)

	e.estimatesTotal.Add(ctx, 1, opt)
	e.estimateHist.Record(ctx, m.Duration.Seconds(), opt)

	return nil
}

// Close shuts down the exporter and flushes any pending metrics.
func (e *Exporter) Close(ctx context.Context) error {
	return e.provider.Shutdown(ctx)
}
