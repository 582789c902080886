package otel

import (
	"context"

	"github.com/thrash-lab/viability-test/internal/ports"
)

// NoOpExporter is a metrics exporter that does nothing.
type NoOpExporter struct{}

// NewNoOpExporter creates a new no-op exporter for graceful degradation.
func NewNoOpExporter() *NoOpExporter {
	return &NoOpExporter{}
}

func (e *NoOpExporter) RecordStage(ctx context.Context, m *ports.StageMetrics) error {
	return nil
}

func (e *NoOpExporter) RecordEstimate(ctx context.Context, m *ports.EstimateMetrics) error {
	return nil
}

func (e *NoOpExporter) Close(ctx context.Context) error {
	return nil
}
