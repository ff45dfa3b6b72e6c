package engine

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/KevoDB/dnadb/pkg/telemetry"
)

// EngineMetrics defines the interface for engine-level telemetry
type EngineMetrics interface {
	// RecordOperation records the duration and outcome of one operation
	RecordOperation(ctx context.Context, operation string, duration time.Duration, status string)

	// RecordBytes records packed bytes moved by an operation
	RecordBytes(ctx context.Context, operation, direction string, bytes int64)

	// RecordStoreSize records the extent of the backing store
	RecordStoreSize(ctx context.Context, bytes int64)
}

// engineMetrics implements EngineMetrics using the telemetry interface
type engineMetrics struct {
	tel telemetry.Telemetry
}

// NewEngineMetrics creates a new EngineMetrics instance
func NewEngineMetrics(tel telemetry.Telemetry) EngineMetrics {
	return &engineMetrics{tel: tel}
}

// NewNoopEngineMetrics creates a no-op EngineMetrics for when telemetry is disabled
func NewNoopEngineMetrics() EngineMetrics {
	return &engineMetrics{tel: telemetry.NewNoop()}
}

func (m *engineMetrics) RecordOperation(ctx context.Context, operation string, duration time.Duration, status string) {
	attrs := []attribute.KeyValue{
		attribute.String(telemetry.AttrOperationType, operation),
		attribute.String(telemetry.AttrStatus, status),
	}

	m.tel.RecordHistogram(ctx, "dnadb.engine.operation.duration", duration.Seconds(), attrs...)
	m.tel.RecordCounter(ctx, "dnadb.engine.operation.count", 1, attrs...)
}

func (m *engineMetrics) RecordBytes(ctx context.Context, operation, direction string, bytes int64) {
	telemetry.RecordBytes(ctx, m.tel, "dnadb.engine.bytes", bytes,
		attribute.String(telemetry.AttrOperationType, operation),
		attribute.String(telemetry.AttrDirection, direction),
	)
}

func (m *engineMetrics) RecordStoreSize(ctx context.Context, bytes int64) {
	m.tel.RecordHistogram(ctx, "dnadb.storage.size.bytes", float64(bytes),
		attribute.String(telemetry.AttrComponent, telemetry.ComponentStorage))
}
