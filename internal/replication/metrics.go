package replication

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of scheduler metrics.
const MeterName = "github.com/udisondev/effectsync/replication"

type metrics struct {
	packets       metric.Int64Counter
	deliveries    metric.Int64Counter
	errors        metric.Int64Counter
	phaseDuration metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*metrics, error) {
	if meter == nil {
		meter = otel.Meter(MeterName)
	}

	m := &metrics{}
	var err error

	m.packets, err = meter.Int64Counter("effectsync.packets",
		metric.WithDescription("Packets broadcast by the scheduler"),
		metric.WithUnit("{packet}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating packets counter: %w", err)
	}

	m.deliveries, err = meter.Int64Counter("effectsync.deliveries",
		metric.WithDescription("Packets delivered to observers"),
		metric.WithUnit("{packet}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating deliveries counter: %w", err)
	}

	m.errors, err = meter.Int64Counter("effectsync.broadcast.errors",
		metric.WithDescription("Packets that could not be broadcast"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating errors counter: %w", err)
	}

	m.phaseDuration, err = meter.Float64Histogram("effectsync.phase.duration",
		metric.WithDescription("Scheduler phase duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.00001, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05),
	)
	if err != nil {
		return nil, fmt.Errorf("creating phase duration histogram: %w", err)
	}

	return m, nil
}

func (m *metrics) recordPacket(ctx context.Context, phase Phase, packetID int32, delivered int) {
	attrs := metric.WithAttributes(
		attribute.String("phase", string(phase)),
		attribute.String("packet", packetName(packetID)),
	)
	m.packets.Add(ctx, 1, attrs)
	if delivered > 0 {
		m.deliveries.Add(ctx, int64(delivered), attrs)
	}
}

func (m *metrics) recordError(ctx context.Context, phase Phase, packetID int32) {
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("phase", string(phase)),
		attribute.String("packet", packetName(packetID)),
	))
}

func (m *metrics) recordPhase(ctx context.Context, phase Phase, d time.Duration) {
	m.phaseDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("phase", string(phase)),
	))
}
