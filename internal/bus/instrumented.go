package bus

import (
	"context"
	"time"
)

// MetricsRecorder receives bus measurements. The metrics package
// implements it; the indirection keeps bus free of a metrics import.
type MetricsRecorder interface {
	RecordBusPublish(topic string, latencyMs float64, err error)
}

// InstrumentedBus wraps a Bus and records publish latency and errors.
type InstrumentedBus struct {
	inner    Bus
	recorder MetricsRecorder
}

// NewInstrumentedBus wraps a bus with metrics recording. A nil recorder
// returns the inner bus unchanged.
func NewInstrumentedBus(inner Bus, recorder MetricsRecorder) Bus {
	if recorder == nil {
		return inner
	}
	return &InstrumentedBus{inner: inner, recorder: recorder}
}

// Publish delegates to the inner bus and records the result.
func (b *InstrumentedBus) Publish(ctx context.Context, topic string, event Event) error {
	start := time.Now()
	err := b.inner.Publish(ctx, topic, event)
	b.recorder.RecordBusPublish(topic, float64(time.Since(start).Microseconds())/1000.0, err)
	return err
}

// Subscribe delegates to the inner bus.
func (b *InstrumentedBus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	return b.inner.Subscribe(ctx, topic, handler)
}

// Close delegates to the inner bus.
func (b *InstrumentedBus) Close() error {
	return b.inner.Close()
}
