package pipeline

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/trellis-ldp/trellis-core/infrastructure/metrics"
	apperrors "github.com/trellis-ldp/trellis-core/pkg/errors"
)

// LoggingBehavior logs every operation at entry and exit, independent
// of the pipeline's own summary log line.
type LoggingBehavior struct {
	logger *zap.Logger
}

func NewLoggingBehavior(logger *zap.Logger) *LoggingBehavior {
	return &LoggingBehavior{logger: logger}
}

func (b *LoggingBehavior) Before(ctx context.Context, op Operation) error {
	b.logger.Info("executing operation",
		zap.String("method", op.Method),
		zap.String("resource", op.ResourceID))
	return nil
}

func (b *LoggingBehavior) After(ctx context.Context, op Operation, result *Result, err error) {
	if err != nil {
		b.logger.Warn("operation returned error",
			zap.String("method", op.Method),
			zap.String("resource", op.ResourceID),
			zap.Error(err))
	}
}

// MetricsBehavior records request counts, latency, and error types to
// Prometheus (infrastructure/metrics).
type MetricsBehavior struct {
	metrics   *metrics.Metrics
	mu        sync.Mutex
	startedAt map[string]time.Time
}

func NewMetricsBehavior(m *metrics.Metrics) *MetricsBehavior {
	return &MetricsBehavior{metrics: m, startedAt: make(map[string]time.Time)}
}

func (b *MetricsBehavior) Before(ctx context.Context, op Operation) error {
	b.mu.Lock()
	b.startedAt[operationKey(op)] = time.Now()
	b.mu.Unlock()
	return nil
}

func (b *MetricsBehavior) After(ctx context.Context, op Operation, result *Result, err error) {
	key := operationKey(op)
	b.mu.Lock()
	start, ok := b.startedAt[key]
	delete(b.startedAt, key)
	b.mu.Unlock()
	if !ok {
		return
	}

	b.metrics.RecordRequest(op.Method, time.Since(start), err)
	if err != nil {
		appErr := apperrors.As(err)
		b.metrics.RecordError(op.Method, string(appErr.Type))
	}
}

// PerformanceBehavior warns when an operation exceeds a configured
// latency threshold.
type PerformanceBehavior struct {
	logger    *zap.Logger
	threshold time.Duration
	mu        sync.Mutex
	startedAt map[string]time.Time
}

func NewPerformanceBehavior(logger *zap.Logger, threshold time.Duration) *PerformanceBehavior {
	return &PerformanceBehavior{logger: logger, threshold: threshold, startedAt: make(map[string]time.Time)}
}

func (b *PerformanceBehavior) Before(ctx context.Context, op Operation) error {
	b.mu.Lock()
	b.startedAt[operationKey(op)] = time.Now()
	b.mu.Unlock()
	return nil
}

func (b *PerformanceBehavior) After(ctx context.Context, op Operation, result *Result, err error) {
	key := operationKey(op)
	b.mu.Lock()
	start, ok := b.startedAt[key]
	delete(b.startedAt, key)
	b.mu.Unlock()
	if !ok {
		return
	}

	duration := time.Since(start)
	if duration > b.threshold {
		b.logger.Warn("slow operation",
			zap.String("method", op.Method),
			zap.String("resource", op.ResourceID),
			zap.Duration("duration", duration),
			zap.Duration("threshold", b.threshold))
	}
}

// TracingBehavior opens an OpenTelemetry span around each operation.
// The span covers the whole operation; the steps inside the handler
// bodies (initialize/read/constraint/persist/audit/memento/event)
// are not separate spans, since the Behavior hook has no way to
// thread an updated context back into the handler it wraps.
type TracingBehavior struct {
	tracer trace.Tracer
	mu     sync.Mutex
	spans  map[string]trace.Span
}

// NewTracingBehavior builds a TracingBehavior using the global otel
// tracer provider under the given instrumentation name.
func NewTracingBehavior(instrumentationName string) *TracingBehavior {
	return &TracingBehavior{
		tracer: otel.Tracer(instrumentationName),
		spans:  make(map[string]trace.Span),
	}
}

func (b *TracingBehavior) Before(ctx context.Context, op Operation) error {
	_, span := b.tracer.Start(ctx, op.Method+" "+op.ResourceID,
		trace.WithAttributes(
			attribute.String("trellis.method", op.Method),
			attribute.String("trellis.resource_id", op.ResourceID),
		))

	b.mu.Lock()
	b.spans[operationKey(op)] = span
	b.mu.Unlock()
	return nil
}

func (b *TracingBehavior) After(ctx context.Context, op Operation, result *Result, err error) {
	key := operationKey(op)

	b.mu.Lock()
	span, ok := b.spans[key]
	delete(b.spans, key)
	b.mu.Unlock()
	if !ok {
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if result != nil {
		span.SetAttributes(attribute.Int("trellis.status_code", result.Status))
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// operationKey identifies one in-flight operation for the Before/After
// bookkeeping maps; method+resource is unique enough given writes to
// the same identifier are serialized anyway.
func operationKey(op Operation) string {
	return op.Method + " " + op.ResourceID
}
