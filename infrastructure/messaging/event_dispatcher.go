// Package messaging delivers constructed activities (domain/activity)
// to whatever transport a deployment configures, with log-and-swallow
// semantics: event delivery failures are never fatal to the request
// that triggered them. The concrete bus (AMQP/JMS/Kafka/webhook) plugs
// in behind Transport; the core never imports a message-bus SDK.
package messaging

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/trellis-ldp/trellis-core/domain/activity"
)

// Transport is the underlying delivery mechanism an EventDispatcher
// forwards activities to — an AMQP/JMS/Kafka publisher, a webhook
// caller, or (in tests and small deployments) an in-memory recorder.
// Deployments construct a concrete Transport and wrap it in a
// Dispatcher; the core never imports a message-bus SDK directly.
type Transport interface {
	Publish(ctx context.Context, activities...activity.Activity) error
}

// Dispatcher implements ports.EventSink over a Transport, logging and
// swallowing every delivery failure rather than propagating it to the
// caller.
type Dispatcher struct {
	transport Transport
	logger    *zap.Logger
}

// NewDispatcher builds a Dispatcher delivering through transport. A
// nil transport makes every Emit a pure no-op (useful for
// deployments/tests with no event sink configured).
func NewDispatcher(transport Transport, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{transport: transport, logger: logger}
}

// Emit implements ports.EventSink.
func (d *Dispatcher) Emit(ctx context.Context, activities...activity.Activity) error {
	if d.transport == nil || len(activities) == 0 {
		return nil
	}

	start := time.Now()
	err := d.transport.Publish(ctx, activities...)
	duration := time.Since(start)

	if err != nil {
		d.logger.Warn("event delivery failed, swallowing",
			zap.Int("count", len(activities)),
			zap.Error(err),
			zap.Duration("duration", duration))
		return nil
	}

	d.logger.Debug("events delivered",
		zap.Int("count", len(activities)),
		zap.Duration("duration", duration))
	return nil
}

// LoggingTransport publishes every activity as a structured log line
// instead of a real message bus — the default Transport for
// deployments that haven't configured one.
type LoggingTransport struct {
	logger *zap.Logger
}

func NewLoggingTransport(logger *zap.Logger) *LoggingTransport {
	return &LoggingTransport{logger: logger}
}

func (t *LoggingTransport) Publish(ctx context.Context, activities...activity.Activity) error {
	for _, a := range activities {
		t.logger.Info("activity",
			zap.String("type", string(a.ActivityType)),
			zap.String("target", string(a.Target)),
			zap.String("agent", string(a.Agent)),
			zap.String("resourceType", string(a.ResourceType)),
			zap.Time("occurred", a.Occurred))
	}
	return nil
}
