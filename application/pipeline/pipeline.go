// Package pipeline composes the behaviors that wrap every per-method
// operation: logging, metrics, tracing, and slow-request detection run
// around the one business operation the HTTP handler actually
// performs. There is no read/write bus split — GET is just another
// operation alongside POST/PUT/PATCH/DELETE.
package pipeline

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Operation names the business operation currently executing, for
// behaviors to log and measure against. Method is the HTTP verb;
// ResourceID is the target identifier (internal form).
type Operation struct {
	Method     string
	ResourceID string
}

// Result is what a Handler produces: the fully-formed HTTP response,
// still detached from any particular http.ResponseWriter so behaviors
// can inspect it before it's written.
type Result struct {
	Status int
	Header http.Header
	Body   []byte
}

// Handler performs one operation's business logic. Handlers never
// write to an http.ResponseWriter directly; interfaces/http/rest (the
// router's serveLDP) translates a Result into one.
type Handler func(ctx context.Context) (*Result, error)

// Behavior is a cross-cutting concern applied around every operation.
type Behavior interface {
	Before(ctx context.Context, op Operation) error
	After(ctx context.Context, op Operation, result *Result, err error)
}

// Pipeline runs a Handler through a fixed, ordered list of Behaviors.
type Pipeline struct {
	behaviors []Behavior
	logger    *zap.Logger
}

// New creates a Pipeline with no behaviors registered.
func New(logger *zap.Logger) *Pipeline {
	return &Pipeline{logger: logger}
}

// Use appends a behavior to the pipeline, run in registration order
// before the handler and in reverse order after it.
func (p *Pipeline) Use(behavior Behavior) {
	p.behaviors = append(p.behaviors, behavior)
}

// Execute runs op through every registered behavior's Before hook,
// then the handler, then every behavior's After hook (reverse order).
// A Before error short-circuits the handler entirely and is returned
// as-is; this is how a validation or strict-precondition failure never
// reaches persistence.
func (p *Pipeline) Execute(ctx context.Context, op Operation, handler Handler) (*Result, error) {
	start := time.Now()

	for _, b := range p.behaviors {
		if err := b.Before(ctx, op); err != nil {
			p.runAfter(ctx, op, nil, err)
			return nil, err
		}
	}

	result, err := handler(ctx)

	p.runAfter(ctx, op, result, err)

	if p.logger != nil {
		fields := []zap.Field{
			zap.String("method", op.Method),
			zap.String("resource", op.ResourceID),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			p.logger.Error("operation failed", append(fields, zap.Error(err))...)
		} else {
			p.logger.Debug("operation succeeded", fields...)
		}
	}

	return result, err
}

func (p *Pipeline) runAfter(ctx context.Context, op Operation, result *Result, err error) {
	for i := len(p.behaviors) - 1; i >= 0; i-- {
		p.behaviors[i].After(ctx, op, result, err)
	}
}
