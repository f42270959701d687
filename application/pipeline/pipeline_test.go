package pipeline_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trellis-ldp/trellis-core/application/pipeline"
	"github.com/trellis-ldp/trellis-core/infrastructure/metrics"
	apperrors "github.com/trellis-ldp/trellis-core/pkg/errors"
)

func TestExecuteRunsHandlerAndReturnsResult(t *testing.T) {
	p := pipeline.New(zap.NewNop())
	op := pipeline.Operation{Method: "GET", ResourceID: "http://ex/r"}

	result, err := p.Execute(context.Background(), op, func(ctx context.Context) (*pipeline.Result, error) {
		return &pipeline.Result{Status: http.StatusOK}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.Status)
}

func TestExecutePropagatesBeforeError(t *testing.T) {
	p := pipeline.New(zap.NewNop())
	p.Use(failingBehavior{})
	called := false

	_, err := p.Execute(context.Background(), pipeline.Operation{Method: "PUT"}, func(ctx context.Context) (*pipeline.Result, error) {
		called = true
		return &pipeline.Result{}, nil
	})

	assert.Error(t, err)
	assert.False(t, called, "handler must not run when a Before hook fails")
}

func TestMetricsBehaviorRecordsOnSuccessAndFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	p := pipeline.New(zap.NewNop())
	p.Use(pipeline.NewMetricsBehavior(m))

	op := pipeline.Operation{Method: "GET", ResourceID: "http://ex/ok"}
	_, err := p.Execute(context.Background(), op, func(ctx context.Context) (*pipeline.Result, error) {
		return &pipeline.Result{Status: http.StatusOK}, nil
	})
	require.NoError(t, err)

	failOp := pipeline.Operation{Method: "GET", ResourceID: "http://ex/missing"}
	_, err = p.Execute(context.Background(), failOp, func(ctx context.Context) (*pipeline.Result, error) {
		return nil, apperrors.NewNotFound("missing")
	})
	assert.Error(t, err)
}

func TestPerformanceBehaviorDoesNotErrorOnSlowOperation(t *testing.T) {
	p := pipeline.New(zap.NewNop())
	p.Use(pipeline.NewPerformanceBehavior(zap.NewNop(), time.Nanosecond))

	_, err := p.Execute(context.Background(), pipeline.Operation{Method: "GET", ResourceID: "r"}, func(ctx context.Context) (*pipeline.Result, error) {
		time.Sleep(time.Millisecond)
		return &pipeline.Result{Status: http.StatusOK}, nil
	})

	assert.NoError(t, err)
}

type failingBehavior struct{}

func (failingBehavior) Before(ctx context.Context, op pipeline.Operation) error {
	return apperrors.NewValidation("bad request")
}

func (failingBehavior) After(ctx context.Context, op pipeline.Operation, result *pipeline.Result, err error) {
}
