package search

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/facetdex/internal/domain/search/query"
	"github.com/kailas-cloud/facetdex/internal/domain/search/result"
	"github.com/kailas-cloud/facetdex/internal/metrics"
)

// InstrumentedExecutor wraps an Executor with query metrics and logging.
type InstrumentedExecutor struct {
	inner   Executor
	backend string
	logger  *zap.Logger
}

// NewInstrumentedExecutor wraps exec; backend labels the metrics.
func NewInstrumentedExecutor(inner Executor, backend string, logger *zap.Logger) *InstrumentedExecutor {
	return &InstrumentedExecutor{inner: inner, backend: backend, logger: logger}
}

// Execute delegates to the inner executor and records duration and failures.
func (e *InstrumentedExecutor) Execute(
	ctx context.Context, index string, q query.Query,
) (*result.Response, error) {
	kind := metrics.KindHits
	if len(q.Aggs) > 0 {
		kind = metrics.KindFacet
	}

	start := time.Now()
	resp, err := e.inner.Execute(ctx, index, q)
	duration := time.Since(start)

	metrics.QueryDuration.WithLabelValues(e.backend, kind).Observe(duration.Seconds())
	if err != nil {
		metrics.QueryErrorsTotal.WithLabelValues(e.backend, kind).Inc()
		e.logger.Error("Backend query failed",
			zap.String("backend", e.backend),
			zap.String("index", index),
			zap.String("kind", kind),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err //nolint:wrapcheck // decorator keeps the inner error as is
	}

	e.logger.Debug("Backend query completed",
		zap.String("backend", e.backend),
		zap.String("index", index),
		zap.String("kind", kind),
		zap.Duration("duration", duration),
		zap.Int64("total", resp.Total),
	)
	if kind == metrics.KindFacet {
		n := 0
		for _, buckets := range resp.Aggregations {
			n += len(buckets)
		}
		metrics.FacetsReturned.Observe(float64(n))
	}
	return resp, nil
}
