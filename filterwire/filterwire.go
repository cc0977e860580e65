// Package filterwire provides [github.com/google/wire] providers for the filter gate and for
// the request and response of the current dispatch.
//
// Example injector:
//
//	func wireHandler(*zap.Logger, prometheus.Registerer, *managed.Pipeline) (*filter.Gate, func(), error) {
//		panic(wire.Build(
//			filterwire.ProviderSet,
//			wire.Bind(new(filter.Pipeline), new(*managed.Pipeline)),
//		))
//	}
package filterwire

import (
	"context"
	"net/http"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sectrean/filter-kit"
	"github.com/sectrean/filter-kit/internal/errors"
)

// ProviderSet provides a [*filter.Gate] with the pipeline installed, and the
// [*filter.PipelineRegistry] and [*filter.Metrics] it uses.
var ProviderSet = wire.NewSet(
	ProvidePipelineRegistry,
	ProvideMetrics,
	ProvideGate,
)

// RequestSet provides the innermost request, response, and [filter.Context] of the dispatch
// carried by a [context.Context].
var RequestSet = wire.NewSet(
	ProvideContext,
	ProvideRequest,
	ProvideResponse,
)

// ProvidePipelineRegistry returns a new [filter.PipelineRegistry] that logs to logger.
func ProvidePipelineRegistry(logger *zap.Logger) *filter.PipelineRegistry {
	return filter.NewPipelineRegistry(logger)
}

// ProvideMetrics registers the gate metrics with reg.
func ProvideMetrics(reg prometheus.Registerer) (*filter.Metrics, error) {
	m, err := filter.NewMetrics(reg)
	return m, errors.Wrap(err, "filterwire.ProvideMetrics")
}

// ProvideGate installs p into pipelines and returns a [filter.Gate] that dispatches through it.
//
// The cleanup function destroys the gate, which tears down the pipeline and restores the
// registry's default pipeline.
func ProvideGate(
	pipelines *filter.PipelineRegistry,
	p filter.Pipeline,
	logger *zap.Logger,
	metrics *filter.Metrics,
) (*filter.Gate, func(), error) {
	if p == nil {
		return nil, nil, errors.New("filterwire.ProvideGate: p is nil")
	}

	opts := []filter.GateOption{
		filter.WithPipelineRegistry(pipelines),
		filter.WithLogger(logger),
	}
	if metrics != nil {
		opts = append(opts, filter.WithMetrics(metrics))
	}

	g, err := filter.NewGate(opts...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "filterwire.ProvideGate")
	}

	pipelines.Install(p)

	cleanup := func() {
		if err := g.Destroy(); err != nil {
			logger.Error("error destroying filter gate", zap.Error(err))
		}
	}

	return g, cleanup, nil
}

// ProvideContext returns the innermost [filter.Context] of the dispatch ctx belongs to.
func ProvideContext(ctx context.Context) (filter.Context, error) {
	c, err := filter.CurrentContext(ctx)
	return c, errors.Wrap(err, "filterwire.ProvideContext")
}

// ProvideRequest returns the request of c.
func ProvideRequest(c filter.Context) *http.Request {
	return c.Request()
}

// ProvideResponse returns the response of c.
func ProvideResponse(c filter.Context) http.ResponseWriter {
	return c.Response()
}
