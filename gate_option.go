package filter

import (
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sectrean/filter-kit/internal/errors"
)

// GateOption is used to configure a [Gate] when calling [NewGate].
type GateOption interface {
	applyGate(*Gate) error
}

type gateOption func(*Gate) error

func (o gateOption) applyGate(g *Gate) error {
	return o(g)
}

// WithPipeline sets the pipeline of the [Gate].
//
// This pipeline is always used instead of the one in the [PipelineRegistry].
func WithPipeline(p Pipeline) GateOption {
	return gateOption(func(g *Gate) error {
		if p == nil {
			return errors.New("WithPipeline: p is nil")
		}

		g.injected = p
		return nil
	})
}

// WithPipelineRegistry sets the registry the [Gate] takes its pipeline from
// when it was not given one with [WithPipeline].
func WithPipelineRegistry(r *PipelineRegistry) GateOption {
	return gateOption(func(g *Gate) error {
		if r == nil {
			return errors.New("WithPipelineRegistry: r is nil")
		}

		g.pipelines = r
		return nil
	})
}

// WithRegistry sets the [Registry] that tracks active dispatches.
func WithRegistry(r *Registry) GateOption {
	return gateOption(func(g *Gate) error {
		if r == nil {
			return errors.New("WithRegistry: r is nil")
		}

		g.registry = r
		return nil
	})
}

// WithLogger sets the logger used by the [Gate].
func WithLogger(l *zap.Logger) GateOption {
	return gateOption(func(g *Gate) error {
		if l == nil {
			return errors.New("WithLogger: l is nil")
		}

		g.logger = l
		return nil
	})
}

// WithMetrics records dispatches with m.
func WithMetrics(m *Metrics) GateOption {
	return gateOption(func(g *Gate) error {
		if m == nil {
			return errors.New("WithMetrics: m is nil")
		}

		g.metrics = m
		return nil
	})
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) GateOption {
	return gateOption(func(g *Gate) error {
		if tp == nil {
			return errors.New("WithTracerProvider: tp is nil")
		}

		g.tracer = tp.Tracer(tracerName)
		return nil
	})
}
