package filter

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/sectrean/filter-kit/internal/errors"
)

const tracerName = "github.com/sectrean/filter-kit"

// Gate is the entry point every request passes through.
//
// For each request it creates a [Stack], makes it reachable from the request context,
// runs the active [Pipeline], and removes the stack again however the pipeline returns.
// Handlers and injected components read the innermost request with [Request].
//
// A Gate is safe for concurrent use.
type Gate struct {
	injected  Pipeline
	pipelines *PipelineRegistry
	registry  *Registry
	logger    *zap.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	host      atomic.Pointer[hostRef]
}

type hostRef struct {
	host   *Host
	handle HostHandle
}

// NewGate creates a new [Gate] with the provided options.
//
// Available options:
//   - [WithPipeline] sets the pipeline for this gate. It takes precedence over the registry.
//   - [WithPipelineRegistry] sets the registry to take the pipeline from.
//     Defaults to [DefaultPipelineRegistry].
//   - [WithRegistry] sets the [Registry] that tracks active dispatches.
//   - [WithLogger] sets the logger.
//   - [WithMetrics] records Prometheus metrics.
//   - [WithTracerProvider] sets the OpenTelemetry tracer provider.
func NewGate(opts ...GateOption) (*Gate, error) {
	g := &Gate{
		pipelines: DefaultPipelineRegistry(),
		registry:  NewRegistry(),
		logger:    zap.NewNop(),
		tracer:    otel.GetTracerProvider().Tracer(tracerName),
	}

	var errs errors.MultiError
	for _, opt := range opts {
		errs = errs.Append(opt.applyGate(g))
	}
	if err := errs.Wrap("filter.NewGate"); err != nil {
		return nil, err
	}

	return g, nil
}

// Pipeline returns the pipeline requests are dispatched to:
// the one given with [WithPipeline], or else the registry's current pipeline.
func (g *Gate) Pipeline() Pipeline {
	if g.injected != nil {
		return g.injected
	}
	return g.pipelines.Current()
}

// Registry returns the [Registry] tracking this gate's active dispatches.
func (g *Gate) Registry() *Registry {
	return g.registry
}

// Dispatch runs the active [Pipeline] for one request.
//
// next is the rest of the chain configured outside of the pipeline. It is passed to the
// pipeline untouched.
//
// The request handed to the pipeline carries the dispatch on its context. The dispatch is
// cleared when Dispatch returns, even if the pipeline returns an error or panics.
// Errors from the pipeline are returned unchanged; panics are not recovered.
func (g *Gate) Dispatch(w http.ResponseWriter, r *http.Request, next http.Handler) (err error) {
	if r == nil || w == nil {
		return errors.Wrap(ErrInvalidContext, "filter.Gate.Dispatch")
	}

	p := g.Pipeline()

	ctx, span := g.tracer.Start(r.Context(), "filter.Gate.Dispatch",
		trace.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
			attribute.String("filter.pipeline", fmt.Sprintf("%T", p)),
		),
	)
	defer span.End()

	r, id, err := g.open(ctx, r, w)
	if err != nil {
		return errors.Wrap(err, "filter.Gate.Dispatch")
	}
	span.SetAttributes(attribute.String("filter.dispatch_id", id.String()))

	finish := g.metrics.begin()
	returned := false
	defer func() {
		g.registry.Clear(id)

		switch {
		case !returned:
			finish(outcomePanic)
			span.SetStatus(codes.Error, "panic")
			g.logger.Warn("filter dispatch panicked", zap.Stringer("dispatch_id", id))
		case err != nil:
			finish(outcomeError)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			g.logger.Debug("filter dispatch failed", zap.Stringer("dispatch_id", id), zap.Error(err))
		default:
			finish(outcomeOK)
		}
	}()

	err = p.Dispatch(w, r, next)
	returned = true
	return err
}

// open starts a dispatch on ctx: it registers a new stack holding the initial
// [Context] and returns the request bound to it.
func (g *Gate) open(ctx context.Context, r *http.Request, w http.ResponseWriter) (*http.Request, DispatchID, error) {
	id := newDispatchID()
	s := &Stack{}
	r = r.WithContext(bind(ctx, g.registry, id, s))

	if err := s.PushPair(r, w); err != nil {
		return nil, id, err
	}

	g.registry.Set(id, s)
	return r, id, nil
}

// Init is called once when the gate is installed into a hosting server.
//
// The gate keeps the handle, not the [ServerContext], and initializes the active pipeline.
func (g *Gate) Init(host *Host, handle HostHandle) error {
	if host == nil {
		return errors.New("filter.Gate.Init: host is nil")
	}

	sc, ok := host.Lookup(handle)
	if !ok {
		return errors.Wrapf(ErrUnknownHost, "filter.Gate.Init %s", handle)
	}

	g.host.Store(&hostRef{host: host, handle: handle})
	g.logger.Debug("filter gate initialized",
		zap.Stringer("host", handle),
		zap.String("server", sc.Name()),
	)

	return errors.Wrap(g.Pipeline().Init(sc), "filter.Gate.Init")
}

// ServerContext returns the server context the gate was initialized with.
//
// Returns false before [Gate.Init], after [Gate.Destroy], or once the [Host] has
// unregistered the context.
func (g *Gate) ServerContext() (ServerContext, bool) {
	ref := g.host.Load()
	if ref == nil {
		return nil, false
	}
	return ref.host.Lookup(ref.handle)
}

// Destroy tears down the active pipeline, then restores the registry's default pipeline and
// forgets the server context. The reset happens even if the pipeline fails to tear down.
func (g *Gate) Destroy() error {
	defer func() {
		g.pipelines.Reset()
		g.host.Store(nil)
	}()

	return errors.Wrap(g.Pipeline().Destroy(), "filter.Gate.Destroy")
}
