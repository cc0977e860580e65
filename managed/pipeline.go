package managed

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sectrean/filter-kit"
	"github.com/sectrean/filter-kit/internal/errors"
)

// ErrPipelineDestroyed is returned when a destroyed [Pipeline] is initialized or dispatched to.
var ErrPipelineDestroyed = errors.New("pipeline destroyed")

type pipelineState uint8

const (
	stateNew pipelineState = iota
	stateReady
	stateFailed
	stateDestroyed
)

// Pipeline is a [filter.Pipeline] made of filters and servlets.
//
// Filters and servlets are initialized the first time [Pipeline.Init] or
// [Pipeline.Dispatch] is called, and destroyed in reverse order by [Pipeline.Destroy].
type Pipeline struct {
	filters  []*filterDefinition
	servlets []*servletDefinition
	mux      *chi.Mux
	logger   *zap.Logger

	ready      atomic.Bool
	mu         sync.Mutex
	state      pipelineState
	initErr    error
	destroyers []namedDestroyer
}

var _ filter.Pipeline = (*Pipeline)(nil)

// New creates a [Pipeline] with the provided options.
//
// Available options:
//   - [WithFilter] adds a filter.
//   - [WithServlet] adds a servlet.
//   - [WithModule] applies a [Module].
//   - [WithLogger] sets the logger.
func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		mux:    chi.NewMux(),
		logger: zap.NewNop(),
	}

	var errs errors.MultiError
	for _, opt := range opts {
		errs = errs.Append(opt.applyPipeline(p))
	}
	if err := errs.Wrap("managed.New"); err != nil {
		return nil, err
	}

	p.mux.NotFound(func(_ http.ResponseWriter, r *http.Request) {
		routeStateFrom(r.Context()).matched = false
	})
	p.mux.MethodNotAllowed(func(_ http.ResponseWriter, r *http.Request) {
		routeStateFrom(r.Context()).matched = false
	})

	return p, nil
}

// Init initializes every filter, then every servlet, in registration order.
//
// Init only does work the first time it is called. If a filter or servlet fails to
// initialize, the same error is returned from every later call to Init and Dispatch.
func (p *Pipeline) Init(sc filter.ServerContext) error {
	return errors.Wrap(p.init(sc), "managed.Pipeline.Init")
}

func (p *Pipeline) init(sc filter.ServerContext) error {
	if p.ready.Load() {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case stateReady:
		return nil
	case stateFailed:
		return p.initErr
	case stateDestroyed:
		return ErrPipelineDestroyed
	}

	err := p.initAll(sc)
	if err != nil {
		p.state = stateFailed
		p.initErr = err
		return err
	}

	p.state = stateReady
	p.ready.Store(true)
	return nil
}

func (p *Pipeline) initAll(sc filter.ServerContext) error {
	type component struct {
		name string
		val  any
	}

	components := make([]component, 0, len(p.filters)+len(p.servlets))
	for _, def := range p.filters {
		components = append(components, component{def.String(), def.filter})
	}
	for _, def := range p.servlets {
		components = append(components, component{def.String(), def.servlet})
	}

	for _, c := range components {
		if i := getInitializer(c.val); i != nil {
			if err := i.Init(sc); err != nil {
				return errors.Wrapf(err, "init %s", c.name)
			}
		}

		if d := getDestroyer(c.val); d != nil {
			p.destroyers = append(p.destroyers, namedDestroyer{name: c.name, d: d})
		}
		p.logger.Debug("pipeline component initialized", zap.String("component", c.name))
	}

	return nil
}

// Dispatch runs the matching filters and then the matching servlet.
//
// If no servlet matches, next is called. A nil next responds with 404 Not Found.
// A pipeline that was not initialized yet is initialized first, with a nil server context.
func (p *Pipeline) Dispatch(w http.ResponseWriter, r *http.Request, next http.Handler) error {
	if err := p.init(nil); err != nil {
		return errors.Wrap(err, "managed.Pipeline.Dispatch")
	}

	c := &chain{p: p, next: next}
	return c.DoFilter(w, r)
}

// Destroy destroys servlets and then filters, in reverse registration order.
// Errors are joined. The pipeline cannot be used afterwards.
func (p *Pipeline) Destroy() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs errors.MultiError
	for i := len(p.destroyers) - 1; i >= 0; i-- {
		d := p.destroyers[i]
		errs = errs.Append(errors.Wrapf(d.d.Destroy(), "destroy %s", d.name))
		p.logger.Debug("pipeline component destroyed", zap.String("component", d.name))
	}

	p.destroyers = nil
	p.state = stateDestroyed
	p.ready.Store(false)

	return errs.Wrap("managed.Pipeline.Destroy")
}

// serve routes the request to a servlet, or falls through to next.
func (p *Pipeline) serve(w http.ResponseWriter, r *http.Request, next http.Handler) error {
	if len(p.servlets) > 0 {
		st := &routeState{matched: true}

		// A fresh route context keeps routing independent of any router above the gate.
		ctx := context.WithValue(r.Context(), routeStateKey{}, st)
		ctx = context.WithValue(ctx, chi.RouteCtxKey, chi.NewRouteContext())
		p.mux.ServeHTTP(w, r.WithContext(ctx))

		if st.matched {
			return st.err
		}
	}

	if next == nil {
		http.NotFound(w, r)
		return nil
	}

	next.ServeHTTP(w, r)
	return nil
}

type chain struct {
	p     *Pipeline
	next  http.Handler
	index int
}

func (c *chain) DoFilter(w http.ResponseWriter, r *http.Request) error {
	for c.index < len(c.p.filters) {
		def := c.p.filters[c.index]
		c.index++

		if def.pattern.matches(r.URL.Path) {
			return def.filter.DoFilter(w, r, c)
		}
	}

	return c.p.serve(w, r, c.next)
}

type filterDefinition struct {
	pattern uriPattern
	filter  Filter
}

func (d *filterDefinition) String() string {
	return fmt.Sprintf("filter %s %T", d.pattern, d.filter)
}

type servletDefinition struct {
	pattern string
	servlet Servlet
}

func (d *servletDefinition) String() string {
	return fmt.Sprintf("servlet %s %T", d.pattern, d.servlet)
}

func (d *servletDefinition) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st := routeStateFrom(r.Context())
	st.err = d.servlet.Serve(w, r)
}

type namedDestroyer struct {
	name string
	d    Destroyer
}

type routeStateKey struct{}

type routeState struct {
	err     error
	matched bool
}

func routeStateFrom(ctx context.Context) *routeState {
	if st, ok := ctx.Value(routeStateKey{}).(*routeState); ok {
		return st
	}
	return &routeState{}
}
