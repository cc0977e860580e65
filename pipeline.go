package filter

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"
)

// Pipeline runs the filters and servlets configured for a [Gate].
//
// The gate owns request scoping around Dispatch. The pipeline owns ordering.
type Pipeline interface {
	// Init prepares the pipeline. It may be called more than once and must be idempotent.
	Init(sc ServerContext) error

	// Dispatch runs the pipeline for one request.
	//
	// next is the rest of the chain configured outside of the pipeline.
	// The pipeline calls it when control should fall through.
	Dispatch(w http.ResponseWriter, r *http.Request, next http.Handler) error

	// Destroy tears down everything the pipeline initialized, in reverse order.
	Destroy() error
}

// DefaultPipeline is used when no managed pipeline has been installed.
// It passes every request straight to the next handler.
type DefaultPipeline struct{}

// Init does nothing.
func (DefaultPipeline) Init(ServerContext) error { return nil }

// Dispatch calls next, if any.
func (DefaultPipeline) Dispatch(w http.ResponseWriter, r *http.Request, next http.Handler) error {
	if next != nil {
		next.ServeHTTP(w, r)
	}
	return nil
}

// Destroy does nothing.
func (DefaultPipeline) Destroy() error { return nil }

var _ Pipeline = DefaultPipeline{}

const multipleRootsWarning = "multiple filter pipelines installed: more than one gate root " +
	"is dispatching in this process. If this is deliberate, you can ignore this message; " +
	"otherwise requests may not be filtered as expected"

// PipelineRegistry holds the pipeline used by gates that were not given one directly.
//
// It starts out with [DefaultPipeline]. A dependency injection root calls Install to
// replace it with its managed pipeline. The zero value is ready to use.
type PipelineRegistry struct {
	current atomic.Pointer[installedPipeline]
	logger  *zap.Logger
}

type installedPipeline struct {
	pipeline Pipeline
	managed  bool
}

var defaultPipelines = &PipelineRegistry{}

// DefaultPipelineRegistry returns the process-wide [PipelineRegistry].
// It logs to the global zap logger; see [zap.ReplaceGlobals].
func DefaultPipelineRegistry() *PipelineRegistry {
	return defaultPipelines
}

// NewPipelineRegistry creates a [PipelineRegistry] that logs to logger.
// A nil logger logs to the global zap logger, as [DefaultPipelineRegistry] does.
func NewPipelineRegistry(logger *zap.Logger) *PipelineRegistry {
	return &PipelineRegistry{logger: logger}
}

// Install replaces the current pipeline with p.
//
// Installing over a pipeline that was itself installed logs a warning and replaces it.
// The last install wins. Installing nil is the same as [PipelineRegistry.Reset].
func (r *PipelineRegistry) Install(p Pipeline) {
	if p == nil {
		r.Reset()
		return
	}

	_, isDefault := p.(DefaultPipeline)
	prev := r.current.Swap(&installedPipeline{pipeline: p, managed: !isDefault})

	if prev != nil && prev.managed {
		r.log().Warn(multipleRootsWarning,
			zap.String("previous", fmt.Sprintf("%T", prev.pipeline)),
			zap.String("pipeline", fmt.Sprintf("%T", p)),
		)
	}
}

// Reset restores [DefaultPipeline].
func (r *PipelineRegistry) Reset() {
	r.current.Store(nil)
}

// Current returns the installed pipeline, or [DefaultPipeline].
func (r *PipelineRegistry) Current() Pipeline {
	if p := r.current.Load(); p != nil {
		return p.pipeline
	}
	return DefaultPipeline{}
}

// Managed reports whether a pipeline other than [DefaultPipeline] is installed.
func (r *PipelineRegistry) Managed() bool {
	p := r.current.Load()
	return p != nil && p.managed
}

func (r *PipelineRegistry) log() *zap.Logger {
	if r.logger == nil {
		return zap.L()
	}
	return r.logger
}
