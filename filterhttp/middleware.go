package filterhttp

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/sectrean/filter-kit"
	"github.com/sectrean/filter-kit/internal/errors"
)

// NewMiddleware creates middleware that sends every request through the [filter.Gate].
//
// The wrapped handler is passed to the gate's pipeline as the rest of the chain.
// If the pipeline returns an error, the error handler is called.
//
// Available options:
//   - [WithErrorHandler] sets the handler for errors returned by the pipeline.
//   - [WithLogger] sets the logger used by the default error handler.
func NewMiddleware(g *filter.Gate, opts ...MiddlewareOption) (func(http.Handler) http.Handler, error) {
	if g == nil {
		return nil, errors.New("filterhttp.NewMiddleware: g is nil")
	}

	cfg := &middlewareConfig{
		logger: zap.NewNop(),
	}

	var errs errors.MultiError
	for _, opt := range opts {
		errs = errs.Append(opt.applyMiddleware(cfg))
	}
	if err := errs.Wrap("filterhttp.NewMiddleware"); err != nil {
		return nil, err
	}

	if cfg.errorHandler == nil {
		cfg.errorHandler = defaultErrorHandler(cfg.logger)
	}

	return func(next http.Handler) http.Handler {
		return &middleware{
			gate:         g,
			errorHandler: cfg.errorHandler,
			next:         next,
		}
	}, nil
}

// ErrorHandler writes a response for an error returned by the pipeline.
//
// The default handler logs the error and writes a 500 Internal Server Error response.
type ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error)

func defaultErrorHandler(logger *zap.Logger) ErrorHandler {
	return func(w http.ResponseWriter, r *http.Request, err error) {
		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		}
		if id, ok := filter.DispatchIDFrom(r.Context()); ok {
			fields = append(fields, zap.Stringer("dispatch_id", id))
		}

		logger.Error("error dispatching HTTP request", fields...)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

type middleware struct {
	gate         *filter.Gate
	errorHandler ErrorHandler
	next         http.Handler
}

func (m *middleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := m.gate.Dispatch(w, r, m.next)
	if err != nil {
		m.errorHandler(w, r, err)
	}
}
