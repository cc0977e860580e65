package filterhttp

import (
	"go.uber.org/zap"

	"github.com/sectrean/filter-kit/internal/errors"
)

// MiddlewareOption is used to configure the middleware when calling [NewMiddleware].
type MiddlewareOption interface {
	applyMiddleware(*middlewareConfig) error
}

type middlewareConfig struct {
	logger       *zap.Logger
	errorHandler ErrorHandler
}

type middlewareOption func(*middlewareConfig) error

func (o middlewareOption) applyMiddleware(c *middlewareConfig) error {
	return o(c)
}

// WithErrorHandler sets the handler for errors returned by the pipeline.
func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return middlewareOption(func(c *middlewareConfig) error {
		if h == nil {
			return errors.New("WithErrorHandler: h is nil")
		}

		c.errorHandler = h
		return nil
	})
}

// WithLogger sets the logger used by the default error handler.
func WithLogger(l *zap.Logger) MiddlewareOption {
	return middlewareOption(func(c *middlewareConfig) error {
		if l == nil {
			return errors.New("WithLogger: l is nil")
		}

		c.logger = l
		return nil
	})
}
