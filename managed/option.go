package managed

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sectrean/filter-kit/internal/errors"
)

// Option is used to configure a [Pipeline] when calling [New].
type Option interface {
	applyPipeline(*Pipeline) error
}

type option func(*Pipeline) error

func (o option) applyPipeline(p *Pipeline) error {
	return o(p)
}

// WithFilter adds f for requests whose path matches pattern.
//
// Filters run in the order they are added.
func WithFilter(pattern string, f Filter) Option {
	return option(func(p *Pipeline) error {
		if f == nil {
			return errors.Errorf("WithFilter %q: f is nil", pattern)
		}

		up, err := parsePattern(pattern)
		if err != nil {
			return errors.Wrap(err, "WithFilter")
		}

		p.filters = append(p.filters, &filterDefinition{pattern: up, filter: f})
		return nil
	})
}

// WithServlet routes requests matching the chi route pattern to s.
func WithServlet(pattern string, s Servlet) Option {
	return option(func(p *Pipeline) (err error) {
		if s == nil {
			return errors.Errorf("WithServlet %q: s is nil", pattern)
		}
		if !strings.HasPrefix(pattern, "/") {
			return errors.Errorf("WithServlet %q: pattern must begin with '/'", pattern)
		}

		// chi panics on malformed patterns
		defer func() {
			if rec := errors.Recovered(recover()); rec != nil {
				err = errors.Wrapf(rec, "WithServlet %q", pattern)
			}
		}()

		def := &servletDefinition{pattern: pattern, servlet: s}
		p.mux.Handle(pattern, def)
		p.servlets = append(p.servlets, def)
		return nil
	})
}

// WithLogger sets the logger used by the [Pipeline].
func WithLogger(l *zap.Logger) Option {
	return option(func(p *Pipeline) error {
		if l == nil {
			return errors.New("WithLogger: l is nil")
		}

		p.logger = l
		return nil
	})
}
