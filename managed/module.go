package managed

import (
	"github.com/sectrean/filter-kit/internal/errors"
)

// A Module is a collection of pipeline options.
// It can be used to export a re-usable group of related filters and servlets.
//
// Example:
//
//	var APIModule = managed.Module{
//		managed.WithFilter("/api/*", gunzipFilter),
//		managed.WithServlet("/api/items/{id}", itemServlet),
//	}
type Module []Option

func (m Module) applyPipeline(p *Pipeline) error {
	var errs errors.MultiError
	for _, opt := range m {
		errs = errs.Append(opt.applyPipeline(p))
	}

	return errs.Join()
}

// WithModule applies the options in a [Module] when calling [New].
//
// Example:
//
//	p, err := managed.New(
//		managed.WithModule(APIModule),
//		managed.WithFilter("/*", requestIDFilter),
//	)
func WithModule(m Module) Option {
	return m
}
