package testtypes

import (
	"net/http"

	"github.com/sectrean/filter-kit"
)

// MarkerHeader carries the label set by [Mark].
const MarkerHeader = "X-Test-Marker"

// Mark returns a copy of r labelled with label, standing in for a wrapped request.
// The copy keeps r's context.
func Mark(r *http.Request, label string) *http.Request {
	r2 := r.Clone(r.Context())
	r2.Header.Set(MarkerHeader, label)
	return r2
}

// MarkerOf returns the label set by [Mark].
func MarkerOf(r *http.Request) string {
	return r.Header.Get(MarkerHeader)
}

// MarkedWriter stands in for a wrapped response.
type MarkedWriter struct {
	http.ResponseWriter
	Label string
}

// PipelineFunc adapts a function to [filter.Pipeline]. Init and Destroy do nothing.
type PipelineFunc func(w http.ResponseWriter, r *http.Request, next http.Handler) error

func (f PipelineFunc) Init(filter.ServerContext) error { return nil }

func (f PipelineFunc) Dispatch(w http.ResponseWriter, r *http.Request, next http.Handler) error {
	return f(w, r, next)
}

func (f PipelineFunc) Destroy() error { return nil }

var _ filter.Pipeline = PipelineFunc(nil)
