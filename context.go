package filter

import (
	"net/http"

	"github.com/sectrean/filter-kit/internal/errors"
)

// Context is one view of the in-flight exchange: the request and response as seen at a
// particular filter depth.
//
// A Context is immutable once created.
type Context struct {
	request  *http.Request
	response http.ResponseWriter
}

// NewContext pairs a request and response.
//
// Returns [ErrInvalidContext] if either is nil.
func NewContext(r *http.Request, w http.ResponseWriter) (Context, error) {
	if r == nil || w == nil {
		return Context{}, errors.Wrap(ErrInvalidContext, "filter.NewContext")
	}

	return Context{request: r, response: w}, nil
}

// Request returns the request at this depth.
func (c Context) Request() *http.Request {
	return c.request
}

// Response returns the response at this depth.
func (c Context) Response() http.ResponseWriter {
	return c.response
}

// IsZero reports whether c was not created by [NewContext].
func (c Context) IsZero() bool {
	return c.request == nil
}
