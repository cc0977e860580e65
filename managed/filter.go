package managed

import (
	"net/http"
)

// Chain invokes the rest of the pipeline.
type Chain interface {
	DoFilter(w http.ResponseWriter, r *http.Request) error
}

// Filter runs before the servlet for requests matching its pattern.
//
// A filter continues the pipeline by calling chain.DoFilter, or stops it by returning
// without doing so. To wrap the request or response for everything downstream, call the
// chain inside [filter.Within] with the request it passes to fn.
type Filter interface {
	DoFilter(w http.ResponseWriter, r *http.Request, chain Chain) error
}

// FilterFunc adapts a function to [Filter].
type FilterFunc func(w http.ResponseWriter, r *http.Request, chain Chain) error

func (f FilterFunc) DoFilter(w http.ResponseWriter, r *http.Request, chain Chain) error {
	return f(w, r, chain)
}

// Servlet handles requests routed to it.
type Servlet interface {
	Serve(w http.ResponseWriter, r *http.Request) error
}

// ServletFunc adapts a function to [Servlet].
type ServletFunc func(w http.ResponseWriter, r *http.Request) error

func (f ServletFunc) Serve(w http.ResponseWriter, r *http.Request) error {
	return f(w, r)
}

// HandlerServlet adapts an [http.Handler] to [Servlet].
func HandlerServlet(h http.Handler) Servlet {
	return ServletFunc(func(w http.ResponseWriter, r *http.Request) error {
		h.ServeHTTP(w, r)
		return nil
	})
}
