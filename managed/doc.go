/*
Package managed provides a [filter.Pipeline] built from filters and servlets.

Filters run in the order they are registered, for requests whose path matches their pattern.
After the last filter, the request is routed to the first servlet whose pattern matches.
If no servlet matches, the request falls through to the rest of the chain configured outside
of the pipeline.

Filter patterns follow servlet URL patterns:

	/*          every request
	/api/*      /api and everything below it
	*.json      paths ending in .json
	/health     exactly /health
	/v?/items   a [path.Match] glob

Servlet patterns are chi route patterns, so servlets can read URL parameters with
[chi.URLParam].

Filters and servlets can take part in the pipeline lifecycle by implementing any of:

	Init(filter.ServerContext) error
	Init(filter.ServerContext)
	Init() error
	Destroy() error
	Destroy()
	Close() error

Example:

	p, err := managed.New(
		managed.WithFilter("/*", requestIDFilter),
		managed.WithFilter("/api/*", gunzipFilter),
		managed.WithServlet("/api/items/{id}", itemServlet),
	)
	if err != nil {
		return err
	}

	filter.DefaultPipelineRegistry().Install(p)
*/
package managed
