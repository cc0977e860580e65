/*
Package filterhttp installs a [filter.Gate] as standard HTTP middleware.

Example:

	package main

	import (
		"net/http"

		"github.com/go-chi/chi/v5"

		"github.com/sectrean/filter-kit"
		"github.com/sectrean/filter-kit/filterhttp"
	)

	func main() {
		gate, err := filter.NewGate()
		if err != nil {
			panic(err)
		}

		mw, err := filterhttp.NewMiddleware(gate)
		if err != nil {
			panic(err)
		}

		r := chi.NewRouter()
		r.Use(mw)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			// The innermost request wrapped by the filters above this handler.
			req := filter.MustRequest(r.Context())
			w.Write([]byte(req.URL.Path))
		})

		http.ListenAndServe(":8080", r)
	}
*/
package filterhttp
