package filter

import (
	"context"
	"net/http"

	"github.com/sectrean/filter-kit/internal/errors"
)

// Continue resumes a request on the calling goroutine and runs fn inside a new dispatch.
//
// It is meant for work handed off from a dispatch to another goroutine. ctx must not belong
// to an active dispatch; pass it through [Detach] first. Otherwise Continue returns an error
// wrapping [ErrAlreadyScoped] without changing any state.
//
// fn receives a context bound to the new dispatch, so [Request] and [Response] return r and w.
// The error from fn is returned unchanged. The dispatch is cleared when fn returns or panics.
func Continue[T any](
	ctx context.Context,
	g *Gate,
	r *http.Request,
	w http.ResponseWriter,
	fn func(context.Context) (T, error),
) (T, error) {
	var zero T

	if g == nil {
		return zero, errors.New("filter.Continue: g is nil")
	}
	if _, ok := StackFrom(ctx); ok {
		return zero, errors.Wrap(ErrAlreadyScoped, "filter.Continue")
	}
	if r == nil || w == nil {
		return zero, errors.Wrap(ErrInvalidContext, "filter.Continue")
	}

	r, id, err := g.open(ctx, r, w)
	if err != nil {
		return zero, errors.Wrap(err, "filter.Continue")
	}
	defer g.registry.Clear(id)

	return fn(r.Context())
}
