package filter

import (
	"context"
	"net/http"

	"github.com/sectrean/filter-kit/internal/errors"
)

type bindingContextKey struct{}

// binding ties a call path to its dispatch and to the stack of that call path.
// A zero binding means "detached".
type binding struct {
	reg   *Registry
	stack *Stack
	id    DispatchID
}

func bind(ctx context.Context, reg *Registry, id DispatchID, s *Stack) context.Context {
	return context.WithValue(ctx, bindingContextKey{}, binding{reg: reg, id: id, stack: s})
}

func bindingFrom(ctx context.Context) (binding, bool) {
	b, ok := ctx.Value(bindingContextKey{}).(binding)
	if !ok || b.reg == nil {
		return binding{}, false
	}
	return b, true
}

// DispatchIDFrom returns the id of the dispatch the context was created for.
// The dispatch may have already finished.
func DispatchIDFrom(ctx context.Context) (DispatchID, bool) {
	b, ok := bindingFrom(ctx)
	return b.id, ok
}

// StackFrom returns the [Stack] of the call path the context belongs to.
//
// Returns false when the context is not inside a dispatch, or the dispatch has finished.
func StackFrom(ctx context.Context) (*Stack, bool) {
	b, ok := bindingFrom(ctx)
	if !ok {
		return nil, false
	}

	if _, active := b.reg.Get(b.id); !active {
		return nil, false
	}
	return b.stack, true
}

// Detach returns a copy of ctx that does not belong to any dispatch.
//
// Use it when handing work to another goroutine that resumes the request with [Continue].
func Detach(ctx context.Context) context.Context {
	if _, ok := bindingFrom(ctx); !ok {
		return ctx
	}
	return context.WithValue(ctx, bindingContextKey{}, binding{})
}

// CurrentContext returns the innermost [Context] on the call path the context belongs to.
//
// Returns [ErrOutOfScope] outside of a dispatch.
func CurrentContext(ctx context.Context) (Context, error) {
	s, ok := StackFrom(ctx)
	if !ok {
		return Context{}, errors.Wrap(ErrOutOfScope, "filter.CurrentContext")
	}

	return s.Current()
}

// Request returns the innermost request on the current call path.
//
// Filters above the caller may have wrapped the request with [Within];
// Request returns the most deeply nested wrapping still active on this call path.
func Request(ctx context.Context) (*http.Request, error) {
	c, err := CurrentContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "filter.Request")
	}
	return c.Request(), nil
}

// Response returns the innermost response on the current call path.
func Response(ctx context.Context) (http.ResponseWriter, error) {
	c, err := CurrentContext(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "filter.Response")
	}
	return c.Response(), nil
}

// MustRequest is like [Request] but panics if called outside of a dispatch.
func MustRequest(ctx context.Context) *http.Request {
	r, err := Request(ctx)
	if err != nil {
		panic(err)
	}
	return r
}

// MustResponse is like [Response] but panics if called outside of a dispatch.
func MustResponse(ctx context.Context) http.ResponseWriter {
	w, err := Response(ctx)
	if err != nil {
		panic(err)
	}
	return w
}

// Within pushes the wrapped pair r and w for the duration of fn.
//
// fn receives r bound to the new entry. Code reached through that request, or through
// contexts derived from it, sees r and w from [Request] and [Response]. Callers above
// Within, and goroutines started with their contexts, keep seeing what they saw before.
// The pair is popped when fn returns or panics. r must carry the context of the current
// dispatch, so derive it from the request the filter was called with.
//
// Example:
//
//	func (f *gunzipFilter) DoFilter(w http.ResponseWriter, r *http.Request, chain managed.Chain) error {
//		r2 := r.Clone(r.Context())
//		r2.Body = newGunzipBody(r.Body)
//
//		return filter.Within(r2, w, func(r2 *http.Request) error {
//			return chain.DoFilter(w, r2)
//		})
//	}
func Within(r *http.Request, w http.ResponseWriter, fn func(r *http.Request) error) error {
	if r == nil || w == nil {
		return errors.Wrap(ErrInvalidContext, "filter.Within")
	}

	b, ok := bindingFrom(r.Context())
	if !ok {
		return errors.Wrap(ErrOutOfScope, "filter.Within")
	}
	if _, active := b.reg.Get(b.id); !active {
		return errors.Wrap(ErrOutOfScope, "filter.Within")
	}

	s := b.stack.fork()
	r = r.WithContext(bind(r.Context(), b.reg, b.id, s))

	if err := s.PushPair(r, w); err != nil {
		return errors.Wrap(err, "filter.Within")
	}
	defer s.Pop()

	return fn(r)
}
