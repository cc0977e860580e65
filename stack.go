package filter

import (
	"net/http"
	"sync/atomic"

	"github.com/sectrean/filter-kit/internal/errors"
)

// Stack holds the [Context]s pushed on one call path of a dispatch, innermost last.
//
// Entries are immutable linked frames, so a Stack is safe for concurrent use. [Within] forks
// the stack of the caller, so wrappings pushed by one call path are never visible to another.
// Pushes and pops must be balanced; [Within] does this for you.
type Stack struct {
	top atomic.Pointer[frame]
}

type frame struct {
	ctx    Context
	parent *frame
	depth  int
}

// fork returns a new Stack that starts with the entries of s.
// Pushes and pops on either stack do not affect the other.
func (s *Stack) fork() *Stack {
	f := &Stack{}
	f.top.Store(s.top.Load())
	return f
}

// Push adds c to the top of the stack.
func (s *Stack) Push(c Context) {
	for {
		top := s.top.Load()

		next := &frame{ctx: c, parent: top, depth: 1}
		if top != nil {
			next.depth = top.depth + 1
		}

		if s.top.CompareAndSwap(top, next) {
			return
		}
	}
}

// PushPair creates a [Context] from r and w and pushes it.
//
// Returns [ErrInvalidContext] if either is nil. Nothing is pushed in that case.
func (s *Stack) PushPair(r *http.Request, w http.ResponseWriter) error {
	c, err := NewContext(r, w)
	if err != nil {
		return errors.Wrap(err, "filter.Stack.PushPair")
	}

	s.Push(c)
	return nil
}

// Pop removes and returns the top [Context].
//
// Pop panics with an error wrapping [ErrStackUnderflow] if the stack is empty.
func (s *Stack) Pop() Context {
	for {
		top := s.top.Load()
		if top == nil {
			panic(errors.Wrap(ErrStackUnderflow, "filter.Stack.Pop"))
		}

		if s.top.CompareAndSwap(top, top.parent) {
			return top.ctx
		}
	}
}

// Current returns the top [Context].
//
// Returns [ErrOutOfScope] if the stack is empty.
func (s *Stack) Current() (Context, error) {
	top := s.top.Load()
	if top == nil {
		return Context{}, errors.Wrap(ErrOutOfScope, "filter.Stack.Current: stack is empty")
	}

	return top.ctx, nil
}

// Len returns the number of contexts on the stack.
func (s *Stack) Len() int {
	if top := s.top.Load(); top != nil {
		return top.depth
	}
	return 0
}
