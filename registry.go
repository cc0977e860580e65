package filter

import (
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// DispatchID identifies one dispatch: a request entering the [Gate], or a call to [Continue].
type DispatchID uuid.UUID

func newDispatchID() DispatchID {
	return DispatchID(uuid.New())
}

func (id DispatchID) String() string {
	return uuid.UUID(id).String()
}

// Registry maps active dispatches to their [Stack].
//
// An entry exists from the start of a dispatch until it returns, panics included.
// A Registry is safe for concurrent use.
type Registry struct {
	stacks *xsync.MapOf[DispatchID, *Stack]
}

// NewRegistry creates an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{
		stacks: xsync.NewMapOf[DispatchID, *Stack](),
	}
}

// Set associates the dispatch with s.
func (r *Registry) Set(id DispatchID, s *Stack) {
	r.stacks.Store(id, s)
}

// Get returns the stack for the dispatch, if it is still active.
func (r *Registry) Get(id DispatchID) (*Stack, bool) {
	return r.stacks.Load(id)
}

// Clear removes the dispatch. Clearing an unknown or already cleared dispatch does nothing.
func (r *Registry) Clear(id DispatchID) {
	r.stacks.Delete(id)
}

// Len returns the number of active dispatches.
func (r *Registry) Len() int {
	return r.stacks.Size()
}
