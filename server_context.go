package filter

import (
	"strconv"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"
)

// ServerContext describes the server hosting the [Gate].
type ServerContext interface {
	// Name identifies the server.
	Name() string

	// Attribute returns a server-wide attribute.
	Attribute(name string) (any, bool)
}

// NewServerContext returns a [ServerContext] with a fixed set of attributes.
func NewServerContext(name string, attrs map[string]any) ServerContext {
	copied := make(map[string]any, len(attrs))
	for k, v := range attrs {
		copied[k] = v
	}

	return &serverContext{name: name, attrs: copied}
}

type serverContext struct {
	attrs map[string]any
	name  string
}

func (c *serverContext) Name() string {
	return c.name
}

func (c *serverContext) Attribute(name string) (any, bool) {
	v, ok := c.attrs[name]
	return v, ok
}

// HostHandle refers to a [ServerContext] registered with a [Host].
// Holding a handle does not keep the server context alive.
type HostHandle uint64

func (h HostHandle) String() string {
	return "host#" + strconv.FormatUint(uint64(h), 10)
}

// Host owns the server contexts of a hosting server.
//
// A [Gate] only keeps a [HostHandle] and looks the context up when asked for it,
// so unregistering a context from the Host releases it.
type Host struct {
	contexts *xsync.MapOf[HostHandle, ServerContext]
	next     atomic.Uint64
}

// NewHost creates an empty [Host].
func NewHost() *Host {
	return &Host{
		contexts: xsync.NewMapOf[HostHandle, ServerContext](),
	}
}

// Register adds sc and returns its handle.
func (h *Host) Register(sc ServerContext) HostHandle {
	handle := HostHandle(h.next.Add(1))
	h.contexts.Store(handle, sc)
	return handle
}

// Lookup returns the server context for the handle.
func (h *Host) Lookup(handle HostHandle) (ServerContext, bool) {
	return h.contexts.Load(handle)
}

// Unregister removes the server context for the handle.
func (h *Host) Unregister(handle HostHandle) {
	h.contexts.Delete(handle)
}
