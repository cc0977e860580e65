package testtypes

import (
	"sync"

	"github.com/sectrean/filter-kit"
)

// Journal records lifecycle events in order.
type Journal struct {
	mu      sync.Mutex
	entries []string
}

// Add records an event.
func (j *Journal) Add(entry string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, entry)
}

// Entries returns the events recorded so far.
func (j *Journal) Entries() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.entries...)
}

// Lifecycle implements Init(filter.ServerContext) error and Destroy() error and writes
// both to a [Journal].
type Lifecycle struct {
	Journal    *Journal
	InitErr    error
	DestroyErr error
	Server     filter.ServerContext
	Name       string
}

func (l *Lifecycle) Init(sc filter.ServerContext) error {
	l.Server = sc
	l.Journal.Add("init " + l.Name)
	return l.InitErr
}

func (l *Lifecycle) Destroy() error {
	l.Journal.Add("destroy " + l.Name)
	return l.DestroyErr
}
