// Package script holds the callback registry and the invocation queue that
// connects the core to an external script host. The core only enqueues;
// the host drains the queue between events.
package script

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Handle is an opaque reference to a registered callback.
type Handle uint32

// Registry maps callback names to handles. Names are assigned handles in
// registration order starting at 1.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Handle
	names  []string
}

// NewRegistry returns a registry pre-populated with names.
func NewRegistry(names ...string) *Registry {
	r := &Registry{byName: make(map[string]Handle)}
	for _, n := range names {
		r.Register(n)
	}
	return r
}

// Register returns the handle for name, creating it if needed.
func (r *Registry) Register(name string) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.byName[name]; ok {
		return h
	}
	r.names = append(r.names, name)
	h := Handle(len(r.names))
	r.byName[name] = h
	return h
}

// Lookup returns the handle registered for name.
func (r *Registry) Lookup(name string) (Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byName[name]
	return h, ok
}

// Name returns the callback name behind h.
func (r *Registry) Name(h Handle) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if h == 0 || int(h) > len(r.names) {
		return "", false
	}
	return r.names[h-1], true
}

// Names returns every registered name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := append([]string(nil), r.names...)
	sort.Strings(out)
	return out
}

// Invocation is one pending callback run.
type Invocation struct {
	ID        string    `json:"id"`
	Handle    Handle    `json:"handle"`
	Callback  string    `json:"callback"`
	Event     string    `json:"event"`
	Window    uint32    `json:"window,omitempty"`
	Workspace int       `json:"workspace,omitempty"`
	Queued    time.Time `json:"queued"`
}

func (i Invocation) String() string {
	return fmt.Sprintf("%s %s(%s) window=%d workspace=%d", i.ID, i.Callback, i.Event, i.Window, i.Workspace)
}

// Queue is a bounded FIFO of invocations. When full, the oldest entry is
// dropped and counted.
type Queue struct {
	mu      sync.Mutex
	items   []Invocation
	limit   int
	dropped uint64
	now     func() time.Time
}

// DefaultQueueLimit bounds a queue nobody drains.
const DefaultQueueLimit = 1024

// NewQueue creates a queue holding at most limit invocations (0 = default).
func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = DefaultQueueLimit
	}
	return &Queue{limit: limit, now: time.Now}
}

// Enqueue appends an invocation, assigning its ID and timestamp.
func (q *Queue) Enqueue(inv Invocation) Invocation {
	q.mu.Lock()
	defer q.mu.Unlock()
	inv.Queued = q.now()
	inv.ID = ulid.MustNew(ulid.Timestamp(inv.Queued), ulid.DefaultEntropy()).String()
	if len(q.items) >= q.limit {
		q.items = q.items[1:]
		q.dropped++
	}
	q.items = append(q.items, inv)
	return inv
}

// Drain removes and returns every pending invocation in FIFO order.
func (q *Queue) Drain() []Invocation {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Len returns the number of pending invocations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns how many invocations were discarded because the queue was full.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
