package cursorreg

import (
	"sync"
	"sync/atomic"

	"github.com/oba-index/buckettree/internal/locator"
)

// Notifiable is implemented by a range cursor that needs to react when
// the bucket it is positioned in is about to be freed. The engine calls
// AboutToDeleteBucket synchronously from inside the delete path, before
// the bucket is handed back to the pager's free list.
type Notifiable interface {
	AboutToDeleteBucket(loc locator.Locator)
}

// ID identifies a registered cursor so it can unregister itself later.
type ID uint64

// Registry is the cursor registry external collaborator: TreeOps consults
// it via InformAboutToDeleteBucket on every bucket delete.
type Registry struct {
	mu      sync.RWMutex
	nextID  uint64
	cursors map[ID]Notifiable
	closed  atomic.Bool
}

// New creates an empty cursor registry.
func New() *Registry {
	return &Registry{cursors: make(map[ID]Notifiable)}
}

// Register adds a cursor to the registry, returning the ID it must pass
// to Unregister when it is done.
func (r *Registry) Register(c Notifiable) ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := ID(r.nextID)
	r.cursors[id] = c
	return id
}

// Unregister removes a cursor. It is a no-op if the cursor is already gone.
func (r *Registry) Unregister(id ID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cursors, id)
}

// InformAboutToDeleteBucket notifies every registered cursor that loc is
// about to be freed. Delivery is synchronous and unordered across
// cursors; a cursor that reacts by re-locating itself must not try to
// register or unregister from inside its own callback.
func (r *Registry) InformAboutToDeleteBucket(loc locator.Locator) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.cursors {
		c.AboutToDeleteBucket(loc)
	}
}

// Count returns the number of currently registered cursors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cursors)
}
