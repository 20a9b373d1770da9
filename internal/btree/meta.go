package btree

import (
	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/locator"
)

// InMemoryMeta is a minimal IndexMeta: a root locator and key pattern
// held in process memory. It is enough for tests and for an embedding
// that rebuilds its index set from a known key pattern on every startup;
// a deployment that needs the root locator to survive a restart persists
// it itself (for example in the pager's file header) and wraps that
// storage in an IndexMeta implementation of its own.
type InMemoryMeta struct {
	name  string
	order comparator.Ordering
	root  locator.Locator
}

// NewInMemoryMeta builds an IndexMeta starting with an empty tree.
func NewInMemoryMeta(name string, order comparator.Ordering) *InMemoryMeta {
	return &InMemoryMeta{name: name, order: order, root: locator.Null}
}

func (m *InMemoryMeta) Root() locator.Locator       { return m.root }
func (m *InMemoryMeta) SetRoot(loc locator.Locator) { m.root = loc }
func (m *InMemoryMeta) Order() comparator.Ordering  { return m.order }
func (m *InMemoryMeta) Name() string                { return m.name }
