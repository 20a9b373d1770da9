package btree

import (
	"github.com/oba-index/buckettree/internal/bucket"
	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/cursorreg"
	"github.com/oba-index/buckettree/internal/journal"
	"github.com/oba-index/buckettree/internal/locator"
	"github.com/oba-index/buckettree/internal/logging"
	"github.com/oba-index/buckettree/internal/pager"
	"github.com/pkg/errors"
)

// IndexMeta is the small piece of durable state a Tree needs beyond the
// buckets themselves: which bucket is the current root, and the key
// pattern's comparison order. A real deployment persists this alongside
// the data file's own metadata; InMemoryMeta (meta.go) is enough for
// tests and for a single-process embedding that reconstructs its index
// set on every startup from a known key pattern.
type IndexMeta interface {
	Root() locator.Locator
	SetRoot(loc locator.Locator)
	Order() comparator.Ordering
	Name() string
}

// Tree is the tree-level operations layer: find, locate, split-insert,
// merge-delete, and the cursor/range-scan machinery built on top of one
// bucket.Bucket per node. It is the adaptation of the original engine's
// BtreeBucket member functions, generalized to operate through a Pager,
// a Journal, and a cursor Registry rather than direct memory-mapped
// pointers.
type Tree struct {
	pager   *pager.Pager
	journal *journal.Journal
	cursors *cursorreg.Registry
	meta    IndexMeta
	logger  logging.Logger
}

// New wires a Tree to its collaborators: the page allocator, the
// write-intent journal, the cursor registry, and the index's own root
// pointer and key pattern. Split/merge tracing is discarded until
// SetLogger installs a real sink.
func New(pg *pager.Pager, jr *journal.Journal, cr *cursorreg.Registry, meta IndexMeta) *Tree {
	return &Tree{pager: pg, journal: jr, cursors: cr, meta: meta, logger: logging.NewNop()}
}

// SetLogger installs the Logger split/merge tracing is reported through.
func (t *Tree) SetLogger(l logging.Logger) { t.logger = l }

func (t *Tree) order() comparator.Ordering { return t.meta.Order() }

// Root returns the tree's current root locator, or locator.Null for an
// empty tree.
func (t *Tree) Root() locator.Locator { return t.meta.Root() }

func (t *Tree) load(loc locator.Locator) (*bucket.Bucket, error) {
	page, err := t.pager.Read(loc)
	if err != nil {
		return nil, errors.Wrapf(err, "btree: load bucket %s", loc)
	}
	b, err := bucket.Unmarshal(page.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "btree: decode bucket %s", loc)
	}
	return b, nil
}

// save declares the bucket's current on-disk bytes as frame's before-image
// (when frame is non-nil) and writes b's new encoding in their place. A
// nil frame skips journaling entirely — used by the bulk builder, which
// only ever writes buckets nothing else can yet see.
func (t *Tree) save(frame *journal.Frame, loc locator.Locator, b *bucket.Bucket) error {
	page, err := t.pager.Read(loc)
	if err != nil {
		return err
	}
	if frame != nil {
		if err := frame.Writing(loc, page.Body); err != nil {
			return err
		}
	}
	page.Body = b.Marshal()
	return t.pager.Write(loc, page)
}

func (t *Tree) allocBucket(frame *journal.Frame) (locator.Locator, *bucket.Bucket, error) {
	loc, err := t.pager.Allocate()
	if err != nil {
		return locator.Null, nil, err
	}
	b := bucket.New()
	if err := t.save(frame, loc, b); err != nil {
		return locator.Null, nil, err
	}
	return loc, b, nil
}

func (t *Tree) freeBucket(loc locator.Locator) error {
	t.cursors.InformAboutToDeleteBucket(loc)
	return t.pager.Free(loc)
}

func (t *Tree) setParent(frame *journal.Frame, child, parent locator.Locator) error {
	if child.IsNull() {
		return nil
	}
	cb, err := t.load(child)
	if err != nil {
		return err
	}
	if locator.Equal(cb.Parent, parent) {
		return nil
	}
	cb.Parent = parent
	return t.save(frame, child, cb)
}

// reparentChildren fixes the Parent pointer of every child bucket b
// currently names, used after moving a run of slots into b from elsewhere
// (a split's right half, or a merge's absorption of a sibling).
func (t *Tree) reparentChildren(frame *journal.Frame, loc locator.Locator, b *bucket.Bucket) error {
	for i := 0; i <= b.N(); i++ {
		if err := t.setParent(frame, b.ChildForPos(i), loc); err != nil {
			return err
		}
	}
	return nil
}

// indexInParent finds the slot position in parent whose child pointer is
// child, mirroring the original engine's indexInParent — used by delete's
// merge/collapse path to know which separator key and child slot to fix
// up.
func (t *Tree) indexInParent(parent *bucket.Bucket, child locator.Locator) (int, error) {
	for i := 0; i <= parent.N(); i++ {
		if locator.Equal(parent.ChildForPos(i), child) {
			return i, nil
		}
	}
	return 0, assertFail(codeBadKeyPos, "child %s not found in parent", child)
}
