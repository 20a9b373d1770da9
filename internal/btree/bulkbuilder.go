package btree

import (
	"github.com/oba-index/buckettree/internal/bucket"
	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/locator"
	"github.com/pkg/errors"
)

// BulkBuilder constructs a tree bottom-up from keys delivered in
// non-decreasing order, avoiding the split-heavy cost of one Insert per
// key. Adapted from the original engine's BtreeBuilder: each level is a
// chain of PushBack-filled buckets linked through NextChild as a
// temporary "next sibling" pointer, and buildNextLevel folds that chain
// into the level above by PopBack-ing each bucket's last key out as the
// separator promoted upward — the same trick BasicInsert's bulk-load path
// (rather than repeated splits) relies on.
type BulkBuilder struct {
	tree      *Tree
	order     comparator.Ordering
	first     locator.Locator
	last      locator.Locator
	allocated []locator.Locator
	numAdded  int
	lastKey   comparator.Key
	haveLast  bool
	committed bool
}

// NewBulkBuilder starts a builder for this tree. Keys must be added via
// AddKey in ascending key order; violating that order is a caller bug the
// builder reports rather than silently reordering.
func (t *Tree) NewBulkBuilder() (*BulkBuilder, error) {
	loc, _, err := t.allocBucket(nil)
	if err != nil {
		return nil, err
	}
	return &BulkBuilder{
		tree:      t,
		order:     t.order(),
		first:     loc,
		last:      loc,
		allocated: []locator.Locator{loc},
	}, nil
}

func (bb *BulkBuilder) alloc() (locator.Locator, error) {
	loc, _, err := bb.tree.allocBucket(nil)
	if err != nil {
		return locator.Null, err
	}
	bb.allocated = append(bb.allocated, loc)
	return loc, nil
}

// AddKey appends the next (rec, doc) pair to the level under
// construction, starting a fresh bucket in the chain when the current one
// is full.
func (bb *BulkBuilder) AddKey(rec locator.Locator, doc *comparator.Document) error {
	if bb.committed {
		return errors.New("btree: bulk builder already finished")
	}
	key := comparator.EncodeKey(doc)
	if key.Size() > bucket.KeyMax {
		return ErrKeyTooLarge
	}
	if bb.haveLast && comparator.WoCompare(bb.lastKey, key, bb.order) > 0 {
		return assertFail(codeBuilderOrder, "bulk builder received keys out of order")
	}
	bb.lastKey, bb.haveLast = append(comparator.Key(nil), key...), true
	if bb.numAdded > 0 && bb.numAdded%100000 == 0 {
		bb.tree.logger.Info("bulk load progress", "keys_added", bb.numAdded, "buckets_allocated", len(bb.allocated))
	}

	lastBucket, err := bb.tree.load(bb.last)
	if err != nil {
		return err
	}

	if lastBucket.PushBack(rec, key, bb.order, locator.Null) {
		bb.numAdded++
		return bb.tree.save(nil, bb.last, lastBucket)
	}

	newLoc, err := bb.alloc()
	if err != nil {
		return err
	}
	newBucket, err := bb.tree.load(newLoc)
	if err != nil {
		return err
	}
	if !newBucket.PushBack(rec, key, bb.order, locator.Null) {
		return assertFail(codeBuilderOrder, "single key too large even for an empty bucket")
	}
	lastBucket.NextChild = newLoc
	if err := bb.tree.save(nil, bb.last, lastBucket); err != nil {
		return err
	}
	if err := bb.tree.save(nil, newLoc, newBucket); err != nil {
		return err
	}
	bb.last = newLoc
	bb.numAdded++
	return nil
}

// buildNextLevel folds the chain starting at firstInLevel into a new
// parent level, promoting each bucket's last key as it goes and returning
// the first and last bucket of the level built.
func (bb *BulkBuilder) buildNextLevel(firstInLevel locator.Locator) (locator.Locator, locator.Locator, error) {
	parentFirst, err := bb.alloc()
	if err != nil {
		return locator.Null, locator.Null, err
	}
	parentBucket, err := bb.tree.load(parentFirst)
	if err != nil {
		return locator.Null, locator.Null, err
	}
	parentLast := parentFirst

	cur := firstInLevel
	for {
		curBucket, err := bb.tree.load(cur)
		if err != nil {
			return locator.Null, locator.Null, err
		}
		next := curBucket.NextChild

		if next.IsNull() {
			parentBucket.NextChild = cur
			if err := bb.tree.save(nil, parentLast, parentBucket); err != nil {
				return locator.Null, locator.Null, err
			}
			if err := bb.tree.setParent(nil, cur, parentLast); err != nil {
				return locator.Null, locator.Null, err
			}
			break
		}

		curBucket.NextChild = locator.Null
		if err := bb.tree.save(nil, cur, curBucket); err != nil {
			return locator.Null, locator.Null, err
		}
		rec, key, err := curBucket.PopBack()
		if err != nil {
			return locator.Null, locator.Null, err
		}

		// If popping the separator emptied cur, it was only ever a
		// wrapper around that one key's left child: discard it and wire
		// the parent straight to the real subtree (curBucket.NextChild,
		// left behind by PopBack) instead of to the now-empty page.
		childLoc := cur
		if curBucket.N() == 0 {
			childLoc = curBucket.NextChild
			if err := bb.tree.freeBucket(cur); err != nil {
				return locator.Null, locator.Null, err
			}
		} else if err := bb.tree.save(nil, cur, curBucket); err != nil {
			return locator.Null, locator.Null, err
		}
		if err := bb.tree.setParent(nil, childLoc, parentLast); err != nil {
			return locator.Null, locator.Null, err
		}

		if !parentBucket.PushBack(rec, key, bb.order, childLoc) {
			newParentLoc, err := bb.alloc()
			if err != nil {
				return locator.Null, locator.Null, err
			}
			newParentBucket, err := bb.tree.load(newParentLoc)
			if err != nil {
				return locator.Null, locator.Null, err
			}
			if !newParentBucket.PushBack(rec, key, bb.order, childLoc) {
				return locator.Null, locator.Null, assertFail(codeBuilderOrder, "promoted key too large for an empty parent bucket")
			}
			parentBucket.NextChild = newParentLoc
			if err := bb.tree.save(nil, parentLast, parentBucket); err != nil {
				return locator.Null, locator.Null, err
			}
			parentLast, parentBucket = newParentLoc, newParentBucket
		} else if err := bb.tree.save(nil, parentLast, parentBucket); err != nil {
			return locator.Null, locator.Null, err
		}

		cur = next
	}

	return parentFirst, parentLast, nil
}

// Commit folds the built levels up to a single root bucket and installs
// it as the tree's root. It is an error to call AddKey afterward.
func (bb *BulkBuilder) Commit() error {
	if bb.committed {
		return errors.New("btree: bulk builder already finished")
	}
	bb.committed = true

	if bb.numAdded == 0 {
		bb.tree.meta.SetRoot(locator.Null)
		return nil
	}

	first, last := bb.first, bb.last
	levels := 0
	for first != last {
		nextFirst, nextLast, err := bb.buildNextLevel(first)
		if err != nil {
			return err
		}
		first, last = nextFirst, nextLast
		levels++
	}

	bb.tree.logger.Info("bulk load committed", "keys_added", bb.numAdded, "buckets_allocated", len(bb.allocated), "levels_folded", levels)
	bb.tree.meta.SetRoot(first)
	return bb.tree.setParent(nil, first, locator.Null)
}

// Drop releases every bucket the builder allocated without installing
// them as the tree's root, used to unwind an abandoned bulk load.
func (bb *BulkBuilder) Drop() error {
	if bb.committed {
		return nil
	}
	bb.committed = true
	for _, loc := range bb.allocated {
		if err := bb.tree.freeBucket(loc); err != nil {
			return err
		}
	}
	return nil
}
