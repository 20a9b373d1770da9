package btree

import (
	"github.com/oba-index/buckettree/internal/bucket"
	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/journal"
	"github.com/oba-index/buckettree/internal/locator"
)

// Delete removes (rec, doc) from the tree, or returns ErrKeyNotFound if
// that exact pair is not indexed. Adapted from IndexDetails::unindex.
func (t *Tree) Delete(rec locator.Locator, doc *comparator.Document) error {
	key := comparator.EncodeKey(doc)
	if key.Size() > bucket.KeyMax {
		return ErrKeyTooLarge
	}

	root := t.meta.Root()
	if root.IsNull() {
		return ErrKeyNotFound
	}

	frame, err := t.journal.Begin()
	if err != nil {
		return err
	}

	loc, pos, found, err := t.locate(root, key, rec)
	if err != nil {
		frame.Abort()
		return err
	}
	if !found {
		frame.Abort()
		return ErrKeyNotFound
	}

	if err := t.delKeyAtPos(frame, loc, pos); err != nil {
		frame.Abort()
		return err
	}
	return frame.Commit()
}

// delKeyAtPos removes or retires the slot at pos in loc. A key whose left
// child is still live cannot be physically unlinked without disturbing
// that subtree, so it is marked unused instead and its bytes stay in
// place until a future Pack finds the hole droppable (once its left
// subtree is gone too). Only a childless slot is ever physically
// unlinked, and only a bucket left with no keys and no children of its
// own is ever freed outright. Adapted from BtreeBucket::delKeyAtPos.
func (t *Tree) delKeyAtPos(frame *journal.Frame, loc locator.Locator, pos int) error {
	b, err := t.load(loc)
	if err != nil {
		return err
	}

	left := b.ChildForPos(pos)

	if b.N() == 1 {
		if left.IsNull() && b.NextChild.IsNull() {
			if b.IsHead() {
				if err := b.DelKeyAtPos(pos, true); err != nil {
					return err
				}
				return t.save(frame, loc, b)
			}
			return t.deleteBucket(frame, loc, b)
		}
		b.MarkUnused(pos)
		return t.save(frame, loc, b)
	}

	if left.IsNull() {
		if err := b.DelKeyAtPos(pos, true); err != nil {
			return err
		}
		if err := t.save(frame, loc, b); err != nil {
			return err
		}
		return t.balanceWithNeighbors(frame, loc, b)
	}

	b.MarkUnused(pos)
	return t.save(frame, loc, b)
}

// deleteBucket frees loc outright: it has no keys and no children of its
// own, so its parent's pointer to it is nulled before the slot is
// released back to the pager. Adapted from BtreeBucket::delBucket.
func (t *Tree) deleteBucket(frame *journal.Frame, loc locator.Locator, b *bucket.Bucket) error {
	t.logger.WithFields("bucket", loc.String(), "parent", b.Parent.String()).Debug("freeing emptied bucket")
	parentBucket, err := t.load(b.Parent)
	if err != nil {
		return err
	}
	idx, err := t.indexInParent(parentBucket, loc)
	if err != nil {
		return err
	}
	parentBucket.SetChildForPos(idx, locator.Null)
	if err := t.save(frame, b.Parent, parentBucket); err != nil {
		return err
	}
	return t.freeBucket(loc)
}

// replaceWithNextChild splices loc's single remaining child up into loc's
// own place in the tree, freeing loc. This is the collapse that happens
// when an internal bucket's last key is deleted and only its nextChild
// remains.
func (t *Tree) replaceWithNextChild(frame *journal.Frame, loc locator.Locator, b *bucket.Bucket) error {
	child := b.NextChild
	if err := t.setParent(frame, child, b.Parent); err != nil {
		return err
	}
	if b.Parent.IsNull() {
		t.meta.SetRoot(child)
	} else {
		parentBucket, err := t.load(b.Parent)
		if err != nil {
			return err
		}
		idx, err := t.indexInParent(parentBucket, loc)
		if err != nil {
			return err
		}
		parentBucket.SetChildForPos(idx, child)
		if err := t.save(frame, b.Parent, parentBucket); err != nil {
			return err
		}
	}
	return t.freeBucket(loc)
}

// balanceWithNeighbors tries to merge an underfull, non-root bucket into
// a sibling once it has emptied out, mirroring
// BtreeBucket::balanceWithNeighbors. A bucket that still holds keys is
// left alone: this engine tolerates underfill rather than rebalancing on
// every delete.
func (t *Tree) balanceWithNeighbors(frame *journal.Frame, loc locator.Locator, b *bucket.Bucket) error {
	if b.IsHead() || b.N() > 0 {
		return nil
	}

	parentBucket, err := t.load(b.Parent)
	if err != nil {
		return err
	}
	idx, err := t.indexInParent(parentBucket, loc)
	if err != nil {
		return err
	}

	if idx < parentBucket.N() {
		if merged, err := t.tryMergeNeighbors(frame, b.Parent, parentBucket, idx); err != nil {
			return err
		} else if merged {
			return nil
		}
	}
	if idx > 0 {
		if _, err := t.tryMergeNeighbors(frame, b.Parent, parentBucket, idx-1); err != nil {
			return err
		}
	}
	return nil
}

// tryMergeNeighbors attempts to fold parent's child at leftIdx+1 into its
// child at leftIdx, pulling down the separator key at leftIdx. It declines
// (returning merged=false) when the combined contents would not fit in
// one bucket.
func (t *Tree) tryMergeNeighbors(frame *journal.Frame, parentLoc locator.Locator, parent *bucket.Bucket, leftIdx int) (bool, error) {
	leftLoc := parent.ChildForPos(leftIdx)
	rightLoc := parent.ChildForPos(leftIdx + 1)
	if leftLoc.IsNull() || rightLoc.IsNull() {
		return false, nil
	}

	left, err := t.load(leftLoc)
	if err != nil {
		return false, err
	}
	right, err := t.load(rightLoc)
	if err != nil {
		return false, err
	}

	sepRec := parent.RecordAt(leftIdx)
	sepKey := append(comparator.Key(nil), parent.KeyAt(leftIdx)...)

	combined := left.PackedDataSize(-1) + right.PackedDataSize(-1) + sepKey.Size()
	if combined > bucket.Capacity {
		return false, nil
	}
	return true, t.doMergeNeighbors(frame, parentLoc, parent, leftIdx, leftLoc, left, rightLoc, right, sepRec, sepKey)
}

// doMergeNeighbors folds right's entries (plus the separator key pulled
// down from parent) into left, fixes up the orphaned children's parent
// pointers, frees right, and removes the separator slot from parent —
// recursing into balanceWithNeighbors again if parent itself emptied out.
// Adapted from BtreeBucket::doMergeNeighbors.
func (t *Tree) doMergeNeighbors(frame *journal.Frame, parentLoc locator.Locator, parent *bucket.Bucket, leftIdx int, leftLoc locator.Locator, left *bucket.Bucket, rightLoc locator.Locator, right *bucket.Bucket, sepRec locator.Locator, sepKey comparator.Key) error {
	t.logger.WithFields("left", leftLoc.String(), "right", rightLoc.String(), "parent", parentLoc.String()).Debug("merging sibling buckets")
	if !left.PushBackSlot(sepRec, sepKey, t.order(), left.NextChild, parent.IsUsed(leftIdx)) {
		return assertFail(codeMergeOverflow, "merge could not push separator key into %s", leftLoc)
	}
	for i := 0; i < right.N(); i++ {
		if !left.PushBackSlot(right.RecordAt(i), right.KeyAt(i), t.order(), right.ChildForPos(i), right.IsUsed(i)) {
			return assertFail(codeMergeOverflow, "merge overflowed %s absorbing %s", leftLoc, rightLoc)
		}
	}
	left.NextChild = right.NextChild

	if err := t.save(frame, leftLoc, left); err != nil {
		return err
	}
	if err := t.reparentChildren(frame, leftLoc, left); err != nil {
		return err
	}

	parent.SetChildForPos(leftIdx+1, leftLoc)
	parent.SetChildForPos(leftIdx, locator.Null)
	if err := parent.DelKeyAtPos(leftIdx, true); err != nil {
		return err
	}
	if err := t.save(frame, parentLoc, parent); err != nil {
		return err
	}

	if err := t.freeBucket(rightLoc); err != nil {
		return err
	}

	if parent.N() == 0 {
		if !parent.NextChild.IsNull() {
			return t.replaceWithNextChild(frame, parentLoc, parent)
		}
		if parent.IsHead() {
			return nil
		}
	}
	return t.balanceWithNeighbors(frame, parentLoc, parent)
}
