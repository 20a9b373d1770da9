package btree

import (
	"github.com/oba-index/buckettree/internal/bucket"
	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/journal"
	"github.com/oba-index/buckettree/internal/locator"
)

// Insert adds (rec, doc) to the tree, enforcing uniqueness first when
// unique is set. Reinserting an identical (key, record) pair is a no-op,
// matching the original engine's bt_insert idempotence.
func (t *Tree) Insert(rec locator.Locator, doc *comparator.Document, unique bool) error {
	key := comparator.EncodeKey(doc)
	if key.Size() > bucket.KeyMax {
		return ErrKeyTooLarge
	}

	frame, err := t.journal.Begin()
	if err != nil {
		return err
	}

	root := t.meta.Root()
	if root.IsNull() {
		loc, _, err := t.allocBucket(frame)
		if err != nil {
			frame.Abort()
			return err
		}
		t.meta.SetRoot(loc)
		root = loc
	}

	if unique {
		dup, err := t.wouldCreateDup(root, key, rec)
		if err != nil {
			frame.Abort()
			return err
		}
		if dup {
			frame.Abort()
			return &DuplicateKeyError{Index: t.meta.Name(), Key: key}
		}
	}

	if err := t.insert(frame, root, rec, key, locator.Null, locator.Null); err != nil {
		frame.Abort()
		return err
	}
	return frame.Commit()
}

// insert is the recursive core, adapted from BtreeBucket::_insert.
// lChild/rChild are null for an ordinary leaf-ward insert; they carry the
// two halves of a just-split child when insert is recursing upward to
// promote a separator key into loc's parent, in which case insertHere is
// entered directly rather than descending any further. An exact (key,
// rec) match that Delete had only marked unused is resurrected in place
// rather than reaching insertHere at all; a match still in use is a
// no-op.
func (t *Tree) insert(frame *journal.Frame, loc locator.Locator, rec locator.Locator, key comparator.Key, lChild, rChild locator.Locator) error {
	b, err := t.load(loc)
	if err != nil {
		return err
	}

	pos, exact := find(b, t.order(), key, rec)
	if exact {
		if !b.IsUsed(pos) {
			if !lChild.IsNull() {
				return assertFail(codeDelChildNonNull, "resurrect at %s pos %d: lChild must be null", loc, pos)
			}
			if !rChild.IsNull() {
				return assertFail(codeDelChildNonNull, "resurrect at %s pos %d: rChild must be null", loc, pos)
			}
			t.logger.WithFields("bucket", loc.String(), "pos", pos).Debug("resurrecting tombstoned slot")
			b.MarkUsed(pos)
			return t.save(frame, loc, b)
		}
		return nil
	}

	child := b.ChildForPos(pos)
	if child.IsNull() || !lChild.IsNull() {
		return t.insertHere(frame, loc, b, pos, rec, key, lChild, rChild)
	}
	return t.insert(frame, child, rec, key, locator.Null, locator.Null)
}

// insertHere performs the physical insert-or-split at loc, position
// keypos. When the bucket has room the new slot is spliced in with
// lChild/rChild wired to its left and right gaps; otherwise the bucket
// splits and the key at the split position is promoted to the parent.
func (t *Tree) insertHere(frame *journal.Frame, loc locator.Locator, b *bucket.Bucket, keypos int, rec locator.Locator, key comparator.Key, lChild, rChild locator.Locator) error {
	kp := keypos
	if b.BasicInsert(&kp, rec, key, t.order()) {
		b.SetChildForPos(kp, lChild)
		if kp+1 == b.N() {
			b.NextChild = rChild
		} else {
			b.SetChildForPos(kp+1, rChild)
		}
		if err := t.save(frame, loc, b); err != nil {
			return err
		}
		if err := t.setParent(frame, lChild, loc); err != nil {
			return err
		}
		return t.setParent(frame, rChild, loc)
	}
	return t.split(frame, loc, b, kp, rec, key, lChild, rChild)
}

// split divides an overfull bucket in two at b.SplitPos(keypos), inserts
// the pending key into whichever half it belongs on, and promotes the
// key at the split position to the parent (creating a new root if loc had
// none). SplitPos puts that key near the right end when the pending key
// is appended, and near the middle of the key bytes otherwise.
// Adapted from BtreeBucket::split.
func (t *Tree) split(frame *journal.Frame, loc locator.Locator, b *bucket.Bucket, keypos int, rec locator.Locator, key comparator.Key, lChild, rChild locator.Locator) error {
	n := b.N()
	if n <= 2 {
		return assertFail(codeSplitTooFewKeys, "bucket %s has too few keys to split", loc)
	}
	splitAt := b.SplitPos(keypos)

	rLoc, rBucket, err := t.allocBucket(frame)
	if err != nil {
		return err
	}
	t.logger.WithFields("bucket", loc.String(), "n", n, "split_at", splitAt).Debug("splitting bucket")
	for i := splitAt + 1; i < n; i++ {
		if !rBucket.PushBackSlot(b.RecordAt(i), b.KeyAt(i), t.order(), b.ChildForPos(i), b.IsUsed(i)) {
			return assertFail(codeMergeOverflow, "split right half overflowed while copying slot %d", i)
		}
	}
	rBucket.NextChild = b.NextChild
	rBucket.Parent = b.Parent
	if err := t.save(frame, rLoc, rBucket); err != nil {
		return err
	}
	if err := t.reparentChildren(frame, rLoc, rBucket); err != nil {
		return err
	}

	splitRec := b.RecordAt(splitAt)
	splitKey := append(comparator.Key(nil), b.KeyAt(splitAt)...)
	splitUsed := b.IsUsed(splitAt)
	leftNextChild := b.ChildForPos(splitAt)

	refPos := keypos
	b.TruncateTo(splitAt, t.order(), &refPos)
	b.NextChild = leftNextChild
	keypos = refPos

	if keypos <= splitAt {
		if err := t.insertHere(frame, loc, b, keypos, rec, key, lChild, rChild); err != nil {
			return err
		}
	} else {
		if err := t.save(frame, loc, b); err != nil {
			return err
		}
		kp := keypos - splitAt - 1
		if err := t.insertHere(frame, rLoc, rBucket, kp, rec, key, lChild, rChild); err != nil {
			return err
		}
	}

	t.logger.WithFields("left", loc.String(), "right", rLoc.String()).Debug("promoting split separator")
	if err := t.promote(frame, loc, rLoc, b.Parent, splitRec, splitKey); err != nil || splitUsed {
		return err
	}
	// promote always inserts as used; a tombstoned separator is cleared again.
	sepLoc, sepPos, found, err := t.locate(t.meta.Root(), splitKey, splitRec)
	if err != nil || !found {
		return assertFail(codeBadKeyPos, "promoted separator %s lost after split of %s: %v", splitRec, loc, err)
	}
	sep, err := t.load(sepLoc)
	if err != nil {
		return err
	}
	sep.MarkUnused(sepPos)
	return t.save(frame, sepLoc, sep)
}

// promote inserts the separator key produced by a split into parent,
// with loc and rLoc as its left and right children. A null parent means
// loc was the root, so a brand-new root bucket is allocated instead.
func (t *Tree) promote(frame *journal.Frame, loc, rLoc, parent locator.Locator, splitRec locator.Locator, splitKey comparator.Key) error {
	if parent.IsNull() {
		rootLoc, rootBucket, err := t.allocBucket(frame)
		if err != nil {
			return err
		}
		if !rootBucket.PushBack(splitRec, splitKey, t.order(), loc) {
			return assertFail(codeSplitTooFewKeys, "new root cannot even hold the promoted key")
		}
		rootBucket.NextChild = rLoc
		if err := t.save(frame, rootLoc, rootBucket); err != nil {
			return err
		}
		t.meta.SetRoot(rootLoc)
		if err := t.setParent(frame, loc, rootLoc); err != nil {
			return err
		}
		return t.setParent(frame, rLoc, rootLoc)
	}
	return t.insert(frame, parent, splitRec, splitKey, loc, rLoc)
}
