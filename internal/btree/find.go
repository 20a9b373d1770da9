package btree

import (
	"github.com/oba-index/buckettree/internal/bucket"
	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/locator"
)

// find binary-searches b for (key, rec) as a composite ordering key —
// ties on key broken by ascending recordLoc, matching invariant 1 — and
// returns the position the pair would be inserted at (the first slot not
// less than (key, rec)) plus whether that position is an exact match.
// The single-node search at the core of both locate and exists, adapted
// from the original engine's BtreeBucket::find, whose bisection folds
// recordLoc.compare into the same loop rather than resolving key ties
// with a separate linear scan afterward.
func find(b *bucket.Bucket, order comparator.Ordering, key comparator.Key, rec locator.Locator) (pos int, exact bool) {
	lo, hi := 0, b.N()
	for lo < hi {
		mid := (lo + hi) / 2
		cmp := comparator.WoCompare(b.KeyAt(mid), key, order)
		if cmp == 0 {
			cmp = locator.Compare(b.RecordAt(mid), rec)
		}
		if cmp < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	exact = lo < b.N() &&
		comparator.WoCompare(b.KeyAt(lo), key, order) == 0 &&
		locator.Equal(b.RecordAt(lo), rec)
	return lo, exact
}

// lowerBound is find without the record match: the first slot not less
// than key.
func lowerBound(b *bucket.Bucket, order comparator.Ordering, key comparator.Key) int {
	lo, hi := 0, b.N()
	for lo < hi {
		mid := (lo + hi) / 2
		if comparator.WoCompare(b.KeyAt(mid), key, order) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// locate descends from root looking for the exact (key, rec) pair,
// returning the bucket and position it lives at. Adapted from
// BtreeBucket::locate.
func (t *Tree) locate(root locator.Locator, key comparator.Key, rec locator.Locator) (locator.Locator, int, bool, error) {
	loc := root
	for !loc.IsNull() {
		b, err := t.load(loc)
		if err != nil {
			return locator.Null, 0, false, err
		}
		pos, exact := find(b, t.order(), key, rec)
		if exact {
			return loc, pos, true, nil
		}
		child := b.ChildForPos(pos)
		if child.IsNull() {
			return loc, pos, false, nil
		}
		loc = child
	}
	return locator.Null, 0, false, nil
}

// Exists reports whether any live, used slot in the tree carries exactly
// key, regardless of which record it points at — the check a unique index
// runs before allowing an insert through.
func (t *Tree) Exists(doc *comparator.Document) (bool, error) {
	key := comparator.EncodeKey(doc)
	loc := t.meta.Root()
	for !loc.IsNull() {
		b, err := t.load(loc)
		if err != nil {
			return false, err
		}
		pos := lowerBound(b, t.order(), key)
		for i := pos; i < b.N() && comparator.WoCompare(b.KeyAt(i), key, t.order()) == 0; i++ {
			if b.IsUsed(i) {
				return true, nil
			}
		}
		loc = b.ChildForPos(pos)
	}
	return false, nil
}

// wouldCreateDup reports whether key already maps to some record other
// than rec anywhere under root — the original engine's wouldCreateDup,
// consulted by insert before a unique index accepts a new entry.
func (t *Tree) wouldCreateDup(root locator.Locator, key comparator.Key, rec locator.Locator) (bool, error) {
	loc := root
	for !loc.IsNull() {
		b, err := t.load(loc)
		if err != nil {
			return false, err
		}
		pos := lowerBound(b, t.order(), key)
		for i := pos; i < b.N() && comparator.WoCompare(b.KeyAt(i), key, t.order()) == 0; i++ {
			if b.IsUsed(i) && !locator.Equal(b.RecordAt(i), rec) {
				return true, nil
			}
		}
		loc = b.ChildForPos(pos)
	}
	return false, nil
}

// FindSingle returns the record locator for the first slot matching doc's
// encoded key, or ErrKeyNotFound — the equality-lookup entrypoint a
// unique index exposes for point queries.
func (t *Tree) FindSingle(doc *comparator.Document) (locator.Locator, error) {
	key := comparator.EncodeKey(doc)
	loc := t.meta.Root()
	for !loc.IsNull() {
		b, err := t.load(loc)
		if err != nil {
			return locator.Null, err
		}
		pos := lowerBound(b, t.order(), key)
		if pos < b.N() && comparator.WoCompare(b.KeyAt(pos), key, t.order()) == 0 {
			if b.IsUsed(pos) {
				return b.RecordAt(pos), nil
			}
			return locator.Null, ErrKeyNotFound
		}
		loc = b.ChildForPos(pos)
	}
	return locator.Null, ErrKeyNotFound
}
