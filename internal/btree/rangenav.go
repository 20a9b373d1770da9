package btree

import (
	"github.com/oba-index/buckettree/internal/bucket"
	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/cursorreg"
	"github.com/oba-index/buckettree/internal/locator"
	"github.com/pkg/errors"
)

// RangeNavigator walks a tree's entries in key order starting from a seek
// point, the generalization of the original engine's BtreeCursor. It
// registers itself with the cursor registry so a concurrent delete that
// frees the bucket it is positioned in can mark the scan exhausted
// instead of leaving it to read freed data.
type RangeNavigator struct {
	tree      *Tree
	direction int
	loc       locator.Locator
	pos       int
	started   bool
	done      bool
	cursorID  cursorreg.ID
}

// RangeBound is a compound-key scan endpoint: the composite key is split
// at KeyBeginLen fields into an exact-match prefix (KeyBegin) and a
// trailing span. AfterKey ("rSup" in the original) collapses the
// trailing span to +infinity for a forward scan or -infinity for a
// backward one, regardless of KeyEnd. Otherwise KeyEnd[i]/
// KeyEndInclusive[i] bound trailing field KeyBeginLen+i, inclusively or
// exclusively per position. Adapted from the original engine's
// (keyBegin, keyBeginLen, afterKey, keyEnd, keyEndInclusive) quintuple
// consumed by customFind/customLocate/advanceTo.
type RangeBound struct {
	KeyBegin        *comparator.Document
	KeyBeginLen     int
	AfterKey        bool
	KeyEnd          []comparator.Value
	KeyEndInclusive []bool
}

// bestParentPos is the ancestor separator a downward custom-locate descent
// last passed through while still satisfying the bound, so a subtree that
// turns out to hold nothing satisfying the bound can snap back to it
// instead of reporting the scan exhausted.
type bestParentPos struct {
	loc locator.Locator
	pos int
}

// NewRangeNavigator creates a navigator scanning forward (direction >= 0)
// or backward (direction < 0) and registers it against the tree's cursor
// registry.
func (t *Tree) NewRangeNavigator(direction int) *RangeNavigator {
	if direction >= 0 {
		direction = 1
	} else {
		direction = -1
	}
	rn := &RangeNavigator{tree: t, direction: direction}
	rn.cursorID = t.cursors.Register(rn)
	return rn
}

// Close unregisters the navigator. Callers must call it once the scan is
// no longer needed.
func (rn *RangeNavigator) Close() {
	rn.tree.cursors.Unregister(rn.cursorID)
}

// AboutToDeleteBucket implements cursorreg.Notifiable.
func (rn *RangeNavigator) AboutToDeleteBucket(loc locator.Locator) {
	if rn.started && !rn.done && locator.Equal(rn.loc, loc) {
		rn.done = true
	}
}

// AdvanceTo seeks the navigator to the first entry at-or-after afterKey
// (forward navigators) or at-or-before it (backward navigators).
// inclusive controls whether an exact match on afterKey is itself
// returned or skipped past. A single-key convenience over SeekRange: the
// whole of afterKey is an exact-match prefix, with no trailing span.
func (rn *RangeNavigator) AdvanceTo(afterKey *comparator.Document, inclusive bool) (bool, error) {
	ok, err := rn.SeekRange(RangeBound{KeyBegin: afterKey, KeyBeginLen: rn.tree.order().NumFields()})
	if err != nil || !ok || inclusive {
		return ok, err
	}
	b, err := rn.tree.load(rn.loc)
	if err != nil {
		return false, err
	}
	if comparator.WoCompare(b.KeyAt(rn.pos), comparator.EncodeKey(afterKey), rn.tree.order()) == 0 {
		return rn.Next()
	}
	return true, nil
}

// SeekRange seeks the navigator to the least (forward) or greatest
// (backward) entry satisfying bound. A navigator already positioned
// refines from there by climbing ancestors until one crosses the bound,
// the same way a multi-interval scan advances from one range to the
// next; a navigator not yet started descends fresh from the root.
// Adapted from the original engine's advanceTo.
func (rn *RangeNavigator) SeekRange(bound RangeBound) (bool, error) {
	root := rn.tree.meta.Root()
	if root.IsNull() {
		rn.done = true
		return false, nil
	}

	var loc locator.Locator
	var pos int
	var err error
	if rn.started && !rn.done {
		loc, pos, err = rn.advanceTo(rn.loc, rn.pos, bound)
	} else {
		loc, pos, err = rn.customLocate(root, bound, bestParentPos{})
	}
	if err != nil {
		return false, err
	}
	if loc.IsNull() {
		rn.done = true
		return false, nil
	}
	rn.loc, rn.pos, rn.started, rn.done = loc, pos, true, false

	// customLocate has no notion of the used bit; if it landed on a
	// tombstone, step forward to the next live entry the same way Next
	// would, so callers never observe a deleted key.
	b, err := rn.tree.load(rn.loc)
	if err != nil {
		return false, err
	}
	if !b.IsUsed(rn.pos) {
		return rn.Next()
	}
	return true, nil
}

// customCompare mirrors BtreeBucket::customBSONCmp: it compares doc
// against bound's exact-match prefix field by field, then resolves the
// trailing fields per AfterKey/KeyEnd/KeyEndInclusive. The result is not
// ordinary key order — it reports whether doc lies before, at, or past
// the bound in the scan direction, so an ambiguous trailing field
// (AfterKey's infinity, or a KeyEnd position excluded by
// KeyEndInclusive=false) deliberately resolves to "-direction": doc has
// not yet reached the bound a forward scan is closing in on (or has
// already passed the one a backward scan is closing in on).
func customCompare(doc *comparator.Document, bound RangeBound, order comparator.Ordering, direction int) int {
	for i := 0; i < bound.KeyBeginLen; i++ {
		x := comparator.WoCompareValue(doc.Get(i), bound.KeyBegin.Get(i), false)
		if order.Descending(i) {
			x = -x
		}
		if x != 0 {
			return x
		}
	}
	if bound.AfterKey {
		return -direction
	}
	for j := 0; j < len(bound.KeyEnd); j++ {
		i := bound.KeyBeginLen + j
		x := comparator.WoCompareValue(doc.Get(i), bound.KeyEnd[j], false)
		if order.Descending(i) {
			x = -x
		}
		if x != 0 {
			return x
		}
		if j >= len(bound.KeyEndInclusive) || !bound.KeyEndInclusive[j] {
			return -direction
		}
	}
	return 0
}

func decodeKeyAt(b *bucket.Bucket, pos int) (*comparator.Document, error) {
	doc, err := comparator.DecodeKey(b.KeyAt(pos))
	if err != nil {
		return nil, errors.Wrap(err, "btree: decode key during range seek")
	}
	return doc, nil
}

// customFind binary-searches the open interval (l, h) of b's slots —
// invariant l+1 < h going in — for the boundary between slots that fail
// and slots that satisfy bound in the scan direction, then descends into
// the single child between the two survivors. It reports false (no
// further descent) with loc/keyOfs left at the terminal position once
// l+1 == h and that child is null; otherwise it descends, records the
// ancestor slot in best, and reports true so the caller reloads the new
// bucket and keeps searching. Adapted from BtreeBucket::customFind.
func customFind(b *bucket.Bucket, l, h int, loc *locator.Locator, keyOfs *int, best *bestParentPos, bound RangeBound, order comparator.Ordering, direction int) (bool, error) {
	for {
		if l+1 == h {
			pos := h
			if direction < 0 {
				pos = l
			}
			*keyOfs = pos
			next := b.ChildForPos(h)
			if next.IsNull() {
				return false, nil
			}
			*best = bestParentPos{loc: *loc, pos: pos}
			*loc = next
			return true, nil
		}
		m := l + (h-l)/2
		doc, err := decodeKeyAt(b, m)
		if err != nil {
			return false, err
		}
		switch cmp := customCompare(doc, bound, order, direction); {
		case cmp < 0:
			l = m
		case cmp > 0:
			h = m
		default:
			if direction < 0 {
				l = m
			} else {
				h = m
			}
		}
	}
}

// customLocate descends from loc looking for the least (forward) or
// greatest (backward) entry satisfying bound, tracking best as the last
// ancestor slot known to satisfy it so a subtree that runs dry can snap
// back to it. Adapted from BtreeBucket::customLocate.
func (rn *RangeNavigator) customLocate(loc locator.Locator, bound RangeBound, best bestParentPos) (locator.Locator, int, error) {
	order := rn.tree.order()
	direction := rn.direction
	for {
		b, err := rn.tree.load(loc)
		if err != nil {
			return locator.Null, 0, err
		}
		if b.N() == 0 {
			return locator.Null, 0, nil
		}
		h := b.N() - 1

		var firstDoc *comparator.Document
		if direction > 0 {
			firstDoc, err = decodeKeyAt(b, 0)
		} else {
			firstDoc, err = decodeKeyAt(b, h)
		}
		if err != nil {
			return locator.Null, 0, err
		}
		var firstCheck bool
		if direction > 0 {
			firstCheck = customCompare(firstDoc, bound, order, direction) >= 0
		} else {
			firstCheck = customCompare(firstDoc, bound, order, direction) <= 0
		}
		if firstCheck {
			var next locator.Locator
			keyOfs := 0
			if direction > 0 {
				next = b.ChildForPos(0)
			} else {
				next = b.NextChild
				keyOfs = h
			}
			if next.IsNull() {
				return loc, keyOfs, nil
			}
			best = bestParentPos{loc: loc, pos: keyOfs}
			loc = next
			continue
		}

		var lastDoc *comparator.Document
		if direction > 0 {
			lastDoc, err = decodeKeyAt(b, h)
		} else {
			lastDoc, err = decodeKeyAt(b, 0)
		}
		if err != nil {
			return locator.Null, 0, err
		}
		var secondCheck bool
		if direction > 0 {
			secondCheck = customCompare(lastDoc, bound, order, direction) < 0
		} else {
			secondCheck = customCompare(lastDoc, bound, order, direction) > 0
		}
		if secondCheck {
			var next locator.Locator
			if direction > 0 {
				next = b.NextChild
			} else {
				next = b.ChildForPos(0)
			}
			if next.IsNull() {
				if best.loc.IsNull() {
					return locator.Null, 0, nil
				}
				return best.loc, best.pos, nil
			}
			loc = next
			continue
		}

		newLoc, keyOfs := loc, 0
		cont, err := customFind(b, 0, h, &newLoc, &keyOfs, &best, bound, order, direction)
		if err != nil {
			return locator.Null, 0, err
		}
		if !cont {
			return newLoc, keyOfs, nil
		}
		loc = newLoc
	}
}

// advanceTo climbs from (loc, ofs) — a position the navigator is already
// at — until an ancestor's extreme key crosses bound in the scan
// direction (or the root is reached), then descends back down via
// customLocate from there. Used to refine a navigator already mid-scan
// onto a new bound without re-descending from the root every time.
// Adapted from BtreeBucket::advanceTo.
func (rn *RangeNavigator) advanceTo(loc locator.Locator, ofs int, bound RangeBound) (locator.Locator, int, error) {
	order := rn.tree.order()
	direction := rn.direction

	b, err := rn.tree.load(loc)
	if err != nil {
		return locator.Null, 0, err
	}

	var l, h int
	var dontGoUp bool
	if direction > 0 {
		l, h = ofs, b.N()-1
		doc, err := decodeKeyAt(b, h)
		if err != nil {
			return locator.Null, 0, err
		}
		dontGoUp = customCompare(doc, bound, order, direction) >= 0
	} else {
		l, h = 0, ofs
		doc, err := decodeKeyAt(b, l)
		if err != nil {
			return locator.Null, 0, err
		}
		dontGoUp = customCompare(doc, bound, order, direction) <= 0
	}

	var best bestParentPos
	if dontGoUp {
		newLoc, keyOfs := loc, 0
		cont, err := customFind(b, l, h, &newLoc, &keyOfs, &best, bound, order, direction)
		if err != nil {
			return locator.Null, 0, err
		}
		if !cont {
			return newLoc, keyOfs, nil
		}
		loc = newLoc
	} else {
		for {
			cur, err := rn.tree.load(loc)
			if err != nil {
				return locator.Null, 0, err
			}
			if cur.Parent.IsNull() {
				break
			}
			loc = cur.Parent
			anc, err := rn.tree.load(loc)
			if err != nil {
				return locator.Null, 0, err
			}
			if anc.N() == 0 {
				continue
			}
			var crossed bool
			if direction > 0 {
				doc, err := decodeKeyAt(anc, anc.N()-1)
				if err != nil {
					return locator.Null, 0, err
				}
				crossed = customCompare(doc, bound, order, direction) >= 0
			} else {
				doc, err := decodeKeyAt(anc, 0)
				if err != nil {
					return locator.Null, 0, err
				}
				crossed = customCompare(doc, bound, order, direction) <= 0
			}
			if crossed {
				break
			}
		}
	}
	return rn.customLocate(loc, bound, best)
}

// Next steps one entry forward in the navigator's direction, returning
// false once the scan is exhausted.
func (rn *RangeNavigator) Next() (bool, error) {
	if !rn.started || rn.done {
		return false, nil
	}
	if rn.pos < 0 {
		// A backward scan whose seek key sorts before every entry.
		rn.done = true
		return false, nil
	}
	loc, pos, err := rn.tree.Advance(rn.loc, rn.pos, rn.direction > 0)
	if err != nil {
		return false, err
	}
	if loc.IsNull() {
		rn.done = true
		return false, nil
	}
	rn.loc, rn.pos = loc, pos
	return true, nil
}

// Current returns the record locator and decoded key document at the
// navigator's current position.
func (rn *RangeNavigator) Current() (locator.Locator, *comparator.Document, error) {
	if !rn.started || rn.done || rn.pos < 0 {
		return locator.Null, nil, errors.New("btree: navigator is not positioned on an entry")
	}
	b, err := rn.tree.load(rn.loc)
	if err != nil {
		return locator.Null, nil, err
	}
	doc, err := comparator.DecodeKey(b.KeyAt(rn.pos))
	if err != nil {
		return locator.Null, nil, err
	}
	return b.RecordAt(rn.pos), doc, nil
}
