package btree

import (
	"github.com/oba-index/buckettree/internal/locator"
	"github.com/pkg/errors"
)

// Advance returns the in-order successor (forward) or predecessor
// (!forward) of (loc, pos), skipping over any tombstoned (unused) slots
// it lands on so a cursor never surfaces a deleted entry — the original
// engine's BtreeCursor layers this skip on top of the raw bucket-level
// advance, and callers here get it for free. Returns locator.Null, -1
// once the scan runs off either end of the tree.
func (t *Tree) Advance(loc locator.Locator, pos int, forward bool) (locator.Locator, int, error) {
	for {
		nloc, npos, err := t.advanceStep(loc, pos, forward)
		if err != nil || nloc.IsNull() {
			return nloc, npos, err
		}
		b, err := t.load(nloc)
		if err != nil {
			return locator.Null, -1, err
		}
		if b.IsUsed(npos) {
			return nloc, npos, nil
		}
		loc, pos = nloc, npos
	}
}

// advanceStep is the raw structural successor/predecessor of (loc, pos):
// descend into the adjacent child if one exists, otherwise step within
// the current bucket, otherwise walk up through parents via
// indexInParent until a bucket is reached from the correct side.
// Adapted from BtreeBucket::advance.
func (t *Tree) advanceStep(loc locator.Locator, pos int, forward bool) (locator.Locator, int, error) {
	b, err := t.load(loc)
	if err != nil {
		return locator.Null, -1, err
	}

	childIdx := pos
	if forward {
		childIdx = pos + 1
	}
	if child := b.ChildForPos(childIdx); !child.IsNull() {
		return t.edge(child, !forward)
	}

	if forward {
		if pos+1 < b.N() {
			return loc, pos + 1, nil
		}
	} else if pos-1 >= 0 {
		return loc, pos - 1, nil
	}

	cur, curB := loc, b
	for {
		parent := curB.Parent
		if parent.IsNull() {
			return locator.Null, -1, nil
		}
		parentB, err := t.load(parent)
		if err != nil {
			return locator.Null, -1, err
		}
		idx, err := t.indexInParent(parentB, cur)
		if err != nil {
			return locator.Null, -1, err
		}
		if forward {
			if idx < parentB.N() {
				return parent, idx, nil
			}
		} else if idx > 0 {
			return parent, idx - 1, nil
		}
		cur, curB = parent, parentB
	}
}

// edge returns the position of the leftmost entry in the subtree rooted
// at loc (descending=false), or the rightmost (descending=true).
func (t *Tree) edge(loc locator.Locator, descending bool) (locator.Locator, int, error) {
	cur := loc
	for {
		b, err := t.load(cur)
		if err != nil {
			return locator.Null, -1, err
		}
		childIdx := 0
		if descending {
			childIdx = b.N()
		}
		child := b.ChildForPos(childIdx)
		if child.IsNull() {
			if b.N() == 0 {
				return locator.Null, -1, errors.Errorf("btree: empty bucket %s encountered mid-traversal", cur)
			}
			if descending {
				return cur, b.N() - 1, nil
			}
			return cur, 0, nil
		}
		cur = child
	}
}
