package btree

import (
	"context"
	"fmt"

	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/locator"
	"github.com/pkg/errors"
)

// ValidationError reports one broken invariant found by FullValidate,
// naming the bucket and the condition that failed so an operator can
// locate the corruption without a debugger.
type ValidationError struct {
	Bucket locator.Locator
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("btree: invalid bucket %s: %s", e.Bucket, e.Reason)
}

// FullValidate walks every reachable bucket from the root and checks the
// structural invariants a healthy tree must hold: slots sorted under the
// tree's Ordering, parent pointers agreeing with the child that points at
// them, and every subtree's keys bounded by the parent separator that
// bracket it. It is the adaptation of the original engine's
// BtreeBucket::fullValidate, run as a single recursive pass rather than a
// standalone debug tool.
//
// ctx is checked cooperatively between buckets so a caller can cancel a
// validation pass over a large tree without it running to completion.
func (t *Tree) FullValidate(ctx context.Context) ([]*ValidationError, error) {
	root := t.meta.Root()
	if root.IsNull() {
		return nil, nil
	}
	var errs []*ValidationError
	if err := t.validateSubtree(ctx, root, locator.Null, nil, nil, &errs); err != nil {
		return errs, err
	}
	return errs, nil
}

// validateSubtree recursively checks loc and its descendants. lowKey and
// highKey bound the keys loc may legally contain (nil means unbounded on
// that side), inherited from the separators of the parent that holds loc.
func (t *Tree) validateSubtree(ctx context.Context, loc, expectParent locator.Locator, lowKey, highKey comparator.Key, errs *[]*ValidationError) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if loc.IsNull() {
		return nil
	}

	b, err := t.load(loc)
	if err != nil {
		return errors.Wrapf(err, "btree: fullValidate load %s", loc)
	}

	if !locator.Equal(b.Parent, expectParent) && !expectParent.IsNull() {
		*errs = append(*errs, &ValidationError{Bucket: loc, Reason: fmt.Sprintf("parent pointer %s does not match expected %s", b.Parent, expectParent)})
	}

	order := t.order()
	var prevKey comparator.Key
	havePrev := false
	for i := 0; i < b.N(); i++ {
		// An unused slot is a tombstone left by a delete that could not
		// physically unlink a key still holding a live left child (or the
		// bucket's sole nextChild); its key stays in place as a real
		// separator until Pack finds the hole droppable, so it is checked
		// for order and bounds exactly like a live slot.
		key := b.KeyAt(i)
		if havePrev && comparator.WoCompare(prevKey, key, order) > 0 {
			*errs = append(*errs, &ValidationError{Bucket: loc, Reason: fmt.Sprintf("slot %d out of order", i)})
		}
		if lowKey != nil && comparator.WoCompare(key, lowKey, order) < 0 {
			*errs = append(*errs, &ValidationError{Bucket: loc, Reason: fmt.Sprintf("slot %d key precedes subtree lower bound", i)})
		}
		if highKey != nil && comparator.WoCompare(key, highKey, order) > 0 {
			*errs = append(*errs, &ValidationError{Bucket: loc, Reason: fmt.Sprintf("slot %d key exceeds subtree upper bound", i)})
		}
		if !b.IsUsed(i) && i == 0 && b.N() == 1 && b.ChildForPos(0).IsNull() && b.NextChild.IsNull() {
			*errs = append(*errs, &ValidationError{Bucket: loc, Reason: "sole slot is an unused tombstone with no children; should have been freed"})
		}
		prevKey, havePrev = key, true
	}

	for i := 0; i <= b.N(); i++ {
		child := b.ChildForPos(i)
		if child.IsNull() {
			continue
		}
		var lo, hi comparator.Key
		if i > 0 {
			lo = b.KeyAt(i - 1)
		} else {
			lo = lowKey
		}
		if i < b.N() {
			hi = b.KeyAt(i)
		} else {
			hi = highKey
		}
		if err := t.validateSubtree(ctx, child, loc, lo, hi, errs); err != nil {
			return err
		}
	}
	return nil
}
