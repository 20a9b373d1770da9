package btree

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/cursorreg"
	"github.com/oba-index/buckettree/internal/journal"
	"github.com/oba-index/buckettree/internal/locator"
	"github.com/oba-index/buckettree/internal/pager"
	"github.com/stretchr/testify/require"
)

func newTestTree(t *testing.T) *Tree {
	t.Helper()
	dir := t.TempDir()
	pg, err := pager.Open(filepath.Join(dir, "data.bkt"), pager.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { pg.Close() })

	jr, err := journal.Open(filepath.Join(dir, "journal.log"), pg)
	require.NoError(t, err)
	t.Cleanup(func() { jr.Close() })

	cr := cursorreg.New()
	order, err := comparator.Make([]comparator.FieldSpec{{Name: "a"}})
	require.NoError(t, err)
	meta := NewInMemoryMeta("idx_a", order)

	return New(pg, jr, cr, meta)
}

func doc(n int64) *comparator.Document {
	return comparator.NewDocument(comparator.Field{Name: "a", Value: comparator.Int64Value(n)})
}

func rec(n int64) locator.Locator { return locator.Locator{Offset: n} }

func TestInsertAndFindSingleRoundTrip(t *testing.T) {
	tr := newTestTree(t)
	for i := int64(0); i < 50; i++ {
		require.NoError(t, tr.Insert(rec(i), doc(i), false))
	}
	for i := int64(0); i < 50; i++ {
		loc, err := tr.FindSingle(doc(i))
		require.NoError(t, err)
		require.Equal(t, rec(i), loc)
	}
}

func TestInsertForcesSplitsAndStaysFindable(t *testing.T) {
	tr := newTestTree(t)
	const n = 400
	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Insert(rec(i), doc(i), false))
	}
	for i := int64(0); i < n; i++ {
		loc, err := tr.FindSingle(doc(i))
		require.NoError(t, err, "key %d should be findable", i)
		require.Equal(t, rec(i), loc)
	}
	_, err := tr.FindSingle(doc(n + 1))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestInsertOutOfOrderStillFindable(t *testing.T) {
	tr := newTestTree(t)
	values := []int64{50, 10, 90, 30, 70, 20, 80, 40, 60, 5, 95, 1, 99}
	for _, v := range values {
		require.NoError(t, tr.Insert(rec(v), doc(v), false))
	}
	for _, v := range values {
		loc, err := tr.FindSingle(doc(v))
		require.NoError(t, err)
		require.Equal(t, rec(v), loc)
	}
}

func TestReinsertSameKeyRecordIsNoop(t *testing.T) {
	tr := newTestTree(t)
	require.NoError(t, tr.Insert(rec(1), doc(1), false))
	require.NoError(t, tr.Insert(rec(1), doc(1), false))
	loc, err := tr.FindSingle(doc(1))
	require.NoError(t, err)
	require.Equal(t, rec(1), loc)
}

func TestUniqueIndexRejectsDuplicateKey(t *testing.T) {
	tr := newTestTree(t)
	require.NoError(t, tr.Insert(rec(1), doc(7), true))
	err := tr.Insert(rec(2), doc(7), true)
	require.Error(t, err)
	var dupErr *DuplicateKeyError
	require.ErrorAs(t, err, &dupErr)
}

func TestNonUniqueIndexAllowsDuplicateKeyDifferentRecord(t *testing.T) {
	tr := newTestTree(t)
	require.NoError(t, tr.Insert(rec(1), doc(7), false))
	require.NoError(t, tr.Insert(rec(2), doc(7), false))
	exists, err := tr.Exists(doc(7))
	require.NoError(t, err)
	require.True(t, exists)
}

func TestDeleteLeafKey(t *testing.T) {
	tr := newTestTree(t)
	for i := int64(0); i < 10; i++ {
		require.NoError(t, tr.Insert(rec(i), doc(i), false))
	}
	require.NoError(t, tr.Delete(rec(5), doc(5)))
	_, err := tr.FindSingle(doc(5))
	require.ErrorIs(t, err, ErrKeyNotFound)
	for i := int64(0); i < 10; i++ {
		if i == 5 {
			continue
		}
		loc, err := tr.FindSingle(doc(i))
		require.NoError(t, err)
		require.Equal(t, rec(i), loc)
	}
}

func TestDeleteMissingKeyReturnsNotFound(t *testing.T) {
	tr := newTestTree(t)
	require.NoError(t, tr.Insert(rec(1), doc(1), false))
	err := tr.Delete(rec(99), doc(99))
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func TestInsertSplitThenDeleteAllKeysEmptiesTree(t *testing.T) {
	tr := newTestTree(t)
	const n = 300
	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Insert(rec(i), doc(i), false))
	}
	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Delete(rec(i), doc(i)), "deleting key %d", i)
	}
	for i := int64(0); i < n; i++ {
		_, err := tr.FindSingle(doc(i))
		require.ErrorIs(t, err, ErrKeyNotFound)
	}
}

func TestDeleteInternalKeyLeavesTombstone(t *testing.T) {
	tr := newTestTree(t)
	const n = 300
	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Insert(rec(i), doc(i), false))
	}
	// 173 is the internal key the first leaf split promotes at this
	// fan-out: one with a live left child, so delKeyAtPos marks it unused
	// in place rather than unlinking it. The other keys are leaf keys.
	for _, mid := range []int64{173, 100, 200, 50, 250} {
		require.NoError(t, tr.Delete(rec(mid), doc(mid)), "deleting key %d", mid)
		_, err := tr.FindSingle(doc(mid))
		require.ErrorIs(t, err, ErrKeyNotFound)
	}
	for i := int64(0); i < n; i++ {
		switch i {
		case 173, 100, 200, 50, 250:
			continue
		}
		loc, err := tr.FindSingle(doc(i))
		require.NoError(t, err, "key %d should still be findable", i)
		require.Equal(t, rec(i), loc)
	}
}

func TestDeleteThenReinsertResurrectsTombstone(t *testing.T) {
	tr := newTestTree(t)
	const n = 300
	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Insert(rec(i), doc(i), false))
	}
	const mid = int64(173)
	require.NoError(t, tr.Delete(rec(mid), doc(mid)))
	_, err := tr.FindSingle(doc(mid))
	require.ErrorIs(t, err, ErrKeyNotFound)

	// mid was an internal key, so the delete left a tombstone rather than
	// unlinking the slot; reinserting the exact same (key, rec) pair must
	// resurrect that slot instead of growing the tree.
	require.NoError(t, tr.Insert(rec(mid), doc(mid), false))
	loc, err := tr.FindSingle(doc(mid))
	require.NoError(t, err)
	require.Equal(t, rec(mid), loc)

	errs, err := tr.FullValidate(context.Background())
	require.NoError(t, err)
	require.Empty(t, errs)
}

func TestTombstoneSurvivesFurtherSplitsAndMerges(t *testing.T) {
	tr := newTestTree(t)
	const n = int64(300)
	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Insert(rec(i), doc(i), false))
	}
	const mid = int64(173)
	require.NoError(t, tr.Delete(rec(mid), doc(mid)))
	_, err := tr.FindSingle(doc(mid))
	require.ErrorIs(t, err, ErrKeyNotFound)

	// Further inserts trigger more splits and the deletes unlink leaf
	// keys; a copy of the tombstoned slot must never come back used=true.
	for i := n; i < n+300; i++ {
		require.NoError(t, tr.Insert(rec(i), doc(i), false))
	}
	for i := int64(0); i < n; i += 3 {
		if i == mid {
			continue
		}
		require.NoError(t, tr.Delete(rec(i), doc(i)))
	}

	_, err = tr.FindSingle(doc(mid))
	require.ErrorIs(t, err, ErrKeyNotFound)

	errs, err := tr.FullValidate(context.Background())
	require.NoError(t, err)
	require.Empty(t, errs)
}

func TestAdvanceWalksInOrderForward(t *testing.T) {
	tr := newTestTree(t)
	const n = 120
	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Insert(rec(i), doc(i), false))
	}

	loc, pos, err := tr.edge(tr.Root(), false)
	require.NoError(t, err)

	seen := make([]int64, 0, n)
	for {
		b, err := tr.load(loc)
		require.NoError(t, err)
		d, err := comparator.DecodeKey(b.KeyAt(pos))
		require.NoError(t, err)
		seen = append(seen, d.Get(0).Int64)

		nextLoc, nextPos, err := tr.Advance(loc, pos, true)
		require.NoError(t, err)
		if nextLoc.IsNull() {
			break
		}
		loc, pos = nextLoc, nextPos
	}

	require.Len(t, seen, n)
	for i, v := range seen {
		require.Equal(t, int64(i), v, "out of order at position %d", i)
	}
}

func TestRangeNavigatorForwardFromMidpoint(t *testing.T) {
	tr := newTestTree(t)
	const n = 100
	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Insert(rec(i*2), doc(i*2), false)) // even keys only
	}

	rn := tr.NewRangeNavigator(1)
	defer rn.Close()

	ok, err := rn.AdvanceTo(doc(41), true) // odd key not present; lands on 42
	require.NoError(t, err)
	require.True(t, ok)

	var got []int64
	for {
		_, d, err := rn.Current()
		require.NoError(t, err)
		got = append(got, d.Get(0).Int64)
		more, err := rn.Next()
		require.NoError(t, err)
		if !more {
			break
		}
	}

	require.Equal(t, int64(42), got[0])
	for i, v := range got {
		require.Equal(t, int64(42+2*i), v)
	}
}

func TestRangeNavigatorBackward(t *testing.T) {
	tr := newTestTree(t)
	const n = 60
	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Insert(rec(i), doc(i), false))
	}

	rn := tr.NewRangeNavigator(-1)
	defer rn.Close()

	ok, err := rn.AdvanceTo(doc(30), true)
	require.NoError(t, err)
	require.True(t, ok)

	var got []int64
	for {
		_, d, err := rn.Current()
		require.NoError(t, err)
		got = append(got, d.Get(0).Int64)
		more, err := rn.Next()
		require.NoError(t, err)
		if !more {
			break
		}
	}

	require.Equal(t, int64(30), got[0])
	for i, v := range got {
		require.Equal(t, int64(30-i), v)
	}
}

func TestCursorNotifiedWhenItsBucketIsDeleted(t *testing.T) {
	tr := newTestTree(t)
	const n = 200
	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Insert(rec(i), doc(i), false))
	}

	rn := tr.NewRangeNavigator(1)
	defer rn.Close()
	ok, err := rn.AdvanceTo(doc(0), true)
	require.NoError(t, err)
	require.True(t, ok)

	for i := int64(0); i < n; i++ {
		require.NoError(t, tr.Delete(rec(i), doc(i)))
	}

	// The navigator's bucket is long gone; it must report itself
	// exhausted rather than try to read freed data.
	more, err := rn.Next()
	require.NoError(t, err)
	require.False(t, more)
}

func TestKeyTooLargeIsRejected(t *testing.T) {
	tr := newTestTree(t)
	huge := comparator.NewDocument(comparator.Field{Name: "a", Value: comparator.BytesValue(make([]byte, 2000))})
	err := tr.Insert(rec(1), huge, false)
	require.ErrorIs(t, err, ErrKeyTooLarge)
}

func TestDuplicateKeyErrorMessage(t *testing.T) {
	err := &DuplicateKeyError{Index: "idx_a", Key: comparator.EncodeKey(doc(7))}
	require.Contains(t, err.Error(), "idx_a")
	require.Contains(t, err.Error(), fmt.Sprint(int64(7)))
}
