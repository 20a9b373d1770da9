package btree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBulkBuilderProducesFindableTree(t *testing.T) {
	tr := newTestTree(t)
	bb, err := tr.NewBulkBuilder()
	require.NoError(t, err)

	const n = 500
	for i := int64(0); i < n; i++ {
		require.NoError(t, bb.AddKey(rec(i), doc(i)))
	}
	require.NoError(t, bb.Commit())

	require.False(t, tr.Root().IsNull())
	for i := int64(0); i < n; i++ {
		loc, err := tr.FindSingle(doc(i))
		require.NoError(t, err, "key %d should be findable after bulk build", i)
		require.Equal(t, rec(i), loc)
	}
}

func TestBulkBuilderEmptyCommitLeavesNullRoot(t *testing.T) {
	tr := newTestTree(t)
	bb, err := tr.NewBulkBuilder()
	require.NoError(t, err)
	require.NoError(t, bb.Commit())
	require.True(t, tr.Root().IsNull())
}

func TestBulkBuilderRejectsOutOfOrderKeys(t *testing.T) {
	tr := newTestTree(t)
	bb, err := tr.NewBulkBuilder()
	require.NoError(t, err)
	require.NoError(t, bb.AddKey(rec(5), doc(5)))
	err = bb.AddKey(rec(1), doc(1))
	require.Error(t, err)
}

func TestBulkBuilderDropFreesAllocatedBuckets(t *testing.T) {
	tr := newTestTree(t)
	before := tr.pager.TotalBuckets()

	bb, err := tr.NewBulkBuilder()
	require.NoError(t, err)
	for i := int64(0); i < 200; i++ {
		require.NoError(t, bb.AddKey(rec(i), doc(i)))
	}
	require.NoError(t, bb.Drop())
	require.True(t, tr.Root().IsNull())

	// Buckets allocated by the aborted build are back on the free list,
	// so a fresh insert should not need to grow the file.
	afterDrop := tr.pager.TotalBuckets()
	require.NoError(t, tr.Insert(rec(1), doc(1), false))
	afterInsert := tr.pager.TotalBuckets()
	require.Equal(t, afterDrop, afterInsert)
	_ = before
}

func TestInsertAfterBulkBuilderCoexist(t *testing.T) {
	tr := newTestTree(t)
	bb, err := tr.NewBulkBuilder()
	require.NoError(t, err)
	for i := int64(0); i < 100; i++ {
		require.NoError(t, bb.AddKey(rec(i), doc(i)))
	}
	require.NoError(t, bb.Commit())

	require.NoError(t, tr.Insert(rec(1000), doc(1000), false))
	loc, err := tr.FindSingle(doc(1000))
	require.NoError(t, err)
	require.Equal(t, rec(1000), loc)

	require.NoError(t, tr.Delete(rec(50), doc(50)))
	_, err = tr.FindSingle(doc(50))
	require.ErrorIs(t, err, ErrKeyNotFound)
}
