package bucket

import (
	"testing"

	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/locator"
	"github.com/stretchr/testify/require"
)

func mustOrder(t *testing.T) comparator.Ordering {
	t.Helper()
	o, err := comparator.Make([]comparator.FieldSpec{{Name: "a"}})
	require.NoError(t, err)
	return o
}

func keyFor(n int64) comparator.Key {
	return comparator.EncodeKey(comparator.NewDocument(comparator.Field{Name: "a", Value: comparator.Int64Value(n)}))
}

func TestPushBackAndKeyAt(t *testing.T) {
	b := New()
	order := mustOrder(t)

	require.True(t, b.PushBack(locator.Locator{Offset: 1}, keyFor(1), order, locator.Null))
	require.True(t, b.PushBack(locator.Locator{Offset: 2}, keyFor(2), order, locator.Null))
	require.Equal(t, 2, b.N())
	require.Equal(t, int64(1), mustDecode(t, b.KeyAt(0)).Get(0).Int64)
	require.Equal(t, int64(2), mustDecode(t, b.KeyAt(1)).Get(0).Int64)
}

func mustDecode(t *testing.T, k comparator.Key) *comparator.Document {
	t.Helper()
	d, err := comparator.DecodeKey(k)
	require.NoError(t, err)
	return d
}

func TestSizeInvariantHoldsAfterInsertsAndDeletes(t *testing.T) {
	b := New()
	order := mustOrder(t)

	for i := int64(0); i < 20; i++ {
		pos := b.N()
		require.True(t, b.BasicInsert(&pos, locator.Locator{Offset: i}, keyFor(i), order))
	}
	checkSizeInvariant(t, b)

	require.NoError(t, b.DelKeyAtPos(5, true))
	require.NoError(t, b.DelKeyAtPos(3, true))
	checkSizeInvariant(t, b)
}

func checkSizeInvariant(t *testing.T, b *Bucket) {
	t.Helper()
	require.Equal(t, Capacity, b.EmptySize+b.TopSize+b.N()*slotSize)
}

func TestPackDropsUnusedHoles(t *testing.T) {
	b := New()
	order := mustOrder(t)

	for i := int64(0); i < 5; i++ {
		pos := b.N()
		require.True(t, b.BasicInsert(&pos, locator.Locator{Offset: i}, keyFor(i), order))
	}
	b.MarkUnused(2)
	before := b.N()

	refPos := 0
	b.setNotPacked()
	b.Pack(order, &refPos)

	require.Less(t, b.N(), before)
	checkSizeInvariant(t, b)
}

func TestPushBackSlotPreservesUnused(t *testing.T) {
	b := New()
	order := mustOrder(t)

	require.True(t, b.PushBackSlot(locator.Locator{Offset: 1}, keyFor(1), order, locator.Null, false))
	require.True(t, b.PushBackSlot(locator.Locator{Offset: 2}, keyFor(2), order, locator.Null, true))
	require.False(t, b.IsUsed(0))
	require.True(t, b.IsUsed(1))
}

func TestPopBackReversesPushBack(t *testing.T) {
	b := New()
	order := mustOrder(t)
	require.True(t, b.PushBack(locator.Locator{Offset: 7}, keyFor(7), order, locator.Null))

	rec, key, err := b.PopBack()
	require.NoError(t, err)
	require.Equal(t, locator.Locator{Offset: 7}, rec)
	require.Equal(t, int64(7), mustDecode(t, key).Get(0).Int64)
	require.Equal(t, 0, b.N())
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	b := New()
	order := mustOrder(t)
	for i := int64(0); i < 10; i++ {
		pos := b.N()
		require.True(t, b.BasicInsert(&pos, locator.Locator{Offset: i}, keyFor(i), order))
	}

	buf := b.Marshal()
	decoded, err := Unmarshal(buf)
	require.NoError(t, err)
	require.Equal(t, b.N(), decoded.N())
	for i := 0; i < b.N(); i++ {
		require.Equal(t, b.KeyAt(i), decoded.KeyAt(i))
	}
}

func TestSplitPosStaysWithinBounds(t *testing.T) {
	b := New()
	order := mustOrder(t)
	for i := int64(0); i < 10; i++ {
		pos := b.N()
		require.True(t, b.BasicInsert(&pos, locator.Locator{Offset: i}, keyFor(i), order))
	}
	split := b.SplitPos(b.N())
	require.GreaterOrEqual(t, split, 1)
	require.LessOrEqual(t, split, b.N()-2)
}
