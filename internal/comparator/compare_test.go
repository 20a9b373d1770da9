package comparator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mustOrdering(t *testing.T, pattern []FieldSpec) Ordering {
	t.Helper()
	o, err := Make(pattern)
	require.NoError(t, err)
	return o
}

func TestWoCompareAscending(t *testing.T) {
	order := mustOrdering(t, []FieldSpec{{Name: "a"}})
	a := EncodeKey(NewDocument(Field{Name: "a", Value: Int64Value(1)}))
	b := EncodeKey(NewDocument(Field{Name: "a", Value: Int64Value(2)}))

	require.Negative(t, WoCompare(a, b, order))
	require.Positive(t, WoCompare(b, a, order))
	require.Zero(t, WoCompare(a, a, order))
}

func TestWoCompareDescending(t *testing.T) {
	order := mustOrdering(t, []FieldSpec{{Name: "a", Descending: true}})
	a := EncodeKey(NewDocument(Field{Name: "a", Value: Int64Value(1)}))
	b := EncodeKey(NewDocument(Field{Name: "a", Value: Int64Value(2)}))

	require.Positive(t, WoCompare(a, b, order))
}

func TestWoCompareCompositeTieBreak(t *testing.T) {
	order := mustOrdering(t, []FieldSpec{{Name: "a"}, {Name: "b"}})
	a := EncodeKey(NewDocument(Field{Name: "a", Value: Int64Value(1)}, Field{Name: "b", Value: StringValue("x")}))
	b := EncodeKey(NewDocument(Field{Name: "a", Value: Int64Value(1)}, Field{Name: "b", Value: StringValue("y")}))

	require.Negative(t, WoCompare(a, b, order))
}

func TestWoCompareValueCanonicalTypeOrder(t *testing.T) {
	require.Negative(t, WoCompareValue(MinKey, Null, false))
	require.Negative(t, WoCompareValue(Int64Value(1), StringValue("a"), false))
	require.Positive(t, WoCompareValue(MaxKey, StringValue("z"), false))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	doc := NewDocument(
		Field{Name: "a", Value: Int64Value(42)},
		Field{Name: "b", Value: StringValue("hello")},
		Field{Name: "c", Value: BytesValue([]byte{1, 2, 3})},
		Field{Name: "d", Value: BoolValue(true)},
		Field{Name: "e", Value: Float64Value(3.5)},
	)
	key := EncodeKey(doc)
	decoded, err := DecodeKey(key)
	require.NoError(t, err)
	require.Equal(t, doc.Len(), decoded.Len())
	for i := range doc.Fields {
		require.Equal(t, doc.Fields[i].Value, decoded.Fields[i].Value)
	}
}

func TestShortDocumentComparesAsMinKeyOnTrailingFields(t *testing.T) {
	order := mustOrdering(t, []FieldSpec{{Name: "a"}, {Name: "b"}})
	short := EncodeKey(NewDocument(Field{Name: "a", Value: Int64Value(1)}))
	long := EncodeKey(NewDocument(Field{Name: "a", Value: Int64Value(1)}, Field{Name: "b", Value: Int64Value(-100)}))

	require.Negative(t, WoCompare(short, long, order))
}
