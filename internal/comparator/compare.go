package comparator

import "bytes"

// WoCompare implements the total order over encoded composite keys,
// applying order's per-field direction mask. Fields beyond the shorter
// key's length compare as MinKey (so a strict prefix sorts first within
// its ascending run, last within a descending one — flipped by the mask
// like every other field). Decode errors cannot occur here: keys reaching
// WoCompare have already round-tripped through EncodeKey inside a single
// process, so a failed decode indicates bucket corruption and panics
// rather than silently misordering the tree.
func WoCompare(a, b Key, order Ordering) int {
	da, err := DecodeKey(a)
	if err != nil {
		panic(err)
	}
	db, err := DecodeKey(b)
	if err != nil {
		panic(err)
	}

	n := order.NumFields()
	if n == 0 {
		n = maxInt(da.Len(), db.Len())
	}
	for i := 0; i < n; i++ {
		c := WoCompareValue(da.Get(i), db.Get(i), false)
		if order.Descending(i) {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// WoCompareValue is the element-wise comparator: it orders two Values of
// possibly differing Kind by a fixed canonical type order, then compares
// same-kind payloads. considerFieldName is accepted for single-field
// comparisons against a named Field; this engine's Value does not itself
// carry a field name at this layer, so the flag is a no-op reserved for
// callers that wrap Field pairs instead of bare Values.
func WoCompareValue(a, b Value, considerFieldName bool) int {
	_ = considerFieldName
	if a.Kind != b.Kind {
		return compareInt(canonicalOrder(a.Kind), canonicalOrder(b.Kind))
	}
	switch a.Kind {
	case KindMinKey, KindMaxKey, KindNull:
		return 0
	case KindInt64:
		return compareInt64(a.Int64, b.Int64)
	case KindFloat64:
		return compareFloat64(a.Float64, b.Float64)
	case KindString:
		return bytes.Compare([]byte(a.Str), []byte(b.Str))
	case KindBytes:
		return bytes.Compare(a.Bytes, b.Bytes)
	case KindBool:
		return compareBool(a.Bool, b.Bool)
	default:
		return 0
	}
}

// canonicalOrder fixes the cross-type ordering: MinKey < Null < numbers <
// strings < bytes < bool < MaxKey.
func canonicalOrder(k Kind) int {
	switch k {
	case KindMinKey:
		return 0
	case KindNull:
		return 1
	case KindInt64, KindFloat64:
		return 2
	case KindString:
		return 3
	case KindBytes:
		return 4
	case KindBool:
		return 5
	case KindMaxKey:
		return 6
	default:
		return 7
	}
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a && b {
		return -1
	}
	return 1
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
