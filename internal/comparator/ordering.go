package comparator

import "github.com/pkg/errors"

// MaxOrderingFields bounds how many key-pattern fields a single Ordering
// bitmask can describe.
const MaxOrderingFields = 64

// FieldSpec names one field of an index's key pattern and its direction.
type FieldSpec struct {
	Name       string
	Descending bool
}

// Ordering is a bitmask over composite-key field positions: bit i set
// means field i sorts descending. It is built once per index from the
// index's key pattern and threaded through every compare.
type Ordering struct {
	mask   uint64
	nField int
}

// Make builds an Ordering from an ordered key pattern. Composite indexes
// naming more fields than MaxOrderingFields are rejected here rather than
// discovered later during a compare.
func Make(pattern []FieldSpec) (Ordering, error) {
	if len(pattern) > MaxOrderingFields {
		return Ordering{}, errors.Errorf("comparator: key pattern has %d fields, exceeds max of %d", len(pattern), MaxOrderingFields)
	}
	var mask uint64
	for i, f := range pattern {
		if f.Descending {
			mask |= 1 << uint(i)
		}
	}
	return Ordering{mask: mask, nField: len(pattern)}, nil
}

// NumFields returns how many fields this Ordering describes.
func (o Ordering) NumFields() int {
	return o.nField
}

// Descending reports whether field position i sorts descending.
func (o Ordering) Descending(i int) bool {
	return o.mask&(1<<uint(i)) != 0
}
