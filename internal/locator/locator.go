package locator

import "fmt"

// Locator is an opaque, persistent address of a bucket page: a data file
// index paired with a byte offset inside that file. It replaces the
// in-memory pointers an ordinary B-tree would use between nodes.
type Locator struct {
	File   int32
	Offset int64
}

// Null is the sentinel locator meaning "no page" — a nil child pointer,
// an empty nextChild, or an unset parent (the root's parent is Null).
var Null = Locator{File: -1, Offset: -1}

// IsNull reports whether l is the null sentinel.
func (l Locator) IsNull() bool {
	return l.File < 0
}

// Compare orders locators file-then-offset. Two locators compare equal
// iff they address the same page.
func Compare(a, b Locator) int {
	if a.File != b.File {
		if a.File < b.File {
			return -1
		}
		return 1
	}
	switch {
	case a.Offset < b.Offset:
		return -1
	case a.Offset > b.Offset:
		return 1
	default:
		return 0
	}
}

// Equal reports whether a and b address the same page.
func Equal(a, b Locator) bool {
	return a.File == b.File && a.Offset == b.Offset
}

// String renders a locator as "file:offset", or "<null>" for Null.
func (l Locator) String() string {
	if l.IsNull() {
		return "<null>"
	}
	return fmt.Sprintf("%d:%d", l.File, l.Offset)
}
