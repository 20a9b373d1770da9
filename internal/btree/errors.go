package btree

import (
	"fmt"

	"github.com/oba-index/buckettree/internal/comparator"
)

// Structural assertion codes, numbered the way the original engine numbers
// its btree asserts (10281-10288) so a log line referencing one of these
// is searchable the same way.
const (
	codeBadKeyPos       = 10281
	codePopBackEmpty    = 10282
	codePopBackHasNext  = 10283
	codeDelChildNonNull = 10284
	codeSplitTooFewKeys = 10285
	codeMergeOverflow   = 10286
	codeAlreadyInIndex  = 10287
	codeBuilderOrder    = 10288
)

// DuplicateKeyError reports a unique-index violation: key already maps to
// a different record. It is returned, never panicked, matching the
// original engine's uassert (a user-facing condition, not a corruption).
type DuplicateKeyError struct {
	Index string
	Key   comparator.Key
}

func (e *DuplicateKeyError) Error() string {
	doc, err := comparator.DecodeKey(e.Key)
	if err != nil {
		return fmt.Sprintf("E11000 duplicate key error index: %s", e.Index)
	}
	return fmt.Sprintf("E11000 duplicate key error index: %s  dup key: %s", e.Index, describeDocument(doc))
}

func describeDocument(d *comparator.Document) string {
	s := "{"
	for i, f := range d.Fields {
		if i > 0 {
			s += ", "
		}
		s += f.Value.String()
	}
	return s + "}"
}

// structuralError is a StructuralAssertionFailed-equivalent: an invariant
// the pack allocator and journal should never let happen. It carries one
// of the numbered codes above so it reads the same as the original
// engine's assert() failures.
type structuralError struct {
	code int
	msg  string
}

func (e *structuralError) Error() string {
	return fmt.Sprintf("btree: assertion %d: %s", e.code, e.msg)
}

func assertFail(code int, format string, args ...any) error {
	return &structuralError{code: code, msg: fmt.Sprintf(format, args...)}
}

// ErrKeyTooLarge is returned (not panicked) when an inserted key exceeds
// bucket.KeyMax — a status a caller is expected to check for, matching
// the original engine's "return status, don't throw" handling of
// oversized keys.
var ErrKeyTooLarge = keyTooLargeError{}

type keyTooLargeError struct{}

func (keyTooLargeError) Error() string { return "btree: key exceeds KeyMax" }

// ErrKeyNotFound is returned by Delete/FindSingle when the requested key
// is not present in the index.
var ErrKeyNotFound = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "btree: key not found" }

// ErrAlreadyInIndex mirrors the original engine's alreadyInIndex()/10287:
// the exact key+record pair is already present, so bt_insert is a no-op
// rather than an error.
var ErrAlreadyInIndex = &structuralError{code: codeAlreadyInIndex, msg: "key and record already indexed"}
