package benchmarks

import (
	"path/filepath"

	"github.com/oba-index/buckettree/internal/btree"
	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/cursorreg"
	"github.com/oba-index/buckettree/internal/journal"
	"github.com/oba-index/buckettree/internal/locator"
	"github.com/oba-index/buckettree/internal/pager"
)

// BucketIndex wraps a *btree.Tree behind the same int64-keyed Insert/Get/
// Delete/Range shape PebbleIndex exposes, so the comparison benchmarks in
// bench_test.go can drive both engines with one workload loop.
type BucketIndex struct {
	pager   *pager.Pager
	journal *journal.Journal
	tree    *btree.Tree
}

// OpenBucketIndex opens (or creates) a bucket-engine index rooted at dir.
func OpenBucketIndex(dir string) (*BucketIndex, error) {
	pg, err := pager.Open(filepath.Join(dir, "data.bkt"), pager.Options{})
	if err != nil {
		return nil, err
	}
	jr, err := journal.Open(filepath.Join(dir, "journal.log"), pg)
	if err != nil {
		pg.Close()
		return nil, err
	}
	order, err := comparator.Make([]comparator.FieldSpec{{Name: "key"}})
	if err != nil {
		return nil, err
	}
	meta := btree.NewInMemoryMeta("bench", order)
	return &BucketIndex{
		pager:   pg,
		journal: jr,
		tree:    btree.New(pg, jr, cursorreg.New(), meta),
	}, nil
}

// Close releases the underlying pager and journal resources.
func (b *BucketIndex) Close() error {
	b.journal.Close()
	return b.pager.Close()
}

func benchDoc(key int64) *comparator.Document {
	return comparator.NewDocument(comparator.Field{Name: "key", Value: comparator.Int64Value(key)})
}

// Insert adds a non-unique (key, locator) entry; an existing entry for key
// is not replaced, and a value of a different length adds a second entry
// for the same key. The value is
// not stored directly, matching the engine's role as an index over records
// kept elsewhere; value's length is folded into the locator offset so
// differently sized payloads still produce distinguishable writes.
func (b *BucketIndex) Insert(key int64, value []byte) error {
	rec := locator.Locator{File: int32(len(value)), Offset: key}
	return b.tree.Insert(rec, benchDoc(key), false)
}

// Get returns a non-nil placeholder when key is present, nil otherwise.
func (b *BucketIndex) Get(key int64) ([]byte, error) {
	loc, err := b.tree.FindSingle(benchDoc(key))
	if err == btree.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return make([]byte, loc.File), nil
}

// Delete removes key from the index. Deleting an absent key is a no-op.
func (b *BucketIndex) Delete(key int64) error {
	loc, err := b.tree.FindSingle(benchDoc(key))
	if err == btree.ErrKeyNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	return b.tree.Delete(loc, benchDoc(key))
}

// Range iterates [start, end] inclusive in key order.
func (b *BucketIndex) Range(start, end int64, fn func(key int64, value []byte) bool) error {
	nav := b.tree.NewRangeNavigator(1)
	defer nav.Close()

	ok, err := nav.AdvanceTo(benchDoc(start), true)
	if err != nil {
		return err
	}
	for ok {
		loc, doc, err := nav.Current()
		if err != nil {
			return err
		}
		key := doc.Get(0).Int64
		if key > end {
			break
		}
		if !fn(key, make([]byte, loc.File)) {
			break
		}
		ok, err = nav.Next()
		if err != nil {
			return err
		}
	}
	return nil
}
