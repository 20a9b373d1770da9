package benchmarks

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"
)

// PebbleIndex wraps a Pebble LSM database behind the same Insert/Get/Delete/
// Range shape the bucket engine exposes, so the same workload can drive both
// and a comparative report can be produced from one harness. Adapted from
// lsm.LSM, which wires Pebble the identical way for the same purpose.
type PebbleIndex struct {
	db *pebble.DB
}

// OpenPebbleIndex opens (or creates) a Pebble database at dir.
func OpenPebbleIndex(dir string) (*PebbleIndex, error) {
	opts := &pebble.Options{
		MemTableSize:                16 << 20,
		MemTableStopWritesThreshold: 4,
		L0CompactionThreshold:       4,
		L0StopWritesThreshold:       12,
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("pebble index: open: %w", err)
	}
	return &PebbleIndex{db: db}, nil
}

// Close flushes and shuts down the underlying database.
func (p *PebbleIndex) Close() error {
	return p.db.Close()
}

// Insert inserts or updates the value stored for key.
func (p *PebbleIndex) Insert(key int64, value []byte) error {
	return p.db.Set(encodeBenchKey(key), value, pebble.NoSync)
}

// Get retrieves the value for key, or nil if it is absent.
func (p *PebbleIndex) Get(key int64) ([]byte, error) {
	val, closer, err := p.db.Get(encodeBenchKey(key))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pebble index: get: %w", err)
	}
	result := make([]byte, len(val))
	copy(result, val)
	closer.Close()
	return result, nil
}

// Delete removes key from the database. Deleting an absent key is a no-op.
func (p *PebbleIndex) Delete(key int64) error {
	if err := p.db.Delete(encodeBenchKey(key), pebble.NoSync); err != nil {
		return fmt.Errorf("pebble index: delete: %w", err)
	}
	return nil
}

// Range iterates [start, end] inclusive in key order, calling fn for each
// entry until fn returns false or the range is exhausted.
func (p *PebbleIndex) Range(start, end int64, fn func(key int64, value []byte) bool) error {
	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: encodeBenchKey(start),
		UpperBound: encodeBenchKey(end + 1),
	})
	if err != nil {
		return fmt.Errorf("pebble index: range: %w", err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		k := iter.Key()
		if len(k) != 8 {
			return fmt.Errorf("pebble index: unexpected key length %d", len(k))
		}
		key := int64(binary.BigEndian.Uint64(k))
		v := iter.Value()
		val := make([]byte, len(v))
		copy(val, v)
		if !fn(key, val) {
			break
		}
	}
	return iter.Error()
}

// encodeBenchKey encodes an int64 as a big-endian 8-byte slice so Pebble's
// lexicographic key order matches integer order.
func encodeBenchKey(k int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(k))
	return b
}
