package bucket

import (
	"encoding/binary"

	"github.com/oba-index/buckettree/internal/comparator"
	"github.com/oba-index/buckettree/internal/locator"
	"github.com/oba-index/buckettree/internal/pager"
	"github.com/pkg/errors"
)

// locatorSize is the on-disk size of one locator.Locator (File int32 +
// Offset int64).
const locatorSize = 4 + 8

// slotSize is the fixed on-disk size of one Slot: two locators (prev
// child, record) plus a key offset and a used flag.
const slotSize = locatorSize + locatorSize + 4 + 1

// headerSize is the fixed bucket header ahead of the slot array: parent
// locator, next-child locator, key count, empty/top size accounting, and
// the packed flag.
const headerSize = locatorSize + locatorSize + 4 + 4 + 4 + 1

// Capacity is the usable byte budget every bucket's slots and keys must
// fit inside, mirroring BucketBasics::totalDataSize().
const Capacity = pager.BucketSize - 24 - headerSize

// KeyMax is the largest key this engine will index, one tenth of a
// bucket, matching the original engine's KeyMax = BucketSize / 10.
const KeyMax = pager.BucketSize / 10

// Slot is one _KeyNode: the left child of the key (null in a leaf), the
// record this key points at, where its bytes live in the key heap, and
// whether the slot is live or merely holding a deletion-shaped hole.
type Slot struct {
	PrevChild locator.Locator
	Record    locator.Locator
	KeyOfs    int
	Used      bool
}

// Bucket is one tree node, decoded from a pager.Page's body into slots
// plus a key heap ready for pack/split/insert/delete.
type Bucket struct {
	Parent    locator.Locator
	NextChild locator.Locator
	Packed    bool
	EmptySize int
	TopSize   int

	slots []Slot
	data  []byte // Capacity bytes; keys are appended growing from the end
}

var (
	ErrKeyTooLarge  = errors.New("bucket: key exceeds KeyMax")
	ErrBucketFull   = errors.New("bucket: insufficient space")
	ErrEmptyPopBack = errors.New("bucket: popBack on empty bucket")
)

// New returns an empty, freshly initialized bucket.
func New() *Bucket {
	b := &Bucket{data: make([]byte, Capacity)}
	b.init()
	return b
}

func (b *Bucket) init() {
	b.Parent = locator.Null
	b.NextChild = locator.Null
	b.Packed = true
	b.EmptySize = Capacity
	b.TopSize = 0
	b.slots = nil
}

// N is the number of live slots.
func (b *Bucket) N() int { return len(b.slots) }

// IsHead reports whether this bucket has no parent (it is a tree root).
func (b *Bucket) IsHead() bool { return b.Parent.IsNull() }

func (b *Bucket) slot(i int) Slot { return b.slots[i] }

// ChildForPos returns the child locator to the left of slot i, or
// NextChild when i == N().
func (b *Bucket) ChildForPos(i int) locator.Locator {
	if i == len(b.slots) {
		return b.NextChild
	}
	return b.slots[i].PrevChild
}

// SetChildForPos overwrites the child locator at position i.
func (b *Bucket) SetChildForPos(i int, loc locator.Locator) {
	if i == len(b.slots) {
		b.NextChild = loc
		return
	}
	b.slots[i].PrevChild = loc
}

// KeyAt decodes the key stored by slot i.
func (b *Bucket) KeyAt(i int) comparator.Key {
	return b.keyAtOffset(b.slots[i].KeyOfs)
}

func (b *Bucket) keyAtOffset(ofs int) comparator.Key {
	length := int(binary.LittleEndian.Uint32(b.data[ofs : ofs+4]))
	return comparator.Key(b.data[ofs : ofs+4+length])
}

// RecordAt returns the record locator slot i points at.
func (b *Bucket) RecordAt(i int) locator.Locator { return b.slots[i].Record }

// IsUsed reports whether slot i is live (not merely a deletion hole).
func (b *Bucket) IsUsed(i int) bool { return b.slots[i].Used }

// MarkUnused turns slot i into a hole without physically removing it —
// used when the slot still needs its child pointer.
func (b *Bucket) MarkUnused(i int) { b.slots[i].Used = false }

// MarkUsed resurrects a hole left by MarkUnused, reusing its slot for a
// fresh insert of the same key rather than allocating a new one.
func (b *Bucket) MarkUsed(i int) { b.slots[i].Used = true }

func (b *Bucket) setNotPacked() { b.Packed = false }

// unalloc reverses a prior alloc of the given byte count.
func (b *Bucket) unalloc(n int) {
	b.TopSize -= n
	b.EmptySize += n
}

// alloc carves n bytes off the end of the key heap and returns the
// offset the caller should write to.
func (b *Bucket) alloc(n int) int {
	b.TopSize += n
	b.EmptySize -= n
	ofs := Capacity - b.TopSize
	return ofs
}

// DelKeyAtPos removes slot i outright, closing the gap. mayEmpty allows
// the bucket to become empty (the caller is expected to be about to
// merge or free it); otherwise a bucket may not be emptied below one key
// while it still has a right-hand nextChild, mirroring the original
// engine's invariant.
func (b *Bucket) DelKeyAtPos(i int, mayEmpty bool) error {
	if i < 0 || i > len(b.slots) {
		return errors.Errorf("bucket: delete position %d out of range", i)
	}
	if !b.ChildForPos(i).IsNull() {
		return errors.New("bucket: cannot delete a slot with a live child")
	}
	if !(mayEmpty && len(b.slots) > 0) && len(b.slots) <= 1 && !b.NextChild.IsNull() {
		return errors.New("bucket: delete would leave a dangling nextChild")
	}
	b.EmptySize += slotSize
	b.slots = append(b.slots[:i], b.slots[i+1:]...)
	b.setNotPacked()
	return nil
}

// PopBack removes and returns the rightmost key. It requires NextChild
// to be null: after popping, the popped key's left child becomes the new
// NextChild, matching the original bulk-builder's level-condensation step.
func (b *Bucket) PopBack() (locator.Locator, comparator.Key, error) {
	n := len(b.slots)
	if n == 0 {
		return locator.Null, nil, ErrEmptyPopBack
	}
	if !b.NextChild.IsNull() {
		return locator.Null, nil, errors.New("bucket: popBack with non-null nextChild")
	}
	last := b.slots[n-1]
	key := append(comparator.Key(nil), b.keyAtOffset(last.KeyOfs)...)
	b.NextChild = last.PrevChild
	b.slots = b.slots[:n-1]
	b.EmptySize += slotSize
	b.unalloc(key.Size())
	return last.Record, key, nil
}

// PushBack appends a fresh, live key known to sort after every existing
// key. It returns false if there isn't room; the caller then starts a
// fresh bucket rather than repacking (pack never helps a pure append).
func (b *Bucket) PushBack(rec locator.Locator, key comparator.Key, order comparator.Ordering, prevChild locator.Locator) bool {
	return b.PushBackSlot(rec, key, order, prevChild, true)
}

// PushBackSlot is PushBack with an explicit used flag, for split and
// merge code copying an existing slot verbatim: a tombstone carried
// across a split or fold into a neighbor must stay a tombstone, not be
// silently resurrected by the copy.
func (b *Bucket) PushBackSlot(rec locator.Locator, key comparator.Key, order comparator.Ordering, prevChild locator.Locator, used bool) bool {
	needed := key.Size() + slotSize
	if needed > b.EmptySize {
		return false
	}
	if n := len(b.slots); n > 0 {
		if comparator.WoCompare(b.KeyAt(n-1), key, order) > 0 {
			panic("bucket: PushBack key out of order")
		}
	}
	b.EmptySize -= slotSize
	ofs := b.alloc(key.Size())
	copy(b.data[ofs:ofs+key.Size()], key)
	b.slots = append(b.slots, Slot{PrevChild: prevChild, Record: rec, KeyOfs: ofs, Used: used})
	return true
}

// BasicInsert inserts a key at *keypos with no splitting, packing first
// if the bucket is fragmented enough to make room. *keypos is updated in
// place since Pack may relocate the position the caller meant to insert
// at, exactly as the original engine's basicInsert takes keypos by
// reference for the same reason.
func (b *Bucket) BasicInsert(keypos *int, rec locator.Locator, key comparator.Key, order comparator.Ordering) bool {
	needed := key.Size() + slotSize
	if needed > b.EmptySize {
		b.Pack(order, keypos)
		if needed > b.EmptySize {
			return false
		}
	}
	ofs := b.alloc(key.Size())
	copy(b.data[ofs:ofs+key.Size()], key)
	b.EmptySize -= slotSize
	slot := Slot{PrevChild: locator.Null, Record: rec, KeyOfs: ofs, Used: true}
	b.slots = append(b.slots, Slot{})
	copy(b.slots[*keypos+1:], b.slots[*keypos:])
	b.slots[*keypos] = slot
	return true
}

// MayDropKey reports whether slot index is a droppable hole: unused,
// childless, and not the position the caller is tracking across a pack.
func (b *Bucket) MayDropKey(index, refPos int) bool {
	return index > 0 && index != refPos && !b.slots[index].Used && b.slots[index].PrevChild.IsNull()
}

// PackedDataSize is the byte total the bucket would occupy if packed
// right now, without actually repacking.
func (b *Bucket) PackedDataSize(refPos int) int {
	if b.Packed {
		return Capacity - b.EmptySize
	}
	size := 0
	for i := range b.slots {
		if b.MayDropKey(i, refPos) {
			continue
		}
		size += b.KeyAt(i).Size() + slotSize
	}
	return size
}

// Pack defragments the key heap, dropping any droppable holes, and
// updates refPos to track a caller-held slot index through the reshuffle.
func (b *Bucket) Pack(order comparator.Ordering, refPos *int) {
	if b.Packed {
		return
	}
	temp := make([]byte, Capacity)
	ofs := Capacity
	newSlots := make([]Slot, 0, len(b.slots))
	rp := -1
	if refPos != nil {
		rp = *refPos
	}
	i := 0
	for j := range b.slots {
		if b.MayDropKey(j, rp) {
			continue
		}
		if rp == j {
			rp = i
		}
		s := b.slots[j]
		key := b.keyAtOffset(s.KeyOfs)
		sz := key.Size()
		ofs -= sz
		copy(temp[ofs:ofs+sz], key)
		s.KeyOfs = ofs
		newSlots = append(newSlots, s)
		i++
	}
	if rp == len(b.slots) {
		rp = i
	}
	b.slots = newSlots
	b.TopSize = Capacity - ofs
	copy(b.data[ofs:], temp[ofs:])
	b.EmptySize = ofs - len(b.slots)*slotSize
	b.Packed = true
	if refPos != nil {
		*refPos = rp
	}
}

// TruncateTo drops every slot from n onward and repacks, used after
// promoting a split key out of the bucket that's left behind.
func (b *Bucket) TruncateTo(n int, order comparator.Ordering, refPos *int) {
	b.slots = b.slots[:n]
	b.setNotPacked()
	b.Pack(order, refPos)
}

// SplitPos chooses where an overfull bucket should split, biasing toward
// a 90/10 split when the new key would land at the very end (the common
// append-heavy insertion pattern), matching the original engine's
// heuristic (SERVER-983 in its history).
func (b *Bucket) SplitPos(keypos int) int {
	n := len(b.slots)
	if n <= 2 {
		panic("bucket: SplitPos requires more than 2 keys")
	}
	limit := b.TopSize / 2
	if keypos == n {
		limit = b.TopSize / 10
	}
	split := 0
	rightSize := 0
	for i := n - 1; i >= 0; i-- {
		rightSize += b.KeyAt(i).Size()
		if rightSize > limit {
			split = i
			break
		}
	}
	if split < 1 {
		split = 1
	} else if split > n-2 {
		split = n - 2
	}
	return split
}
