package bucket

import (
	"encoding/binary"

	"github.com/oba-index/buckettree/internal/locator"
	"github.com/pkg/errors"
)

func putLocator(buf []byte, l locator.Locator) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(l.File))
	binary.LittleEndian.PutUint64(buf[4:12], uint64(l.Offset))
}

func getLocator(buf []byte) locator.Locator {
	return locator.Locator{
		File:   int32(binary.LittleEndian.Uint32(buf[0:4])),
		Offset: int64(binary.LittleEndian.Uint64(buf[4:12])),
	}
}

// Marshal encodes the bucket into a Capacity+headerSize-byte page body:
// the fixed header, the slot array packed at the front, and the key heap
// occupying the tail as-is (Pack has already defragmented it if needed).
func (b *Bucket) Marshal() []byte {
	buf := make([]byte, headerSize+Capacity)
	putLocator(buf[0:locatorSize], b.Parent)
	putLocator(buf[locatorSize:2*locatorSize], b.NextChild)
	off := 2 * locatorSize
	binary.LittleEndian.PutUint32(buf[off:off+4], uint32(len(b.slots)))
	binary.LittleEndian.PutUint32(buf[off+4:off+8], uint32(b.EmptySize))
	binary.LittleEndian.PutUint32(buf[off+8:off+12], uint32(b.TopSize))
	if b.Packed {
		buf[off+12] = 1
	}

	slotOff := headerSize
	for _, s := range b.slots {
		putLocator(buf[slotOff:slotOff+locatorSize], s.PrevChild)
		putLocator(buf[slotOff+locatorSize:slotOff+2*locatorSize], s.Record)
		binary.LittleEndian.PutUint32(buf[slotOff+2*locatorSize:slotOff+2*locatorSize+4], uint32(s.KeyOfs))
		if s.Used {
			buf[slotOff+2*locatorSize+4] = 1
		}
		slotOff += slotSize
	}

	copy(buf[headerSize+Capacity-b.TopSize:], b.data[Capacity-b.TopSize:])
	return buf
}

// Unmarshal decodes a bucket from a page body previously produced by
// Marshal.
func Unmarshal(buf []byte) (*Bucket, error) {
	if len(buf) < headerSize+Capacity {
		return nil, errors.New("bucket: truncated page body")
	}
	b := &Bucket{}
	b.Parent = getLocator(buf[0:locatorSize])
	b.NextChild = getLocator(buf[locatorSize : 2*locatorSize])
	off := 2 * locatorSize
	n := int(binary.LittleEndian.Uint32(buf[off : off+4]))
	b.EmptySize = int(binary.LittleEndian.Uint32(buf[off+4 : off+8]))
	b.TopSize = int(binary.LittleEndian.Uint32(buf[off+8 : off+12]))
	b.Packed = buf[off+12] != 0

	b.slots = make([]Slot, n)
	slotOff := headerSize
	for i := 0; i < n; i++ {
		var s Slot
		s.PrevChild = getLocator(buf[slotOff : slotOff+locatorSize])
		s.Record = getLocator(buf[slotOff+locatorSize : slotOff+2*locatorSize])
		s.KeyOfs = int(binary.LittleEndian.Uint32(buf[slotOff+2*locatorSize : slotOff+2*locatorSize+4]))
		s.Used = buf[slotOff+2*locatorSize+4] != 0
		b.slots[i] = s
		slotOff += slotSize
	}

	b.data = append([]byte(nil), buf[headerSize:headerSize+Capacity]...)
	return b, nil
}
