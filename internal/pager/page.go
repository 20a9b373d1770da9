package pager

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// BucketSize is the fixed size of every allocated bucket, header included,
// sized for a slotted key/value bucket.
const BucketSize = 8192

// bucketHeaderSize is the size of the fixed fields every bucket carries
// ahead of its slotted body: kind, flags, item count, checksum, and the
// free-list next pointer used only while the slot is on the free chain.
const bucketHeaderSize = 24

// Kind distinguishes an allocated bucket's role from the pager's point of
// view. The bucket package interprets the body; the pager only needs to
// tell a free slot from a live one when scanning during recovery.
type Kind uint8

const (
	KindFree Kind = iota
	KindLive
)

// Flag holds per-bucket bits the pager itself manages (dirty tracking for
// the write-back path). The bucket package's own header fields live
// inside Body and are opaque here.
type Flag uint8

const (
	FlagDirty Flag = 1 << iota
)

var (
	ErrInvalidBucketSize = errors.New("pager: invalid bucket size")
	ErrChecksumMismatch  = errors.New("pager: bucket checksum mismatch")
)

// Page is one BucketSize slot in the data file, decoded into its header
// fields plus an opaque Body the bucket package owns.
type Page struct {
	Kind     Kind
	Flags    Flag
	ItemHint uint16 // opaque count the bucket layer stashes for diagnostics
	NextFree uint64 // free-list chain, valid only when Kind == KindFree
	Checksum uint64
	Body     []byte // BucketSize - bucketHeaderSize bytes
}

func newPage(kind Kind) *Page {
	return &Page{
		Kind: kind,
		Body: make([]byte, BucketSize-bucketHeaderSize),
	}
}

func (p *Page) serializeInto(buf []byte) error {
	if len(buf) < BucketSize {
		return ErrInvalidBucketSize
	}
	buf[0] = byte(p.Kind)
	buf[1] = byte(p.Flags)
	binary.LittleEndian.PutUint16(buf[2:4], p.ItemHint)
	binary.LittleEndian.PutUint64(buf[4:12], p.NextFree)
	copy(buf[bucketHeaderSize:BucketSize], p.Body)
	sum := xxhash.Sum64(buf[bucketHeaderSize:BucketSize])
	binary.LittleEndian.PutUint64(buf[12:20], sum)
	p.Checksum = sum
	return nil
}

func deserializePage(buf []byte) (*Page, error) {
	if len(buf) < BucketSize {
		return nil, ErrInvalidBucketSize
	}
	p := &Page{
		Kind:     Kind(buf[0]),
		Flags:    Flag(buf[1]),
		ItemHint: binary.LittleEndian.Uint16(buf[2:4]),
		NextFree: binary.LittleEndian.Uint64(buf[4:12]),
		Checksum: binary.LittleEndian.Uint64(buf[12:20]),
	}
	p.Body = append([]byte(nil), buf[bucketHeaderSize:BucketSize]...)
	if p.Kind == KindLive {
		sum := xxhash.Sum64(buf[bucketHeaderSize:BucketSize])
		if sum != p.Checksum {
			return nil, errors.Wrapf(ErrChecksumMismatch, "checksum %x != stored %x", sum, p.Checksum)
		}
	}
	return p, nil
}

func (p *Page) setDirty()   { p.Flags |= FlagDirty }
func (p *Page) clearDirty() { p.Flags &^= FlagDirty }
func (p *Page) isDirty() bool { return p.Flags&FlagDirty != 0 }
