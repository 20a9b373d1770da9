package pager

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
)

// fileHeaderSize occupies the first BucketSize bytes of the data file, so
// the free list and bucket slots that follow stay BucketSize-aligned.
const fileHeaderSize = BucketSize

var magic = [4]byte{'B', 'K', 'T', 0}

const currentVersion uint32 = 1

// fileHeader is the data file's superblock: magic, version, bucket
// count, and the free-list head, checksummed over its fixed fields.
type fileHeader struct {
	Magic        [4]byte
	Version      uint32
	BucketSize   uint32
	TotalBuckets uint64
	FreeListHead uint64
	Checksum     uint64
}

var (
	errBadMagic   = errors.New("pager: not a bucket index file")
	errBadVersion = errors.New("pager: unsupported file version")
	errBadHeader  = errors.New("pager: file header checksum mismatch")
)

func newFileHeader() *fileHeader {
	return &fileHeader{
		Magic:        magic,
		Version:      currentVersion,
		BucketSize:   BucketSize,
		TotalBuckets: 1, // header occupies slot 0
		FreeListHead: 0,
	}
}

func (h *fileHeader) serializeInto(buf []byte) {
	for i := range buf[:fileHeaderSize] {
		buf[i] = 0
	}
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.BucketSize)
	binary.LittleEndian.PutUint64(buf[12:20], h.TotalBuckets)
	binary.LittleEndian.PutUint64(buf[20:28], h.FreeListHead)
	sum := xxhash.Sum64(buf[0:28])
	h.Checksum = sum
	binary.LittleEndian.PutUint64(buf[28:36], sum)
}

func deserializeFileHeader(buf []byte) (*fileHeader, error) {
	if len(buf) < fileHeaderSize {
		return nil, ErrInvalidBucketSize
	}
	h := &fileHeader{}
	copy(h.Magic[:], buf[0:4])
	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	h.BucketSize = binary.LittleEndian.Uint32(buf[8:12])
	h.TotalBuckets = binary.LittleEndian.Uint64(buf[12:20])
	h.FreeListHead = binary.LittleEndian.Uint64(buf[20:28])
	h.Checksum = binary.LittleEndian.Uint64(buf[28:36])

	if h.Magic != magic {
		return nil, errBadMagic
	}
	if h.Version != currentVersion {
		return nil, errBadVersion
	}
	sum := xxhash.Sum64(buf[0:28])
	if sum != h.Checksum {
		return nil, errBadHeader
	}
	return h, nil
}
