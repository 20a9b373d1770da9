package journal

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/oba-index/buckettree/internal/locator"
	"github.com/pkg/errors"
)

// RecordType distinguishes a journal entry's role in a write frame.
type RecordType uint8

const (
	RecordBegin RecordType = iota
	RecordIntent
	RecordCommit
	RecordAbort
)

func (t RecordType) String() string {
	switch t {
	case RecordBegin:
		return "Begin"
	case RecordIntent:
		return "Intent"
	case RecordCommit:
		return "Commit"
	case RecordAbort:
		return "Abort"
	default:
		return "Unknown"
	}
}

// recordHeaderSize covers LSN, FrameID, Type, locator, and before-image
// length, ahead of the variable-length Before payload and trailing
// checksum.
const recordHeaderSize = 8 + 8 + 1 + 4 + 8 + 4

// Record is a single write-intent journal entry: before touching the
// bucket at Loc, the engine appends a RecordIntent carrying Before, the
// bytes about to be overwritten, so an interrupted frame can be rolled
// back to exactly that state on reopen.
type Record struct {
	LSN     uint64
	FrameID uint64
	Type    RecordType
	Loc     locator.Locator
	Before  []byte
}

var errTruncatedRecord = errors.New("journal: truncated record")

func (r *Record) encode() []byte {
	buf := make([]byte, recordHeaderSize+len(r.Before))
	binary.LittleEndian.PutUint64(buf[0:8], r.LSN)
	binary.LittleEndian.PutUint64(buf[8:16], r.FrameID)
	buf[16] = byte(r.Type)
	binary.LittleEndian.PutUint32(buf[17:21], uint32(r.Loc.File))
	binary.LittleEndian.PutUint64(buf[21:29], uint64(r.Loc.Offset))
	binary.LittleEndian.PutUint32(buf[29:33], uint32(len(r.Before)))
	copy(buf[recordHeaderSize:], r.Before)
	sum := xxhash.Sum64(buf)
	var tail [8]byte
	binary.LittleEndian.PutUint64(tail[:], sum)
	return append(buf, tail[:]...)
}

// decodeRecord reads one record starting at buf[0], returning its byte
// length so the caller can advance past it.
func decodeRecord(buf []byte) (*Record, int, error) {
	if len(buf) < recordHeaderSize+8 {
		return nil, 0, errTruncatedRecord
	}
	r := &Record{
		LSN:     binary.LittleEndian.Uint64(buf[0:8]),
		FrameID: binary.LittleEndian.Uint64(buf[8:16]),
		Type:    RecordType(buf[16]),
		Loc: locator.Locator{
			File:   int32(binary.LittleEndian.Uint32(buf[17:21])),
			Offset: int64(binary.LittleEndian.Uint64(buf[21:29])),
		},
	}
	beforeLen := int(binary.LittleEndian.Uint32(buf[29:33]))
	total := recordHeaderSize + beforeLen + 8
	if len(buf) < total {
		return nil, 0, errTruncatedRecord
	}
	r.Before = append([]byte(nil), buf[recordHeaderSize:recordHeaderSize+beforeLen]...)

	sum := xxhash.Sum64(buf[:recordHeaderSize+beforeLen])
	stored := binary.LittleEndian.Uint64(buf[recordHeaderSize+beforeLen : total])
	if sum != stored {
		return nil, 0, errors.New("journal: record checksum mismatch")
	}
	return r, total, nil
}
