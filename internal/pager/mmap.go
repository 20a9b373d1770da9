package pager

import (
	"os"
	"sync"

	"github.com/pkg/errors"
)

var (
	errMmapClosed        = errors.New("pager: mmap manager is closed")
	errMmapNotMapped     = errors.New("pager: file is not memory mapped")
	errMmapOutOfRange    = errors.New("pager: offset out of mapped range")
	errMmapReadOnly      = errors.New("pager: mapping is read-only")
	errMmapAlreadyMapped = errors.New("pager: file is already memory mapped")
)

// mmapFile memory-maps a growable data file so bucket reads are zero-copy
// slices into process memory; the only implicit blocking a caller can hit
// is a page fault against a bucket the OS hasn't yet paged in.
type mmapFile struct {
	file     *os.File
	data     []byte
	size     int64
	readOnly bool
	mu       sync.RWMutex
	closed   bool
}

func openMmapFile(file *os.File, size int64, readOnly bool) (*mmapFile, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = info.Size()
	}
	if size < fileHeaderSize {
		size = fileHeaderSize
	}
	size = alignToBucketSize(size)

	if info.Size() < size && !readOnly {
		if err := file.Truncate(size); err != nil {
			return nil, err
		}
	}

	m := &mmapFile{file: file, size: size, readOnly: readOnly}
	if err := m.mapFile(); err != nil {
		return nil, err
	}
	return m, nil
}

func alignToBucketSize(size int64) int64 {
	if size%BucketSize == 0 {
		return size
	}
	return ((size / BucketSize) + 1) * BucketSize
}

func (m *mmapFile) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errMmapClosed
	}
	m.closed = true
	if m.data == nil {
		return nil
	}
	return m.unmapFile()
}

// slice returns a zero-copy view of count bytes starting at off.
func (m *mmapFile) slice(off, count int64) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, errMmapClosed
	}
	if m.data == nil {
		return nil, errMmapNotMapped
	}
	if off < 0 || off+count > m.size {
		return nil, errMmapOutOfRange
	}
	return m.data[off : off+count], nil
}

// grow extends the mapping to at least newSize bytes, remapping as needed.
func (m *mmapFile) grow(newSize int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errMmapClosed
	}
	if m.readOnly {
		return errMmapReadOnly
	}
	newSize = alignToBucketSize(newSize)
	if newSize <= m.size {
		return nil
	}
	if m.data != nil {
		if err := m.unmapFile(); err != nil {
			return err
		}
	}
	if err := m.file.Truncate(newSize); err != nil {
		return err
	}
	m.size = newSize
	return m.mapFile()
}

func (m *mmapFile) Sync() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return errMmapClosed
	}
	if m.data == nil {
		return errMmapNotMapped
	}
	return m.syncFile()
}

func (m *mmapFile) Size() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.size
}
