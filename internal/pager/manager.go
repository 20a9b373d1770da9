package pager

import (
	"os"
	"sync"

	"github.com/oba-index/buckettree/internal/locator"
	"github.com/oba-index/buckettree/internal/logging"
	"github.com/pkg/errors"
)

// Options configures how a Pager opens its backing file.
type Options struct {
	ReadOnly bool
}

// Pager is the external page allocator and data-file manager the bucket
// engine consumes as a collaborator, exposing alloc/free/read/write by
// locator. It owns exactly one growable file; locator.Locator.File is
// carried for a future multi-file extension but this implementation only
// ever hands out locators with File == 0.
type Pager struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	mm       *mmapFile
	header   *fileHeader
	readOnly bool
	logger   logging.Logger
}

var ErrClosed = errors.New("pager: closed")

// Open opens or creates the data file at path.
func Open(path string, opts Options) (*Pager, error) {
	flag := os.O_RDWR | os.O_CREATE
	if opts.ReadOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "pager: open %s", path)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	p := &Pager{path: path, file: f, readOnly: opts.ReadOnly, logger: logging.NewNop()}

	if info.Size() == 0 {
		if opts.ReadOnly {
			f.Close()
			return nil, errors.New("pager: cannot initialize new file in read-only mode")
		}
		if err := p.initializeNew(); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		if err := p.loadExisting(); err != nil {
			f.Close()
			return nil, err
		}
	}
	return p, nil
}

func (p *Pager) initializeNew() error {
	mm, err := openMmapFile(p.file, fileHeaderSize, p.readOnly)
	if err != nil {
		return err
	}
	p.mm = mm
	p.header = newFileHeader()
	return p.saveHeaderLocked()
}

func (p *Pager) loadExisting() error {
	info, err := p.file.Stat()
	if err != nil {
		return err
	}
	mm, err := openMmapFile(p.file, info.Size(), p.readOnly)
	if err != nil {
		return err
	}
	p.mm = mm
	buf, err := mm.slice(0, fileHeaderSize)
	if err != nil {
		return err
	}
	header, err := deserializeFileHeader(buf)
	if err != nil {
		return err
	}
	p.header = header
	return nil
}

func (p *Pager) saveHeaderLocked() error {
	buf, err := p.mm.slice(0, fileHeaderSize)
	if err != nil {
		return err
	}
	p.header.serializeInto(buf)
	return nil
}

// SetLogger installs the Logger fsync and close failures are reported
// through.
func (p *Pager) SetLogger(l logging.Logger) { p.logger = l }

// Close flushes and releases the backing file.
func (p *Pager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mm == nil {
		return ErrClosed
	}
	if !p.readOnly {
		if err := p.mm.Sync(); err != nil {
			p.logger.Error("fsync on close failed", "path", p.path, "error", err)
			return err
		}
	}
	if err := p.mm.Close(); err != nil {
		return err
	}
	err := p.file.Close()
	p.mm = nil
	return err
}

// Sync flushes dirty buckets to durable storage.
func (p *Pager) Sync() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mm == nil {
		return ErrClosed
	}
	if err := p.mm.Sync(); err != nil {
		p.logger.Error("fsync failed", "path", p.path, "error", err)
		return err
	}
	return nil
}

func slotOffset(index uint64) int64 {
	return fileHeaderSize + int64(index)*BucketSize
}

// Allocate returns a locator for a fresh, zeroed bucket: popped from the
// free list if one is available, otherwise the file is grown by one slot.
func (p *Pager) Allocate() (locator.Locator, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mm == nil {
		return locator.Null, ErrClosed
	}

	var index uint64
	if p.header.FreeListHead != 0 {
		index = p.header.FreeListHead
		buf, err := p.mm.slice(slotOffset(index), BucketSize)
		if err != nil {
			return locator.Null, err
		}
		freed, err := deserializePage(buf)
		if err != nil {
			return locator.Null, err
		}
		p.header.FreeListHead = freed.NextFree
	} else {
		index = p.header.TotalBuckets
		p.header.TotalBuckets++
		if err := p.mm.grow(slotOffset(index) + BucketSize); err != nil {
			return locator.Null, err
		}
	}
	if err := p.saveHeaderLocked(); err != nil {
		return locator.Null, err
	}

	page := newPage(KindLive)
	buf, err := p.mm.slice(slotOffset(index), BucketSize)
	if err != nil {
		return locator.Null, err
	}
	if err := page.serializeInto(buf); err != nil {
		return locator.Null, err
	}

	return locator.Locator{File: 0, Offset: int64(index)}, nil
}

// Free threads loc onto the free list for reuse by a later Allocate.
func (p *Pager) Free(loc locator.Locator) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mm == nil {
		return ErrClosed
	}
	index := uint64(loc.Offset)
	buf, err := p.mm.slice(slotOffset(index), BucketSize)
	if err != nil {
		return err
	}
	freed := newPage(KindFree)
	freed.NextFree = p.header.FreeListHead
	if err := freed.serializeInto(buf); err != nil {
		return err
	}
	p.header.FreeListHead = index
	return p.saveHeaderLocked()
}

// Read decodes the bucket at loc.
func (p *Pager) Read(loc locator.Locator) (*Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mm == nil {
		return nil, ErrClosed
	}
	if loc.IsNull() {
		return nil, errors.New("pager: read of null locator")
	}
	buf, err := p.mm.slice(slotOffset(uint64(loc.Offset)), BucketSize)
	if err != nil {
		return nil, err
	}
	return deserializePage(buf)
}

// Write serializes page back into loc's slot. Because the backing store
// is a shared mmap, the write is visible to subsequent Reads immediately;
// durability past a crash requires the caller's journal to have already
// declared its intent before the mutation lands here.
func (p *Pager) Write(loc locator.Locator, page *Page) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mm == nil {
		return ErrClosed
	}
	buf, err := p.mm.slice(slotOffset(uint64(loc.Offset)), BucketSize)
	if err != nil {
		return err
	}
	page.setDirty()
	if err := page.serializeInto(buf); err != nil {
		return err
	}
	page.clearDirty()
	return nil
}

// Path returns the backing file path.
func (p *Pager) Path() string { return p.path }

// TotalBuckets returns the number of allocated slots, including free ones.
func (p *Pager) TotalBuckets() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.header.TotalBuckets
}
