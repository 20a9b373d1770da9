package journal

import (
	"io"
	"os"
	"sync"

	"github.com/oba-index/buckettree/internal/locator"
	"github.com/oba-index/buckettree/internal/pager"
	"github.com/pkg/errors"
)

// bufferSize is the size of the journal's scratch buffer; each appended
// record is still written straight to the file, not batched in it.
const bufferSize = 64 * 1024

// Pager is the subset of pager.Pager the journal needs to undo an
// interrupted frame during recovery.
type Pager interface {
	Read(loc locator.Locator) (*pager.Page, error)
	Write(loc locator.Locator, page *pager.Page) error
}

// Frame is the single in-flight write-intent the engine's single-writer
// model allows at a time. Every locator it is about to mutate must be
// declared with Writing before the in-memory page is changed.
type Frame struct {
	id uint64
	j  *Journal
}

// Journal is the write-intent log: before a Frame mutates a bucket, it
// declares the before-image so a crash between declaration and commit can
// be undone on the next Open.
type Journal struct {
	mu         sync.Mutex
	file       *os.File
	path       string
	buffer     []byte
	bufferPos  int
	currentLSN uint64
	nextFrame  uint64
	closed     bool
}

// Open opens or creates the journal at path and, if it finds an
// uncommitted frame left over from a crash, replays its before-images
// through pg to restore the data file to its last consistent state.
func Open(path string, pg Pager) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "journal: open %s", path)
	}
	j := &Journal{file: f, path: path, buffer: make([]byte, bufferSize)}
	if err := j.recover(pg); err != nil {
		f.Close()
		return nil, err
	}
	return j, nil
}

// recover replays the file's records from the start, undoing the last
// frame if it never reached a Commit record.
func (j *Journal) recover(pg Pager) error {
	data, err := readAll(j.file)
	if err != nil {
		return err
	}

	var (
		pending    []*Record
		pendingID  uint64
		haveFrame  bool
		maxLSN     uint64
	)
	off := 0
	for off < len(data) {
		rec, n, err := decodeRecord(data[off:])
		if err != nil {
			break // trailing partial record from an interrupted append
		}
		off += n
		if rec.LSN > maxLSN {
			maxLSN = rec.LSN
		}
		switch rec.Type {
		case RecordBegin:
			pending = nil
			pendingID = rec.FrameID
			haveFrame = true
		case RecordIntent:
			if haveFrame && rec.FrameID == pendingID {
				pending = append(pending, rec)
			}
		case RecordCommit, RecordAbort:
			if haveFrame && rec.FrameID == pendingID {
				haveFrame = false
				pending = nil
			}
		}
		if rec.FrameID >= j.nextFrame {
			j.nextFrame = rec.FrameID + 1
		}
	}
	j.currentLSN = maxLSN

	if haveFrame && len(pending) > 0 && pg != nil {
		// Undo in reverse declaration order.
		for i := len(pending) - 1; i >= 0; i-- {
			rec := pending[i]
			page, err := pg.Read(rec.Loc)
			if err != nil {
				return errors.Wrap(err, "journal: recovery read failed")
			}
			page.Body = append([]byte(nil), rec.Before...)
			if err := pg.Write(rec.Loc, page); err != nil {
				return errors.Wrap(err, "journal: recovery undo write failed")
			}
		}
	}

	// Truncate away any trailing garbage from an interrupted append and
	// position the file for further writes.
	if _, err := j.file.Seek(int64(off), 0); err != nil {
		return err
	}
	return j.file.Truncate(int64(off))
}

func readAll(f *os.File) ([]byte, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}

func (j *Journal) append(rec *Record) error {
	j.currentLSN++
	rec.LSN = j.currentLSN
	encoded := rec.encode()
	if _, err := j.file.Write(encoded); err != nil {
		return err
	}
	return nil
}

// Begin opens a new write frame. Only one frame may be open at a time
// under the engine's single-writer model; callers must Commit or Abort
// before beginning another.
func (j *Journal) Begin() (*Frame, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil, errors.New("journal: closed")
	}
	id := j.nextFrame
	j.nextFrame++
	if err := j.append(&Record{FrameID: id, Type: RecordBegin}); err != nil {
		return nil, err
	}
	return &Frame{id: id, j: j}, nil
}

// Writing declares intent to mutate the bucket at loc, recording its
// current bytes as the before-image the journal will restore to if the
// frame never commits.
func (f *Frame) Writing(loc locator.Locator, before []byte) error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	return f.j.append(&Record{
		FrameID: f.id,
		Type:    RecordIntent,
		Loc:     loc,
		Before:  append([]byte(nil), before...),
	})
}

// Commit closes the frame successfully; its declared intents are final.
func (f *Frame) Commit() error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	if err := f.j.append(&Record{FrameID: f.id, Type: RecordCommit}); err != nil {
		return err
	}
	return f.j.file.Sync()
}

// Abort closes the frame without committing. The caller is responsible
// for having restored any in-memory state; Abort only marks the frame
// closed in the log so recovery won't re-run it.
func (f *Frame) Abort() error {
	f.j.mu.Lock()
	defer f.j.mu.Unlock()
	return f.j.append(&Record{FrameID: f.id, Type: RecordAbort})
}

// Close releases the journal's file handle.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.closed = true
	return j.file.Close()
}
