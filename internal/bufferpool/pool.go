// Package bufferpool implements a fixed-capacity in-memory page cache sitting
// between page access logic and on-disk paged files. Residency is tracked by a
// page table, victims are chosen by a CLOCK (second-chance) replacer, and all
// I/O goes through the File collaborator.
//
// The pool is single-threaded by design: one logical caller owns an instance
// at a time. Callers that share a pool across goroutines must add their own
// synchronization.
package bufferpool

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/mqnguyen/pagebuf/internal/storage"
)

var (
	DefaultCapacity = 128

	// ErrBufferExceeded: no evictable frame after two full clock rotations;
	// every frame is pinned. The caller decides whether to unpin and retry.
	ErrBufferExceeded = errors.New("bufferpool: no free frame available (all pinned)")
	// ErrPageNotPinned: unpin called on a resident page whose pin count is
	// already zero. Caller bug, surfaced.
	ErrPageNotPinned = errors.New("bufferpool: page is not pinned")
	// ErrPagePinned: flush attempted while a page of the target file is still
	// pinned. The flush aborts at the first such frame.
	ErrPagePinned = errors.New("bufferpool: page is pinned")
	// ErrBadBuffer: a frame claims ownership by a file but is not valid.
	// Bookkeeping corruption; not retriable.
	ErrBadBuffer = errors.New("bufferpool: invalid frame in buffer pool")
)

// File is the on-disk collaborator the pool loads pages from and writes pages
// back to. *storage.DBFile implements it.
//
// ID must be a stable identity: two File values with equal IDs refer to the
// same underlying file.
type File interface {
	ID() uint64
	Name() string
	ReadPage(pageNo uint32, p *storage.Page) error
	WritePage(p *storage.Page) error
	AllocatePage() (uint32, error)
	DeletePage(pageNo uint32) error
}

var _ File = (*storage.DBFile)(nil)

// Pool is the buffer pool manager. It owns capacity page buffers, the frame
// table describing them, the page table indexing them and the clock replacer
// choosing victims among them.
type Pool struct {
	capacity int
	frames   []frameDesc
	pages    []*storage.Page
	table    *pageTable
	clock    *clockReplacer

	log     *zap.Logger
	metrics *Metrics
}

// New creates a pool with the given number of frames, each holding one page of
// pageSize bytes. A nil logger or metrics falls back to no-op implementations.
func New(capacity, pageSize int, log *zap.Logger, metrics *Metrics) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if log == nil {
		log = zap.NewNop()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	frames := newFrameTable(capacity)
	pages := make([]*storage.Page, capacity)
	for i := range pages {
		pages[i] = storage.NewPage(pageSize)
	}
	table := newPageTable(capacity)

	p := &Pool{
		capacity: capacity,
		frames:   frames,
		pages:    pages,
		table:    table,
		clock:    newClockReplacer(frames, pages, table, log, metrics),
		log:      log,
		metrics:  metrics,
	}
	log.Info("buffer pool initialized",
		zap.Int("capacity", capacity),
		zap.Int("page_size", pageSize))
	return p
}

// Capacity returns the number of frames.
func (p *Pool) Capacity() int { return p.capacity }

// FetchPage returns the resident copy of (f, pageNo), loading it from disk
// into a victim frame on a miss. The page comes back pinned; every FetchPage
// must be paired with an UnpinPage.
func (p *Pool) FetchPage(f File, pageNo uint32) (*storage.Page, error) {
	tag := pageTag{FileID: f.ID(), PageNo: pageNo}

	if frameID, ok := p.table.lookup(tag); ok {
		fd := &p.frames[frameID]
		fd.pinCount++
		fd.refBit = true
		p.metrics.Hits.Inc()
		return p.pages[frameID], nil
	}

	frameID, err := p.clock.victim()
	if err != nil {
		return nil, fmt.Errorf("fetch page %d of %s: %w", pageNo, f.Name(), err)
	}

	pg := p.pages[frameID]
	if err := f.ReadPage(pageNo, pg); err != nil {
		// The frame stays invalid and unmapped; nothing to roll back.
		return nil, fmt.Errorf("fetch page %d of %s: %w", pageNo, f.Name(), err)
	}
	p.metrics.Misses.Inc()
	p.metrics.DiskReads.Inc()

	p.table.insert(tag, frameID)
	p.frames[frameID].set(f, pageNo)

	p.log.Debug("page loaded",
		zap.Int("frame", frameID),
		zap.String("file", f.Name()),
		zap.Uint32("page", pageNo))
	return pg, nil
}

// UnpinPage releases one hold on a resident page and records whether this
// holder modified it. The dirty flag is overwritten, not OR-ed: unpinning
// with dirty=false marks the page clean even if an earlier unpin marked it
// dirty.
//
// Unpinning a page that is not resident is a no-op; unpinning a resident page
// whose pin count is already zero fails with ErrPageNotPinned.
func (p *Pool) UnpinPage(f File, pageNo uint32, dirty bool) error {
	tag := pageTag{FileID: f.ID(), PageNo: pageNo}
	frameID, ok := p.table.lookup(tag)
	if !ok {
		return nil
	}

	fd := &p.frames[frameID]
	if fd.pinCount == 0 {
		return fmt.Errorf("%w: page %d of %s", ErrPageNotPinned, pageNo, f.Name())
	}
	fd.pinCount--
	fd.dirty = dirty
	return nil
}

// AllocatePage allocates a fresh page on disk and brings it into the pool,
// pinned. It returns the new page number alongside the buffer.
func (p *Pool) AllocatePage(f File) (uint32, *storage.Page, error) {
	pageNo, err := f.AllocatePage()
	if err != nil {
		return 0, nil, fmt.Errorf("allocate page in %s: %w", f.Name(), err)
	}

	frameID, err := p.clock.victim()
	if err != nil {
		// Best effort: return the orphaned disk page to the file's free list.
		if delErr := f.DeletePage(pageNo); delErr != nil {
			p.log.Warn("could not release orphaned page",
				zap.String("file", f.Name()),
				zap.Uint32("page", pageNo),
				zap.Error(delErr))
		}
		return 0, nil, fmt.Errorf("allocate page %d of %s: %w", pageNo, f.Name(), err)
	}

	pg := p.pages[frameID]
	if err := f.ReadPage(pageNo, pg); err != nil {
		return 0, nil, fmt.Errorf("allocate page %d of %s: %w", pageNo, f.Name(), err)
	}
	p.metrics.DiskReads.Inc()

	p.table.insert(pageTag{FileID: f.ID(), PageNo: pageNo}, frameID)
	p.frames[frameID].set(f, pageNo)

	p.log.Debug("page allocated",
		zap.Int("frame", frameID),
		zap.String("file", f.Name()),
		zap.Uint32("page", pageNo))
	return pageNo, pg, nil
}

// FlushFile forces durability for every resident page of f. Dirty pages are
// written back and their frames released; clean pages stay resident. The
// flush aborts at the first pinned frame with ErrPagePinned, leaving frames
// not yet visited untouched. A frame that claims ownership by f without being
// valid fails with ErrBadBuffer.
func (p *Pool) FlushFile(f File) error {
	fileID := f.ID()
	for i := range p.frames {
		fd := &p.frames[i]
		if fd.file == nil || fd.file.ID() != fileID {
			continue
		}
		if fd.pinCount != 0 {
			return fmt.Errorf("%w: page %d of %s in frame %d",
				ErrPagePinned, fd.pageNo, f.Name(), fd.frameNo)
		}
		if !fd.valid {
			return fmt.Errorf("%w: frame %d (dirty=%t ref=%t)",
				ErrBadBuffer, fd.frameNo, fd.dirty, fd.refBit)
		}
		if !fd.dirty {
			continue
		}

		if err := fd.file.WritePage(p.pages[fd.frameNo]); err != nil {
			return fmt.Errorf("flush page %d of %s: %w", fd.pageNo, f.Name(), err)
		}
		fd.dirty = false
		p.metrics.Writebacks.Inc()
		p.metrics.DiskWrites.Inc()

		p.table.remove(fd.tag())
		fd.clear()
	}
	p.log.Debug("file flushed", zap.String("file", f.Name()))
	return nil
}

// DisposePage drops the page from the pool if resident and deletes it from
// disk either way. In-memory state is invalidated first; the on-disk delete
// always runs. Calling it twice leaves the same final state as once.
func (p *Pool) DisposePage(f File, pageNo uint32) error {
	tag := pageTag{FileID: f.ID(), PageNo: pageNo}
	if frameID, ok := p.table.lookup(tag); ok {
		p.frames[frameID].clear()
		p.table.remove(tag)
	}
	if err := f.DeletePage(pageNo); err != nil {
		return fmt.Errorf("dispose page %d of %s: %w", pageNo, f.Name(), err)
	}
	return nil
}

// ValidFrames reports how many frames currently hold a resident page.
func (p *Pool) ValidFrames() int {
	n := 0
	for i := range p.frames {
		if p.frames[i].valid {
			n++
		}
	}
	return n
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Fprintf(format string, a ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, a...)
}

// Dump writes every frame's descriptor state and the valid-frame count to w.
// Diagnostic only; not part of the functional contract.
func (p *Pool) Dump(w io.Writer) error {
	ew := &errWriter{w: w}
	for i := range p.frames {
		ew.Fprintf("%s\n", p.frames[i].String())
	}
	ew.Fprintf("valid frames: %d/%d\n", p.ValidFrames(), p.capacity)
	return ew.err
}
