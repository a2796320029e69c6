package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
)

// DBFile is a single paged file: a flat array of fixed-size pages addressed by
// page number. It is built on afero.Fs so tests can run against an in-memory
// filesystem.
//
// Identity: two DBFile handles refer to the same underlying file iff their IDs
// are equal. The ID is derived from the cleaned path, so it is stable across
// opens of the same file.
type DBFile struct {
	fs       afero.Fs
	f        afero.File
	path     string
	id       uint64
	pageSize int

	pageCount uint32
	freeList  []uint32 // deleted page numbers available for reuse, not persisted
	closed    bool
}

// Open opens or creates a paged file at path. An existing file must contain a
// whole number of pages of the given size.
func Open(fs afero.Fs, path string, pageSize int) (*DBFile, error) {
	if pageSize < HeaderSize {
		return nil, fmt.Errorf("%w: %d", ErrWrongPageSize, pageSize)
	}
	path = filepath.Clean(path)

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, FileMode0755); err != nil {
			return nil, fmt.Errorf("create parent dir: %w", err)
		}
	}
	// RDWR | CREATE (no truncate)
	f, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE, FileMode0644)
	if err != nil {
		return nil, fmt.Errorf("open paged file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat paged file: %w", err)
	}
	size := info.Size()
	if size%int64(pageSize) != 0 {
		_ = f.Close()
		return nil, fmt.Errorf("%w: file size %d not a multiple of %d", ErrWrongPageSize, size, pageSize)
	}

	return &DBFile{
		fs:        fs,
		f:         f,
		path:      path,
		id:        xxhash.Sum64String(path),
		pageSize:  pageSize,
		pageCount: uint32(size / int64(pageSize)),
	}, nil
}

// ID returns the stable numeric identity of this file.
func (df *DBFile) ID() uint64 { return df.id }

// Name returns the base name of the file, for diagnostics.
func (df *DBFile) Name() string { return filepath.Base(df.path) }

// PageSize returns the size of each page in bytes.
func (df *DBFile) PageSize() int { return df.pageSize }

// PageCount returns the number of pages the file currently holds, free pages
// included.
func (df *DBFile) PageCount() uint32 { return df.pageCount }

// ReadPage reads page pageNo from disk into p. The whole buffer, header
// included, is replaced.
func (df *DBFile) ReadPage(pageNo uint32, p *Page) error {
	if df.closed {
		return ErrFileClosed
	}
	if p.Size() != df.pageSize {
		return fmt.Errorf("%w: page buffer %d, file %d", ErrWrongPageSize, p.Size(), df.pageSize)
	}
	if pageNo >= df.pageCount {
		return fmt.Errorf("%w: page %d of %d in %s", ErrPageBeyondEOF, pageNo, df.pageCount, df.Name())
	}
	if _, err := df.f.ReadAt(p.Buf(), int64(pageNo)*int64(df.pageSize)); err != nil {
		return fmt.Errorf("read page %d of %s: %w", pageNo, df.Name(), err)
	}
	return nil
}

// WritePage writes p back to disk at the offset given by the page's own
// number.
func (df *DBFile) WritePage(p *Page) error {
	if df.closed {
		return ErrFileClosed
	}
	if p.Size() != df.pageSize {
		return fmt.Errorf("%w: page buffer %d, file %d", ErrWrongPageSize, p.Size(), df.pageSize)
	}
	pageNo := p.PageNo()
	if pageNo >= df.pageCount {
		return fmt.Errorf("%w: page %d of %d in %s", ErrPageBeyondEOF, pageNo, df.pageCount, df.Name())
	}
	if _, err := df.f.WriteAt(p.Buf(), int64(pageNo)*int64(df.pageSize)); err != nil {
		return fmt.Errorf("write page %d of %s: %w", pageNo, df.Name(), err)
	}
	return nil
}

// AllocatePage assigns a fresh page number and writes a formatted empty page
// for it. Deleted pages are reused before the file grows.
func (df *DBFile) AllocatePage() (uint32, error) {
	if df.closed {
		return 0, ErrFileClosed
	}

	var pageNo uint32
	if n := len(df.freeList); n > 0 {
		pageNo = df.freeList[n-1]
		df.freeList = df.freeList[:n-1]
	} else {
		pageNo = df.pageCount
		df.pageCount++
	}

	p := NewPage(df.pageSize)
	p.Format(pageNo)
	if err := df.WritePage(p); err != nil {
		// Roll back the allocation so the number is not leaked.
		if pageNo == df.pageCount-1 {
			df.pageCount--
		} else {
			df.freeList = append(df.freeList, pageNo)
		}
		return 0, err
	}
	return pageNo, nil
}

// DeletePage zeroes the on-disk page and makes its number available for
// reuse. Deleting an already free page is a no-op.
func (df *DBFile) DeletePage(pageNo uint32) error {
	if df.closed {
		return ErrFileClosed
	}
	if pageNo >= df.pageCount {
		return fmt.Errorf("%w: page %d of %d in %s", ErrPageBeyondEOF, pageNo, df.pageCount, df.Name())
	}
	for _, free := range df.freeList {
		if free == pageNo {
			return nil
		}
	}

	p := NewPage(df.pageSize)
	if _, err := df.f.WriteAt(p.Buf(), int64(pageNo)*int64(df.pageSize)); err != nil {
		return fmt.Errorf("zero page %d of %s: %w", pageNo, df.Name(), err)
	}
	df.freeList = append(df.freeList, pageNo)
	return nil
}

// Sync flushes the underlying file.
func (df *DBFile) Sync() error {
	if df.closed {
		return ErrFileClosed
	}
	return df.f.Sync()
}

// Close closes the underlying file. Further operations fail with
// ErrFileClosed.
func (df *DBFile) Close() error {
	if df.closed {
		return nil
	}
	df.closed = true
	return df.f.Close()
}
