package storage

import "errors"

const (
	OneKB = 1 << 10 // 1,024
	OneMB = 1 << 20 // 1,048,576

	// DefaultPageSize is used when the configuration does not override it.
	DefaultPageSize = 1 << 13 // 8,192 (8 KiB)

	// HeaderSize is the fixed per-page header: page number (uint32) plus
	// reserved space for future flags.
	HeaderSize = 8
)

const (
	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

var (
	ErrWrongPageSize       = errors.New("storage: buffer size != page size")
	ErrWriteExceedPageSize = errors.New("storage: write would exceed page size")
	ErrReadExceedPageSize  = errors.New("storage: read would exceed page size")
	ErrPageBeyondEOF       = errors.New("storage: page number beyond end of file")
	ErrFileClosed          = errors.New("storage: file is closed")
)
