package storage

import "encoding/binary"

// Header offsets
const (
	offPageNo = 0
	// bytes 4..8 reserved
)

// +------------------+ 0
// | page number (u32)|
// | reserved   (u32) |
// +------------------+ HeaderSize
// |                  |
// |     payload      |
// |                  |
// +------------------+ page size
//
// Page is a fixed-size block of bytes. The page number lives in the header so
// the page is independently serializable: writing the raw buffer to disk and
// reading it back preserves identity.
type Page struct {
	buf []byte
}

// NewPage allocates a zeroed page of the given total size (header included).
func NewPage(pageSize int) *Page {
	if pageSize < HeaderSize {
		pageSize = DefaultPageSize
	}
	return &Page{buf: make([]byte, pageSize)}
}

// PageNo returns the page number recorded in the header.
func (p *Page) PageNo() uint32 {
	return binary.LittleEndian.Uint32(p.buf[offPageNo:])
}

func (p *Page) setPageNo(no uint32) {
	binary.LittleEndian.PutUint32(p.buf[offPageNo:], no)
}

// Buf exposes the raw buffer, header included. Disk I/O moves this slice
// verbatim.
func (p *Page) Buf() []byte { return p.buf }

// Size returns the total page size in bytes.
func (p *Page) Size() int { return len(p.buf) }

// PayloadSize returns the usable bytes after the header.
func (p *Page) PayloadSize() int { return len(p.buf) - HeaderSize }

// Format zeroes the page and stamps the given page number into the header.
func (p *Page) Format(no uint32) {
	for i := range p.buf {
		p.buf[i] = 0
	}
	p.setPageNo(no)
}

// Write copies data into the payload at the given offset.
func (p *Page) Write(offset int, data []byte) error {
	if offset < 0 || offset+len(data) > p.PayloadSize() {
		return ErrWriteExceedPageSize
	}
	copy(p.buf[HeaderSize+offset:], data)
	return nil
}

// Read copies n payload bytes starting at offset into a fresh slice.
func (p *Page) Read(offset, n int) ([]byte, error) {
	if offset < 0 || n < 0 || offset+n > p.PayloadSize() {
		return nil, ErrReadExceedPageSize
	}
	out := make([]byte, n)
	copy(out, p.buf[HeaderSize+offset:])
	return out, nil
}
