package bufferpool

import "fmt"

// frameDesc is the bookkeeping record for one buffer slot. It is index-aligned
// with the pool's page buffers: frames[i] describes pages[i].
//
// When valid is false the file/pageNo fields are meaningless and pinCount,
// dirty and refBit are all at their zero values.
type frameDesc struct {
	frameNo  int
	file     File
	pageNo   uint32
	pinCount int
	dirty    bool
	refBit   bool
	valid    bool
}

// set marks the frame as holding a freshly loaded page. It is called exactly
// once per load, right after the replacer hands the frame out: the new page
// starts pinned, referenced and clean.
func (fd *frameDesc) set(f File, pageNo uint32) {
	fd.file = f
	fd.pageNo = pageNo
	fd.pinCount = 1
	fd.dirty = false
	fd.refBit = true
	fd.valid = true
}

// clear resets the frame to the invalid state. frameNo survives.
func (fd *frameDesc) clear() {
	fd.file = nil
	fd.pageNo = 0
	fd.pinCount = 0
	fd.dirty = false
	fd.refBit = false
	fd.valid = false
}

// tag returns the page-table key for the resident page. Only meaningful while
// valid.
func (fd *frameDesc) tag() pageTag {
	return pageTag{FileID: fd.file.ID(), PageNo: fd.pageNo}
}

func (fd *frameDesc) String() string {
	if !fd.valid {
		return fmt.Sprintf("frame %d: <empty>", fd.frameNo)
	}
	return fmt.Sprintf("frame %d: file=%s page=%d pin=%d dirty=%t ref=%t",
		fd.frameNo, fd.file.Name(), fd.pageNo, fd.pinCount, fd.dirty, fd.refBit)
}

// newFrameTable builds the descriptor array. All frames start invalid.
func newFrameTable(capacity int) []frameDesc {
	frames := make([]frameDesc, capacity)
	for i := range frames {
		frames[i].frameNo = i
	}
	return frames
}
