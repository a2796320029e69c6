package bufferpool

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mqnguyen/pagebuf/internal/storage"
)

// clockReplacer implements CLOCK (second-chance) victim selection over the
// pool's frame table. The hand is the only state it owns; it persists across
// calls so the policy has memory between allocations.
//
// The hand starts at the last frame so the first allocation begins its scan at
// frame 0.
type clockReplacer struct {
	frames []frameDesc
	pages  []*storage.Page
	table  *pageTable
	hand   int

	log     *zap.Logger
	metrics *Metrics
}

func newClockReplacer(frames []frameDesc, pages []*storage.Page, table *pageTable, log *zap.Logger, metrics *Metrics) *clockReplacer {
	return &clockReplacer{
		frames:  frames,
		pages:   pages,
		table:   table,
		hand:    len(frames) - 1,
		log:     log,
		metrics: metrics,
	}
}

func (c *clockReplacer) advance() {
	c.hand++
	if c.hand >= len(c.frames) {
		c.hand = 0
	}
}

// victim selects a frame to hold a new page, evicting a resident page if
// needed. The returned frame is always invalid (cleared); descriptor
// initialization via set is left to the caller.
//
// The scan gives every frame a second chance: a set refBit is cleared on the
// first encounter and the frame becomes a candidate for the next pass. Only
// after a full pass finds no candidate, with a second rotation already spent,
// does the scan give up with ErrBufferExceeded.
func (c *clockReplacer) victim() (int, error) {
	start := c.hand
	candidateSeen := false
	secondRotation := false

	for {
		c.advance()

		if c.hand == start {
			if !candidateSeen && secondRotation {
				return -1, fmt.Errorf("%w: all %d frames pinned", ErrBufferExceeded, len(c.frames))
			}
			candidateSeen = false
			secondRotation = true
		}

		fd := &c.frames[c.hand]

		if !fd.valid {
			// Empty slot, nothing to evict.
			return fd.frameNo, nil
		}

		if fd.refBit {
			fd.refBit = false
			candidateSeen = true
			continue
		}

		if fd.pinCount > 0 {
			continue
		}

		// Valid, unreferenced, unpinned: evict.
		if err := c.evict(fd); err != nil {
			return -1, err
		}
		return fd.frameNo, nil
	}
}

// evict writes the frame's page back if dirty, drops its page-table entry and
// clears the descriptor.
func (c *clockReplacer) evict(fd *frameDesc) error {
	if fd.dirty {
		if err := fd.file.WritePage(c.pages[fd.frameNo]); err != nil {
			return fmt.Errorf("evict frame %d: %w", fd.frameNo, err)
		}
		fd.dirty = false
		c.metrics.Writebacks.Inc()
		c.metrics.DiskWrites.Inc()
	}

	c.log.Debug("evicting page",
		zap.Int("frame", fd.frameNo),
		zap.String("file", fd.file.Name()),
		zap.Uint32("page", fd.pageNo))

	c.table.remove(fd.tag())
	fd.clear()
	c.metrics.Evictions.Inc()
	return nil
}
