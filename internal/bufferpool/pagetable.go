package bufferpool

// pageTag uniquely identifies a page across all files seen by the pool.
type pageTag struct {
	FileID uint64
	PageNo uint32
}

type tableEntry struct {
	tag     pageTag
	frameID int
	next    *tableEntry
}

// pageTable maps pageTag -> frame index with a chained hash table. The bucket
// count is roughly 1.2x the pool capacity rounded to an odd number; that is a
// tuning default, not part of the contract.
type pageTable struct {
	buckets []*tableEntry
	size    int
}

func tableBuckets(capacity int) int {
	n := (capacity*12/10)&^1 + 1
	if n < 3 {
		n = 3
	}
	return n
}

func newPageTable(capacity int) *pageTable {
	return &pageTable{buckets: make([]*tableEntry, tableBuckets(capacity))}
}

func (t *pageTable) bucket(tag pageTag) int {
	m := uint64(len(t.buckets))
	h := tag.FileID
	h = h*31 + uint64(tag.PageNo)
	return int(h % m)
}

// lookup returns the frame holding tag. The ok flag is the cache-miss signal;
// there is no error path here.
func (t *pageTable) lookup(tag pageTag) (frameID int, ok bool) {
	for e := t.buckets[t.bucket(tag)]; e != nil; e = e.next {
		if e.tag == tag {
			return e.frameID, true
		}
	}
	return -1, false
}

// insert adds a new mapping. The caller guarantees the key is absent; at most
// one frame ever holds a given page.
func (t *pageTable) insert(tag pageTag, frameID int) {
	b := t.bucket(tag)
	t.buckets[b] = &tableEntry{tag: tag, frameID: frameID, next: t.buckets[b]}
	t.size++
}

// remove deletes the mapping for tag if present. Removing an absent key is a
// no-op so eviction and dispose call sites need no miss handling.
func (t *pageTable) remove(tag pageTag) {
	b := t.bucket(tag)
	for p, e := (*tableEntry)(nil), t.buckets[b]; e != nil; p, e = e, e.next {
		if e.tag != tag {
			continue
		}
		if p == nil {
			t.buckets[b] = e.next
		} else {
			p.next = e.next
		}
		t.size--
		return
	}
}

func (t *pageTable) len() int { return t.size }
