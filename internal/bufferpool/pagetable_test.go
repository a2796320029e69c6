package bufferpool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableBuckets_OddAndScaled(t *testing.T) {
	for _, tc := range []struct {
		capacity, want int
	}{
		{1, 3},
		{3, 3},
		{10, 13},
		{100, 121},
		{128, 153},
	} {
		got := tableBuckets(tc.capacity)
		require.Equal(t, tc.want, got, "capacity %d", tc.capacity)
		require.Equal(t, 1, got%2, "bucket count must be odd")
	}
}

func TestPageTable_InsertLookupRemove(t *testing.T) {
	pt := newPageTable(8)

	a := pageTag{FileID: 1, PageNo: 10}
	b := pageTag{FileID: 2, PageNo: 10}

	_, ok := pt.lookup(a)
	require.False(t, ok)

	pt.insert(a, 3)
	pt.insert(b, 5)
	require.Equal(t, 2, pt.len())

	id, ok := pt.lookup(a)
	require.True(t, ok)
	require.Equal(t, 3, id)

	id, ok = pt.lookup(b)
	require.True(t, ok)
	require.Equal(t, 5, id)

	pt.remove(a)
	_, ok = pt.lookup(a)
	require.False(t, ok)
	require.Equal(t, 1, pt.len())

	// Removing an absent key is a no-op.
	pt.remove(a)
	require.Equal(t, 1, pt.len())
}

func TestPageTable_CollisionChaining(t *testing.T) {
	pt := newPageTable(4)
	m := uint32(len(pt.buckets))

	// Same file, page numbers a multiple of the bucket count apart land in the
	// same bucket.
	tags := []pageTag{
		{FileID: 9, PageNo: 0},
		{FileID: 9, PageNo: m},
		{FileID: 9, PageNo: 2 * m},
	}
	for i, tag := range tags {
		require.Equal(t, pt.bucket(tags[0]), pt.bucket(tag))
		pt.insert(tag, i)
	}

	for i, tag := range tags {
		id, ok := pt.lookup(tag)
		require.True(t, ok)
		require.Equal(t, i, id)
	}

	// Remove the middle of the chain; neighbors survive.
	pt.remove(tags[1])
	_, ok := pt.lookup(tags[1])
	require.False(t, ok)
	for _, i := range []int{0, 2} {
		id, ok := pt.lookup(tags[i])
		require.True(t, ok)
		require.Equal(t, i, id)
	}
}
