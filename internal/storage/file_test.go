package storage

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testPageSize = 256

func newTestFile(t *testing.T, name string) *DBFile {
	t.Helper()

	fs := afero.NewMemMapFs()
	df, err := Open(fs, name, testPageSize)
	require.NoError(t, err)
	t.Cleanup(func() { _ = df.Close() })
	return df
}

func TestOpen_NewFileIsEmpty(t *testing.T) {
	df := newTestFile(t, "data/test.db")

	require.Equal(t, uint32(0), df.PageCount())
	require.Equal(t, "test.db", df.Name())
	require.Equal(t, testPageSize, df.PageSize())
}

func TestDBFile_IDStableAndDistinct(t *testing.T) {
	fs := afero.NewMemMapFs()

	a1, err := Open(fs, "a.db", testPageSize)
	require.NoError(t, err)
	a2, err := Open(fs, "./a.db", testPageSize)
	require.NoError(t, err)
	b, err := Open(fs, "b.db", testPageSize)
	require.NoError(t, err)

	// Same underlying file (path cleaning applied) -> same ID.
	require.Equal(t, a1.ID(), a2.ID())
	require.NotEqual(t, a1.ID(), b.ID())
}

func TestDBFile_AllocateWriteRead(t *testing.T) {
	df := newTestFile(t, "test.db")

	no, err := df.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, uint32(0), no)
	require.Equal(t, uint32(1), df.PageCount())

	p := NewPage(testPageSize)
	require.NoError(t, df.ReadPage(no, p))
	require.Equal(t, no, p.PageNo())

	require.NoError(t, p.Write(0, []byte("persisted")))
	require.NoError(t, df.WritePage(p))

	reread := NewPage(testPageSize)
	require.NoError(t, df.ReadPage(no, reread))
	got, err := reread.Read(0, 9)
	require.NoError(t, err)
	require.Equal(t, []byte("persisted"), got)
}

func TestDBFile_ReadBeyondEOF(t *testing.T) {
	df := newTestFile(t, "test.db")

	p := NewPage(testPageSize)
	require.ErrorIs(t, df.ReadPage(5, p), ErrPageBeyondEOF)
}

func TestDBFile_WrongPageSizeRejected(t *testing.T) {
	df := newTestFile(t, "test.db")
	_, err := df.AllocatePage()
	require.NoError(t, err)

	p := NewPage(testPageSize * 2)
	require.ErrorIs(t, df.ReadPage(0, p), ErrWrongPageSize)
	require.ErrorIs(t, df.WritePage(p), ErrWrongPageSize)
}

func TestDBFile_DeleteZeroesAndReuses(t *testing.T) {
	df := newTestFile(t, "test.db")

	no0, err := df.AllocatePage()
	require.NoError(t, err)
	no1, err := df.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, uint32(1), no1)

	// Give page 0 some content, then delete it.
	p := NewPage(testPageSize)
	require.NoError(t, df.ReadPage(no0, p))
	require.NoError(t, p.Write(0, []byte{0xde, 0xad}))
	require.NoError(t, df.WritePage(p))
	require.NoError(t, df.DeletePage(no0))

	// On disk the page is zeroed but the file did not shrink.
	require.NoError(t, df.ReadPage(no0, p))
	require.Equal(t, uint32(0), p.PageNo())
	got, err := p.Read(0, 2)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0}, got)
	require.Equal(t, uint32(2), df.PageCount())

	// Deleting again is a no-op.
	require.NoError(t, df.DeletePage(no0))

	// The freed number is handed out before the file grows.
	reused, err := df.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, no0, reused)
	require.Equal(t, uint32(2), df.PageCount())
}

func TestDBFile_ClosedOperationsFail(t *testing.T) {
	df := newTestFile(t, "test.db")
	require.NoError(t, df.Close())

	_, err := df.AllocatePage()
	require.ErrorIs(t, err, ErrFileClosed)
	require.ErrorIs(t, df.ReadPage(0, NewPage(testPageSize)), ErrFileClosed)

	// Close is idempotent.
	require.NoError(t, df.Close())
}

func TestOpen_RejectsPartialPageFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.db", make([]byte, testPageSize+1), FileMode0644))

	_, err := Open(fs, "bad.db", testPageSize)
	require.ErrorIs(t, err, ErrWrongPageSize)
}
