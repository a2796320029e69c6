package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPage_FormatSetsPageNo(t *testing.T) {
	p := NewPage(DefaultPageSize)
	require.Equal(t, uint32(0), p.PageNo())

	p.Format(42)
	require.Equal(t, uint32(42), p.PageNo())
	require.Equal(t, DefaultPageSize, p.Size())
	require.Equal(t, DefaultPageSize-HeaderSize, p.PayloadSize())
}

func TestPage_WriteReadRoundTrip(t *testing.T) {
	p := NewPage(512)
	p.Format(7)

	payload := []byte("some tuple bytes")
	require.NoError(t, p.Write(10, payload))

	got, err := p.Read(10, len(payload))
	require.NoError(t, err)
	require.Equal(t, payload, got)

	// The header is untouched by payload writes.
	require.Equal(t, uint32(7), p.PageNo())
}

func TestPage_WriteBounds(t *testing.T) {
	p := NewPage(64)

	err := p.Write(p.PayloadSize()-3, []byte("toolong"))
	require.ErrorIs(t, err, ErrWriteExceedPageSize)

	err = p.Write(-1, []byte("x"))
	require.ErrorIs(t, err, ErrWriteExceedPageSize)

	_, err = p.Read(p.PayloadSize(), 1)
	require.ErrorIs(t, err, ErrReadExceedPageSize)
}

func TestNewPage_TooSmallFallsBack(t *testing.T) {
	p := NewPage(2)
	require.Equal(t, DefaultPageSize, p.Size())
}
