package mem

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestHeapSource_Acquire(t *testing.T) {
	s := NewHeapSource()

	sizes := []int{1, 7, 64, 1000, 1 << 16}
	for _, size := range sizes {
		buf, err := s.Acquire(size)
		require.NoError(t, err)
		require.Len(t, buf, size)

		addr := uintptr(unsafe.Pointer(&buf[0]))
		require.Zerof(t, addr%Alignment, "size=%d not cache-line aligned", size)

		for i := range buf {
			require.Zerof(t, buf[i], "byte %d not zeroed", i)
		}

		require.NoError(t, s.Release(buf))
	}
}

func TestHeapSource_InvalidSize(t *testing.T) {
	s := NewHeapSource()

	_, err := s.Acquire(0)
	require.ErrorIs(t, err, ErrInvalidSize)

	_, err = s.Acquire(-1)
	require.ErrorIs(t, err, ErrInvalidSize)

	require.ErrorIs(t, s.Release(nil), ErrUnknownRegion)
}

func TestMmapSource_Lifecycle(t *testing.T) {
	s := NewMmapSource()

	buf, err := s.Acquire(4096)
	require.NoError(t, err)
	require.Len(t, buf, 4096)
	require.Equal(t, 1, s.Active())

	// Writable and zeroed.
	require.Zero(t, buf[0])
	buf[0] = 0xFF
	buf[4095] = 0x01

	require.NoError(t, s.Release(buf))
	require.Equal(t, 0, s.Active())
}

func TestMmapSource_ReleaseUnknown(t *testing.T) {
	s := NewMmapSource()

	foreign := make([]byte, 64)
	require.ErrorIs(t, s.Release(foreign), ErrUnknownRegion)
	require.ErrorIs(t, s.Release(nil), ErrUnknownRegion)
}

func TestMmapSource_MultipleRegions(t *testing.T) {
	s := NewMmapSource()

	var bufs [][]byte
	for i := 0; i < 8; i++ {
		buf, err := s.Acquire(1024)
		require.NoError(t, err)
		bufs = append(bufs, buf)
	}
	require.Equal(t, 8, s.Active())

	for _, buf := range bufs {
		require.NoError(t, s.Release(buf))
	}
	require.Equal(t, 0, s.Active())

	// Double release must fail, not crash.
	require.ErrorIs(t, s.Release(bufs[0]), ErrUnknownRegion)
}
