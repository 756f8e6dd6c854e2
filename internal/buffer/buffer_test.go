package buffer

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignment(t *testing.T) {
	a := Alignment()
	assert.GreaterOrEqual(t, a, 4096)
	assert.Zero(t, a&(a-1), "alignment must be a power of two")
}

func TestRoundUp(t *testing.T) {
	a := Alignment()
	assert.Equal(t, a, RoundUp(1))
	assert.Equal(t, a, RoundUp(512))
	assert.Equal(t, a, RoundUp(a))
	assert.Equal(t, 2*a, RoundUp(a+1))
}

func TestAllocateAligned(t *testing.T) {
	sizes := []int{
		512,
		1000,
		4096,
		64 * 1024,
		128 * 1024,
		1024*1024 + 17,
		16 * 1024 * 1024,
		128 * 1024 * 1024,
	}
	align := uintptr(Alignment())
	for _, size := range sizes {
		buf, err := Allocate(size)
		require.NoError(t, err, "size %d", size)

		b := buf.Bytes()
		require.NotEmpty(t, b)
		assert.Zero(t, uintptr(unsafe.Pointer(&b[0]))%align, "size %d: base not aligned", size)
		assert.GreaterOrEqual(t, buf.Len(), size)
		assert.Zero(t, buf.Len()%int(align), "size %d: length not rounded", size)

		// Region must be writable end to end.
		b[0] = 0xAA
		b[len(b)-1] = 0x55

		require.NoError(t, buf.Free())
	}
}

func TestAllocateInvalidSize(t *testing.T) {
	_, err := Allocate(0)
	assert.Error(t, err)
	_, err = Allocate(-1)
	assert.Error(t, err)
}

func TestFreeIdempotent(t *testing.T) {
	buf, err := Allocate(4096)
	require.NoError(t, err)
	require.NoError(t, buf.Free())
	require.NoError(t, buf.Free())
	assert.Nil(t, buf.Bytes())

	var nilBuf *Buffer
	assert.NoError(t, nilBuf.Free())
	assert.Zero(t, nilBuf.Len())
}
