package nvram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemZeroFill(t *testing.T) {
	t.Parallel()

	d := NewMem(4)
	buf := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	require.NoError(t, d.Read(buf))
	assert.Equal(t, make([]byte, 6), buf)
}

func TestMemWriteRead(t *testing.T) {
	t.Parallel()

	d := NewMem(8)
	require.NoError(t, d.Write([]byte{1, 2, 3}))
	buf := make([]byte, 8)
	require.NoError(t, d.Read(buf))
	assert.Equal(t, []byte{1, 2, 3, 0, 0, 0, 0, 0}, buf)

	assert.Error(t, d.Write(make([]byte, 9)))
}

func TestFileRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	d := NewFile(dir, 16)

	// fresh storage reads as erased memory
	buf := make([]byte, 16)
	require.NoError(t, d.Read(buf))
	assert.Equal(t, make([]byte, 16), buf)

	require.NoError(t, d.Write([]byte{0x42, 7, 7}))

	// new handle over the same directory sees the committed image
	d2 := NewFile(dir, 16)
	require.NoError(t, d2.Read(buf))
	assert.Equal(t, byte(0x42), buf[0])
	assert.Equal(t, byte(7), buf[2])
	assert.Equal(t, byte(0), buf[3])
}
