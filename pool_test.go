package hwcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFramePool(t *testing.T) {
	pool, err := NewFramePool(PixelFormatNV12, 1280, 720, 0)
	require.NoError(t, err)
	assert.Equal(t, 1382400, pool.Geometry().Total)

	f := pool.Get()
	assert.Len(t, f.Data, 1382400)
	assert.Equal(t, PixelFormatNV12, f.Format)
	assert.Equal(t, 1280, f.Width)
	assert.Equal(t, 1280, f.Stride(1))

	pool.Put(f)
	assert.Nil(t, f.Data, "Put takes the buffer")

	other, err := NewFrame(PixelFormatI420, 1280, 720, 0)
	require.NoError(t, err)
	pool.Put(other)
	assert.NotNil(t, other.Data, "frames of another format are ignored")
	pool.Put(nil)

	padded, err := NewFrame(PixelFormatNV12, 1280, 720, 1024)
	require.NoError(t, err)
	pool.Put(padded)
	assert.NotNil(t, padded.Data, "frames with another layout are ignored")

	for i := 0; i < 4; i++ {
		pool.Put(pool.Get())
	}
	st := pool.Stats()
	assert.Equal(t, uint64(5), st.Gets)
	assert.Equal(t, uint64(5), st.Puts)
	assert.GreaterOrEqual(t, st.Allocations, uint64(1))
	assert.LessOrEqual(t, st.Allocations, st.Gets)

	_, err = NewFramePool(PixelFormatNV12, 1279, 720, 0)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFramePlanes(t *testing.T) {
	f, err := NewFrame(PixelFormatI420, 64, 32, 32)
	require.NoError(t, err)
	require.Equal(t, 3, f.PlaneCount())

	assert.Len(t, f.Plane(0), 64*32)
	assert.Len(t, f.Plane(1), 32*16)
	assert.Len(t, f.Plane(2), 32*16)
	assert.Nil(t, f.Plane(3))
	assert.Zero(t, f.Stride(-1))

	f.Plane(1)[0] = 7
	assert.Equal(t, byte(7), f.Data[64*32])

	clone := f.Clone()
	clone.Data[64*32] = 9
	clone.Geometry.Strides[0] = 1
	assert.Equal(t, byte(7), f.Data[64*32])
	assert.Equal(t, 64, f.Stride(0))

	p := &Packet{Data: []byte{1, 2, 3}, Codec: DataFormatH264, Key: true}
	pc := p.Clone()
	pc.Data[0] = 0
	assert.Equal(t, byte(1), p.Data[0])
	assert.True(t, pc.Key)
}
