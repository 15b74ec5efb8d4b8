package hwcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFillColorBarsRGB(t *testing.T) {
	f, err := NewFrame(PixelFormatRGB24, 64, 4, 0)
	require.NoError(t, err)
	FillColorBars(f, 0)

	px := func(x, y int) []byte { return f.Data[y*f.Stride(0)+x*3 : y*f.Stride(0)+x*3+3] }
	assert.Equal(t, colorBarsRGB[0][:], px(0, 0))
	assert.Equal(t, colorBarsRGB[1][:], px(8, 3))
	assert.Equal(t, colorBarsRGB[7][:], px(63, 2))

	bgra, err := NewFrame(PixelFormatBGRA32, 64, 4, 0)
	require.NoError(t, err)
	FillColorBars(bgra, 0)
	assert.Equal(t, []byte{0, 192, 192, 255}, bgra.Data[8*4:8*4+4], "yellow in BGRA")
}

func TestFillColorBarsYUV(t *testing.T) {
	for _, pixfmt := range []PixelFormat{PixelFormatI420, PixelFormatNV12} {
		t.Run(pixfmt.String(), func(t *testing.T) {
			f, err := NewFrame(pixfmt, 48, 8, 32)
			require.NoError(t, err)
			require.Equal(t, 64, f.Stride(0))
			FillColorBars(f, 0)

			white, _, _ := rgbToYUV(192, 192, 192)
			black, _, _ := rgbToYUV(16, 16, 16)
			y := f.Plane(0)
			assert.Equal(t, white, y[0])
			assert.Equal(t, black, y[47])
			assert.Zero(t, y[48], "row padding is left alone")

			shifted := f.Clone()
			FillColorBars(shifted, 6)
			assert.NotEqual(t, f.Data, shifted.Data, "offset moves the bars")
		})
	}
}

func TestRGBToYUV(t *testing.T) {
	y, u, v := rgbToYUV(0, 0, 0)
	assert.Equal(t, [3]uint8{16, 128, 128}, [3]uint8{y, u, v})
	_, u, v = rgbToYUV(0, 0, 255)
	assert.Greater(t, u, uint8(200))
	assert.Less(t, v, uint8(128))
}
