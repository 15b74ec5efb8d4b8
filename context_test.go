package hwcodec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataFormatFromName(t *testing.T) {
	tests := map[string]DataFormat{
		"h264_nvenc":  DataFormatH264,
		"libx264":     DataFormatH264,
		"H264":        DataFormatH264,
		"hevc_amf":    DataFormatH265,
		"libx265":     DataFormatH265,
		"vp9_qsv":     DataFormatVP9,
		"libvpx":      DataFormatVP8,
		"av1_nvenc":   DataFormatAV1,
		"rawvideo":    DataFormatRaw,
		"mjpeg_vaapi": DataFormatUnknown,
		"":            DataFormatUnknown,
	}
	for name, want := range tests {
		assert.Equal(t, want, DataFormatFromName(name), name)
	}
}

func TestEncodeContext(t *testing.T) {
	ec := EncodeContext{Name: "hevc_qsv", Width: 1920, Height: 1080, PixelFormat: PixelFormatNV12, Q: NoQuantizer}
	require.NoError(t, ec.Validate())
	assert.Equal(t, DataFormatH265, ec.Format())
	assert.Equal(t, DefaultFPS, ec.FrameRate())
	assert.Equal(t, DefaultKbps, ec.Bitrate())
	assert.Equal(t, RateControlDefault, ec.RateControl)
	assert.Equal(t, QualityDefault, ec.Quality)

	named := ec.WithName("libx264")
	assert.Equal(t, DataFormatH264, named.Format())
	assert.Equal(t, "hevc_qsv", ec.Name, "WithName copies")

	ec.Codec = DataFormatH264
	assert.Equal(t, DataFormatH264, ec.Format(), "explicit codec wins")

	g, err := ec.Geometry()
	require.NoError(t, err)
	assert.Equal(t, 1920*1080*3/2, g.Total)

	bad := ec
	bad.Kbps = -1
	assert.ErrorIs(t, bad.Validate(), ErrUnsupportedFormat)
	bad = ec
	bad.Height = 1081
	assert.ErrorIs(t, bad.Validate(), ErrUnsupportedFormat)
}

func TestDecodeContext(t *testing.T) {
	assert.NoError(t, DecodeContext{}.Validate())
	assert.NoError(t, DecodeContext{Width: 1280, Height: 720, PixelFormat: PixelFormatNV12}.Validate())
	assert.ErrorIs(t, DecodeContext{Width: 1281, Height: 720, PixelFormat: PixelFormatNV12}.Validate(), ErrUnsupportedFormat)
	assert.ErrorIs(t, DecodeContext{Align: 3}.Validate(), ErrUnsupportedFormat)
	assert.ErrorIs(t, DecodeContext{Height: -2}.Validate(), ErrUnsupportedFormat)

	dc := DecodeContext{Name: "h264_cuvid"}
	assert.Equal(t, DataFormatH264, dc.Format())
	assert.Equal(t, "hevc", dc.WithName("hevc").Name)
}

func TestDeviceTypeAV(t *testing.T) {
	tests := map[DeviceType]int{
		DeviceNone:         0,
		DeviceCUDA:         2,
		DeviceVAAPI:        3,
		DeviceQSV:          5,
		DeviceVideoToolbox: 6,
		DeviceD3D11VA:      7,
		DeviceMediaCodec:   10,
		DeviceType(99):     0,
	}
	for d, want := range tests {
		assert.Equal(t, want, d.AVHWDeviceType(), d.String())
	}
}

func TestEncodeContextDevice(t *testing.T) {
	ec := EncodeContext{Width: 64, Height: 48, PixelFormat: PixelFormatNV12}
	assert.True(t, ec.Allows("h264_nvenc"))
	assert.True(t, ec.Allows("libx264"))

	ec.Device = "NVIDIA"
	require.NoError(t, ec.Validate())
	assert.True(t, ec.Allows("hevc_nvenc"))
	assert.True(t, ec.Allows("h264_cuvid"))
	assert.False(t, ec.Allows("h264_qsv"))
	assert.False(t, ec.Allows("libx264"))

	ec.Device = "matrox"
	assert.ErrorIs(t, ec.Validate(), ErrUnsupportedFormat)
	assert.False(t, ec.Allows("h264_nvenc"))
}
