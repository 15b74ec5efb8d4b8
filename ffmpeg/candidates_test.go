package ffmpeg

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/hwcodec"
)

func TestCandidatesPerPlatform(t *testing.T) {
	tests := []struct {
		goos    string
		want    []string
		notWant []string
	}{
		{"linux", []string{"libx264", "h264_nvenc", "hevc_vaapi", "h264_qsv"}, []string{"h264_videotoolbox", "h264_mediacodec"}},
		{"darwin", []string{"libx264", "hevc", "hevc_videotoolbox"}, []string{"h264_nvenc", "h264_vaapi"}},
		{"android", []string{"h264_mediacodec", "h264"}, []string{"h264_amf"}},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			var names []string
			for _, c := range Candidates(tt.goos) {
				names = append(names, c.Name)
			}
			for _, n := range tt.want {
				assert.Contains(t, names, n)
			}
			for _, n := range tt.notWant {
				assert.NotContains(t, names, n)
			}
		})
	}
}

func TestCandidateTableConsistent(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range candidates {
		assert.False(t, seen[c.Name], "duplicate candidate %s", c.Name)
		seen[c.Name] = true

		assert.True(t, c.Encoder || c.Decoder, c.Name)
		assert.Equal(t, c.Codec, hwcodec.DataFormatFromName(c.Name), c.Name)
		assert.Equal(t, c.Device != hwcodec.DeviceNone, c.Hardware(), c.Name)
	}

	c, ok := Lookup("hevc_nvenc")
	require.True(t, ok)
	assert.Equal(t, hwcodec.VendorNVIDIA, hwcodec.VendorOf(c.Name))
	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestBackendsWithoutLibrary(t *testing.T) {
	encs := Encoders(nil)
	require.NotEmpty(t, encs)
	for _, e := range encs {
		_, err := e.OpenEncoder(hwcodec.EncodeContext{Width: 64, Height: 64, PixelFormat: hwcodec.PixelFormatNV12})
		assert.ErrorIs(t, err, hwcodec.ErrBackendUnavailable, e.Name())
	}

	_, err := encs[0].OpenEncoder(hwcodec.EncodeContext{Width: 64, Height: 64, PixelFormat: hwcodec.PixelFormatRGB24})
	assert.ErrorIs(t, err, hwcodec.ErrUnsupportedFormat)

	for _, d := range Decoders(nil) {
		_, err := d.OpenDecoder(hwcodec.DecodeContext{})
		assert.ErrorIs(t, err, hwcodec.ErrBackendUnavailable, d.Name())
		_, err = d.(hwcodec.Sampler).ProbeSample()
		assert.ErrorIs(t, err, ErrLibraryNotLoaded)
	}
}

func TestProbeWithoutLibrary(t *testing.T) {
	p := hwcodec.NewProber()
	infos, err := p.ProbeEncoders(context.Background(), hwcodec.EncodeContext{
		Width: 128, Height: 72, PixelFormat: hwcodec.PixelFormatI420,
	}, Encoders(nil))
	require.NoError(t, err)
	assert.Empty(t, infos)
}
