package hwcodec

import (
	"testing"
)

func TestDetectCodec(t *testing.T) {
	ivf := func(fourcc string) []byte {
		b := make([]byte, 32)
		copy(b, "DKIF")
		copy(b[8:], fourcc)
		return b
	}

	tests := []struct {
		name     string
		data     []byte
		expected DataFormat
	}{
		{"H264 4-byte start code with SPS", []byte{0x00, 0x00, 0x00, 0x01, 0x67, 0x42, 0x00, 0x1e}, DataFormatH264},
		{"H264 4-byte start code with IDR", []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x88, 0x84, 0x00}, DataFormatH264},
		{"H264 3-byte start code with slice", []byte{0x00, 0x00, 0x01, 0x41, 0x9a, 0x00, 0x00}, DataFormatH264},
		{"H264 SEI", []byte{0x00, 0x00, 0x01, 0x06, 0x05, 0x00, 0x00}, DataFormatH264},
		{"H265 VPS", []byte{0x00, 0x00, 0x00, 0x01, 0x40, 0x01, 0x0c, 0x01}, DataFormatH265},
		{"H265 SPS", []byte{0x00, 0x00, 0x00, 0x01, 0x42, 0x01, 0x01, 0x01}, DataFormatH265},
		{"H265 IDR_W_RADL", []byte{0x00, 0x00, 0x01, 0x26, 0x01, 0xaf, 0x00}, DataFormatH265},
		{"H265 CRA", []byte{0x00, 0x00, 0x01, 0x2a, 0x01, 0xaf, 0x00}, DataFormatH265},
		{"Annex-B forbidden bit", []byte{0x00, 0x00, 0x00, 0x01, 0xe7, 0x42, 0x00}, DataFormatUnknown},
		{"IVF VP8", ivf("VP80"), DataFormatVP8},
		{"IVF VP9", ivf("VP90"), DataFormatVP9},
		{"IVF AV1", ivf("AV01"), DataFormatAV1},
		{"VP8 keyframe", []byte{0x10, 0x02, 0x00, 0x9D, 0x01, 0x2A, 0x80, 0x02, 0xe0, 0x01}, DataFormatVP8},
		{"AV1 temporal delimiter", []byte{0x12, 0x00, 0x0a, 0x0b}, DataFormatAV1},
		{"AV1 sequence header", []byte{0x0a, 0x0b, 0x00, 0x00}, DataFormatAV1},
		{"VP9 frame marker", []byte{0x82, 0x49, 0x83, 0x42}, DataFormatVP9},
		{"rawvideo", []byte("RAWV\x01"), DataFormatRaw},
		{"too short", []byte{0x00, 0x00, 0x01}, DataFormatUnknown},
		{"empty", nil, DataFormatUnknown},
		{"garbage", []byte{0xff, 0xff, 0xff, 0xff}, DataFormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectCodec(tt.data)
			if got != tt.expected {
				t.Errorf("DetectCodec() = %v, want %v", got, tt.expected)
			}
		})
	}
}
