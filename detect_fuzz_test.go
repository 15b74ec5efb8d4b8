package hwcodec

import (
	"testing"
)

// FuzzDetectCodec checks that detection never panics.
// Run with: go test -fuzz=FuzzDetectCodec -fuzztime=30s
func FuzzDetectCodec(f *testing.F) {
	seeds := [][]byte{
		{0x00, 0x00, 0x00, 0x01, 0x67}, // H264 SPS
		{0x00, 0x00, 0x00, 0x01, 0x40, 0x01},
		{0x00, 0x00, 0x01, 0x61, 0x00},
		{0x00, 0x00, 0x00, 0x9D, 0x01, 0x2A, 0x00, 0x00, 0x00, 0x00},
		{0x82, 0x49, 0x83},
		{0x12, 0x00},
		[]byte("RAWV\x02"),
		{'D', 'K', 'I', 'F', 0, 0, 32, 0, 'A', 'V', '0', '1', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{},
		{0x00},
		{0xFF, 0xFF, 0xFF, 0xFF},
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		result := DetectCodec(data)
		if result < DataFormatUnknown || result > DataFormatRaw {
			t.Errorf("DetectCodec returned invalid format: %d", result)
		}
	})
}
