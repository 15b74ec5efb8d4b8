package hwcodec

// PixelFormat represents raw video pixel formats.
type PixelFormat int

const (
	PixelFormatI420   PixelFormat = iota // YUV 4:2:0 planar (Y + U + V), AV_PIX_FMT_YUV420P
	PixelFormatNV12                      // YUV 4:2:0 semi-planar (Y + interleaved UV)
	PixelFormatRGB24                     // Packed RGB, 3 bytes per pixel
	PixelFormatRGBA32                    // Packed RGBA, 4 bytes per pixel
	PixelFormatBGRA32                    // Packed BGRA, 4 bytes per pixel
	pixelFormatCount
)

// pixelFormatMeta describes the plane layout of a pixel format.
type pixelFormatMeta struct {
	Name      string
	AV        int    // libavutil AVPixelFormat value
	Planes    int    // number of planes
	RowBytes  [3]int // bytes per pixel per plane, before horizontal subsampling
	ChromaSub bool   // planes > 0 are subsampled 2x in both directions
}

var pixelFormatInfo = [pixelFormatCount]pixelFormatMeta{
	PixelFormatI420:   {"I420", 0, 3, [3]int{1, 1, 1}, true},
	PixelFormatNV12:   {"NV12", 23, 2, [3]int{1, 2, 0}, true},
	PixelFormatRGB24:  {"RGB24", 2, 1, [3]int{3, 0, 0}, false},
	PixelFormatRGBA32: {"RGBA32", 26, 1, [3]int{4, 0, 0}, false},
	PixelFormatBGRA32: {"BGRA32", 28, 1, [3]int{4, 0, 0}, false},
}

// AllPixelFormats lists every supported pixel format in declaration order.
func AllPixelFormats() []PixelFormat {
	out := make([]PixelFormat, 0, pixelFormatCount)
	for p := PixelFormat(0); p < pixelFormatCount; p++ {
		out = append(out, p)
	}
	return out
}

// Valid reports whether p is a known pixel format.
func (p PixelFormat) Valid() bool { return p >= 0 && p < pixelFormatCount }

func (p PixelFormat) String() string {
	if !p.Valid() {
		return "Unknown"
	}
	return pixelFormatInfo[p].Name
}

// PlaneCount returns the number of planes for this pixel format.
func (p PixelFormat) PlaneCount() int {
	if !p.Valid() {
		return 0
	}
	return pixelFormatInfo[p].Planes
}

// Subsampled returns true for 4:2:0 formats that require even dimensions.
func (p PixelFormat) Subsampled() bool {
	if !p.Valid() {
		return false
	}
	return pixelFormatInfo[p].ChromaSub
}

// AVPixelFormat returns the libavutil enum value for this format, or -1.
func (p PixelFormat) AVPixelFormat() int {
	if !p.Valid() {
		return -1
	}
	return pixelFormatInfo[p].AV
}

// PixelFormatFromAV maps a libavutil AVPixelFormat value back to a PixelFormat.
func PixelFormatFromAV(av int) (PixelFormat, bool) {
	for p := PixelFormat(0); p < pixelFormatCount; p++ {
		if pixelFormatInfo[p].AV == av {
			return p, true
		}
	}
	return 0, false
}
