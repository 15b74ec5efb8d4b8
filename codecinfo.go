package hwcodec

import (
	"fmt"
	"sort"
	"time"
)

// CodecInfo describes one backend that completed a real encode or decode
// attempt for a context. CodecInfo values are created by the prober and
// never modified afterwards.
type CodecInfo struct {
	Name         string
	Codec        DataFormat
	Vendor       Vendor
	Hardware     bool
	Score        int // Derived from Hardware and Vendor, see ScoreFor
	PixelFormats []PixelFormat
	ProbeTime    time.Duration // Wall time of the successful probe
}

func (c CodecInfo) String() string {
	kind := "sw"
	if c.Hardware {
		kind = "hw"
	}
	return fmt.Sprintf("%s(%s,%s,%s,score=%d)", c.Name, c.Codec, kind, c.Vendor, c.Score)
}

// Equal reports whether c and o describe the same probe result, ignoring
// ProbeTime.
func (c CodecInfo) Equal(o CodecInfo) bool {
	if c.Name != o.Name || c.Codec != o.Codec || c.Vendor != o.Vendor ||
		c.Hardware != o.Hardware || c.Score != o.Score || len(c.PixelFormats) != len(o.PixelFormats) {
		return false
	}
	for i := range c.PixelFormats {
		if c.PixelFormats[i] != o.PixelFormats[i] {
			return false
		}
	}
	return true
}

// Less reports whether c ranks strictly before o: hardware before
// software, then the static vendor preference, then name.
func (c CodecInfo) Less(o CodecInfo) bool {
	if c.Hardware != o.Hardware {
		return c.Hardware
	}
	if pc, po := VendorOf(c.Name).Priority(), VendorOf(o.Name).Priority(); pc != po {
		return pc < po
	}
	return c.Name < o.Name
}

// Supports reports whether the backend accepted or produced p.
func (c CodecInfo) Supports(p PixelFormat) bool {
	for _, f := range c.PixelFormats {
		if f == p {
			return true
		}
	}
	return false
}

// Prioritize returns a new slice ordered by CodecInfo.Less. Entries of equal
// rank keep their input order. The input is not modified.
func Prioritize(infos []CodecInfo) []CodecInfo {
	out := make([]CodecInfo, len(infos))
	copy(out, infos)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Less(out[j])
	})
	return out
}

// Best returns the highest ranked entry per bitstream format.
func Best(infos []CodecInfo) map[DataFormat]CodecInfo {
	best := make(map[DataFormat]CodecInfo)
	for _, info := range Prioritize(infos) {
		if _, ok := best[info.Codec]; !ok {
			best[info.Codec] = info
		}
	}
	return best
}

// SoftEncoders lists the well-known software encoder names per format.
func SoftEncoders() map[DataFormat]string {
	return map[DataFormat]string{
		DataFormatH264: "libx264",
		DataFormatH265: "libx265",
		DataFormatRaw:  "rawvideo",
	}
}

// SoftDecoders lists the well-known software decoder names per format.
func SoftDecoders() map[DataFormat]string {
	return map[DataFormat]string{
		DataFormatH264: "h264",
		DataFormatH265: "hevc",
		DataFormatRaw:  "rawvideo",
	}
}
