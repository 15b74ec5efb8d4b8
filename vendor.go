package hwcodec

import "strings"

// Vendor identifies the family of a backend implementation.
type Vendor uint8

const (
	VendorSoftware   Vendor = iota // CPU codec (libx264, libx265, rawvideo, ...)
	VendorNVIDIA                   // NVENC / NVDEC
	VendorApple                    // VideoToolbox
	VendorAMD                      // AMF
	VendorIntel                    // Quick Sync
	VendorVAAPI                    // VA-API (Intel/AMD on Linux)
	VendorMediaCodec               // Android MediaCodec
	VendorV4L2                     // V4L2 memory-to-memory
	vendorCount
)

// vendorMeta contains static metadata about a vendor.
type vendorMeta struct {
	Name     string
	Suffixes []string
	Hardware bool
	Priority int // lower ranks first within a tier
}

// Static preference table, indexed by Vendor.
var vendorInfo = [vendorCount]vendorMeta{
	VendorSoftware:   {"software", nil, false, 10},
	VendorNVIDIA:     {"nvidia", []string{"_nvenc", "_cuvid", "_nvdec"}, true, 0},
	VendorApple:      {"videotoolbox", []string{"_videotoolbox"}, true, 0},
	VendorAMD:        {"amd", []string{"_amf"}, true, 1},
	VendorIntel:      {"intel", []string{"_qsv"}, true, 2},
	VendorVAAPI:      {"vaapi", []string{"_vaapi"}, true, 3},
	VendorMediaCodec: {"mediacodec", []string{"_mediacodec"}, true, 3},
	VendorV4L2:       {"v4l2m2m", []string{"_v4l2m2m"}, true, 4},
}

const maxVendorPriority = 10

// String returns the vendor name.
func (v Vendor) String() string {
	if v >= vendorCount {
		return "unknown"
	}
	return vendorInfo[v].Name
}

// Hardware returns true for hardware vendors.
func (v Vendor) Hardware() bool {
	if v >= vendorCount {
		return false
	}
	return vendorInfo[v].Hardware
}

// Priority returns the static preference of v; lower is preferred.
func (v Vendor) Priority() int {
	if v >= vendorCount {
		return maxVendorPriority + 1
	}
	return vendorInfo[v].Priority
}

// VendorOf derives the vendor from a backend name by its suffix, e.g.
// "hevc_qsv" is VendorIntel. Names without a known suffix are software.
func VendorOf(name string) Vendor {
	n := strings.ToLower(name)
	for v := Vendor(0); v < vendorCount; v++ {
		for _, s := range vendorInfo[v].Suffixes {
			if strings.HasSuffix(n, s) {
				return v
			}
		}
	}
	return VendorSoftware
}

// VendorByName returns the vendor whose name matches s (case-insensitive).
// It interprets EncodeContext.Device hints such as "nvidia" or "intel".
func VendorByName(s string) (Vendor, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for v := Vendor(0); v < vendorCount; v++ {
		if vendorInfo[v].Name == s {
			return v, true
		}
	}
	return 0, false
}

// ScoreFor derives the CodecInfo score of a backend. Higher is better and
// the order agrees with Prioritize.
func ScoreFor(name string, hardware bool) int {
	score := (maxVendorPriority + 1 - VendorOf(name).Priority()) * 10
	if hardware {
		score += 1000
	}
	return score
}
