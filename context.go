package hwcodec

import (
	"fmt"
	"strings"
)

// DataFormat identifies the compressed bitstream format.
type DataFormat int

const (
	DataFormatUnknown DataFormat = iota
	DataFormatH264
	DataFormatH265
	DataFormatVP8
	DataFormatVP9
	DataFormatAV1
	DataFormatRaw // rawvideo elementary stream
)

func (f DataFormat) String() string {
	switch f {
	case DataFormatH264:
		return "H264"
	case DataFormatH265:
		return "H265"
	case DataFormatVP8:
		return "VP8"
	case DataFormatVP9:
		return "VP9"
	case DataFormatAV1:
		return "AV1"
	case DataFormatRaw:
		return "Raw"
	default:
		return "Unknown"
	}
}

// DataFormatFromName derives the bitstream format from a backend name such
// as "h264_nvenc", "hevc", "libx265" or "rawvideo".
func DataFormatFromName(name string) DataFormat {
	n := strings.ToLower(name)
	switch {
	case strings.HasPrefix(n, "h264"), n == "libx264", n == "libopenh264":
		return DataFormatH264
	case strings.HasPrefix(n, "hevc"), strings.HasPrefix(n, "h265"), n == "libx265":
		return DataFormatH265
	case strings.HasPrefix(n, "vp8"), n == "libvpx":
		return DataFormatVP8
	case strings.HasPrefix(n, "vp9"), n == "libvpx-vp9":
		return DataFormatVP9
	case strings.HasPrefix(n, "av1"), n == "libaom-av1", n == "libsvtav1", n == "libdav1d":
		return DataFormatAV1
	case strings.HasPrefix(n, "rawvideo"):
		return DataFormatRaw
	default:
		return DataFormatUnknown
	}
}

// RateControl defines the encoder rate control mode.
type RateControl int

const (
	RateControlDefault RateControl = iota // Backend default
	RateControlCBR                        // Constant bitrate
	RateControlVBR                        // Variable bitrate
	RateControlCQ                         // Constant quality
)

func (r RateControl) String() string {
	switch r {
	case RateControlDefault:
		return "Default"
	case RateControlCBR:
		return "CBR"
	case RateControlVBR:
		return "VBR"
	case RateControlCQ:
		return "CQ"
	default:
		return "Unknown"
	}
}

// Quality is a coarse encoder quality tier.
type Quality int

const (
	QualityDefault Quality = iota
	QualityHigh
	QualityMedium
	QualityLow
)

func (q Quality) String() string {
	switch q {
	case QualityDefault:
		return "Default"
	case QualityHigh:
		return "High"
	case QualityMedium:
		return "Medium"
	case QualityLow:
		return "Low"
	default:
		return "Unknown"
	}
}

// DeviceType is a hardware device API hint for decoders.
type DeviceType int

const (
	DeviceNone DeviceType = iota
	DeviceCUDA
	DeviceD3D11VA
	DeviceQSV
	DeviceVAAPI
	DeviceVideoToolbox
	DeviceMediaCodec
)

func (d DeviceType) String() string {
	switch d {
	case DeviceNone:
		return "none"
	case DeviceCUDA:
		return "cuda"
	case DeviceD3D11VA:
		return "d3d11va"
	case DeviceQSV:
		return "qsv"
	case DeviceVAAPI:
		return "vaapi"
	case DeviceVideoToolbox:
		return "videotoolbox"
	case DeviceMediaCodec:
		return "mediacodec"
	default:
		return "unknown"
	}
}

// AVHWDeviceType returns the FFmpeg AVHWDeviceType value for d, or 0
// (AV_HWDEVICE_TYPE_NONE) when there is none.
func (d DeviceType) AVHWDeviceType() int {
	switch d {
	case DeviceCUDA:
		return 2
	case DeviceVAAPI:
		return 3
	case DeviceQSV:
		return 5
	case DeviceVideoToolbox:
		return 6
	case DeviceD3D11VA:
		return 7
	case DeviceMediaCodec:
		return 10
	default:
		return 0
	}
}

// Defaults applied by backends when the corresponding field is zero.
const (
	DefaultFPS  = 30
	DefaultKbps = 2000
	NoQuantizer = -1
)

// EncodeContext describes an encode request. It is a value object: backends
// read it and never modify it.
//
// Zero values select documented defaults: RateControlDefault, QualityDefault,
// DefaultFPS and DefaultKbps. Q must be NoQuantizer (or any negative value)
// to leave the quantizer to rate control.
type EncodeContext struct {
	Name        string     // Backend name, "" lets the system choose
	Codec       DataFormat // Bitstream format, derived from Name when unknown
	Device      string     // Vendor hint ("nvidia", "intel", "software", ...), "" = any
	Width       int
	Height      int
	PixelFormat PixelFormat
	Align       int // Stride alignment in bytes, 0 = backend default
	Kbps        int // Target bitrate
	FPS         int
	GOP         int // Keyframe interval in frames, 0 = backend default
	Quality     Quality
	RateControl RateControl
	ThreadCount int // 0 = backend chooses
	Q           int // Quantizer override, negative = none
}

// Validate checks the invariants of c and returns ErrUnsupportedFormat when
// the frame geometry cannot be represented.
func (c EncodeContext) Validate() error {
	if _, err := c.Geometry(); err != nil {
		return err
	}
	if c.Kbps < 0 || c.FPS < 0 || c.GOP < 0 || c.ThreadCount < 0 {
		return fmt.Errorf("%w: negative encoder parameter", ErrUnsupportedFormat)
	}
	if c.Device != "" {
		if _, ok := VendorByName(c.Device); !ok {
			return fmt.Errorf("%w: unknown device %q", ErrUnsupportedFormat, c.Device)
		}
	}
	return nil
}

// Allows reports whether the Device hint admits the backend called name.
func (c EncodeContext) Allows(name string) bool {
	if c.Device == "" {
		return true
	}
	v, ok := VendorByName(c.Device)
	return ok && VendorOf(name) == v
}

// Geometry returns the raw frame layout the encoder expects as input.
func (c EncodeContext) Geometry() (Geometry, error) {
	return ComputeGeometry(c.PixelFormat, c.Width, c.Height, c.Align)
}

// Format returns Codec, or the format derived from Name when Codec is unset.
func (c EncodeContext) Format() DataFormat {
	if c.Codec != DataFormatUnknown {
		return c.Codec
	}
	return DataFormatFromName(c.Name)
}

// WithName returns a copy of c bound to a backend name.
func (c EncodeContext) WithName(name string) EncodeContext {
	c.Name = name
	return c
}

// FrameRate returns FPS or DefaultFPS.
func (c EncodeContext) FrameRate() int {
	if c.FPS <= 0 {
		return DefaultFPS
	}
	return c.FPS
}

// Bitrate returns Kbps or DefaultKbps.
func (c EncodeContext) Bitrate() int {
	if c.Kbps <= 0 {
		return DefaultKbps
	}
	return c.Kbps
}

// DecodeContext describes a decode request. Width, Height and PixelFormat
// are hints for output buffer sizing; decoders learn the real values from
// the stream.
type DecodeContext struct {
	Name        string     // Backend name, "" lets the system choose
	Codec       DataFormat // Bitstream format, derived from Name when unknown
	Device      DeviceType // Hardware device API hint
	ThreadCount int
	Width       int
	Height      int
	PixelFormat PixelFormat
	Align       int
}

// Validate checks the invariants of c.
func (c DecodeContext) Validate() error {
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrUnsupportedFormat, c.Width, c.Height)
	}
	if !validAlign(c.Align) {
		return fmt.Errorf("%w: alignment %d is not a power of two", ErrUnsupportedFormat, c.Align)
	}
	if c.Width > 0 || c.Height > 0 {
		if _, err := ComputeGeometry(c.PixelFormat, c.Width, c.Height, c.Align); err != nil {
			return err
		}
	}
	return nil
}

// Format returns Codec, or the format derived from Name when Codec is unset.
func (c DecodeContext) Format() DataFormat {
	if c.Codec != DataFormatUnknown {
		return c.Codec
	}
	return DataFormatFromName(c.Name)
}

// WithName returns a copy of c bound to a backend name.
func (c DecodeContext) WithName(name string) DecodeContext {
	c.Name = name
	return c
}
