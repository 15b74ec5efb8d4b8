package ffmpeg

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/thesyncim/hwcodec"
)

// Candidate is a native backend the shim may provide.
type Candidate struct {
	Name     string
	Codec    hwcodec.DataFormat
	Device   hwcodec.DeviceType
	Encoder  bool
	Decoder  bool
	Platform []string // GOOS values, empty = everywhere
}

// Hardware reports whether the candidate is a vendor accelerator.
func (c Candidate) Hardware() bool { return hwcodec.VendorOf(c.Name).Hardware() }

// Supports reports whether the candidate can run on goos.
func (c Candidate) Supports(goos string) bool {
	return len(c.Platform) == 0 || slices.Contains(c.Platform, goos)
}

var (
	linuxWindows = []string{"linux", "windows"}
	linuxOnly    = []string{"linux"}
	darwinOnly   = []string{"darwin", "ios"}
	androidOnly  = []string{"android"}
)

// candidates lists every backend name the shim understands.
var candidates = []Candidate{
	{Name: "libx264", Codec: hwcodec.DataFormatH264, Encoder: true},
	{Name: "libx265", Codec: hwcodec.DataFormatH265, Encoder: true},
	{Name: "h264", Codec: hwcodec.DataFormatH264, Decoder: true},
	{Name: "hevc", Codec: hwcodec.DataFormatH265, Decoder: true},

	{Name: "h264_nvenc", Codec: hwcodec.DataFormatH264, Device: hwcodec.DeviceCUDA, Encoder: true, Platform: linuxWindows},
	{Name: "hevc_nvenc", Codec: hwcodec.DataFormatH265, Device: hwcodec.DeviceCUDA, Encoder: true, Platform: linuxWindows},
	{Name: "h264_cuvid", Codec: hwcodec.DataFormatH264, Device: hwcodec.DeviceCUDA, Decoder: true, Platform: linuxWindows},
	{Name: "hevc_cuvid", Codec: hwcodec.DataFormatH265, Device: hwcodec.DeviceCUDA, Decoder: true, Platform: linuxWindows},

	{Name: "h264_amf", Codec: hwcodec.DataFormatH264, Device: hwcodec.DeviceD3D11VA, Encoder: true, Platform: linuxWindows},
	{Name: "hevc_amf", Codec: hwcodec.DataFormatH265, Device: hwcodec.DeviceD3D11VA, Encoder: true, Platform: linuxWindows},

	{Name: "h264_qsv", Codec: hwcodec.DataFormatH264, Device: hwcodec.DeviceQSV, Encoder: true, Decoder: true, Platform: linuxWindows},
	{Name: "hevc_qsv", Codec: hwcodec.DataFormatH265, Device: hwcodec.DeviceQSV, Encoder: true, Decoder: true, Platform: linuxWindows},

	{Name: "h264_vaapi", Codec: hwcodec.DataFormatH264, Device: hwcodec.DeviceVAAPI, Encoder: true, Platform: linuxOnly},
	{Name: "hevc_vaapi", Codec: hwcodec.DataFormatH265, Device: hwcodec.DeviceVAAPI, Encoder: true, Platform: linuxOnly},

	{Name: "h264_videotoolbox", Codec: hwcodec.DataFormatH264, Device: hwcodec.DeviceVideoToolbox, Encoder: true, Platform: darwinOnly},
	{Name: "hevc_videotoolbox", Codec: hwcodec.DataFormatH265, Device: hwcodec.DeviceVideoToolbox, Encoder: true, Platform: darwinOnly},

	{Name: "h264_mediacodec", Codec: hwcodec.DataFormatH264, Device: hwcodec.DeviceMediaCodec, Encoder: true, Decoder: true, Platform: androidOnly},
	{Name: "hevc_mediacodec", Codec: hwcodec.DataFormatH265, Device: hwcodec.DeviceMediaCodec, Encoder: true, Decoder: true, Platform: androidOnly},
}

// Candidates returns the candidates that can run on goos, in table order.
func Candidates(goos string) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if c.Supports(goos) {
			out = append(out, c)
		}
	}
	return out
}

// Lookup finds a candidate by name.
func Lookup(name string) (Candidate, bool) {
	for _, c := range candidates {
		if c.Name == name {
			return c, true
		}
	}
	return Candidate{}, false
}

// Native pixel formats accepted by the shim.
var nativePixelFormats = []hwcodec.PixelFormat{hwcodec.PixelFormatI420, hwcodec.PixelFormatNV12}

// Encoders returns encoder backends for every candidate on this platform.
func Encoders(lib *Library) []hwcodec.EncoderBackend {
	var out []hwcodec.EncoderBackend
	for _, c := range Candidates(runtime.GOOS) {
		if c.Encoder {
			out = append(out, &Encoder{cand: c, lib: lib})
		}
	}
	return out
}

// Decoders returns decoder backends for every candidate on this platform.
func Decoders(lib *Library) []hwcodec.DecoderBackend {
	var out []hwcodec.DecoderBackend
	for _, c := range Candidates(runtime.GOOS) {
		if c.Decoder {
			out = append(out, &Decoder{cand: c, lib: lib})
		}
	}
	return out
}

// Encoder is a native encoder backend.
type Encoder struct {
	cand Candidate
	lib  *Library
}

func (e *Encoder) Name() string                        { return e.cand.Name }
func (e *Encoder) Codec() hwcodec.DataFormat           { return e.cand.Codec }
func (e *Encoder) Hardware() bool                      { return e.cand.Hardware() }
func (e *Encoder) PixelFormats() []hwcodec.PixelFormat { return slices.Clone(nativePixelFormats) }

// OpenEncoder opens a native encoder for ctx.
func (e *Encoder) OpenEncoder(ctx hwcodec.EncodeContext) (hwcodec.EncoderHandle, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	if !slices.Contains(nativePixelFormats, ctx.PixelFormat) {
		return nil, fmt.Errorf("%w: %s does not accept %s", hwcodec.ErrUnsupportedFormat, e.cand.Name, ctx.PixelFormat)
	}
	if e.lib == nil {
		return nil, fmt.Errorf("%w: %s: %v", hwcodec.ErrBackendUnavailable, e.cand.Name, ErrLibraryNotLoaded)
	}
	return e.lib.openEncoder(e.cand, ctx.WithName(e.cand.Name))
}

// Decoder is a native decoder backend.
type Decoder struct {
	cand Candidate
	lib  *Library
}

func (d *Decoder) Name() string                        { return d.cand.Name }
func (d *Decoder) Codec() hwcodec.DataFormat           { return d.cand.Codec }
func (d *Decoder) Hardware() bool                      { return d.cand.Hardware() }
func (d *Decoder) PixelFormats() []hwcodec.PixelFormat { return slices.Clone(nativePixelFormats) }

// OpenDecoder opens a native decoder for ctx.
func (d *Decoder) OpenDecoder(ctx hwcodec.DecodeContext) (hwcodec.DecoderHandle, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	if d.lib == nil {
		return nil, fmt.Errorf("%w: %s: %v", hwcodec.ErrBackendUnavailable, d.cand.Name, ErrLibraryNotLoaded)
	}
	if ctx.Device == hwcodec.DeviceNone {
		ctx.Device = d.cand.Device
	}
	return d.lib.openDecoder(d.cand, ctx.WithName(d.cand.Name))
}

// ProbeSample returns the shim's embedded sample bitstream for the codec.
func (d *Decoder) ProbeSample() ([]byte, error) {
	if d.lib == nil {
		return nil, ErrLibraryNotLoaded
	}
	return d.lib.sample(d.cand.Codec)
}
