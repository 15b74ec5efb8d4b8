package hwcodec

// Handle is one opened backend instance. It owns its native resources
// exclusively until Close. Feed consumes one input and returns zero or more
// outputs; Flush drains buffered outputs at end of stream. Close is
// idempotent and never fails.
//
// Handles are not reentrant: at most one call may be in flight.
type Handle[In, Out any] interface {
	Feed(in In) ([]Out, error)
	Flush() ([]Out, error)
	Close()
}

// EncoderHandle consumes raw frames and produces packets.
type EncoderHandle = Handle[*Frame, *Packet]

// DecoderHandle consumes packets and produces raw frames.
type DecoderHandle = Handle[*Packet, *Frame]

// Backend is the identity shared by encoder and decoder backends.
type Backend interface {
	// Name is the stable registry name, e.g. "h264_nvenc" or "rawvideo".
	Name() string
	// Codec is the bitstream format the backend produces or consumes.
	Codec() DataFormat
	// Hardware reports whether the backend is hardware accelerated.
	Hardware() bool
	// PixelFormats lists the raw formats the backend accepts or emits.
	PixelFormats() []PixelFormat
}

// EncoderBackend opens encoder handles.
type EncoderBackend interface {
	Backend
	// OpenEncoder initializes the backend for ctx. It must not have side
	// effects beyond the backend's own resources.
	OpenEncoder(ctx EncodeContext) (EncoderHandle, error)
}

// DecoderBackend opens decoder handles.
type DecoderBackend interface {
	Backend
	OpenDecoder(ctx DecodeContext) (DecoderHandle, error)
}

// BitrateSetter is implemented by encoder handles that support changing
// the target bitrate while running.
type BitrateSetter interface {
	SetBitrate(kbps int) error
}

// Sampler is implemented by decoder backends that can supply a minimal
// valid encoded unit for capability probing.
type Sampler interface {
	ProbeSample() ([]byte, error)
}

func supportsPixelFormat(b Backend, p PixelFormat) bool {
	return containsPixelFormat(b.PixelFormats(), p)
}
