package rawvideo

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/thesyncim/hwcodec"
)

// Name is the registry name of both rawvideo backends.
const Name = "rawvideo"

const (
	// DefaultLookahead is the number of frames the encoder holds back.
	DefaultLookahead = 2
	// DefaultGOP is the keyframe interval used when the context leaves it 0.
	DefaultGOP = 60
)

var errClosed = errors.New("handle closed")

// Option configures a rawvideo backend.
type Option func(*options)

type options struct {
	lookahead int
	pool      *hwcodec.FramePool
	logger    hclog.Logger
}

// WithLookahead sets how many frames the encoder delays before emitting.
// Negative values are treated as 0.
func WithLookahead(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.lookahead = n
	}
}

// WithOutputPool makes the decoder take output buffers from pool whenever
// the stream geometry matches it.
func WithOutputPool(pool *hwcodec.FramePool) Option {
	return func(o *options) { o.pool = pool }
}

// WithLogger sets the backend logger.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{lookahead: DefaultLookahead}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = hclog.NewNullLogger()
	}
	return o
}

// Encoder is the rawvideo encoder backend.
type Encoder struct {
	opts options
}

// NewEncoder returns the rawvideo encoder backend.
func NewEncoder(opts ...Option) *Encoder {
	return &Encoder{opts: buildOptions(opts)}
}

func (e *Encoder) Name() string                        { return Name }
func (e *Encoder) Codec() hwcodec.DataFormat           { return hwcodec.DataFormatRaw }
func (e *Encoder) Hardware() bool                      { return false }
func (e *Encoder) PixelFormats() []hwcodec.PixelFormat { return hwcodec.AllPixelFormats() }

// Lookahead returns the configured frame delay.
func (e *Encoder) Lookahead() int { return e.opts.lookahead }

// OpenEncoder opens an encoder handle for ctx.
func (e *Encoder) OpenEncoder(ctx hwcodec.EncodeContext) (hwcodec.EncoderHandle, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	if f := ctx.Format(); f != hwcodec.DataFormatRaw && f != hwcodec.DataFormatUnknown {
		return nil, fmt.Errorf("%w: %s cannot encode %s", hwcodec.ErrBackendUnavailable, Name, f)
	}
	g, err := ctx.Geometry()
	if err != nil {
		return nil, err
	}
	gop := ctx.GOP
	if gop <= 0 {
		gop = DefaultGOP
	}
	h := &encoderHandle{
		seq: sequenceHeader{
			Width:  ctx.Width,
			Height: ctx.Height,
			Format: ctx.PixelFormat,
			Align:  ctx.Align,
		},
		geometry:  g,
		lookahead: e.opts.lookahead,
		gop:       gop,
		kbps:      ctx.Bitrate(),
		logger:    e.opts.logger.With("width", ctx.Width, "height", ctx.Height, "pixfmt", ctx.PixelFormat),
	}
	h.logger.Debug("encoder opened", "gop", gop, "lookahead", h.lookahead)
	return h, nil
}

type pending struct {
	data []byte
	pts  int64
}

type encoderHandle struct {
	mu        sync.Mutex
	seq       sequenceHeader
	geometry  hwcodec.Geometry
	lookahead int
	gop       int
	kbps      int
	logger    hclog.Logger

	queue   []pending
	emitted int64
	closed  bool
}

func (h *encoderHandle) Feed(f *hwcodec.Frame) ([]*hwcodec.Packet, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, &hwcodec.BackendError{Backend: Name, Op: "encode", Err: errClosed, Fatal: true}
	}
	if err := h.check(f); err != nil {
		return nil, &hwcodec.BackendError{Backend: Name, Op: "encode", Err: err}
	}

	data := make([]byte, h.geometry.Total)
	copy(data, f.Data)
	h.queue = append(h.queue, pending{data: data, pts: f.PTS})

	var out []*hwcodec.Packet
	for len(h.queue) > h.lookahead {
		out = append(out, h.emit())
	}
	return out, nil
}

func (h *encoderHandle) check(f *hwcodec.Frame) error {
	switch {
	case f == nil:
		return errors.New("nil frame")
	case f.Format != h.seq.Format:
		return fmt.Errorf("frame format %s, want %s", f.Format, h.seq.Format)
	case f.Width != h.seq.Width || f.Height != h.seq.Height:
		return fmt.Errorf("frame size %dx%d, want %dx%d", f.Width, f.Height, h.seq.Width, h.seq.Height)
	case !f.Geometry.Equal(h.geometry):
		return fmt.Errorf("frame strides %v, want %v", f.Geometry.Strides, h.geometry.Strides)
	case len(f.Data) < h.geometry.Total:
		return fmt.Errorf("frame buffer %d bytes, want %d", len(f.Data), h.geometry.Total)
	}
	return nil
}

func (h *encoderHandle) emit() *hwcodec.Packet {
	p := h.queue[0]
	h.queue[0] = pending{}
	h.queue = h.queue[1:]

	key := h.emitted%int64(h.gop) == 0
	h.emitted++

	size := pictureHeaderLen + len(p.data)
	if key {
		size += sequenceUnitLen
	}
	buf := make([]byte, 0, size)
	if key {
		buf = appendSequenceHeader(buf, h.seq)
	}
	buf = appendPicture(buf, p.pts, key, p.data)
	return &hwcodec.Packet{
		Data:  buf,
		Codec: hwcodec.DataFormatRaw,
		PTS:   p.pts,
		Key:   key,
	}
}

func (h *encoderHandle) Flush() ([]*hwcodec.Packet, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, &hwcodec.BackendError{Backend: Name, Op: "flush", Err: errClosed, Fatal: true}
	}
	out := make([]*hwcodec.Packet, 0, len(h.queue))
	for len(h.queue) > 0 {
		out = append(out, h.emit())
	}
	return out, nil
}

// SetBitrate records the new target. Raw output has no rate control, so
// the value only affects reporting.
func (h *encoderHandle) SetBitrate(kbps int) error {
	if kbps <= 0 {
		return fmt.Errorf("invalid bitrate %d", kbps)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errClosed
	}
	h.kbps = kbps
	h.logger.Debug("bitrate changed", "kbps", kbps)
	return nil
}

func (h *encoderHandle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.queue = nil
	h.logger.Debug("encoder closed", "packets", h.emitted)
}
