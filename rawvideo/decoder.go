package rawvideo

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/thesyncim/hwcodec"
)

// Decoder is the rawvideo decoder backend.
type Decoder struct {
	opts options
}

// NewDecoder returns the rawvideo decoder backend.
func NewDecoder(opts ...Option) *Decoder {
	return &Decoder{opts: buildOptions(opts)}
}

func (d *Decoder) Name() string                        { return Name }
func (d *Decoder) Codec() hwcodec.DataFormat           { return hwcodec.DataFormatRaw }
func (d *Decoder) Hardware() bool                      { return false }
func (d *Decoder) PixelFormats() []hwcodec.PixelFormat { return hwcodec.AllPixelFormats() }

// OpenDecoder opens a decoder handle. Output geometry comes from the
// stream's sequence headers.
func (d *Decoder) OpenDecoder(ctx hwcodec.DecodeContext) (hwcodec.DecoderHandle, error) {
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	if f := ctx.Format(); f != hwcodec.DataFormatRaw && f != hwcodec.DataFormatUnknown {
		return nil, fmt.Errorf("%w: %s cannot decode %s", hwcodec.ErrBackendUnavailable, Name, f)
	}
	return &decoderHandle{pool: d.opts.pool, logger: d.opts.logger}, nil
}

// ProbeSample returns a keyframe packet carrying one 16x16 I420 picture.
func (d *Decoder) ProbeSample() ([]byte, error) {
	return Sample(hwcodec.PixelFormatI420, 16, 16)
}

// Sample builds a keyframe packet of one mid-grey picture.
func Sample(pixfmt hwcodec.PixelFormat, width, height int) ([]byte, error) {
	seq := sequenceHeader{Width: width, Height: height, Format: pixfmt, Align: 1}
	g, err := seq.geometry()
	if err != nil {
		return nil, err
	}
	payload := make([]byte, g.Total)
	for i := range payload {
		payload[i] = 0x80
	}
	buf := appendSequenceHeader(make([]byte, 0, sequenceUnitLen+pictureHeaderLen+g.Total), seq)
	return appendPicture(buf, 0, true, payload), nil
}

type decoderHandle struct {
	mu     sync.Mutex
	pool   *hwcodec.FramePool
	logger hclog.Logger

	seq      *sequenceHeader
	geometry hwcodec.Geometry
	decoded  int64
	closed   bool
}

func (h *decoderHandle) Feed(p *hwcodec.Packet) ([]*hwcodec.Frame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, &hwcodec.BackendError{Backend: Name, Op: "decode", Err: errClosed, Fatal: true}
	}
	if p == nil || len(p.Data) == 0 {
		return nil, &hwcodec.BackendError{Backend: Name, Op: "decode", Err: errors.New("empty packet")}
	}
	units, err := parseUnits(p.Data)
	if err != nil {
		return nil, &hwcodec.BackendError{Backend: Name, Op: "decode", Err: err}
	}

	var out []*hwcodec.Frame
	for _, u := range units {
		switch u.kind {
		case unitSequence:
			if err := h.configure(u.seq); err != nil {
				return nil, &hwcodec.BackendError{Backend: Name, Op: "decode", Err: err}
			}
		case unitPicture:
			f, err := h.picture(u.pic)
			if err != nil {
				return nil, &hwcodec.BackendError{Backend: Name, Op: "decode", Err: err}
			}
			out = append(out, f)
		}
	}
	return out, nil
}

func (h *decoderHandle) configure(seq sequenceHeader) error {
	g, err := seq.geometry()
	if err != nil {
		return err
	}
	if h.seq == nil || *h.seq != seq {
		h.logger.Debug("sequence header", "width", seq.Width, "height", seq.Height, "pixfmt", seq.Format)
	}
	h.seq = &seq
	h.geometry = g
	return nil
}

func (h *decoderHandle) picture(pic picture) (*hwcodec.Frame, error) {
	if h.seq == nil {
		return nil, errors.New("picture before sequence header")
	}
	if len(pic.Payload) != h.geometry.Total {
		return nil, fmt.Errorf("picture payload %d bytes, want %d", len(pic.Payload), h.geometry.Total)
	}
	f := h.newFrame()
	copy(f.Data, pic.Payload)
	f.PTS = pic.PTS
	f.Key = pic.Key
	h.decoded++
	return f, nil
}

func (h *decoderHandle) newFrame() *hwcodec.Frame {
	s := h.seq
	if h.pool != nil {
		f := h.pool.Get()
		if f.Format == s.Format && f.Width == s.Width && f.Height == s.Height && f.Geometry.Equal(h.geometry) {
			return f
		}
		h.pool.Put(f)
	}
	return &hwcodec.Frame{
		Data:     make([]byte, h.geometry.Total),
		Format:   s.Format,
		Width:    s.Width,
		Height:   s.Height,
		Geometry: h.geometry,
	}
}

// Flush returns nothing: pictures are never reordered or held.
func (h *decoderHandle) Flush() ([]*hwcodec.Frame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, &hwcodec.BackendError{Backend: Name, Op: "flush", Err: errClosed, Fatal: true}
	}
	return nil, nil
}

func (h *decoderHandle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.logger.Debug("decoder closed", "frames", h.decoded)
}
