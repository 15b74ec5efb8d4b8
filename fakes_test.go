package hwcodec

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// fakeBackend is a scriptable encoder and decoder backend.
type fakeBackend struct {
	name    string
	codec   DataFormat
	hw      bool
	formats []PixelFormat

	openErr   error
	openPanic bool
	maxOpens  int32             // opens beyond this fail, 0 = unlimited
	feedErr   func(n int) error // error returned by the nth Feed (1-based)
	flushErr  error
	silent    bool // never emits output
	lookahead int
	bitrate   bool // handles implement BitrateSetter
	delay     time.Duration

	opened   atomic.Int32
	closes   atomic.Int32
	inflight atomic.Int32
	peak     atomic.Int32
	reentry  atomic.Int32
}

func newFake(name string) *fakeBackend {
	return &fakeBackend{
		name:    name,
		codec:   DataFormatFromName(name),
		hw:      VendorOf(name).Hardware(),
		formats: []PixelFormat{PixelFormatI420, PixelFormatNV12},
	}
}

func (b *fakeBackend) Name() string                { return b.name }
func (b *fakeBackend) Codec() DataFormat           { return b.codec }
func (b *fakeBackend) Hardware() bool              { return b.hw }
func (b *fakeBackend) PixelFormats() []PixelFormat { return b.formats }

func (b *fakeBackend) enter() error {
	n := b.inflight.Add(1)
	for {
		peak := b.peak.Load()
		if n <= peak || b.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	defer b.inflight.Add(-1)
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	if b.openPanic {
		panic("backend crashed")
	}
	if b.openErr != nil {
		return b.openErr
	}
	if b.maxOpens > 0 && b.opened.Load() >= b.maxOpens {
		return errors.New("device busy")
	}
	b.opened.Add(1)
	return nil
}

func (b *fakeBackend) OpenEncoder(ctx EncodeContext) (EncoderHandle, error) {
	if err := b.enter(); err != nil {
		return nil, err
	}
	h := &fakeHandle[*Frame, *Packet]{b: b, convert: func(f *Frame) *Packet {
		return &Packet{Data: []byte{1}, Codec: b.codec, PTS: f.PTS}
	}}
	if b.bitrate {
		return &bitrateHandle{fakeHandle: h}, nil
	}
	return h, nil
}

func (b *fakeBackend) OpenDecoder(ctx DecodeContext) (DecoderHandle, error) {
	if err := b.enter(); err != nil {
		return nil, err
	}
	return &fakeHandle[*Packet, *Frame]{b: b, convert: func(p *Packet) *Frame {
		return &Frame{Format: b.formats[0], PTS: p.PTS}
	}}, nil
}

// fakeSampler adds Sampler to a fake decoder.
type fakeSampler struct {
	*fakeBackend
	sample []byte
	err    error
}

func (s *fakeSampler) ProbeSample() ([]byte, error) { return s.sample, s.err }

type fakeHandle[In, Out any] struct {
	b       *fakeBackend
	convert func(In) Out
	queue   []Out
	feeds   int
	busy    atomic.Bool
	closeMu sync.Mutex
	closed  bool
}

func (h *fakeHandle[In, Out]) Feed(in In) ([]Out, error) {
	if !h.busy.CompareAndSwap(false, true) {
		h.b.reentry.Add(1)
	}
	defer h.busy.Store(false)

	h.feeds++
	if h.b.feedErr != nil {
		if err := h.b.feedErr(h.feeds); err != nil {
			return nil, err
		}
	}
	if h.b.silent {
		return nil, nil
	}
	h.queue = append(h.queue, h.convert(in))
	var out []Out
	for len(h.queue) > h.b.lookahead {
		out = append(out, h.queue[0])
		h.queue = h.queue[1:]
	}
	return out, nil
}

func (h *fakeHandle[In, Out]) Flush() ([]Out, error) {
	if h.b.flushErr != nil {
		return nil, h.b.flushErr
	}
	out := h.queue
	h.queue = nil
	return out, nil
}

func (h *fakeHandle[In, Out]) Close() {
	h.closeMu.Lock()
	defer h.closeMu.Unlock()
	h.b.closes.Add(1)
	h.closed = true
}

type bitrateHandle struct {
	*fakeHandle[*Frame, *Packet]
	kbps int
}

func (h *bitrateHandle) SetBitrate(kbps int) error {
	if kbps <= 0 {
		return &BackendError{Backend: h.b.name, Op: "set bitrate", Err: errors.New("invalid bitrate")}
	}
	h.kbps = kbps
	return nil
}

func transientAt(n int) func(int) error {
	return func(i int) error {
		if i == n {
			return &BackendError{Backend: "fake", Op: "feed", Err: errors.New("bad input")}
		}
		return nil
	}
}

func fatalAt(n int) func(int) error {
	return func(i int) error {
		if i == n {
			return &BackendError{Backend: "fake", Op: "feed", Err: errors.New("device lost"), Fatal: true}
		}
		return nil
	}
}

func encoders(bs ...*fakeBackend) []EncoderBackend {
	out := make([]EncoderBackend, len(bs))
	for i, b := range bs {
		out[i] = b
	}
	return out
}

func testEncodeContext() EncodeContext {
	return EncodeContext{Width: 64, Height: 48, PixelFormat: PixelFormatNV12, GOP: 60}
}

func testFrame(pts int64) *Frame {
	f, err := NewFrame(PixelFormatNV12, 64, 48, 0)
	if err != nil {
		panic(err)
	}
	f.PTS = pts
	return f
}
