//go:build (darwin || linux) && !nohwcodec

package ffmpeg

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"
	"unsafe"

	"github.com/hashicorp/go-hclog"

	"github.com/thesyncim/hwcodec"
)

var errHandleClosed = errors.New("handle closed")

func (l *Library) openEncoder(c Candidate, ctx hwcodec.EncodeContext) (hwcodec.EncoderHandle, error) {
	g, err := ctx.Geometry()
	if err != nil {
		return nil, err
	}
	if g.Total > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %s %dx%d exceeds the native frame size limit",
			hwcodec.ErrUnsupportedFormat, ctx.PixelFormat, ctx.Width, ctx.Height)
	}
	rc, err := nativeRateControl(ctx.RateControl)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Name, err)
	}
	initCallbacks()

	layout := new(struct{ linesize, offset, length [avNumDataPointers]int32 })
	name := cString(c.Name)
	enc := l.newEncoder(uintptr(unsafe.Pointer(&name[0])),
		int32(ctx.Width), int32(ctx.Height),
		int32(ctx.PixelFormat.AVPixelFormat()), int32(nativeAlign(ctx.Align)),
		int32(ctx.Bitrate()), 1, int32(ctx.FrameRate()),
		int32(ctx.GOP), int32(ctx.Quality), rc,
		uintptr(unsafe.Pointer(&layout.linesize[0])),
		uintptr(unsafe.Pointer(&layout.offset[0])),
		uintptr(unsafe.Pointer(&layout.length[0])),
		encodeCallback)
	runtime.KeepAlive(name)
	runtime.KeepAlive(layout)
	if enc == 0 {
		return nil, fmt.Errorf("%w: %s: new_encoder failed", hwcodec.ErrBackendUnavailable, c.Name)
	}

	native := geometryFromNative(ctx.PixelFormat.PlaneCount(), layout.linesize, layout.offset, layout.length)
	if !g.Equal(native) {
		l.freeEncoder(enc)
		return nil, fmt.Errorf("%w: %s expects layout %v, computed %v", hwcodec.ErrUnsupportedFormat, c.Name, native, g)
	}

	h := &encoderHandle{
		lib:      l,
		cand:     c,
		enc:      enc,
		geometry: g,
		ctx:      ctx,
		logger:   l.logger.With("backend", c.Name),
	}
	h.obj = registerSink(h)
	h.logger.Debug("encoder opened", "width", ctx.Width, "height", ctx.Height, "kbps", ctx.Bitrate())
	return h, nil
}

// nativeRateControl maps to the shim's RateControl enum, which has no
// constant-quality mode.
func nativeRateControl(rc hwcodec.RateControl) (int32, error) {
	switch rc {
	case hwcodec.RateControlDefault, hwcodec.RateControlCBR, hwcodec.RateControlVBR:
		return int32(rc), nil
	default:
		return 0, fmt.Errorf("%w: rate control %s", hwcodec.ErrNotSupported, rc)
	}
}

type encoderHandle struct {
	mu       sync.Mutex
	lib      *Library
	cand     Candidate
	enc      uintptr
	obj      uintptr
	geometry hwcodec.Geometry
	ctx      hwcodec.EncodeContext
	logger   hclog.Logger

	// pending collects packets delivered by the callback during one call.
	pending []*hwcodec.Packet
}

func (h *encoderHandle) Feed(f *hwcodec.Frame) ([]*hwcodec.Packet, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.enc == 0 {
		return nil, &hwcodec.BackendError{Backend: h.cand.Name, Op: "encode", Err: errHandleClosed, Fatal: true}
	}
	if f == nil || f.Format != h.ctx.PixelFormat || f.Width != h.ctx.Width || f.Height != h.ctx.Height ||
		!f.Geometry.Equal(h.geometry) || len(f.Data) < h.geometry.Total {
		return nil, &hwcodec.BackendError{Backend: h.cand.Name, Op: "encode", Err: errors.New("frame does not match encoder context")}
	}
	return h.call("encode", uintptr(unsafe.Pointer(&f.Data[0])), int32(h.geometry.Total), f.PTS, f)
}

// Flush drains the encoder by sending an empty frame.
func (h *encoderHandle) Flush() ([]*hwcodec.Packet, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.enc == 0 {
		return nil, &hwcodec.BackendError{Backend: h.cand.Name, Op: "flush", Err: errHandleClosed, Fatal: true}
	}
	return h.call("flush", 0, 0, 0, nil)
}

func (h *encoderHandle) call(op string, data uintptr, length int32, pts int64, keep *hwcodec.Frame) ([]*hwcodec.Packet, error) {
	h.pending = nil
	rc := h.lib.encode(h.enc, data, length, h.obj, pts)
	runtime.KeepAlive(keep)
	out := h.pending
	h.pending = nil
	if rc < codeOK {
		return nil, codeError(h.cand.Name, op, rc)
	}
	return out, nil
}

func (h *encoderHandle) SetBitrate(kbps int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.enc == 0 {
		return errHandleClosed
	}
	if rc := h.lib.setBitrate(h.enc, int32(kbps)); rc < codeOK {
		return fmt.Errorf("%w: %s: set_bitrate returned %d", hwcodec.ErrNotSupported, h.cand.Name, rc)
	}
	return nil
}

func (h *encoderHandle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.enc == 0 {
		return
	}
	h.lib.freeEncoder(h.enc)
	h.enc = 0
	unregisterSink(h.obj)
	h.logger.Debug("encoder closed")
}

func (l *Library) openDecoder(c Candidate, ctx hwcodec.DecodeContext) (hwcodec.DecoderHandle, error) {
	initCallbacks()
	name := cString(c.Name)
	// 0 asks for frames in system memory instead of device surfaces.
	const outputSurface = 0
	dec := l.newDecoder(uintptr(unsafe.Pointer(&name[0])), int32(ctx.Device.AVHWDeviceType()), outputSurface, decodeCallback)
	runtime.KeepAlive(name)
	if dec == 0 {
		return nil, fmt.Errorf("%w: %s: new_decoder failed", hwcodec.ErrBackendUnavailable, c.Name)
	}
	h := &decoderHandle{
		lib:    l,
		cand:   c,
		dec:    dec,
		align:  ctx.Align,
		logger: l.logger.With("backend", c.Name),
	}
	h.obj = registerSink(h)
	h.logger.Debug("decoder opened", "device", ctx.Device)
	return h, nil
}

type decoderHandle struct {
	mu     sync.Mutex
	lib    *Library
	cand   Candidate
	dec    uintptr
	obj    uintptr
	align  int
	logger hclog.Logger

	pending []*hwcodec.Frame
	cbErr   error
}

func (h *decoderHandle) Feed(p *hwcodec.Packet) ([]*hwcodec.Frame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dec == 0 {
		return nil, &hwcodec.BackendError{Backend: h.cand.Name, Op: "decode", Err: errHandleClosed, Fatal: true}
	}
	if p == nil || len(p.Data) == 0 {
		return nil, &hwcodec.BackendError{Backend: h.cand.Name, Op: "decode", Err: errors.New("empty packet")}
	}
	out, err := h.call("decode", uintptr(unsafe.Pointer(&p.Data[0])), int32(len(p.Data)))
	runtime.KeepAlive(p)
	for _, f := range out {
		f.PTS = p.PTS
	}
	return out, err
}

// Flush drains the decoder by sending an empty packet.
func (h *decoderHandle) Flush() ([]*hwcodec.Frame, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dec == 0 {
		return nil, &hwcodec.BackendError{Backend: h.cand.Name, Op: "flush", Err: errHandleClosed, Fatal: true}
	}
	return h.call("flush", 0, 0)
}

func (h *decoderHandle) call(op string, data uintptr, length int32) ([]*hwcodec.Frame, error) {
	h.pending, h.cbErr = nil, nil
	rc := h.lib.decode(h.dec, data, length, h.obj)
	out, cbErr := h.pending, h.cbErr
	h.pending, h.cbErr = nil, nil
	if rc < codeOK {
		return nil, codeError(h.cand.Name, op, rc)
	}
	if cbErr != nil {
		return nil, &hwcodec.BackendError{Backend: h.cand.Name, Op: op, Err: cbErr}
	}
	return out, nil
}

// receive copies one decoded picture out of native memory. It runs on the
// goroutine blocked in decode.
func (h *decoderHandle) receive(width, height, av int, linesize *[avNumDataPointers]int32, data *[avNumDataPointers]uintptr, key bool) {
	pixfmt, ok := hwcodec.PixelFormatFromAV(av)
	if !ok {
		h.cbErr = fmt.Errorf("%w: native pixel format %d", hwcodec.ErrUnsupportedFormat, av)
		return
	}
	f, err := hwcodec.NewFrame(pixfmt, width, height, h.align)
	if err != nil {
		h.cbErr = err
		return
	}
	for i := 0; i < f.PlaneCount(); i++ {
		src, stride := data[i], int(linesize[i])
		if src == 0 || stride <= 0 {
			h.cbErr = fmt.Errorf("plane %d missing", i)
			return
		}
		dst := f.Plane(i)
		dstStride := f.Stride(i)
		n := min(stride, dstStride)
		for row := 0; row < f.Geometry.Rows(i); row++ {
			line := unsafe.Slice((*byte)(unsafe.Pointer(src+uintptr(row*stride))), n)
			copy(dst[row*dstStride:], line)
		}
	}
	f.Key = key
	h.pending = append(h.pending, f)
}

func (h *decoderHandle) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dec == 0 {
		return
	}
	h.lib.freeDecoder(h.dec)
	h.dec = 0
	unregisterSink(h.obj)
	h.logger.Debug("decoder closed")
}
