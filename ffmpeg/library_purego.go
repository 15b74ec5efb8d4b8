//go:build (darwin || linux) && !nohwcodec

package ffmpeg

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/hashicorp/go-hclog"

	"github.com/thesyncim/hwcodec"
)

// avNumDataPointers is AV_NUM_DATA_POINTERS; every per-plane array the
// shim reads or writes has this many entries.
const avNumDataPointers = 8

// Library is a loaded shim library. Function fields follow the shim
// header prototypes argument for argument.
type Library struct {
	path   string
	handle uintptr
	logger hclog.Logger

	newEncoder func(name uintptr, width, height, pixfmt, align, bitRate, timeBaseNum, timeBaseDen,
		gop, quality, rc int32, linesize, offset, length, callback uintptr) uintptr
	encode               func(encoder, data uintptr, length int32, obj uintptr, ms int64) int32
	freeEncoder          func(encoder uintptr)
	setBitrate           func(encoder uintptr, bitrate int32) int32
	newDecoder           func(name uintptr, deviceType, outputSurface int32, callback uintptr) uintptr
	decode               func(decoder, data uintptr, length int32, obj uintptr) int32
	freeDecoder          func(decoder uintptr)
	linesizeOffsetLength func(pixfmt, width, height, align int32, linesize, offset, length uintptr) int32
	getBinFile           func(is265 int32, data, length uintptr)
	avLogSetLevel        func(level int32)
}

type symbol struct {
	name     string
	fn       any
	optional bool
}

func (l *Library) symbols() []symbol {
	return []symbol{
		{name: "new_encoder", fn: &l.newEncoder},
		{name: "encode", fn: &l.encode},
		{name: "free_encoder", fn: &l.freeEncoder},
		{name: "set_bitrate", fn: &l.setBitrate},
		{name: "new_decoder", fn: &l.newDecoder},
		{name: "decode", fn: &l.decode},
		{name: "free_decoder", fn: &l.freeDecoder},
		{name: "get_linesize_offset_length", fn: &l.linesizeOffsetLength},
		{name: "get_bin_file", fn: &l.getBinFile},
		{name: "av_log_set_level", fn: &l.avLogSetLevel, optional: true},
	}
}

var (
	loadOnce sync.Once
	loaded   *Library
	loadErr  error
)

// Load opens the shim library once per process. path may name the file or
// its directory; when empty, HWCODEC_LIB_PATH and the standard locations
// are searched. Later calls return the first result.
func Load(path string, logger hclog.Logger) (*Library, error) {
	loadOnce.Do(func() {
		if logger == nil {
			logger = hclog.NewNullLogger()
		}
		loaded, loadErr = openLibrary(libPaths(path), logger.Named("ffmpeg"))
	})
	return loaded, loadErr
}

// Available reports whether the shim library can be loaded.
func Available() bool {
	_, err := Load("", nil)
	return err == nil
}

func openLibrary(paths []string, logger hclog.Logger) (*Library, error) {
	var lastErr error
	for _, path := range paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		lib := &Library{path: path, handle: handle, logger: logger}
		if err := lib.registerSymbols(); err != nil {
			purego.Dlclose(handle)
			lastErr = err
			continue
		}
		lib.syncLogLevel()
		logger.Info("shim library loaded", "path", path)
		return lib, nil
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrLibraryNotLoaded, lastErr)
	}
	return nil, fmt.Errorf("%w: not found in any standard location", ErrLibraryNotLoaded)
}

func (l *Library) registerSymbols() error {
	syms := l.symbols()
	for _, sym := range syms {
		if _, err := purego.Dlsym(l.handle, sym.name); err != nil && !sym.optional {
			return fmt.Errorf("missing symbol %s: %w", sym.name, err)
		}
	}
	for _, sym := range syms {
		if _, err := purego.Dlsym(l.handle, sym.name); err != nil {
			continue
		}
		purego.RegisterLibFunc(sym.fn, l.handle, sym.name)
	}
	return nil
}

// syncLogLevel sets FFmpeg's log level to match the logger. The shim prints
// FFmpeg's own messages; there is no way to route them into Go.
func (l *Library) syncLogLevel() {
	if l.avLogSetLevel == nil {
		return
	}
	level := avLogLevel(l.logger.GetLevel())
	l.avLogSetLevel(level)
	l.logger.Debug("native log level set", "av_level", level)
}

// FFmpeg log levels from libavutil/log.h.
const (
	avLogQuiet   = -8
	avLogError   = 16
	avLogWarning = 24
	avLogInfo    = 32
	avLogDebug   = 48
	avLogTrace   = 56
)

func avLogLevel(l hclog.Level) int32 {
	switch l {
	case hclog.Trace:
		return avLogTrace
	case hclog.Debug:
		return avLogDebug
	case hclog.Info:
		return avLogInfo
	case hclog.Warn:
		return avLogWarning
	case hclog.Error:
		return avLogError
	default:
		return avLogQuiet
	}
}

// Path returns the file the library was loaded from.
func (l *Library) Path() string { return l.path }

// NativeGeometry asks the shim for the frame layout it uses for the given
// format. It must agree with hwcodec.ComputeGeometry.
func (l *Library) NativeGeometry(pixfmt hwcodec.PixelFormat, width, height, align int) (hwcodec.Geometry, error) {
	av := pixfmt.AVPixelFormat()
	if av < 0 {
		return hwcodec.Geometry{}, fmt.Errorf("%w: %s", hwcodec.ErrUnsupportedFormat, pixfmt)
	}
	out := new(struct{ linesize, offset, length [avNumDataPointers]int32 })
	rc := l.linesizeOffsetLength(int32(av), int32(width), int32(height), int32(nativeAlign(align)),
		uintptr(unsafe.Pointer(&out.linesize[0])),
		uintptr(unsafe.Pointer(&out.offset[0])),
		uintptr(unsafe.Pointer(&out.length[0])))
	runtime.KeepAlive(out)
	if rc < 0 {
		return hwcodec.Geometry{}, fmt.Errorf("%w: %s %dx%d", hwcodec.ErrUnsupportedFormat, pixfmt, width, height)
	}
	return geometryFromNative(pixfmt.PlaneCount(), out.linesize, out.offset, out.length), nil
}

func geometryFromNative(planes int, linesize, offset, length [avNumDataPointers]int32) hwcodec.Geometry {
	g := hwcodec.Geometry{
		Strides: make([]int, planes),
		Offsets: make([]int, planes),
		Lengths: make([]int, planes),
	}
	for i := 0; i < planes; i++ {
		g.Strides[i] = int(linesize[i])
		g.Offsets[i] = int(offset[i])
		g.Lengths[i] = int(length[i])
		g.Total += g.Lengths[i]
	}
	return g
}

// nativeAlign converts the hwcodec alignment (0 = tight) to FFmpeg's.
func nativeAlign(align int) int {
	if align <= 0 {
		return 1
	}
	return align
}

func (l *Library) sample(codec hwcodec.DataFormat) ([]byte, error) {
	var is265 int32
	switch codec {
	case hwcodec.DataFormatH264:
	case hwcodec.DataFormatH265:
		is265 = 1
	default:
		return nil, fmt.Errorf("%w: no sample for %s", hwcodec.ErrNotSupported, codec)
	}
	out := new(struct {
		data   uintptr
		length int32
	})
	l.getBinFile(is265, uintptr(unsafe.Pointer(&out.data)), uintptr(unsafe.Pointer(&out.length)))
	runtime.KeepAlive(out)
	if out.data == 0 || out.length <= 0 {
		return nil, errors.New("shim returned an empty sample")
	}
	return copyBytes(out.data, int(out.length)), nil
}

// Callbacks are created once per process; purego limits how many may
// exist. Handles are found through the obj argument.
var (
	callbackOnce   sync.Once
	encodeCallback uintptr
	decodeCallback uintptr

	sinksMu  sync.RWMutex
	sinks    = make(map[uintptr]any)
	nextSink atomic.Uintptr
)

func initCallbacks() {
	callbackOnce.Do(func() {
		encodeCallback = purego.NewCallback(encodeCallbackHandler)
		decodeCallback = purego.NewCallback(decodeCallbackHandler)
	})
}

func registerSink(s any) uintptr {
	id := nextSink.Add(1)
	sinksMu.Lock()
	sinks[id] = s
	sinksMu.Unlock()
	return id
}

func unregisterSink(id uintptr) {
	sinksMu.Lock()
	delete(sinks, id)
	sinksMu.Unlock()
}

func lookupSink(id uintptr) any {
	sinksMu.RLock()
	defer sinksMu.RUnlock()
	return sinks[id]
}

func encodeCallbackHandler(data uintptr, length int32, pts int64, key int32, obj uintptr) {
	h, ok := lookupSink(obj).(*encoderHandle)
	if !ok || data == 0 || length <= 0 {
		return
	}
	h.pending = append(h.pending, &hwcodec.Packet{
		Data:  copyBytes(data, int(length)),
		Codec: h.cand.Codec,
		PTS:   pts,
		Key:   key != 0,
	})
}

func decodeCallbackHandler(obj uintptr, width, height, pixfmt int32, linesize, data uintptr, key int32) {
	h, ok := lookupSink(obj).(*decoderHandle)
	if !ok || linesize == 0 || data == 0 {
		return
	}
	ls := (*[avNumDataPointers]int32)(unsafe.Pointer(linesize))
	ptrs := (*[avNumDataPointers]uintptr)(unsafe.Pointer(data))
	h.receive(int(width), int(height), int(pixfmt), ls, ptrs, key != 0)
}

// copyBytes copies n bytes of native memory into a Go slice.
func copyBytes(ptr uintptr, n int) []byte {
	b := make([]byte, n)
	copy(b, unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
	return b
}

// cString returns a NUL-terminated copy of s.
func cString(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

// codeError wraps a negative shim return code. The shim reports every
// failure as -1, so the handle stays usable and the session decides.
func codeError(backend, op string, rc int32) error {
	return &hwcodec.BackendError{Backend: backend, Op: op, Err: fmt.Errorf("%s returned %d", op, rc)}
}
