package hwcodec

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// Prober empirically tests backends against a context. A backend is viable
// only if it opens and completes a real feed/flush cycle producing output;
// backends that merely claim support are excluded.
//
// Candidates are probed concurrently. Each probe owns its backend handle and
// a panic or failure in one probe never affects another.
type Prober struct {
	logger      hclog.Logger
	concurrency int
	samples     map[DataFormat][]byte
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithProbeLogger sets the logger used for probe diagnostics.
func WithProbeLogger(l hclog.Logger) ProberOption {
	return func(p *Prober) { p.logger = l }
}

// WithConcurrency bounds the number of backends probed at once.
// n <= 0 uses GOMAXPROCS.
func WithConcurrency(n int) ProberOption {
	return func(p *Prober) { p.concurrency = n }
}

// WithSample registers the encoded unit fed to decoders of format f that do
// not implement Sampler.
func WithSample(f DataFormat, data []byte) ProberOption {
	return func(p *Prober) { p.samples[f] = data }
}

// NewProber creates a prober.
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{samples: make(map[DataFormat][]byte)}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = loggerOr(p.logger).Named("probe")
	if p.concurrency <= 0 {
		p.concurrency = runtime.GOMAXPROCS(0)
	}
	return p
}

// ProbeFailure is the diagnostic reason a candidate was excluded. It is
// informational only and never changes the viable set.
type ProbeFailure struct {
	Backend string
	Err     error
}

// Report is the full outcome of one probe run.
type Report struct {
	Infos    []CodecInfo // Viable backends in candidate order
	Failures []ProbeFailure
}

// Err aggregates the failures, or returns nil when every candidate passed.
func (r Report) Err() error {
	var result *multierror.Error
	for _, f := range r.Failures {
		result = multierror.Append(result, fmt.Errorf("%s: %w", f.Backend, f.Err))
	}
	return result.ErrorOrNil()
}

type probeResult struct {
	info CodecInfo
	err  error
}

// ProbeEncoders returns the candidates that can encode with ec, in candidate
// order. Candidates outside ec.Device are excluded. The only error is
// ErrUnsupportedFormat for an invalid ec, reported before any backend is
// attempted. PixelFormats of each result holds the format actually encoded.
func (p *Prober) ProbeEncoders(ctx context.Context, ec EncodeContext, candidates []EncoderBackend) ([]CodecInfo, error) {
	r, err := p.DiagnoseEncoders(ctx, ec, candidates)
	return r.Infos, err
}

// ProbeDecoders returns the candidates that can decode for dc, in candidate
// order.
func (p *Prober) ProbeDecoders(ctx context.Context, dc DecodeContext, candidates []DecoderBackend) ([]CodecInfo, error) {
	r, err := p.DiagnoseDecoders(ctx, dc, candidates)
	return r.Infos, err
}

// DiagnoseEncoders is ProbeEncoders with the per-backend failure reasons.
func (p *Prober) DiagnoseEncoders(ctx context.Context, ec EncodeContext, candidates []EncoderBackend) (Report, error) {
	if err := ec.Validate(); err != nil {
		return Report{}, err
	}
	pool, err := NewFramePool(ec.PixelFormat, ec.Width, ec.Height, ec.Align)
	if err != nil {
		return Report{}, err
	}

	results := make([]probeResult, len(candidates))
	p.run(ctx, len(candidates), func(i int) {
		results[i] = p.probeEncoder(candidates[i], ec, pool, i)
	}, func(i int, err error) {
		results[i] = probeResult{err: err}
	})
	return p.collect(results, func(i int) string { return candidates[i].Name() }), nil
}

// DiagnoseDecoders is ProbeDecoders with the per-backend failure reasons.
func (p *Prober) DiagnoseDecoders(ctx context.Context, dc DecodeContext, candidates []DecoderBackend) (Report, error) {
	if err := dc.Validate(); err != nil {
		return Report{}, err
	}

	results := make([]probeResult, len(candidates))
	p.run(ctx, len(candidates), func(i int) {
		results[i] = p.probeDecoder(candidates[i], dc)
	}, func(i int, err error) {
		results[i] = probeResult{err: err}
	})
	return p.collect(results, func(i int) string { return candidates[i].Name() }), nil
}

// run probes n candidates on at most p.concurrency goroutines. Candidates
// not started before ctx is done are recorded through skip.
func (p *Prober) run(ctx context.Context, n int, probe func(i int), skip func(i int, err error)) {
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				skip(i, fmt.Errorf("%w: not probed: %w", ErrBackendUnavailable, err))
				return nil
			}
			probe(i)
			return nil
		})
	}
	_ = g.Wait()
}

func (p *Prober) collect(results []probeResult, name func(i int) string) Report {
	r := Report{Infos: []CodecInfo{}}
	for i, res := range results {
		if res.err != nil {
			p.logger.Debug("backend excluded", "backend", name(i), "error", res.err)
			r.Failures = append(r.Failures, ProbeFailure{Backend: name(i), Err: res.err})
			continue
		}
		p.logger.Debug("backend viable", "backend", res.info.Name, "hardware", res.info.Hardware,
			"elapsed", res.info.ProbeTime)
		r.Infos = append(r.Infos, res.info)
	}
	return r
}

func (p *Prober) probeEncoder(b EncoderBackend, ec EncodeContext, pool *FramePool, seed int) (res probeResult) {
	name := b.Name()
	defer func() {
		if r := recover(); r != nil {
			res = probeResult{err: fmt.Errorf("%w: panic: %v", ErrBackendUnavailable, r)}
		}
	}()

	if f := ec.Format(); f != DataFormatUnknown && f != b.Codec() {
		return probeResult{err: fmt.Errorf("%w: produces %s, want %s", ErrBackendUnavailable, b.Codec(), f)}
	}
	if !ec.Allows(name) {
		return probeResult{err: fmt.Errorf("%w: excluded by device %q", ErrBackendUnavailable, ec.Device)}
	}
	if !supportsPixelFormat(b, ec.PixelFormat) {
		return probeResult{err: fmt.Errorf("%w: pixel format %s not accepted", ErrBackendUnavailable, ec.PixelFormat)}
	}

	frame := pool.Get()
	defer pool.Put(frame)
	FillColorBars(frame, seed)

	start := time.Now()
	h, err := b.OpenEncoder(ec.WithName(name))
	if err != nil {
		return probeResult{err: fmt.Errorf("%w: open: %w", ErrBackendUnavailable, err)}
	}
	defer h.Close()

	n, err := feedAndFlush[*Frame, *Packet](h, frame)
	if err != nil {
		return probeResult{err: err}
	}
	if n == 0 {
		return probeResult{err: fmt.Errorf("%w: no packet produced", ErrBackendUnavailable)}
	}

	return probeResult{info: CodecInfo{
		Name:         name,
		Codec:        b.Codec(),
		Vendor:       VendorOf(name),
		Hardware:     b.Hardware(),
		Score:        ScoreFor(name, b.Hardware()),
		PixelFormats: []PixelFormat{ec.PixelFormat},
		ProbeTime:    time.Since(start),
	}}
}

func (p *Prober) probeDecoder(b DecoderBackend, dc DecodeContext) (res probeResult) {
	name := b.Name()
	defer func() {
		if r := recover(); r != nil {
			res = probeResult{err: fmt.Errorf("%w: panic: %v", ErrBackendUnavailable, r)}
		}
	}()

	if f := dc.Format(); f != DataFormatUnknown && f != b.Codec() {
		return probeResult{err: fmt.Errorf("%w: consumes %s, want %s", ErrBackendUnavailable, b.Codec(), f)}
	}
	sample, err := p.sampleFor(b)
	if err != nil {
		return probeResult{err: err}
	}

	start := time.Now()
	h, err := b.OpenDecoder(dc.WithName(name))
	if err != nil {
		return probeResult{err: fmt.Errorf("%w: open: %w", ErrBackendUnavailable, err)}
	}
	defer h.Close()

	var formats []PixelFormat
	collect := func(frames []*Frame) {
		for _, f := range frames {
			if !containsPixelFormat(formats, f.Format) {
				formats = append(formats, f.Format)
			}
		}
	}
	frames, err := h.Feed(&Packet{Data: sample, Codec: b.Codec(), Key: true})
	if err != nil {
		return probeResult{err: fmt.Errorf("%w: feed: %w", ErrBackendUnavailable, err)}
	}
	collect(frames)
	flushed, err := h.Flush()
	if err != nil {
		return probeResult{err: fmt.Errorf("%w: flush: %w", ErrBackendUnavailable, err)}
	}
	collect(flushed)
	if len(frames)+len(flushed) == 0 {
		return probeResult{err: fmt.Errorf("%w: no frame produced", ErrBackendUnavailable)}
	}

	return probeResult{info: CodecInfo{
		Name:         name,
		Codec:        b.Codec(),
		Vendor:       VendorOf(name),
		Hardware:     b.Hardware(),
		Score:        ScoreFor(name, b.Hardware()),
		PixelFormats: formats,
		ProbeTime:    time.Since(start),
	}}
}

// sampleFor returns the encoded unit used to probe decoder b.
func (p *Prober) sampleFor(b DecoderBackend) ([]byte, error) {
	var sample []byte
	if s, ok := b.(Sampler); ok {
		data, err := s.ProbeSample()
		if err != nil {
			return nil, fmt.Errorf("%w: sample: %w", ErrBackendUnavailable, err)
		}
		sample = data
	} else {
		sample = p.samples[b.Codec()]
	}
	if len(sample) == 0 {
		return nil, fmt.Errorf("%w: no probe sample for %s", ErrBackendUnavailable, b.Codec())
	}
	if got := DetectCodec(sample); got != DataFormatUnknown && got != b.Codec() {
		return nil, fmt.Errorf("%w: probe sample is %s, backend decodes %s", ErrBackendUnavailable, got, b.Codec())
	}
	return sample, nil
}

func feedAndFlush[In, Out any](h Handle[In, Out], in In) (int, error) {
	out, err := h.Feed(in)
	if err != nil {
		return 0, fmt.Errorf("%w: feed: %w", ErrBackendUnavailable, err)
	}
	flushed, err := h.Flush()
	if err != nil {
		return 0, fmt.Errorf("%w: flush: %w", ErrBackendUnavailable, err)
	}
	return len(out) + len(flushed), nil
}

func containsPixelFormat(list []PixelFormat, p PixelFormat) bool {
	for _, f := range list {
		if f == p {
			return true
		}
	}
	return false
}

// IsUnavailable reports whether err means a backend could not be used.
func IsUnavailable(err error) bool { return errors.Is(err, ErrBackendUnavailable) }
