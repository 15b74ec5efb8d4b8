// Package backends populates a hwcodec.Registry at start-up from the
// platform and the configuration.
package backends

import (
	"runtime"

	"github.com/hashicorp/go-hclog"

	"github.com/thesyncim/hwcodec"
	"github.com/thesyncim/hwcodec/ffmpeg"
	"github.com/thesyncim/hwcodec/rawvideo"
)

// loadLibrary is replaced in tests.
var loadLibrary = ffmpeg.Load

// New builds a registry holding every backend enabled by cfg. rawvideo is
// always registered unless disabled. Native backends are registered only
// when the shim library loads; a missing library is not an error.
func New(cfg hwcodec.Config, logger hclog.Logger) (*hwcodec.Registry, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("backends")
	reg := hwcodec.NewRegistry()

	if cfg.Enabled(rawvideo.Name) {
		opts := []rawvideo.Option{
			rawvideo.WithLookahead(cfg.Lookahead),
			rawvideo.WithLogger(logger.Named(rawvideo.Name)),
		}
		if err := reg.RegisterEncoder(rawvideo.NewEncoder(opts...)); err != nil {
			return nil, err
		}
		if err := reg.RegisterDecoder(rawvideo.NewDecoder(opts...)); err != nil {
			return nil, err
		}
	}

	if !anyNativeEnabled(cfg) {
		logger.Debug("native backends disabled by configuration")
		return reg, nil
	}
	lib, err := loadLibrary(cfg.LibPath, logger)
	if err != nil {
		logger.Info("native backends unavailable", "error", err)
		return reg, nil
	}

	for _, b := range ffmpeg.Encoders(lib) {
		if !cfg.Enabled(b.Name()) {
			continue
		}
		if err := reg.RegisterEncoder(b); err != nil {
			return nil, err
		}
	}
	for _, b := range ffmpeg.Decoders(lib) {
		if !cfg.Enabled(b.Name()) {
			continue
		}
		if err := reg.RegisterDecoder(b); err != nil {
			return nil, err
		}
	}
	logger.Debug("registry populated", "encoders", reg.EncoderNames(), "decoders", reg.DecoderNames())
	return reg, nil
}

func anyNativeEnabled(cfg hwcodec.Config) bool {
	for _, c := range ffmpeg.Candidates(runtime.GOOS) {
		if cfg.Enabled(c.Name) {
			return true
		}
	}
	return false
}

// NewProber returns a prober configured by cfg.
func NewProber(cfg hwcodec.Config, logger hclog.Logger) *hwcodec.Prober {
	opts := []hwcodec.ProberOption{hwcodec.WithConcurrency(cfg.ProbeConcurrency)}
	if logger != nil {
		opts = append(opts, hwcodec.WithProbeLogger(logger))
	}
	return hwcodec.NewProber(opts...)
}
