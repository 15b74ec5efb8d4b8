//go:build !(darwin || linux) || nohwcodec

package ffmpeg

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/thesyncim/hwcodec"
)

// Library is a loaded shim library. On this build it can never be loaded.
type Library struct{}

// Load always fails on platforms without the purego loader.
func Load(path string, logger hclog.Logger) (*Library, error) {
	return nil, ErrLibraryNotLoaded
}

// Available reports whether the shim library can be loaded.
func Available() bool { return false }

// Path returns the file the library was loaded from.
func (l *Library) Path() string { return "" }

// NativeGeometry is unavailable without the shim.
func (l *Library) NativeGeometry(pixfmt hwcodec.PixelFormat, width, height, align int) (hwcodec.Geometry, error) {
	return hwcodec.Geometry{}, ErrLibraryNotLoaded
}

func (l *Library) openEncoder(c Candidate, ctx hwcodec.EncodeContext) (hwcodec.EncoderHandle, error) {
	return nil, fmt.Errorf("%w: %s: %v", hwcodec.ErrBackendUnavailable, c.Name, ErrLibraryNotLoaded)
}

func (l *Library) openDecoder(c Candidate, ctx hwcodec.DecodeContext) (hwcodec.DecoderHandle, error) {
	return nil, fmt.Errorf("%w: %s: %v", hwcodec.ErrBackendUnavailable, c.Name, ErrLibraryNotLoaded)
}

func (l *Library) sample(codec hwcodec.DataFormat) ([]byte, error) {
	return nil, ErrLibraryNotLoaded
}
