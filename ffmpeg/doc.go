// Package ffmpeg exposes the native encoders and decoders of the hwcodec
// shim library (libhwcodec) as hwcodec backends. The library is loaded at
// runtime with purego, so binaries build without cgo and run on machines
// that lack it; every backend then reports hwcodec.ErrBackendUnavailable.
//
// The shim wraps FFmpeg's libavcodec. Software backends are libx264,
// libx265, h264 and hevc; hardware backends follow FFmpeg naming, e.g.
// h264_nvenc, hevc_qsv, h264_videotoolbox. Which of them actually work on
// a host is decided by hwcodec.Prober, never by this package.
//
// Build with -tags nohwcodec to compile the package without the loader.
package ffmpeg
