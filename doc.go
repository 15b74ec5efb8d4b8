// Package hwcodec selects and drives video encoders and decoders by probing
// what actually works on the running machine.
//
// Backends are registered at start-up (see package backends). Given a
// requested EncodeContext or DecodeContext, a Prober opens every candidate,
// performs one real encode of a synthetic frame (or one decode of a sample
// unit) and keeps only the backends that succeed. Prioritize ranks the
// survivors, hardware before software and then by a static vendor
// preference. A Session then drives the chosen backend through
// Open, Running, Draining and Closed.
//
// # Geometry
//
// Raw frames are single linear buffers laid out by ComputeGeometry: one
// stride, offset and length per plane, planes back to back. Every component
// that allocates or copies frame memory uses the same function.
//
// # Backends
//
//   - rawvideo: pure-Go lossless reference backend, always present
//   - ffmpeg: libx264, libx265 and vendor hardware codecs through the
//     libhwcodec shim, loaded at runtime with purego
//
// # Configuration
//
// LoadConfig reads an optional file and HWCODEC_* environment variables.
// HWCODEC_LOG sets the log level; HWCODEC_LIB_PATH locates the shim.
//
// # Build Tags
//
//   - nohwcodec: compile the ffmpeg package without the native loader
package hwcodec
