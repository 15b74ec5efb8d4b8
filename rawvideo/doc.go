// Package rawvideo is a pure-Go software backend that carries uncompressed
// frames in a small elementary stream. It is always available, needs no
// native libraries, and is lossless, so it serves as the fallback software
// backend and as the reference for frame-count and round-trip behavior.
//
// The encoder holds a configurable number of frames back (lookahead), the
// way B-frame encoders do, so a Feed may return no packet and Flush returns
// the remainder. Every keyframe packet starts with a sequence header unit
// carrying the frame geometry; the decoder produces no frame for a unit
// that is only a sequence header.
package rawvideo
