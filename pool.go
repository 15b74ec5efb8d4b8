package hwcodec

import (
	"sync"
	"sync/atomic"
)

// FramePool recycles frame buffers of one geometry so the encode and decode
// hot paths do not allocate per call.
type FramePool struct {
	format   PixelFormat
	width    int
	height   int
	geometry Geometry
	pool     sync.Pool

	allocs atomic.Uint64
	gets   atomic.Uint64
	puts   atomic.Uint64
}

// PoolStats reports FramePool usage.
type PoolStats struct {
	Allocations uint64 // buffers created because the pool was empty
	Gets        uint64
	Puts        uint64
}

// NewFramePool creates a pool of frames sized by ComputeGeometry.
func NewFramePool(pixfmt PixelFormat, width, height, align int) (*FramePool, error) {
	g, err := ComputeGeometry(pixfmt, width, height, align)
	if err != nil {
		return nil, err
	}
	p := &FramePool{
		format:   pixfmt,
		width:    width,
		height:   height,
		geometry: g,
	}
	p.pool.New = func() any {
		p.allocs.Add(1)
		return make([]byte, g.Total)
	}
	return p, nil
}

// Geometry returns the layout of frames handed out by the pool.
func (p *FramePool) Geometry() Geometry { return p.geometry }

// Get returns a frame with a buffer of exactly Geometry().Total bytes. The
// buffer contents are unspecified.
func (p *FramePool) Get() *Frame {
	p.gets.Add(1)
	buf := p.pool.Get().([]byte)
	return &Frame{
		Data:     buf[:p.geometry.Total],
		Format:   p.format,
		Width:    p.width,
		Height:   p.height,
		Geometry: p.geometry,
	}
}

// Put returns a frame's buffer to the pool. Frames of another size are
// ignored. The caller must not use f.Data afterwards.
func (p *FramePool) Put(f *Frame) {
	if f == nil || cap(f.Data) < p.geometry.Total || f.Format != p.format ||
		f.Width != p.width || f.Height != p.height || !f.Geometry.Equal(p.geometry) {
		return
	}
	p.puts.Add(1)
	p.pool.Put(f.Data[:p.geometry.Total]) //nolint:staticcheck // SA6002
	f.Data = nil
}

// Stats returns pool counters.
func (p *FramePool) Stats() PoolStats {
	return PoolStats{
		Allocations: p.allocs.Load(),
		Gets:        p.gets.Load(),
		Puts:        p.puts.Load(),
	}
}
