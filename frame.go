// Core frame and packet types exchanged with backends.

package hwcodec

// Frame is a raw video frame stored in one linear buffer laid out by
// Geometry. Frames returned by a session are owned by the caller.
type Frame struct {
	Data     []byte
	Format   PixelFormat
	Width    int
	Height   int
	Geometry Geometry
	PTS      int64 // Presentation timestamp in milliseconds
	Key      bool  // Decoded from a keyframe
}

// NewFrame allocates a frame sized for the given format and dimensions.
func NewFrame(pixfmt PixelFormat, width, height, align int) (*Frame, error) {
	g, err := ComputeGeometry(pixfmt, width, height, align)
	if err != nil {
		return nil, err
	}
	return &Frame{
		Data:     make([]byte, g.Total),
		Format:   pixfmt,
		Width:    width,
		Height:   height,
		Geometry: g,
	}, nil
}

// PlaneCount returns the number of planes in the frame.
func (f *Frame) PlaneCount() int { return f.Geometry.PlaneCount() }

// Plane returns the bytes of plane i, or nil if i is out of range.
func (f *Frame) Plane(i int) []byte {
	g := f.Geometry
	if i < 0 || i >= len(g.Lengths) {
		return nil
	}
	end := g.Offsets[i] + g.Lengths[i]
	if end > len(f.Data) {
		return nil
	}
	return f.Data[g.Offsets[i]:end:end]
}

// Stride returns the stride of plane i.
func (f *Frame) Stride(i int) int {
	if i < 0 || i >= len(f.Geometry.Strides) {
		return 0
	}
	return f.Geometry.Strides[i]
}

// Clone creates a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	clone := *f
	clone.Geometry = Geometry{
		Strides: append([]int(nil), f.Geometry.Strides...),
		Offsets: append([]int(nil), f.Geometry.Offsets...),
		Lengths: append([]int(nil), f.Geometry.Lengths...),
		Total:   f.Geometry.Total,
	}
	if f.Data != nil {
		clone.Data = make([]byte, len(f.Data))
		copy(clone.Data, f.Data)
	}
	return &clone
}

// Packet holds one encoded access unit.
type Packet struct {
	Data  []byte
	Codec DataFormat
	PTS   int64 // Presentation timestamp in milliseconds
	Key   bool  // Independently decodable
}

// Clone creates a deep copy of the packet.
func (p *Packet) Clone() *Packet {
	clone := *p
	if p.Data != nil {
		clone.Data = make([]byte, len(p.Data))
		copy(clone.Data, p.Data)
	}
	return &clone
}
