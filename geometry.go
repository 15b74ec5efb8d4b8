package hwcodec

import (
	"fmt"
	"math"
)

// Geometry is the linear buffer layout of one raw frame.
// Plane i occupies Data[Offsets[i] : Offsets[i]+Lengths[i]].
type Geometry struct {
	Strides []int // bytes per row, including alignment padding
	Offsets []int // start of each plane
	Lengths []int // Strides[i] * rows of plane i
	Total   int   // sum of Lengths
}

// PlaneCount returns the number of planes described by g.
func (g Geometry) PlaneCount() int { return len(g.Lengths) }

// Rows returns the number of rows of plane i.
func (g Geometry) Rows(i int) int {
	if i < 0 || i >= len(g.Lengths) || g.Strides[i] == 0 {
		return 0
	}
	return g.Lengths[i] / g.Strides[i]
}

// ComputeGeometry computes stride, offset and length of every plane of a
// width x height frame in pixfmt. align is the stride alignment in bytes; 0
// selects tight packing. Planes are laid out back to back so Total equals
// the sum of Lengths.
func ComputeGeometry(pixfmt PixelFormat, width, height, align int) (Geometry, error) {
	if !pixfmt.Valid() {
		return Geometry{}, fmt.Errorf("%w: unknown pixel format %d", ErrUnsupportedFormat, int(pixfmt))
	}
	if width <= 0 || height <= 0 {
		return Geometry{}, fmt.Errorf("%w: invalid dimensions %dx%d", ErrUnsupportedFormat, width, height)
	}
	if !validAlign(align) {
		return Geometry{}, fmt.Errorf("%w: alignment %d is not a power of two", ErrUnsupportedFormat, align)
	}
	meta := pixelFormatInfo[pixfmt]
	if meta.ChromaSub && (width%2 != 0 || height%2 != 0) {
		return Geometry{}, fmt.Errorf("%w: %s requires even dimensions, got %dx%d", ErrUnsupportedFormat, pixfmt, width, height)
	}

	g := Geometry{
		Strides: make([]int, meta.Planes),
		Offsets: make([]int, meta.Planes),
		Lengths: make([]int, meta.Planes),
	}
	offset := 0
	for i := 0; i < meta.Planes; i++ {
		w, h := width, height
		if i > 0 && meta.ChromaSub {
			w, h = width/2, height/2
		}
		row, ok := mulInt(w, meta.RowBytes[i])
		if !ok || row > math.MaxInt-align {
			return Geometry{}, errTooLarge(pixfmt, width, height)
		}
		stride := alignUp(row, align)
		length, ok := mulInt(stride, h)
		if !ok || offset > math.MaxInt-length {
			return Geometry{}, errTooLarge(pixfmt, width, height)
		}
		g.Strides[i] = stride
		g.Offsets[i] = offset
		g.Lengths[i] = length
		offset += length
	}
	g.Total = offset
	return g, nil
}

// Equal reports whether g and o describe the same layout.
func (g Geometry) Equal(o Geometry) bool {
	if g.Total != o.Total || len(g.Strides) != len(o.Strides) ||
		len(g.Offsets) != len(o.Offsets) || len(g.Lengths) != len(o.Lengths) {
		return false
	}
	for i := range g.Strides {
		if g.Strides[i] != o.Strides[i] || g.Offsets[i] != o.Offsets[i] || g.Lengths[i] != o.Lengths[i] {
			return false
		}
	}
	return true
}

func errTooLarge(pixfmt PixelFormat, width, height int) error {
	return fmt.Errorf("%w: %s %dx%d does not fit in memory", ErrUnsupportedFormat, pixfmt, width, height)
}

// mulInt returns a*b for non-negative a and b, and false on overflow.
func mulInt(a, b int) (int, bool) {
	if a != 0 && b > math.MaxInt/a {
		return 0, false
	}
	return a * b, true
}

func validAlign(align int) bool {
	if align == 0 {
		return true
	}
	return align > 0 && align&(align-1) == 0
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) &^ (align - 1)
}
