package hwcodec

// SMPTE color bars (simplified 8-bar pattern)
var colorBarsRGB = [8][3]uint8{
	{192, 192, 192}, // White (75%)
	{192, 192, 0},   // Yellow
	{0, 192, 192},   // Cyan
	{0, 192, 0},     // Green
	{192, 0, 192},   // Magenta
	{192, 0, 0},     // Red
	{0, 0, 192},     // Blue
	{16, 16, 16},    // Black
}

// FillColorBars paints eight vertical color bars into f, shifted right by
// offset pixels so consecutive frames differ. It is the synthetic input the
// prober feeds to encoders.
func FillColorBars(f *Frame, offset int) {
	w, h := f.Width, f.Height
	barWidth := w / 8
	if barWidth == 0 {
		barWidth = 1
	}
	bar := func(x int) [3]uint8 {
		idx := ((x + offset) % w) / barWidth
		if idx >= 8 {
			idx = 7
		}
		return colorBarsRGB[idx]
	}

	switch f.Format {
	case PixelFormatI420, PixelFormatNV12:
		yPlane, yStride := f.Plane(0), f.Stride(0)
		for y := 0; y < h; y++ {
			row := yPlane[y*yStride:]
			for x := 0; x < w; x++ {
				rgb := bar(x)
				row[x], _, _ = rgbToYUV(rgb[0], rgb[1], rgb[2])
			}
		}
		for y := 0; y < h/2; y++ {
			for x := 0; x < w/2; x++ {
				rgb := bar(2 * x)
				_, u, v := rgbToYUV(rgb[0], rgb[1], rgb[2])
				if f.Format == PixelFormatNV12 {
					uv := f.Plane(1)[y*f.Stride(1):]
					uv[2*x], uv[2*x+1] = u, v
				} else {
					f.Plane(1)[y*f.Stride(1)+x] = u
					f.Plane(2)[y*f.Stride(2)+x] = v
				}
			}
		}
	case PixelFormatRGB24, PixelFormatRGBA32, PixelFormatBGRA32:
		bpp := 3
		if f.Format != PixelFormatRGB24 {
			bpp = 4
		}
		plane, stride := f.Plane(0), f.Stride(0)
		for y := 0; y < h; y++ {
			row := plane[y*stride:]
			for x := 0; x < w; x++ {
				rgb := bar(x)
				px := row[x*bpp : x*bpp+bpp]
				switch f.Format {
				case PixelFormatBGRA32:
					px[0], px[1], px[2], px[3] = rgb[2], rgb[1], rgb[0], 255
				case PixelFormatRGBA32:
					px[0], px[1], px[2], px[3] = rgb[0], rgb[1], rgb[2], 255
				default:
					px[0], px[1], px[2] = rgb[0], rgb[1], rgb[2]
				}
			}
		}
	}
}

// rgbToYUV converts RGB to YUV (BT.601)
func rgbToYUV(r, g, b uint8) (y, u, v uint8) {
	yf := 16.0 + 65.481*float64(r)/255.0 + 128.553*float64(g)/255.0 + 24.966*float64(b)/255.0
	uf := 128.0 - 37.797*float64(r)/255.0 - 74.203*float64(g)/255.0 + 112.0*float64(b)/255.0
	vf := 128.0 + 112.0*float64(r)/255.0 - 93.786*float64(g)/255.0 - 18.214*float64(b)/255.0

	y = uint8(clamp(yf, 16, 235))
	u = uint8(clamp(uf, 16, 240))
	v = uint8(clamp(vf, 16, 240))
	return
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
