package pcgaux

import (
	"image/color"

	math "github.com/chewxy/math32"
)

// A great portion of logic in this file taken from Esme Lamb's (@dedelala)
// excellent color manipulation work presented at Gophercon AU 2024.
// https://github.com/dedelala/disco/tree/main/color

var red = color.RGBA{R: 255, A: 255}

// ColorConversionLinearGradient creates a color conversion function that blends from c0 at
// radius 0 to c1 at radius maxRadius. Returns red for NaN values.
func ColorConversionLinearGradient(maxRadius float32, c0, c1 color.Color) func(r float32) color.Color {
	if c0 == color.Black && c1 == color.White {
		return blackAndWhiteLinear(maxRadius)
	}
	h0, s0, v0 := colorToHSV(c0)
	h1, s1, v1 := colorToHSV(c1)
	return func(r float32) color.Color {
		if math.IsNaN(r) {
			return red
		}
		blend := gradientBlend(r, maxRadius)
		if blend <= 0 {
			return c0
		} else if blend >= 1 {
			return c1
		}
		h, s, v := interpHSV(h0, s0, v0, h1, s1, v1, blend)
		c := rgbToC(hsvToRGB(h, s, v))
		return color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 255}
	}
}

// ColorConversionContour creates a color conversion that draws white contour lines every
// spacing units of radius over a warm to cool gradient.
func ColorConversionContour(maxRadius, spacing float32) func(r float32) color.Color {
	warm := color.RGBA{R: 230, G: 153, B: 77, A: 255}
	cool := color.RGBA{R: 166, G: 217, B: 255, A: 255}
	base := ColorConversionLinearGradient(maxRadius, cool, warm)
	inv := 1 / spacing
	return func(r float32) color.Color {
		if math.IsNaN(r) {
			return red
		}
		frac := r*inv - math.Floor(r*inv)
		if frac < 0.05 || frac > 0.95 {
			return color.White
		}
		return base(r)
	}
}

func gradientBlend(r, maxRadius float32) float32 {
	if maxRadius <= 0 {
		return 1
	}
	return r / maxRadius
}

func blackAndWhiteLinear(maxRadius float32) func(r float32) color.Color {
	return func(r float32) color.Color {
		if math.IsNaN(r) {
			return red
		}
		blend := clampf(gradientBlend(r, maxRadius), 0, 1)
		return color.Gray{Y: uint8(blend * 255)}
	}
}

func clampf(v, Min, Max float32) float32 {
	if v < Min {
		return Min
	} else if v > Max {
		return Max
	}
	return v
}

func interpf(a, b, t float32) float32 {
	return a + (b-a)*t
}

func interpHSV(h0, s0, v0, h1, s1, v1, t float32) (h, s, v float32) {
	switch {
	case h1-h0 > 0.5:
		h0 += 1.0
	case h1-h0 < -0.5:
		h1 += 1.0
	}
	h = interpf(h0, h1, t)
	if h > 1 {
		h -= 1
	}
	s = interpf(s0, s1, t)
	v = interpf(v0, v1, t)
	return h, s, v
}

func colorToHSV(c color.Color) (h, s, v float32) {
	r0, g0, b0, _ := c.RGBA()
	return rgbToHSV(float32(r0>>8)/math.MaxUint8, float32(g0>>8)/math.MaxUint8, float32(b0>>8)/math.MaxUint8)
}

// rgbToC converts r, g, and b float values on the range of 0.0 to 1.0 to a
// 24 bit RGB value stored in the least significant bits of a uint32. The inputs
// are clamped to the range of 0.0 to 1.0
func rgbToC(r, g, b float32) (c uint32) {
	return uint32(clampf(r, 0, 1)*math.MaxUint8)<<16 |
		uint32(clampf(g, 0, 1)*math.MaxUint8)<<8 |
		uint32(clampf(b, 0, 1)*math.MaxUint8)
}

// hsvToRGB converts hue, saturation and brightness values on the range of 0.0
// to 1.0 to RGB floating point values on the range of 0.0 to 1.0
func hsvToRGB(h, s, v float32) (r, g, b float32) {
	var (
		c = s * v
		x = c * (1 - math.Abs(math.Mod(h*6, 2)-1))
		m = v - c
	)

	switch {
	case h >= 0 && h <= 1.0/6:
		r, g, b = c, x, 0
	case h > 1.0/6 && h <= 2.0/6:
		r, g, b = x, c, 0
	case h > 2.0/6 && h <= 3.0/6:
		r, g, b = 0, c, x
	case h > 3.0/6 && h <= 4.0/6:
		r, g, b = 0, x, c
	case h > 4.0/6 && h <= 5.0/6:
		r, g, b = x, 0, c
	case h > 5.0/6 && h <= 1.0:
		r, g, b = c, 0, x
	}

	r, g, b = r+m, g+m, b+m
	return r, g, b
}

// rgbToHSV converts red, green, and blue floating point values on the range
// 0.0 to 1.0 to hue, saturation and brightness values on the range 0.0 to 1.0
func rgbToHSV(r, g, b float32) (h, s, v float32) {
	var (
		xmax = max(r, g, b)
		xmin = min(r, g, b)
		c    = xmax - xmin
	)
	v = xmax
	switch {
	case c == 0:
		h = 0
	case v == r:
		h = (g - b) / (c * 6)
	case v == g:
		h = 1.0/3 + (b-r)/(c*6)
	case v == b:
		h = 2.0/3 + (r-g)/(c*6)
	}
	if h < 0 {
		h += 1
	}
	if xmax > 0 {
		s = c / xmax
	}
	return
}
