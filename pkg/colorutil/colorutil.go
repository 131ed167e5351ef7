// Package colorutil provides shared color utilities for the flatmap viewer.
package colorutil

import (
	"hash/fnv"
	"image/color"
	"math"
)

// Common colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Blue    = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Red     = color.RGBA{R: 220, G: 40, B: 40, A: 255}

	// Canvas background.
	Background = color.RGBA{R: 248, G: 246, B: 240, A: 255}
)

// RGBToHSV converts RGB (0-255) to HSV (H 0-360, S 0-1, V 0-1).
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC
	if maxC > 0 {
		s = diff / maxC
	}

	if diff == 0 {
		h = 0
	} else if maxC == r {
		h = 60 * math.Mod((g-b)/diff, 6)
	} else if maxC == g {
		h = 60 * ((b-r)/diff + 2)
	} else {
		h = 60 * ((r-g)/diff + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}

// HSVToRGB converts HSV (H 0-360, S 0-1, V 0-1) to RGB (0-255).
func HSVToRGB(h, s, v float64) (r, g, b float64) {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return (r + m) * 255, (g + m) * 255, (b + m) * 255
}

// Lighten moves a color toward white by the given fraction (0-1).
func Lighten(c color.RGBA, amount float64) color.RGBA {
	h, s, v := RGBToHSV(float64(c.R), float64(c.G), float64(c.B))
	s *= 1 - amount
	v = v + (1-v)*amount
	r, g, b := HSVToRGB(h, s, v)
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: c.A}
}

// WithAlpha returns the color with its alpha replaced.
func WithAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}

// Blend alpha-blends src over dst using src's alpha.
func Blend(dst, src color.RGBA) color.RGBA {
	a := float64(src.A) / 255
	inv := 1 - a
	return color.RGBA{
		R: uint8(float64(src.R)*a + float64(dst.R)*inv),
		G: uint8(float64(src.G)*a + float64(dst.G)*inv),
		B: uint8(float64(src.B)*a + float64(dst.B)*inv),
		A: 255,
	}
}

// LayerColor returns a stable pastel fill color for a layer name, so a map
// renders the same way on every load.
func LayerColor(name string) color.RGBA {
	hash := fnv.New32a()
	hash.Write([]byte(name))
	hue := float64(hash.Sum32() % 360)
	r, g, b := HSVToRGB(hue, 0.25, 0.92)
	return color.RGBA{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}
