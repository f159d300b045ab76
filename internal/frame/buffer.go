// Package frame holds the per-LED color buffer an effect renders into.
package frame

import (
	"math"

	"github.com/san-kum/treelights/internal/color"
)

// Buffer is an ordered sequence of LED colors. It is owned by a single effect
// and is not safe for concurrent use.
type Buffer struct {
	pixels []color.RGB
}

// New returns a zero-filled buffer for n LEDs.
func New(n int) *Buffer {
	if n < 0 {
		n = 0
	}
	return &Buffer{pixels: make([]color.RGB, n)}
}

func (b *Buffer) Len() int { return len(b.pixels) }

// At returns the color of LED i, or black when i is out of range.
func (b *Buffer) At(i int) color.RGB {
	if i < 0 || i >= len(b.pixels) {
		return color.Black
	}
	return b.pixels[i]
}

// SetPixel sets LED i. Out-of-range indices are ignored.
func (b *Buffer) SetPixel(i int, c color.RGB) {
	if i < 0 || i >= len(b.pixels) {
		return
	}
	b.pixels[i] = c
}

// AddPixel adds c onto LED i, saturating each channel at 255.
func (b *Buffer) AddPixel(i int, c color.RGB) {
	if i < 0 || i >= len(b.pixels) {
		return
	}
	b.pixels[i] = b.pixels[i].Add(c)
}

func (b *Buffer) SetAll(c color.RGB) {
	for i := range b.pixels {
		b.pixels[i] = c
	}
}

func (b *Buffer) Clear() {
	b.SetAll(color.Black)
}

// FadeToBlack scales every channel by (1 - amount), truncating.
func (b *Buffer) FadeToBlack(amount float64) {
	k := 1.0 - math.Max(0, math.Min(1, amount))
	for i, p := range b.pixels {
		b.pixels[i] = color.RGB{
			R: uint8(float64(p.R) * k),
			G: uint8(float64(p.G) * k),
			B: uint8(float64(p.B) * k),
		}
	}
}

// Blur runs a 0.25/0.5/0.25 box filter over interior LEDs and mixes the
// result back in by amount. The first and last LED keep their color in the
// filtered copy.
func (b *Buffer) Blur(amount float64) {
	if amount <= 0 {
		return
	}
	n := len(b.pixels)
	blurred := make([]color.RGB, n)
	copy(blurred, b.pixels)
	for i := 1; i < n-1; i++ {
		l, c, r := b.pixels[i-1], b.pixels[i], b.pixels[i+1]
		blurred[i] = color.RGB{
			R: tap(l.R, c.R, r.R),
			G: tap(l.G, c.G, r.G),
			B: tap(l.B, c.B, r.B),
		}
	}
	mix := func(orig, filt uint8) uint8 {
		return uint8(float64(orig)*(1-amount) + float64(filt)*amount)
	}
	for i, p := range b.pixels {
		f := blurred[i]
		b.pixels[i] = color.RGB{R: mix(p.R, f.R), G: mix(p.G, f.G), B: mix(p.B, f.B)}
	}
}

func tap(l, c, r uint8) uint8 {
	return uint8(float64(l)*0.25 + float64(c)*0.5 + float64(r)*0.25)
}

// Pixels returns a copy of the buffer contents.
func (b *Buffer) Pixels() []color.RGB {
	out := make([]color.RGB, len(b.pixels))
	copy(out, b.pixels)
	return out
}

// CopyFrom overwrites the buffer with src; extra source pixels are dropped and
// missing ones left untouched.
func (b *Buffer) CopyFrom(src []color.RGB) {
	copy(b.pixels, src)
}

// Bytes flattens the buffer to R,G,B,R,G,B,... for transports.
func (b *Buffer) Bytes() []byte {
	return Flatten(b.pixels)
}

// Flatten packs pixels into an RGB byte stream.
func Flatten(pixels []color.RGB) []byte {
	out := make([]byte, 0, len(pixels)*3)
	for _, p := range pixels {
		out = append(out, p.R, p.G, p.B)
	}
	return out
}

// Unflatten is the inverse of Flatten; a trailing partial pixel is dropped.
func Unflatten(data []byte) []color.RGB {
	out := make([]color.RGB, len(data)/3)
	for i := range out {
		out[i] = color.RGB{R: data[i*3], G: data[i*3+1], B: data[i*3+2]}
	}
	return out
}
