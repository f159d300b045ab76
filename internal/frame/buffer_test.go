package frame

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/treelights/internal/color"
)

func TestNewIsZeroFilled(t *testing.T) {
	b := New(5)
	if b.Len() != 5 {
		t.Fatalf("expected 5 pixels, got %d", b.Len())
	}
	for i := 0; i < b.Len(); i++ {
		if b.At(i) != color.Black {
			t.Errorf("pixel %d not black: %v", i, b.At(i))
		}
	}
}

func TestSetPixelBounds(t *testing.T) {
	b := New(3)
	b.SetPixel(-1, color.White)
	b.SetPixel(3, color.White)
	b.SetPixel(1, color.RGB{R: 1, G: 2, B: 3})

	want := []color.RGB{{}, {R: 1, G: 2, B: 3}, {}}
	if diff := cmp.Diff(want, b.Pixels()); diff != "" {
		t.Errorf("pixels mismatch (-want +got):\n%s", diff)
	}
	if b.At(10) != color.Black {
		t.Errorf("out of range At should be black")
	}
}

func TestSetAllAndClear(t *testing.T) {
	b := New(4)
	b.SetAll(color.RGB{R: 9, G: 8, B: 7})
	for _, p := range b.Pixels() {
		if p != (color.RGB{R: 9, G: 8, B: 7}) {
			t.Fatalf("SetAll missed a pixel: %v", p)
		}
	}
	b.Clear()
	for _, p := range b.Pixels() {
		if p != color.Black {
			t.Fatalf("Clear missed a pixel: %v", p)
		}
	}
}

func TestFadeToBlack(t *testing.T) {
	b := New(2)
	b.SetPixel(0, color.RGB{R: 255, G: 100, B: 3})
	b.SetPixel(1, color.RGB{R: 10, G: 0, B: 1})

	b.FadeToBlack(0.5)

	want := []color.RGB{{R: 127, G: 50, B: 1}, {R: 5, G: 0, B: 0}}
	if diff := cmp.Diff(want, b.Pixels()); diff != "" {
		t.Errorf("fade mismatch (-want +got):\n%s", diff)
	}

	b.FadeToBlack(1)
	for _, p := range b.Pixels() {
		if p != color.Black {
			t.Errorf("full fade left %v", p)
		}
	}
}

func TestBlur(t *testing.T) {
	b := New(5)
	b.SetPixel(2, color.RGB{R: 200, G: 100, B: 0})

	b.Blur(1)

	want := []color.RGB{{}, {R: 50, G: 25, B: 0}, {R: 100, G: 50, B: 0}, {R: 50, G: 25, B: 0}, {}}
	if diff := cmp.Diff(want, b.Pixels()); diff != "" {
		t.Errorf("blur mismatch (-want +got):\n%s", diff)
	}
}

func TestBlurKeepsEndpoints(t *testing.T) {
	b := New(3)
	b.SetPixel(0, color.RGB{R: 200, G: 200, B: 200})
	b.SetPixel(2, color.RGB{R: 100, G: 100, B: 100})

	b.Blur(1)

	if b.At(0) != (color.RGB{R: 200, G: 200, B: 200}) || b.At(2) != (color.RGB{R: 100, G: 100, B: 100}) {
		t.Errorf("endpoints changed: %v", b.Pixels())
	}
	// 200*0.25 + 0 + 100*0.25
	if b.At(1) != (color.RGB{R: 75, G: 75, B: 75}) {
		t.Errorf("interior = %v, want 75s", b.At(1))
	}
}

func TestBlurPartialAndNoop(t *testing.T) {
	b := New(3)
	b.SetPixel(1, color.RGB{R: 100, G: 0, B: 0})

	b.Blur(0)
	if b.At(1) != (color.RGB{R: 100, G: 0, B: 0}) {
		t.Fatalf("zero blur changed buffer")
	}

	b.Blur(0.5)
	// filtered center = 50; 100*0.5 + 50*0.5 = 75
	if b.At(1) != (color.RGB{R: 75, G: 0, B: 0}) {
		t.Errorf("half blur center = %v", b.At(1))
	}
}

func TestAddPixelSaturates(t *testing.T) {
	b := New(1)
	b.AddPixel(0, color.RGB{R: 200, G: 10, B: 0})
	b.AddPixel(0, color.RGB{R: 100, G: 10, B: 0})
	if b.At(0) != (color.RGB{R: 255, G: 20, B: 0}) {
		t.Errorf("AddPixel = %v", b.At(0))
	}
}

func TestFlattenRoundTrip(t *testing.T) {
	b := New(2)
	b.SetPixel(0, color.RGB{R: 1, G: 2, B: 3})
	b.SetPixel(1, color.RGB{R: 4, G: 5, B: 6})

	data := b.Bytes()
	if diff := cmp.Diff([]byte{1, 2, 3, 4, 5, 6}, data); diff != "" {
		t.Errorf("bytes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(b.Pixels(), Unflatten(append(data, 9))); diff != "" {
		t.Errorf("unflatten mismatch (-want +got):\n%s", diff)
	}
}

func TestPixelsIsCopy(t *testing.T) {
	b := New(1)
	p := b.Pixels()
	p[0] = color.White
	if b.At(0) != color.Black {
		t.Errorf("Pixels leaked internal storage")
	}
}
