// Package color holds the stateless color math used by the animations.
//
// Every conversion truncates toward zero when scaling to 8-bit channels;
// nothing here rounds to nearest.
package color

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB is one LED's color, 8 bits per channel.
type RGB struct {
	R, G, B uint8
}

var (
	Black = RGB{0, 0, 0}
	White = RGB{255, 255, 255}
)

// Add sums two colors channel-wise, saturating at 255.
func (c RGB) Add(o RGB) RGB {
	return RGB{R: addSat(c.R, o.R), G: addSat(c.G, o.G), B: addSat(c.B, o.B)}
}

// Hex formats the color as #rrggbb.
func (c RGB) Hex() string {
	return c.colorful().Hex()
}

// Luma returns the Rec.601 brightness of c in [0,1].
func (c RGB) Luma() float64 {
	return (0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)) / 255.0
}

func (c RGB) colorful() colorful.Color {
	return colorful.Color{R: float64(c.R) / 255.0, G: float64(c.G) / 255.0, B: float64(c.B) / 255.0}
}

func addSat(a, b uint8) uint8 {
	s := int(a) + int(b)
	if s > 255 {
		return 255
	}
	return uint8(s)
}

// to8 truncates a [0,1] channel to 0..255.
func to8(v float64) uint8 {
	return uint8(v * 255)
}

// HSVToRGB converts hue, saturation and value in [0,1] to RGB.
func HSVToRGB(h, s, v float64) RGB {
	if s == 0 {
		return RGB{to8(v), to8(v), to8(v)}
	}
	i := int(h * 6.0)
	f := h*6.0 - float64(i)
	p := v * (1.0 - s)
	q := v * (1.0 - s*f)
	t := v * (1.0 - s*(1.0-f))
	i %= 6
	if i < 0 {
		i += 6
	}

	var r, g, b float64
	switch i {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return RGB{to8(r), to8(g), to8(b)}
}

// Wheel maps a position on a 256-step color wheel to a rainbow color.
// Positions outside [0,255] wrap.
func Wheel(pos int) RGB {
	pos %= 256
	if pos < 0 {
		pos += 256
	}
	pos = 255 - pos
	switch {
	case pos < 85:
		return RGB{uint8(255 - pos*3), 0, uint8(pos * 3)}
	case pos < 170:
		pos -= 85
		return RGB{0, uint8(pos * 3), uint8(255 - pos*3)}
	default:
		pos -= 170
		return RGB{uint8(pos * 3), uint8(255 - pos*3), 0}
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Blend interpolates linearly from c1 (ratio 0) to c2 (ratio 1).
// The ratio is clamped to [0,1].
func Blend(c1, c2 RGB, ratio float64) RGB {
	ratio = clamp01(ratio)
	mix := func(a, b uint8) uint8 {
		// a*(1-r)+a*r can land an ulp under a and truncate to a-1.
		if a == b {
			return a
		}
		return uint8(float64(a)*(1-ratio) + float64(b)*ratio)
	}
	return RGB{mix(c1.R, c2.R), mix(c1.G, c2.G), mix(c1.B, c2.B)}
}

// BlendLab blends in CIE L*a*b* space, which keeps mid-tones from going muddy.
func BlendLab(c1, c2 RGB, ratio float64) RGB {
	ratio = clamp01(ratio)
	r, g, b := c1.colorful().BlendLab(c2.colorful(), ratio).Clamped().RGB255()
	return RGB{r, g, b}
}

// Dim scales every channel by factor.
func Dim(c RGB, factor float64) RGB {
	return RGB{
		uint8(float64(c.R) * factor),
		uint8(float64(c.G) * factor),
		uint8(float64(c.B) * factor),
	}
}

// GammaCorrect applies (c/255)^gamma*255 per channel.
func GammaCorrect(c RGB, gamma float64) RGB {
	corr := func(v uint8) uint8 {
		return uint8(math.Pow(float64(v)/255.0, gamma) * 255)
	}
	return RGB{corr(c.R), corr(c.G), corr(c.B)}
}

// KelvinToRGB approximates the color of a black body at the given
// temperature (1000K to 40000K).
func KelvinToRGB(kelvin float64) RGB {
	temp := kelvin / 100.0

	var red, green, blue float64
	if temp <= 66 {
		red = 255
		green = 99.4708025861*math.Log(temp) - 161.1195681661
	} else {
		red = 329.698727446 * math.Pow(temp-60, -0.1332047592)
		green = 288.1221695283 * math.Pow(temp-60, -0.0755148492)
	}

	switch {
	case temp >= 66:
		blue = 255
	case temp <= 19:
		blue = 0
	default:
		blue = 138.5177312231*math.Log(temp-10) - 305.0447927307
	}

	clamp := func(v float64) uint8 {
		return uint8(math.Max(0, math.Min(255, v)))
	}
	return RGB{clamp(red), clamp(green), clamp(blue)}
}

// Random returns a uniformly random color drawn from rng.
func Random(rng *rand.Rand) RGB {
	return RGB{uint8(rng.Intn(256)), uint8(rng.Intn(256)), uint8(rng.Intn(256))}
}

// ParseHex parses "#rrggbb" or "#rgb".
func ParseHex(s string) (RGB, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, err
	}
	r, g, b := c.RGB255()
	return RGB{r, g, b}, nil
}

// MarshalText encodes c as #rrggbb so palettes read naturally in YAML.
func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText accepts anything ParseHex does.
func (c *RGB) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return fmt.Errorf("color: %q: %w", text, err)
	}
	*c = parsed
	return nil
}
