package effects

import "math"

const twoPi = 2 * math.Pi

// wrap returns x mod m in [0, m).
func wrap(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	return r
}

// arcDistance is the shorter angular distance between two angles in [0, 2π).
func arcDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > math.Pi {
		d = twoPi - d
	}
	return d
}

// falloff ramps from 1 at dist=0 to 0 at dist=band, squared. Zero outside.
func falloff(dist, band float64) float64 {
	if band <= 0 || dist >= band {
		return 0
	}
	b := 1 - dist/band
	return b * b
}
