package analysis

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/treelights/internal/color"
)

// BrightnessSeries returns the mean luma of each frame.
func BrightnessSeries(frames [][]color.RGB) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		if len(f) == 0 {
			continue
		}
		sum := 0.0
		for _, p := range f {
			sum += p.Luma()
		}
		out[i] = sum / float64(len(f))
	}
	return out
}

// PowerSpectrum returns |X_k| for k in [0, n/2] of the mean-removed series.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	mean := stat.Mean(data, nil)
	centred := make([]float64, len(data))
	for i, v := range data {
		centred[i] = v - mean
	}
	coeff := fourier.NewFFT(len(data)).Coefficients(nil, centred)
	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantPeriod finds the strongest cycle in a series sampled at fps and
// returns its period in seconds. ok is false for series that are too short
// or carry no variation.
func DominantPeriod(data []float64, fps int) (period float64, ok bool) {
	if len(data) < 4 || fps < 1 {
		return 0, false
	}
	ps := PowerSpectrum(data)
	best, bestMag := 0, 0.0
	for k := 1; k < len(ps); k++ {
		if ps[k] > bestMag {
			best, bestMag = k, ps[k]
		}
	}
	if best == 0 || bestMag < 1e-9 {
		return 0, false
	}
	freq := fourier.NewFFT(len(data)).Freq(best) * float64(fps)
	return 1 / freq, true
}
