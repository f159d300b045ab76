package analysis

import (
	"math"
	"testing"

	"github.com/san-kum/treelights/internal/color"
)

func TestBrightnessSeries(t *testing.T) {
	frames := [][]color.RGB{
		{color.White, color.Black},
		{},
		{color.White, color.White},
	}
	got := BrightnessSeries(frames)
	want := []float64{0.5, 0, 1}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Errorf("frame %d: expected %f, got %f", i, want[i], got[i])
		}
	}
}

func TestDominantPeriod(t *testing.T) {
	const fps = 30
	data := make([]float64, 120)
	for i := range data {
		tm := float64(i) / fps
		data[i] = 0.5 + 0.4*math.Sin(2*math.Pi*tm/0.5)
	}
	period, ok := DominantPeriod(data, fps)
	if !ok {
		t.Fatal("expected a period")
	}
	if math.Abs(period-0.5) > 1e-9 {
		t.Errorf("expected 0.5s period, got %f", period)
	}
}

func TestDominantPeriodFlat(t *testing.T) {
	data := make([]float64, 64)
	for i := range data {
		data[i] = 0.3
	}
	if _, ok := DominantPeriod(data, 30); ok {
		t.Error("flat series has no period")
	}
	if _, ok := DominantPeriod([]float64{1, 0}, 30); ok {
		t.Error("short series has no period")
	}
}

func TestPowerSpectrumRemovesMean(t *testing.T) {
	ps := PowerSpectrum([]float64{2, 2, 2, 2})
	if len(ps) != 3 {
		t.Fatalf("expected 3 bins, got %d", len(ps))
	}
	for k, v := range ps {
		if v > 1e-12 {
			t.Errorf("bin %d: expected 0, got %f", k, v)
		}
	}
	if PowerSpectrum(nil) != nil {
		t.Error("expected nil spectrum for empty input")
	}
}
