package export

import (
	"strings"
	"testing"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	cv := viz.NewCanvas(4, 2)
	cv.Set(1, 0, color.RGB{R: 255, G: 128})
	cv.Set(3, 1, color.Black)

	var sb strings.Builder
	if err := CanvasToSVG(&sb, cv, 10); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	if !strings.Contains(out, `width="40" height="40"`) {
		t.Errorf("unexpected size in %s", out)
	}
	if strings.Count(out, "<circle") != 2 {
		t.Errorf("expected 2 circles, got %d", strings.Count(out, "<circle"))
	}
	if !strings.Contains(out, `cx="15.0" cy="10.0" r="4.5" fill="#ff8000"`) {
		t.Errorf("missing lit LED in %s", out)
	}
	if !strings.Contains(out, `fill="#222222"`) {
		t.Error("unlit LED should be drawn dim")
	}
	if !strings.HasSuffix(out, "</svg>\n") {
		t.Error("unterminated svg")
	}
}

func TestCanvasToSVGNil(t *testing.T) {
	var sb strings.Builder
	if err := CanvasToSVG(&sb, nil, 1); err == nil {
		t.Error("expected error for nil canvas")
	}
}

func TestCurveToSVG(t *testing.T) {
	var sb strings.Builder
	if err := CurveToSVG(&sb, []float64{0, 1}, 100, 60, "#00ff88"); err != nil {
		t.Fatal(err)
	}
	out := sb.String()
	if !strings.Contains(out, `d="M0.0,55.0 L100.0,5.0"`) {
		t.Errorf("unexpected path in %s", out)
	}
	if err := CurveToSVG(&sb, []float64{1}, 10, 10, "red"); err == nil {
		t.Error("expected error for a single value")
	}
}
