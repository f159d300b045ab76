package spatial

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestRotateAroundAxis(t *testing.T) {
	got := RotateAroundAxis(r3.Vec{X: 1}, r3.Vec{Z: 1}, math.Pi/2)
	if diff := cmp.Diff(r3.Vec{Y: 1}, got, approx); diff != "" {
		t.Errorf("rotation (-want +got):\n%s", diff)
	}

	p := r3.Vec{X: 1, Y: 2, Z: 3}
	if RotateAroundAxis(p, r3.Vec{}, 1) != p {
		t.Errorf("zero axis should leave the point alone")
	}
}

func TestPointToLineDistance(t *testing.T) {
	d := PointToLineDistance(r3.Vec{X: 3, Y: 4, Z: 7}, r3.Vec{}, r3.Vec{Z: 2})
	if math.Abs(d-5) > 1e-12 {
		t.Errorf("distance = %v, want 5", d)
	}
}

func TestSphericalRoundTrip(t *testing.T) {
	p := SphericalToCartesian(2, math.Pi/4, math.Pi/3)
	r, theta, phi := CartesianToSpherical(p)
	if math.Abs(r-2) > 1e-12 || math.Abs(theta-math.Pi/4) > 1e-12 || math.Abs(phi-math.Pi/3) > 1e-12 {
		t.Errorf("round trip gave r=%v theta=%v phi=%v", r, theta, phi)
	}

	_, _, phi = CartesianToSpherical(r3.Vec{})
	if phi != 0 {
		t.Errorf("origin phi = %v, want 0", phi)
	}
}

func TestLerp3(t *testing.T) {
	got := Lerp3(r3.Vec{}, r3.Vec{X: 2, Y: 4, Z: 6}, 0.5)
	if got != (r3.Vec{X: 1, Y: 2, Z: 3}) {
		t.Errorf("Lerp3 = %v", got)
	}
}

func TestNearestNeighbors(t *testing.T) {
	pts := []r3.Vec{{X: 0}, {X: 1}, {X: 3}, {X: 10}}
	got := NearestNeighbors(pts, 1, 2)
	if diff := cmp.Diff([]int{0, 2}, got); diff != "" {
		t.Errorf("neighbors (-want +got):\n%s", diff)
	}
	if len(NearestNeighbors(pts, 0, 99)) != 3 {
		t.Errorf("k should cap at len-1")
	}
}

func TestBoundingSphere(t *testing.T) {
	c, r := BoundingSphere([]r3.Vec{{X: -1}, {X: 1}})
	if c != (r3.Vec{}) || r != 1 {
		t.Errorf("sphere center=%v radius=%v", c, r)
	}
}

func TestGenerateSpiralAndWriteCSV(t *testing.T) {
	pts := GenerateSpiral(100)
	if len(pts) != 100 {
		t.Fatalf("expected 100 points, got %d", len(pts))
	}
	if pts[0] != (r3.Vec{X: 0.3}) {
		t.Errorf("first point = %v, want (0.3,0,0)", pts[0])
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].Z <= pts[i-1].Z {
			t.Fatalf("spiral height must increase at %d", i)
		}
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, pts[:2]); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || lines[0] != "X,Y,Z" {
		t.Errorf("unexpected csv:\n%s", buf.String())
	}

	back, err := LoadCSV(&buf)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(back) != 2 {
		t.Errorf("reloaded %d points, want 2", len(back))
	}
}
