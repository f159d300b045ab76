package viz

import (
	"math"
	"sort"

	"github.com/san-kum/treelights/internal/color"
	"github.com/san-kum/treelights/internal/spatial"
	"gonum.org/v1/gonum/spatial/r3"
)

// cellAspect compensates for terminal cells being roughly twice as tall as
// they are wide.
const cellAspect = 2.0

var (
	axisUp    = r3.Vec{Z: 1}
	axisRight = r3.Vec{X: 1}
)

// Camera orbits the tree. Yaw spins around the vertical axis, Pitch tilts
// toward the viewer. The viewer looks along +Y.
type Camera struct {
	Yaw, Pitch float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{Zoom: 1.0}
}

func (c *Camera) Spin(a float64) { c.Yaw = math.Mod(c.Yaw+a, 2*math.Pi) }
func (c *Camera) Tilt(a float64) {
	c.Pitch = math.Max(-math.Pi/2, math.Min(math.Pi/2, c.Pitch+a))
}
func (c *Camera) ZoomIn()  { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut() { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

// RotatePoint applies yaw then pitch to p.
func (c *Camera) RotatePoint(p r3.Vec) r3.Vec {
	p = r3.NewRotation(c.Yaw, axisUp).Rotate(p)
	return r3.NewRotation(c.Pitch, axisRight).Rotate(p)
}

// Project maps a point already centred and scaled to roughly [-1,1] onto a
// sw x sh cell grid. depth grows toward the viewer.
func (c *Camera) Project(p r3.Vec, sw, sh int) (x, y int, depth float64, visible bool) {
	rot := c.RotatePoint(p)
	scale := float64(sh) / 2 * 0.9 * c.Zoom
	x = int(math.Round(rot.X*scale*cellAspect)) + sw/2
	y = int(math.Round(-rot.Z*scale)) + sh/2
	return x, y, -rot.Y, x >= 0 && x < sw && y >= 0 && y < sh
}

// Scene holds the model's LED positions centred on the origin and scaled so
// the widest axis spans [-1,1].
type Scene struct {
	points []r3.Vec
}

func NewScene(m *spatial.Model) *Scene {
	if m == nil {
		return &Scene{}
	}
	span := m.Bounds().Span()
	radius := math.Max(span.X, math.Max(span.Y, span.Z)) / 2
	if radius == 0 {
		radius = 1
	}
	center := m.Center()
	pts := m.Points()
	for i, p := range pts {
		pts[i] = r3.Scale(1/radius, r3.Sub(p, center))
	}
	return &Scene{points: pts}
}

func (s *Scene) Len() int { return len(s.points) }

type projected struct {
	x, y  int
	depth float64
	c     color.RGB
}

// Render3D draws one frame of LED colors onto the canvas, far LEDs first.
func Render3D(cv *Canvas, s *Scene, pixels []color.RGB, cam *Camera) {
	if cv == nil || s == nil || cam == nil {
		return
	}
	n := min(len(s.points), len(pixels))
	proj := make([]projected, 0, n)
	for i := 0; i < n; i++ {
		x, y, d, ok := cam.Project(s.points[i], cv.Width, cv.Height)
		if ok {
			proj = append(proj, projected{x, y, d, pixels[i]})
		}
	}
	sort.SliceStable(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })
	for _, p := range proj {
		cv.Set(p.x, p.y, p.c)
	}
}

// RenderStrip lays the LEDs out in index order, left to right and top to
// bottom. LEDs past the last row are dropped.
func RenderStrip(cv *Canvas, pixels []color.RGB) {
	if cv == nil || cv.Width == 0 {
		return
	}
	for i, c := range pixels {
		cv.Set(i%cv.Width, i/cv.Width, c)
	}
}
