package spatial

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

// RotateAroundAxis rotates p by angle radians about axis through the origin.
// A zero axis leaves p unchanged.
func RotateAroundAxis(p, axis r3.Vec, angle float64) r3.Vec {
	if r3.Norm(axis) == 0 {
		return p
	}
	return r3.NewRotation(angle, axis).Rotate(p)
}

// PointToLineDistance is the perpendicular distance from p to the line through
// linePoint with the given direction.
func PointToLineDistance(p, linePoint, direction r3.Vec) float64 {
	d := r3.Sub(p, linePoint)
	if r3.Norm(direction) == 0 {
		return r3.Norm(d)
	}
	u := r3.Unit(direction)
	proj := r3.Scale(r3.Dot(d, u), u)
	return r3.Norm(r3.Sub(d, proj))
}

// SphericalToCartesian converts radius r, azimuth theta and polar angle phi.
func SphericalToCartesian(r, theta, phi float64) r3.Vec {
	return r3.Vec{
		X: r * math.Sin(phi) * math.Cos(theta),
		Y: r * math.Sin(phi) * math.Sin(theta),
		Z: r * math.Cos(phi),
	}
}

// CartesianToSpherical returns (r, theta, phi); phi is 0 at the origin.
func CartesianToSpherical(p r3.Vec) (r, theta, phi float64) {
	r = r3.Norm(p)
	theta = math.Atan2(p.Y, p.X)
	if r > 0 {
		phi = math.Acos(p.Z / r)
	}
	return r, theta, phi
}

// Lerp3 interpolates from a (t=0) to b (t=1).
func Lerp3(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// NearestNeighbors returns the k points closest to points[index], excluding
// the point itself.
func NearestNeighbors(points []r3.Vec, index, k int) []int {
	d := make([]float64, len(points))
	for i, p := range points {
		d[i] = r3.Norm(r3.Sub(p, points[index]))
	}
	d[index] = math.Inf(1)
	if k > len(points)-1 {
		k = len(points) - 1
	}
	return argsort(d, k)
}

// BoundingSphere returns the centroid and the distance to the farthest point.
func BoundingSphere(points []r3.Vec) (r3.Vec, float64) {
	if len(points) == 0 {
		return r3.Vec{}, 0
	}
	var c r3.Vec
	for _, p := range points {
		c = r3.Add(c, p)
	}
	c = r3.Scale(1/float64(len(points)), c)

	d := make([]float64, len(points))
	for i, p := range points {
		d[i] = r3.Norm(r3.Sub(p, c))
	}
	return c, floats.Max(d)
}

// GenerateSpiral lays count LEDs on a cone spiral: ten turns, radius shrinking
// from 0.3 at the bottom to 0.05 at the top, height rising from 0 toward 1.
// Handy for exercising effects before a tree has been mapped.
func GenerateSpiral(count int) []r3.Vec {
	const (
		radiusStart = 0.3
		radiusEnd   = 0.05
		turns       = 10
	)
	points := make([]r3.Vec, count)
	for i := range points {
		t := float64(i) / float64(count)
		radius := radiusStart*(1-t) + radiusEnd*t
		angle := t * turns * 2 * math.Pi
		points[i] = r3.Vec{
			X: radius * math.Cos(angle),
			Y: radius * math.Sin(angle),
			Z: t,
		}
	}
	return points
}
