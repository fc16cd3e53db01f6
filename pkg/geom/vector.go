package geom

import "math"

const epsilon = 1e-6

// Vector is an immutable point or direction in world space.
type Vector struct {
	x, y, z float64
}

var (
	Zero    = Vector{}
	Right   = Vector{1, 0, 0}
	Up      = Vector{0, 1, 0}
	Forward = Vector{0, 0, 1}
)

func NewVector(x, y, z float64) Vector {
	return Vector{x, y, z}
}

func (v Vector) X() float64 { return v.x }
func (v Vector) Y() float64 { return v.y }
func (v Vector) Z() float64 { return v.z }

func (v Vector) IsZero() bool { return v.x == 0 && v.y == 0 && v.z == 0 }

func (v Vector) Magnitude() float64 {
	return math.Sqrt(v.x*v.x + v.y*v.y + v.z*v.z)
}

func (v Vector) Add(o Vector) Vector {
	return NewVector(v.x+o.x, v.y+o.y, v.z+o.z)
}

func (v Vector) Sub(o Vector) Vector {
	return NewVector(v.x-o.x, v.y-o.y, v.z-o.z)
}

func (v Vector) Mul(k float64) Vector {
	return NewVector(v.x*k, v.y*k, v.z*k)
}

// Scale returns v resized to length k. Vectors too short to have a
// direction are returned unchanged.
func (v Vector) Scale(k float64) Vector {
	if mag := v.Magnitude(); mag > epsilon {
		return v.Mul(k / mag)
	}
	return v
}

func (v Vector) Normalize() Vector {
	return v.Scale(1)
}

// ApproxEqual compares component-wise within a small tolerance.
func (v Vector) ApproxEqual(o Vector) bool {
	return math.Abs(v.x-o.x) < epsilon &&
		math.Abs(v.y-o.y) < epsilon &&
		math.Abs(v.z-o.z) < epsilon
}

func Distance(from, to Vector) float64 {
	return from.Sub(to).Magnitude()
}

// Pose is a position plus the direction an object's forward axis points.
type Pose struct {
	Position Vector
	Forward  Vector
}

// LookAt builds a pose whose forward axis equals facing. A zero facing
// falls back to world forward.
func LookAt(position, facing Vector) Pose {
	if facing.Magnitude() <= epsilon {
		facing = Forward
	}
	return Pose{
		Position: position,
		Forward:  facing.Normalize(),
	}
}
