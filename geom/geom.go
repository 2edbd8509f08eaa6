// Package geom provides the small 2D vector algebra the input pipeline needs.
package geom

import "math"

// Vec2 is a 2D vector. X grows rightward; the Y convention (up vs. down)
// belongs to whoever produces the vector.
type Vec2 struct {
	X float64
	Y float64
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Normalized returns a unit-length vector with the same direction, or the
// zero vector unchanged.
func (v Vec2) Normalized() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }
