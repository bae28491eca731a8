package models

import "math"

// Vec2 is a 2D vector used for positions, velocities and impulses.
type Vec2 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

// FromAngle returns the unit vector pointing at radian.
func FromAngle(radian float64) Vec2 { return Vec2{X: math.Cos(radian), Y: math.Sin(radian)} }

func (v Vec2) Add(o Vec2) Vec2         { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2         { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2    { return Vec2{X: v.X * k, Y: v.Y * k} }
func (v Vec2) Dot(o Vec2) float64      { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Length() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Distance(o Vec2) float64 { return math.Hypot(o.X-v.X, o.Y-v.Y) }

// Normalize returns the unit vector of v, or the zero vector when v is zero.
func (v Vec2) Normalize() Vec2 {
	l := v.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Angle returns the direction of v in radians.
func (v Vec2) Angle() float64 { return math.Atan2(v.Y, v.X) }
