package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max r3.Vector
}

// NewBounds returns an empty box that any merged point will initialize.
func NewBounds() Bounds {
	return Bounds{
		Min: r3.Vector{X: math.MaxFloat64, Y: math.MaxFloat64, Z: math.MaxFloat64},
		Max: r3.Vector{X: -math.MaxFloat64, Y: -math.MaxFloat64, Z: -math.MaxFloat64},
	}
}

// Valid reports whether at least one point has been merged.
func (b Bounds) Valid() bool {
	return b.Min.X <= b.Max.X
}

// Merge grows the box to enclose v.
func (b *Bounds) Merge(v r3.Vector) {
	if v.X < b.Min.X {
		b.Min.X = v.X
	}
	if v.Y < b.Min.Y {
		b.Min.Y = v.Y
	}
	if v.Z < b.Min.Z {
		b.Min.Z = v.Z
	}
	if v.X > b.Max.X {
		b.Max.X = v.X
	}
	if v.Y > b.Max.Y {
		b.Max.Y = v.Y
	}
	if v.Z > b.Max.Z {
		b.Max.Z = v.Z
	}
}

// Center returns the midpoint of the box. Only meaningful when Valid.
func (b Bounds) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extent along each axis.
func (b Bounds) Size() r3.Vector {
	return b.Max.Sub(b.Min)
}

// Diagonal returns the length of the box diagonal, a convenient scale for
// camera distances and level switch thresholds.
func (b Bounds) Diagonal() float64 {
	return b.Size().Norm()
}

// Contains reports whether v lies inside or on the box.
func (b Bounds) Contains(v r3.Vector) bool {
	return v.X >= b.Min.X && v.X <= b.Max.X &&
		v.Y >= b.Min.Y && v.Y <= b.Max.Y &&
		v.Z >= b.Min.Z && v.Z <= b.Max.Z
}
