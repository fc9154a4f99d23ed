package bvh

import (
	"github.com/achilleasa/polaris-bvh/types"
	"github.com/chewxy/math32"
)

// The tolerance used by Includes when comparing box extents.
const includeEpsilon float32 = 1e-8

// An axis-aligned bounding box. The zero value is not a valid empty box; use
// EmptyAabb to get a box that can be grown.
type Aabb struct {
	Min types.Vec3
	Max types.Vec3
}

// Return an empty box (Min = +Inf, Max = -Inf). Growing an empty box by a
// point yields a degenerate box containing only that point.
func EmptyAabb() Aabb {
	inf := math32.Inf(1)
	return Aabb{
		Min: types.Splat(inf),
		Max: types.Splat(-inf),
	}
}

// Create a box from two corner points.
func NewAabb(p0, p1 types.Vec3) Aabb {
	return Aabb{Min: types.MinVec3(p0, p1), Max: types.MaxVec3(p0, p1)}
}

// Create the tightest box containing a set of points.
func AabbFromPoints(points ...types.Vec3) Aabb {
	box := EmptyAabb()
	for _, p := range points {
		box = box.GrowPoint(p)
	}
	return box
}

// Returns true if the box contains no points.
func (b Aabb) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

// Expand the box so it includes point p.
func (b Aabb) GrowPoint(p types.Vec3) Aabb {
	return Aabb{Min: types.MinVec3(b.Min, p), Max: types.MaxVec3(b.Max, p)}
}

// Expand the box so it includes other.
func (b Aabb) Grow(other Aabb) Aabb {
	return Aabb{Min: types.MinVec3(b.Min, other.Min), Max: types.MaxVec3(b.Max, other.Max)}
}

// Union of two boxes.
func Union(a, b Aabb) Aabb {
	return a.Grow(b)
}

// Box center.
func (b Aabb) Center() types.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Box extents along each axis.
func (b Aabb) Extents() types.Vec3 {
	return b.Max.Sub(b.Min)
}

// Index of the axis with the largest extent.
func (b Aabb) MaxDim() int {
	return b.Extents().MaxDim()
}

// Surface area of the box. Only meaningful for relative comparisons. Empty
// boxes have zero area.
func (b Aabb) Area() float32 {
	if b.IsEmpty() {
		return 0
	}
	ext := b.Extents()
	return 2 * (ext[0]*ext[1] + ext[1]*ext[2] + ext[2]*ext[0])
}

// Slab test against a ray expressed as invDir and oxInvDir = -origin * invDir.
// Returns the entry and exit distances clipped to [tMin, tMax]. The ray
// misses the box when entry > exit.
func (b Aabb) Intersect(invDir, oxInvDir types.Vec3, tMin, tMax float32) (float32, float32) {
	for axis := 0; axis < 3; axis++ {
		f := b.Max[axis]*invDir[axis] + oxInvDir[axis]
		n := b.Min[axis]*invDir[axis] + oxInvDir[axis]
		if n > f {
			n, f = f, n
		}
		if n > tMin {
			tMin = n
		}
		if f < tMax {
			tMax = f
		}
	}
	return tMin, tMax
}

// Returns true if other is contained in this box (with a small tolerance).
func (b Aabb) Includes(other Aabb) bool {
	for axis := 0; axis < 3; axis++ {
		if other.Min[axis] < b.Min[axis]-includeEpsilon || other.Max[axis] > b.Max[axis]+includeEpsilon {
			return false
		}
	}
	return true
}
