package bvh

import (
	"github.com/achilleasa/polaris-bvh/types"
	"github.com/chewxy/math32"
	"golang.org/x/exp/constraints"
)

// The result of a SAH split search. Split is NaN when the centroid bounds
// are degenerate along every axis.
type SahSplit struct {
	Axis  int
	Split float32
	Cost  float32
}

// Returns true if the search produced a usable split plane.
func (s SahSplit) Valid() bool {
	return !math32.IsNaN(s.Split)
}

type bin struct {
	count  int
	bounds Aabb
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Find the best SAH split for the primitives referenced by refs.
//
// Primitives are binned by centroid along each axis with a non-zero centroid
// extent. Each candidate plane between adjacent bins is scored as:
//
// traversalCost + (leftCount * leftArea + rightCount * rightArea) / parentArea
//
// Ties keep the first candidate found (axes and bins in ascending order).
func FindSahSplit(bounds []Aabb, centroids []types.Vec3, refs []uint32, box, centroidBox Aabb, numBins int, traversalCost float32) SahSplit {
	best := SahSplit{Axis: -1, Split: math32.NaN(), Cost: math32.Inf(1)}

	invArea := float32(1.0)
	if area := box.Area(); area > 0 {
		invArea = 1.0 / area
	}

	extents := centroidBox.Extents()
	bins := make([]bin, numBins)
	rightBounds := make([]Aabb, numBins)
	rightCounts := make([]int, numBins)

	for axis := 0; axis < 3; axis++ {
		extent := extents[axis]
		if !(extent > 0) {
			continue
		}

		for i := range bins {
			bins[i] = bin{bounds: EmptyAabb()}
		}

		minC := centroidBox.Min[axis]
		scale := float32(numBins) / extent
		for _, ref := range refs {
			idx := clamp(int(math32.Floor((centroids[ref][axis]-minC)*scale)), 0, numBins-1)
			bins[idx].count++
			bins[idx].bounds = bins[idx].bounds.Grow(bounds[ref])
		}

		// Suffix sums: rightBounds[i] covers bins [i, numBins).
		acc := EmptyAabb()
		accCount := 0
		for i := numBins - 1; i > 0; i-- {
			acc = acc.Grow(bins[i].bounds)
			accCount += bins[i].count
			rightBounds[i] = acc
			rightCounts[i] = accCount
		}

		leftBox := EmptyAabb()
		leftCount := 0
		for i := 0; i < numBins-1; i++ {
			leftBox = leftBox.Grow(bins[i].bounds)
			leftCount += bins[i].count
			rightCount := rightCounts[i+1]
			if leftCount == 0 || rightCount == 0 {
				continue
			}

			cost := traversalCost + (float32(leftCount)*leftBox.Area()+float32(rightCount)*rightBounds[i+1].Area())*invArea
			if cost < best.Cost {
				best.Cost = cost
				best.Axis = axis
				best.Split = minC + float32(i+1)*(extent/float32(numBins))
			}
		}
	}

	return best
}
