package analyzer

import (
	"github.com/achilleasa/polaris-bvh/asset/mesh"
	"github.com/achilleasa/polaris-bvh/types"
	"github.com/chewxy/math32"
)

const triangleEpsilon float32 = 1e-12

// The kind of ray query.
type QueryType uint8

const (
	// Find the nearest intersection.
	ClosestHit QueryType = iota

	// Stop at the first intersection found.
	AnyHit
)

// Per-ray traversal counters.
type TraversalStats struct {
	InternalNodeTests uint64
	AabbTests         uint64
	LeafTests         uint64
	TriangleTests     uint64
}

// Accumulate another set of counters.
func (s *TraversalStats) Add(other TraversalStats) {
	s.InternalNodeTests += other.InternalNodeTests
	s.AabbTests += other.AabbTests
	s.LeafTests += other.LeafTests
	s.TriangleTests += other.TriangleTests
}

type stackEntry struct {
	addr   uint32
	isPrim bool
}

type candidate struct {
	entry  stackEntry
	tEntry float32
}

// Intersect a ray with the tree. Traversal counters are added to stats when
// it is not nil.
func (t *Tree) Intersect(ray Ray, query QueryType, stats *TraversalStats) Hit {
	var local TraversalStats
	hit := missHit()

	invDir := ray.Direction.Rcp()
	oxInvDir := ray.Origin.MulVec(invDir).Neg()
	closest := ray.MaxT

	stack := make([]stackEntry, 0, 64)
	stack = append(stack, t.rootEntry())
	var hits [MaxFactor]candidate
	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if entry.isPrim {
			local.LeafTests++
			local.TriangleTests++
			tri := &t.Triangles[entry.addr]
			if tHit, u, v, ok := intersectTriangle(ray, tri, ray.MinT, closest); ok {
				closest = tHit
				hit = Hit{InstID: tri.MeshID, PrimID: tri.PrimID, UV: types.XY(u, v), T: tHit}
				if query == AnyHit {
					break
				}
			}
			continue
		}

		local.InternalNodeTests++
		node := &t.Nodes[entry.addr]
		numHits := 0
		for i := uint32(0); i < node.ChildCount; i++ {
			local.AabbTests++
			t0, t1 := node.ChildBounds[i].Intersect(invDir, oxInvDir, ray.MinT, closest)
			if t0 > t1 {
				continue
			}

			// Keep candidates sorted by descending entry distance.
			c := candidate{entry: stackEntry{addr: node.ChildAddr[i], isPrim: node.ChildIsPrim[i]}, tEntry: t0}
			j := numHits
			for j > 0 && hits[j-1].tEntry < c.tEntry {
				hits[j] = hits[j-1]
				j--
			}
			hits[j] = c
			numHits++
		}

		// Push far children first so the nearest one is popped next.
		for i := 0; i < numHits; i++ {
			stack = append(stack, hits[i].entry)
		}
	}

	if stats != nil {
		stats.Add(local)
	}
	return hit
}

// Möller-Trumbore ray/triangle test against the interval [tMin, tMax].
// Returns the hit distance and the barycentric coordinates of the hit
// relative to V1 and V2.
func intersectTriangle(ray Ray, tri *mesh.Triangle, tMin, tMax float32) (float32, float32, float32, bool) {
	e1 := tri.V1.Sub(tri.V0)
	e2 := tri.V2.Sub(tri.V0)
	p := ray.Direction.Cross(e2)
	det := e1.Dot(p)
	if math32.Abs(det) < triangleEpsilon {
		return 0, 0, 0, false
	}

	invDet := 1.0 / det
	s := ray.Origin.Sub(tri.V0)
	u := s.Dot(p) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	q := s.Cross(e1)
	v := ray.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t := e2.Dot(q) * invDet
	if t < tMin || t > tMax {
		return 0, 0, 0, false
	}
	return t, u, v, true
}
