package bvh

import (
	"errors"
	"math"
	"time"

	"github.com/achilleasa/polaris-bvh/types"
	"github.com/chewxy/math32"
)

// Ranges with at most this many primitives always become leaves.
const leafThreshold = 1

var errNoPrimitives = errors.New("bvh: no primitives to build")

// A BoundsSource supplies one world-space bounding box per primitive.
type BoundsSource interface {
	FaceBounds() []Aabb
}

// The result of a build. Node 0 is the root.
type Tree struct {
	// Flat node array. Child links are indices into this slice.
	Nodes []Node

	// Primitive indices grouped by leaf. Each leaf owns the range
	// [Start, Start+NumPrims).
	PrimIndices []uint32

	// Bounds of the input primitives.
	Bounds Aabb

	// Number of levels below the root.
	Height int

	Stats Stats
}

// Get the root node.
func (t *Tree) Root() *Node {
	return &t.Nodes[0]
}

// Get the primitive indices referenced by a leaf node.
func (t *Tree) LeafPrims(n *Node) []uint32 {
	return t.PrimIndices[n.Start : n.Start+n.NumPrims]
}

// Number of primitives the tree was built from.
func (t *Tree) NumPrims() int {
	return len(t.PrimIndices)
}

// A pending split of the primitive range [start, start+num) of the working
// permutation. The request writes its result into node.
type splitRequest struct {
	start, num  uint32
	node        uint32
	bounds      Aabb
	centroidBox Aabb
	level       int
	index       uint32
}

// Build a BVH over one bounding box per primitive.
func Build(bounds []Aabb, opts Options) (*Tree, error) {
	if len(bounds) == 0 {
		return nil, errNoPrimitives
	}
	if len(bounds) > math.MaxUint32/2 {
		return nil, errors.New("bvh: too many primitives")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	sch := newScheduler(bounds, opts)
	tree := sch.run()
	tree.Stats.BuildTime = time.Since(start)
	sch.logger.Debugf(
		"built BVH for %d primitives in %d ms; nodes: %d, leaves: %d, height: %d",
		len(bounds), tree.Stats.BuildTime.Nanoseconds()/1e6, tree.Stats.Nodes, tree.Stats.Leaves, tree.Height,
	)
	return tree, nil
}

// Build a BVH over the primitives of a bounds source.
func BuildFrom(src BoundsSource, opts Options) (*Tree, error) {
	return Build(src.FaceBounds(), opts)
}

// Evaluate a split request. If the request was split, the returned left and
// right requests must be processed next.
func (s *scheduler) process(req splitRequest) (left, right splitRequest, split bool) {
	node := &s.nodes[req.node]
	node.Bounds = req.bounds
	node.Index = req.index
	s.trackLevel(req.level)

	if req.num <= leafThreshold {
		s.makeLeaf(node, req)
		return left, right, false
	}

	refs := s.perm[req.start : req.start+req.num]
	axis := req.centroidBox.MaxDim()
	border := math32.NaN()
	if s.opts.UseSAH {
		sah := FindSahSplit(s.bounds, s.centroids, refs, req.bounds, req.centroidBox, s.opts.NumBins, s.opts.TraversalCost)
		if sah.Valid() {
			if int(req.num) < s.opts.SAHLeafCap && float32(req.num)*s.opts.LeafCost <= sah.Cost {
				s.makeLeaf(node, req)
				return left, right, false
			}
			axis, border = sah.Axis, sah.Split
		}
	} else if req.centroidBox.Extents()[axis] > 0 {
		border = req.centroidBox.Center()[axis]
	}

	var mid uint32
	if !math32.IsNaN(border) {
		mid = partition(s.centroids, refs, axis, border)
	}
	if mid == 0 || mid == req.num {
		mid = req.num / 2
	}

	left = s.subRequest(req, 0, mid)
	right = s.subRequest(req, mid, req.num-mid)
	left.index = req.index << 1
	right.index = req.index<<1 | 1

	first := s.allocNodes(2)
	left.node, right.node = first, first+1
	node.Type = Internal
	node.Left, node.Right = left.node, right.node

	return left, right, true
}

// Reorder refs so that primitives whose centroid lies below border come
// first. Returns the number of primitives on the left side.
func partition(centroids []types.Vec3, refs []uint32, axis int, border float32) uint32 {
	i, j := 0, len(refs)-1
	for i <= j {
		for i <= j && centroids[refs[i]][axis] < border {
			i++
		}
		for i <= j && centroids[refs[j]][axis] >= border {
			j--
		}
		if i < j {
			refs[i], refs[j] = refs[j], refs[i]
			i++
			j--
		}
	}
	return uint32(i)
}

// Create a request for a sub-range of req and compute its bounds.
func (s *scheduler) subRequest(req splitRequest, offset, num uint32) splitRequest {
	out := splitRequest{
		start:       req.start + offset,
		num:         num,
		bounds:      EmptyAabb(),
		centroidBox: EmptyAabb(),
		level:       req.level + 1,
	}
	for _, ref := range s.perm[out.start : out.start+num] {
		out.bounds = out.bounds.Grow(s.bounds[ref])
		out.centroidBox = out.centroidBox.GrowPoint(s.centroids[ref])
	}
	return out
}

// Turn node into a leaf and copy its primitive refs to the packed output.
func (s *scheduler) makeLeaf(node *Node, req splitRequest) {
	start := s.packedCount.Add(req.num) - req.num
	copy(s.packed[start:start+req.num], s.perm[req.start:req.start+req.num])

	node.Type = Leaf
	node.Start = start
	node.NumPrims = req.num

	s.leafCount.Add(1)
	s.processed.Add(int64(req.num))
}
