package layout

import (
	"errors"

	"github.com/achilleasa/polaris-bvh/asset/mesh"
	"github.com/achilleasa/polaris-bvh/bvh"
)

// A TriangleSource resolves a primitive index to its world-space triangle.
type TriangleSource interface {
	Face(i int) mesh.Triangle
}

// An encoded binary tree. Internal nodes occupy addresses [0, InternalCount)
// and leaves [InternalCount, InternalCount+LeafCount). The root is node 0.
type Encoded struct {
	Nodes         []Node
	InternalCount uint32
	LeafCount     uint32
}

// A node of the build tree or a sub-range of a multi-primitive leaf that
// still has to be split into single-triangle leaves.
type encodeRef struct {
	node    uint32
	start   uint32
	num     uint32
	isRange bool
}

type encodeItem struct {
	ref    encodeRef
	addr   uint32
	parent uint32
}

// Encode a build tree into binary nodes with one triangle per leaf.
//
// Addresses are assigned in breadth-first order. Leaves holding more than
// one primitive are split at the median of their primitive range, and a
// single primitive is encoded as a leaf root. Internal nodes are written
// with their own bounds in slot 0; PropagateBounds replaces them with the
// bounds of their children.
func Encode(tree *bvh.Tree, src TriangleSource) (*Encoded, error) {
	numPrims := uint32(tree.NumPrims())
	if numPrims == 0 {
		return nil, errors.New("layout: cannot encode an empty tree")
	}

	enc := &Encoded{
		Nodes:         make([]Node, 2*numPrims-1),
		InternalCount: numPrims - 1,
		LeafCount:     numPrims,
	}

	nextInternal := uint32(0)
	nextLeaf := enc.InternalCount
	alloc := func(ref encodeRef) uint32 {
		if ref.isLeaf() {
			nextLeaf++
			return nextLeaf - 1
		}
		nextInternal++
		return nextInternal - 1
	}

	rootRef := normalize(tree, 0)
	queue := []encodeItem{{ref: rootRef, addr: alloc(rootRef), parent: InvalidID}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		out := &enc.Nodes[item.addr]
		out.Parent = item.parent

		if item.ref.isLeaf() {
			tri := src.Face(int(tree.PrimIndices[item.ref.start]))
			out.Aabb0MinOrV0, out.Aabb0MaxOrV1, out.Aabb1MinOrV2 = tri.V0, tri.V1, tri.V2
			out.Child0 = InvalidID
			out.Child1 = tri.PrimID
			out.Update = tri.MeshID
			continue
		}

		left, right := children(tree, item.ref)
		out.SetChildBounds(0, refBounds(tree, src, item.ref))
		out.Child0 = alloc(left)
		out.Child1 = alloc(right)
		queue = append(queue,
			encodeItem{ref: left, addr: out.Child0, parent: item.addr},
			encodeItem{ref: right, addr: out.Child1, parent: item.addr},
		)
	}

	if nextInternal != enc.InternalCount || nextLeaf != enc.InternalCount+enc.LeafCount {
		return nil, errors.New("layout: build tree does not reference every primitive exactly once")
	}
	return enc, nil
}

// Convert leaves to primitive ranges so they can be split further.
func normalize(tree *bvh.Tree, nodeIndex uint32) encodeRef {
	node := &tree.Nodes[nodeIndex]
	if node.IsLeaf() {
		return encodeRef{node: nodeIndex, start: node.Start, num: node.NumPrims, isRange: true}
	}
	return encodeRef{node: nodeIndex}
}

func (r encodeRef) isLeaf() bool {
	return r.isRange && r.num == 1
}

func children(tree *bvh.Tree, ref encodeRef) (encodeRef, encodeRef) {
	if ref.isRange {
		half := ref.num / 2
		return encodeRef{start: ref.start, num: half, isRange: true},
			encodeRef{start: ref.start + half, num: ref.num - half, isRange: true}
	}
	node := &tree.Nodes[ref.node]
	return normalize(tree, node.Left), normalize(tree, node.Right)
}

func refBounds(tree *bvh.Tree, src TriangleSource, ref encodeRef) bvh.Aabb {
	if !ref.isRange {
		return tree.Nodes[ref.node].Bounds
	}
	box := bvh.EmptyAabb()
	for _, prim := range tree.PrimIndices[ref.start : ref.start+ref.num] {
		box = box.Grow(src.Face(int(prim)).Aabb())
	}
	return box
}

// Replace the slot bounds of every internal node with the bounds of its
// children. Internal children contribute the bounds held in their slot 0
// before propagation; leaf children contribute the bounds of their
// vertices. Nodes are visited parent first so that every child is read
// before it is overwritten.
func PropagateBounds(nodes []Node) {
	if len(nodes) == 0 || nodes[0].IsLeaf() {
		return
	}

	stack := []uint32{0}
	for len(stack) > 0 {
		addr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &nodes[addr]
		var boxes [2]bvh.Aabb
		for i := 0; i < 2; i++ {
			child := &nodes[node.Child(i)]
			if child.IsLeaf() {
				boxes[i] = child.LeafBounds()
				continue
			}
			boxes[i] = child.ChildBounds(0)
			stack = append(stack, node.Child(i))
		}
		node.SetChildBounds(0, boxes[0])
		node.SetChildBounds(1, boxes[1])
	}
}

// Encode a build tree and propagate child bounds into every internal node.
func EncodeTree(tree *bvh.Tree, src TriangleSource) (*Encoded, error) {
	enc, err := Encode(tree, src)
	if err != nil {
		return nil, err
	}
	PropagateBounds(enc.Nodes)
	return enc, nil
}
