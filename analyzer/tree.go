package analyzer

import (
	"fmt"

	"github.com/achilleasa/polaris-bvh/asset/mesh"
	"github.com/achilleasa/polaris-bvh/bvh"
	"github.com/achilleasa/polaris-bvh/layout"
)

// The largest supported branching factor.
const MaxFactor = 4

// A node of an N-ary tree. Only the first ChildCount entries of the child
// arrays are used. Primitive children address Tree.Triangles, other
// children address Tree.Nodes.
type Node struct {
	ChildAddr   [MaxFactor]uint32
	ChildBounds [MaxFactor]bvh.Aabb
	ChildIsPrim [MaxFactor]bool
	ChildCount  uint32
	Parent      uint32
	Flag        uint32
}

// Union of the child boxes.
func (n *Node) Bounds() bvh.Aabb {
	box := bvh.EmptyAabb()
	for i := uint32(0); i < n.ChildCount; i++ {
		box = box.Grow(n.ChildBounds[i])
	}
	return box
}

func (n *Node) addChild(addr uint32, box bvh.Aabb, isPrim bool) {
	n.ChildAddr[n.ChildCount] = addr
	n.ChildBounds[n.ChildCount] = box
	n.ChildIsPrim[n.ChildCount] = isPrim
	n.ChildCount++
}

// A decoded tree with a fixed branching factor. Node 0 is the root unless
// RootIsPrim is set, in which case the tree holds a single triangle and no
// nodes.
type Tree struct {
	Factor     int
	Nodes      []Node
	Triangles  []mesh.Triangle
	RootIsPrim bool
}

// Get the root node. Must not be called when RootIsPrim is set.
func (t *Tree) Root() *Node {
	return &t.Nodes[0]
}

func (t *Tree) rootEntry() stackEntry {
	return stackEntry{addr: 0, isPrim: t.RootIsPrim}
}

// Bounds of the whole tree.
func (t *Tree) Bounds() bvh.Aabb {
	if t.RootIsPrim {
		return t.Triangles[0].Aabb()
	}
	return t.Root().Bounds()
}

// Decode binary nodes. Addresses below internalCount are internal nodes and
// the following triangleCount addresses are leaves. Node and triangle
// indices match the persisted addresses, so nodes referenced more than once
// remain detectable by IsValid. A tree without internal nodes holds a
// single leaf root.
func FromBinary(nodes []layout.Node, internalCount, triangleCount uint32) (*Tree, error) {
	if internalCount == 0 && triangleCount != 1 {
		return nil, fmt.Errorf("analyzer: a tree without internal nodes must hold exactly one triangle; got %d", triangleCount)
	}
	total := uint64(internalCount) + uint64(triangleCount)
	if uint64(len(nodes)) < total {
		return nil, fmt.Errorf("analyzer: expected %d nodes; got %d", total, len(nodes))
	}

	if internalCount == 0 && !nodes[0].IsLeaf() {
		return nil, fmt.Errorf("analyzer: expected node 0 of a single-triangle tree to be a leaf")
	}

	tree := &Tree{
		Factor:     2,
		Nodes:      make([]Node, internalCount),
		Triangles:  make([]mesh.Triangle, triangleCount),
		RootIsPrim: internalCount == 0,
	}

	for addr := range tree.Nodes {
		tree.Nodes[addr].Parent = layout.InvalidID
	}

	for addr := uint32(0); addr < internalCount; addr++ {
		in := &nodes[addr]
		out := &tree.Nodes[addr]
		out.Flag = in.Update
		for c := 0; c < 2; c++ {
			child := in.Child(c)
			if uint64(child) >= total {
				return nil, fmt.Errorf("analyzer: node %d references out of range address %d", addr, child)
			}
			if child < internalCount {
				out.addChild(child, in.ChildBounds(c), false)
				if child != 0 && tree.Nodes[child].Parent == layout.InvalidID {
					tree.Nodes[child].Parent = addr
				}
				continue
			}
			out.addChild(child-internalCount, in.ChildBounds(c), true)
		}
	}

	for i := range tree.Triangles {
		leaf := &nodes[internalCount+uint32(i)]
		verts := leaf.Vertices()
		tree.Triangles[i] = mesh.Triangle{
			V0: verts[0], V1: verts[1], V2: verts[2],
			MeshID: leaf.MeshID(),
			PrimID: leaf.PrimID(),
		}
	}

	return tree, nil
}

// Decode quad nodes into a tree with a branching factor of four. Leaf quad
// nodes become triangles; absent slots are dropped. A leaf root yields a
// single-triangle tree.
func FromQuad(qnodes []layout.QNode) (*Tree, error) {
	if len(qnodes) == 0 {
		return nil, fmt.Errorf("analyzer: quad tree is empty")
	}

	index := make([]uint32, len(qnodes))
	var numNodes, numTris uint32
	for addr := range qnodes {
		if qnodes[addr].IsLeaf() {
			index[addr] = numTris
			numTris++
			continue
		}
		index[addr] = numNodes
		numNodes++
	}

	tree := &Tree{
		Factor:     4,
		Nodes:      make([]Node, numNodes),
		Triangles:  make([]mesh.Triangle, numTris),
		RootIsPrim: qnodes[0].IsLeaf(),
	}
	for i := range tree.Nodes {
		tree.Nodes[i].Parent = layout.InvalidID
	}

	for addr := range qnodes {
		q := &qnodes[addr]
		if q.IsLeaf() {
			verts := q.Vertices()
			tree.Triangles[index[addr]] = mesh.Triangle{
				V0: verts[0], V1: verts[1], V2: verts[2],
				MeshID: q.Addr1OrMeshID,
				PrimID: q.Addr2OrPrimID,
			}
			continue
		}

		self := index[addr]
		out := &tree.Nodes[self]
		for slot := 0; slot < 4; slot++ {
			child := q.Addr(slot)
			if child == layout.InvalidID {
				continue
			}
			if int(child) >= len(qnodes) {
				return nil, fmt.Errorf("analyzer: quad node %d references out of range address %d", addr, child)
			}
			isPrim := qnodes[child].IsLeaf()
			out.addChild(index[child], q.ChildBounds(slot), isPrim)
			if !isPrim && index[child] != 0 && tree.Nodes[index[child]].Parent == layout.InvalidID {
				tree.Nodes[index[child]].Parent = self
			}
		}
	}

	return tree, nil
}
