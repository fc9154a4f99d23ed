package bvh

// The type of a build-time node.
type NodeType uint8

const (
	Internal NodeType = iota
	Leaf
)

func (t NodeType) String() string {
	if t == Leaf {
		return "leaf"
	}
	return "internal"
}

// A build-time BVH node. Nodes live in a flat array owned by Tree and link
// to their children by index.
//
// For leaves, Start and NumPrims select a range of Tree.PrimIndices. For
// internal nodes, Left and Right hold child node indices.
type Node struct {
	Bounds Aabb
	Type   NodeType

	// Path index: the root is 1, the left child of i is i<<1 and the right
	// child is i<<1|1. Only used for debugging.
	Index uint32

	Start    uint32
	NumPrims uint32

	Left  uint32
	Right uint32
}

// Returns true if this is a leaf.
func (n *Node) IsLeaf() bool {
	return n.Type == Leaf
}
