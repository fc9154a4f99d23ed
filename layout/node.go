package layout

import (
	"fmt"
	"strings"

	"github.com/achilleasa/polaris-bvh/bvh"
	"github.com/achilleasa/polaris-bvh/types"
)

// Marks an absent child or a leaf node.
const InvalidID uint32 = 0xFFFFFFFF

// Size in bytes of an encoded binary node.
const NodeSize = 64

// The persisted node formats.
type Format uint8

const (
	// Binary nodes with boxes interleaved with child addresses.
	VkBvh2 Format = iota

	// Binary nodes with addresses first, followed by the four box corners.
	Dx12Bvh2

	// Four-wide nodes with half precision boxes.
	QBvh
)

var formatNames = []string{"vkbvh2", "dx12bvh2", "qbvh"}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("format(%d)", f)
}

// Size of a single encoded node in this format.
func (f Format) NodeSize() int {
	if f == QBvh {
		return QNodeSize
	}
	return NodeSize
}

// Parse a format name. "bvh2" is accepted as an alias for "vkbvh2".
func ParseFormat(name string) (Format, error) {
	name = strings.TrimSpace(name)
	if name == "bvh2" {
		return VkBvh2, nil
	}
	for index, fmtName := range formatNames {
		if fmtName == name {
			return Format(index), nil
		}
	}
	return VkBvh2, fmt.Errorf("layout: unknown bvh type %q", name)
}

// An encoded binary BVH node.
//
// Internal nodes store the bounds of their two children along with the
// child addresses. Leaves set Child0 to InvalidID, store the triangle
// vertices in the first three vectors, the primitive id in Child1 and the
// mesh id in Update.
type Node struct {
	Aabb0MinOrV0 types.Vec3
	Child0       uint32
	Aabb0MaxOrV1 types.Vec3
	Child1       uint32
	Aabb1MinOrV2 types.Vec3
	Parent       uint32
	Aabb1MaxOrV3 types.Vec3
	Update       uint32
}

// Returns true if this is a leaf.
func (n *Node) IsLeaf() bool {
	return n.Child0 == InvalidID
}

// Get the address of child i.
func (n *Node) Child(i int) uint32 {
	if i == 0 {
		return n.Child0
	}
	return n.Child1
}

// Get the bounds stored in child slot i.
func (n *Node) ChildBounds(i int) bvh.Aabb {
	if i == 0 {
		return bvh.Aabb{Min: n.Aabb0MinOrV0, Max: n.Aabb0MaxOrV1}
	}
	return bvh.Aabb{Min: n.Aabb1MinOrV2, Max: n.Aabb1MaxOrV3}
}

// Set the bounds stored in child slot i.
func (n *Node) SetChildBounds(i int, box bvh.Aabb) {
	if i == 0 {
		n.Aabb0MinOrV0, n.Aabb0MaxOrV1 = box.Min, box.Max
		return
	}
	n.Aabb1MinOrV2, n.Aabb1MaxOrV3 = box.Min, box.Max
}

// Union of both child slots.
func (n *Node) Bounds() bvh.Aabb {
	return bvh.Union(n.ChildBounds(0), n.ChildBounds(1))
}

// Get leaf vertices.
func (n *Node) Vertices() [3]types.Vec3 {
	return [3]types.Vec3{n.Aabb0MinOrV0, n.Aabb0MaxOrV1, n.Aabb1MinOrV2}
}

// Bounds of the leaf triangle.
func (n *Node) LeafBounds() bvh.Aabb {
	return bvh.AabbFromPoints(n.Aabb0MinOrV0, n.Aabb0MaxOrV1, n.Aabb1MinOrV2)
}

// Get the primitive id of a leaf.
func (n *Node) PrimID() uint32 {
	return n.Child1
}

// Get the mesh id of a leaf.
func (n *Node) MeshID() uint32 {
	return n.Update
}
