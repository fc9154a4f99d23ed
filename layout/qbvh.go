package layout

import (
	"errors"
	"math"

	"github.com/achilleasa/polaris-bvh/bvh"
	"github.com/achilleasa/polaris-bvh/types"
)

// Size in bytes of an encoded quad node.
const QNodeSize = 64

// A four-wide BVH node.
//
// Internal nodes pack four half precision boxes: slots 0 and 1 share the
// Aabb01 fields and slots 2 and 3 share the Aabb23 fields, with the even
// slot in the low 16 bits of each word. Box minimums are rounded down and
// maximums up so the stored boxes always contain the original ones.
//
// Leaves set Addr0 to InvalidID and store the triangle vertices as raw
// float bits in the first three vectors, the mesh id in Addr1OrMeshID and
// the primitive id in Addr2OrPrimID.
type QNode struct {
	Aabb01MinOrV0 [3]uint32
	Addr0         uint32
	Aabb01MaxOrV1 [3]uint32
	Addr1OrMeshID uint32
	Aabb23MinOrV2 [3]uint32
	Addr2OrPrimID uint32
	Aabb23Max     [3]uint32
	Addr3         uint32
}

// Returns true if this is a leaf.
func (q *QNode) IsLeaf() bool {
	return q.Addr0 == InvalidID
}

// Get the address of child slot i.
func (q *QNode) Addr(i int) uint32 {
	switch i {
	case 0:
		return q.Addr0
	case 1:
		return q.Addr1OrMeshID
	case 2:
		return q.Addr2OrPrimID
	}
	return q.Addr3
}

func (q *QNode) setAddr(i int, addr uint32) {
	switch i {
	case 0:
		q.Addr0 = addr
	case 1:
		q.Addr1OrMeshID = addr
	case 2:
		q.Addr2OrPrimID = addr
	default:
		q.Addr3 = addr
	}
}

func (q *QNode) boxWords(i int) (*[3]uint32, *[3]uint32) {
	if i < 2 {
		return &q.Aabb01MinOrV0, &q.Aabb01MaxOrV1
	}
	return &q.Aabb23MinOrV2, &q.Aabb23Max
}

// Store box in child slot i using outward rounding.
func (q *QNode) SetChildBounds(i int, box bvh.Aabb) {
	minWords, maxWords := q.boxWords(i)
	shift := uint(16 * (i & 1))
	mask := uint32(0xffff) << shift
	for axis := 0; axis < 3; axis++ {
		minWords[axis] = minWords[axis]&^mask | uint32(HalfFloor(box.Min[axis]))<<shift
		maxWords[axis] = maxWords[axis]&^mask | uint32(HalfCeil(box.Max[axis]))<<shift
	}
}

// Get the box stored in child slot i.
func (q *QNode) ChildBounds(i int) bvh.Aabb {
	minWords, maxWords := q.boxWords(i)
	shift := uint(16 * (i & 1))
	var box bvh.Aabb
	for axis := 0; axis < 3; axis++ {
		box.Min[axis] = HalfToFloat(uint16(minWords[axis] >> shift))
		box.Max[axis] = HalfToFloat(uint16(maxWords[axis] >> shift))
	}
	return box
}

// Get leaf vertices.
func (q *QNode) Vertices() [3]types.Vec3 {
	var out [3]types.Vec3
	for axis := 0; axis < 3; axis++ {
		out[0][axis] = math.Float32frombits(q.Aabb01MinOrV0[axis])
		out[1][axis] = math.Float32frombits(q.Aabb01MaxOrV1[axis])
		out[2][axis] = math.Float32frombits(q.Aabb23MinOrV2[axis])
	}
	return out
}

func (q *QNode) setLeaf(n *Node) {
	verts := n.Vertices()
	for axis := 0; axis < 3; axis++ {
		q.Aabb01MinOrV0[axis] = math.Float32bits(verts[0][axis])
		q.Aabb01MaxOrV1[axis] = math.Float32bits(verts[1][axis])
		q.Aabb23MinOrV2[axis] = math.Float32bits(verts[2][axis])
	}
	q.Addr0 = InvalidID
	q.Addr1OrMeshID = n.MeshID()
	q.Addr2OrPrimID = n.PrimID()
	q.Addr3 = InvalidID
}

func (q *QNode) clearSlot(i int) {
	q.SetChildBounds(i, bvh.EmptyAabb())
	q.setAddr(i, InvalidID)
}

type translateItem struct {
	binAddr uint32
	qAddr   uint32
}

// Translate a propagated binary tree into quad nodes. Each quad node
// collapses a binary node and its internal children, so every binary leaf
// becomes its own leaf quad node. The root stays at index 0.
func Translate(nodes []Node) ([]QNode, error) {
	if len(nodes) == 0 {
		return nil, errors.New("layout: cannot translate an empty tree")
	}

	out := []QNode{{}}
	alloc := func() uint32 {
		out = append(out, QNode{})
		return uint32(len(out) - 1)
	}

	stack := []translateItem{{binAddr: 0, qAddr: 0}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		bin := &nodes[item.binAddr]
		if bin.IsLeaf() {
			out[item.qAddr].setLeaf(bin)
			continue
		}

		for c := 0; c < 2; c++ {
			childAddr := bin.Child(c)
			if int(childAddr) >= len(nodes) {
				return nil, errors.New("layout: child address out of range")
			}
			child := &nodes[childAddr]
			slot := 2 * c

			if child.IsLeaf() {
				q := alloc()
				out[item.qAddr].SetChildBounds(slot, bin.ChildBounds(c))
				out[item.qAddr].setAddr(slot, q)
				out[item.qAddr].clearSlot(slot + 1)
				stack = append(stack, translateItem{binAddr: childAddr, qAddr: q})
				continue
			}

			for g := 0; g < 2; g++ {
				q := alloc()
				out[item.qAddr].SetChildBounds(slot+g, child.ChildBounds(g))
				out[item.qAddr].setAddr(slot+g, q)
				stack = append(stack, translateItem{binAddr: child.Child(g), qAddr: q})
			}
		}
	}

	return out, nil
}
