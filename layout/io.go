package layout

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/achilleasa/polaris-bvh/types"
)

// Field order of the dx12 binary layout.
type dxNode struct {
	Child0       uint32
	Child1       uint32
	Parent       uint32
	Update       uint32
	Aabb0MinOrV0 types.Vec3
	Aabb0MaxOrV1 types.Vec3
	Aabb1MinOrV2 types.Vec3
	Aabb1MaxOrV3 types.Vec3
}

func toDx(n Node) dxNode {
	return dxNode{
		Child0: n.Child0, Child1: n.Child1, Parent: n.Parent, Update: n.Update,
		Aabb0MinOrV0: n.Aabb0MinOrV0, Aabb0MaxOrV1: n.Aabb0MaxOrV1,
		Aabb1MinOrV2: n.Aabb1MinOrV2, Aabb1MaxOrV3: n.Aabb1MaxOrV3,
	}
}

func fromDx(n dxNode) Node {
	return Node{
		Child0: n.Child0, Child1: n.Child1, Parent: n.Parent, Update: n.Update,
		Aabb0MinOrV0: n.Aabb0MinOrV0, Aabb0MaxOrV1: n.Aabb0MaxOrV1,
		Aabb1MinOrV2: n.Aabb1MinOrV2, Aabb1MaxOrV3: n.Aabb1MaxOrV3,
	}
}

// Serialize binary nodes in little-endian order using the vk or dx12 field
// order.
func WriteNodes(w io.Writer, nodes []Node, format Format) error {
	var err error
	switch format {
	case VkBvh2:
		err = binary.Write(w, binary.LittleEndian, nodes)
	case Dx12Bvh2:
		dx := make([]dxNode, len(nodes))
		for i, n := range nodes {
			dx[i] = toDx(n)
		}
		err = binary.Write(w, binary.LittleEndian, dx)
	default:
		return fmt.Errorf("layout: format %s does not use binary nodes", format)
	}

	if err != nil {
		return fmt.Errorf("layout: could not write nodes: %s", err)
	}
	return nil
}

// Decode count binary nodes from data. Returns an error if data holds fewer
// than count nodes.
func ReadNodes(data []byte, count int, format Format) ([]Node, error) {
	if len(data) < count*NodeSize {
		return nil, fmt.Errorf("layout: expected at least %d bytes for %d nodes; got %d", count*NodeSize, count, len(data))
	}

	r := bytes.NewReader(data[:count*NodeSize])
	nodes := make([]Node, count)
	switch format {
	case VkBvh2:
		if err := binary.Read(r, binary.LittleEndian, nodes); err != nil {
			return nil, fmt.Errorf("layout: could not read nodes: %s", err)
		}
	case Dx12Bvh2:
		dx := make([]dxNode, count)
		if err := binary.Read(r, binary.LittleEndian, dx); err != nil {
			return nil, fmt.Errorf("layout: could not read nodes: %s", err)
		}
		for i, n := range dx {
			nodes[i] = fromDx(n)
		}
	default:
		return nil, fmt.Errorf("layout: format %s does not use binary nodes", format)
	}
	return nodes, nil
}

// Serialize quad nodes in little-endian order.
func WriteQNodes(w io.Writer, nodes []QNode) error {
	if err := binary.Write(w, binary.LittleEndian, nodes); err != nil {
		return fmt.Errorf("layout: could not write quad nodes: %s", err)
	}
	return nil
}

// Decode count quad nodes from data.
func ReadQNodes(data []byte, count int) ([]QNode, error) {
	if len(data) < count*QNodeSize {
		return nil, fmt.Errorf("layout: expected at least %d bytes for %d quad nodes; got %d", count*QNodeSize, count, len(data))
	}

	nodes := make([]QNode, count)
	if err := binary.Read(bytes.NewReader(data[:count*QNodeSize]), binary.LittleEndian, nodes); err != nil {
		return nil, fmt.Errorf("layout: could not read quad nodes: %s", err)
	}
	return nodes, nil
}
