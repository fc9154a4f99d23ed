package analyzer

import (
	"github.com/achilleasa/polaris-bvh/bvh"
	"github.com/achilleasa/polaris-bvh/layout"
)

type visitKey struct {
	addr   uint32
	isPrim bool
}

type visitItem struct {
	addr   uint32
	parent uint32
	isPrim bool
}

// Check the tree topology. The tree is valid when every node records the
// node it was reached from as its parent, no node or triangle is reachable
// twice, every child box lies inside the box its parent stores for that
// node and every node and triangle is reachable from the root.
func (t *Tree) IsValid() bool {
	if t.RootIsPrim {
		return len(t.Nodes) == 0 && len(t.Triangles) == 1
	}
	if len(t.Nodes) == 0 {
		return false
	}

	visited := map[visitKey]struct{}{{addr: 0}: {}}
	queue := []visitItem{{addr: 0, parent: layout.InvalidID}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.isPrim {
			if int(cur.addr) >= len(t.Triangles) {
				return false
			}
			continue
		}
		if int(cur.addr) >= len(t.Nodes) {
			return false
		}

		node := &t.Nodes[cur.addr]
		if node.Parent != cur.parent {
			return false
		}

		var nodeBox bvh.Aabb
		if cur.parent != layout.InvalidID {
			parent := &t.Nodes[cur.parent]
			for i := uint32(0); i < parent.ChildCount; i++ {
				if parent.ChildAddr[i] == cur.addr && !parent.ChildIsPrim[i] {
					nodeBox = parent.ChildBounds[i]
					break
				}
			}
		}

		for i := uint32(0); i < node.ChildCount; i++ {
			key := visitKey{addr: node.ChildAddr[i], isPrim: node.ChildIsPrim[i]}
			if _, seen := visited[key]; seen {
				return false
			}
			visited[key] = struct{}{}
			queue = append(queue, visitItem{addr: key.addr, parent: cur.addr, isPrim: key.isPrim})

			if cur.parent != layout.InvalidID && !nodeBox.Includes(node.ChildBounds[i]) {
				return false
			}
		}
	}

	return len(visited) == len(t.Nodes)+len(t.Triangles)
}

// Estimate the SAH cost of the tree as the sum of node and triangle box
// areas relative to the root box area, weighted by cnode and cprim. The
// tree must be valid.
func (t *Tree) CalculateSAH(cprim, cnode float32) float32 {
	if len(t.Nodes) == 0 && !t.RootIsPrim {
		return 0
	}

	rootArea := t.Bounds().Area()
	if rootArea == 0 {
		rootArea = 1
	}

	var total float32
	stack := []stackEntry{t.rootEntry()}
	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if entry.isPrim {
			total += t.Triangles[entry.addr].Aabb().Area() / rootArea * cprim
			continue
		}

		node := &t.Nodes[entry.addr]
		total += node.Bounds().Area() / rootArea * cnode
		for i := uint32(0); i < node.ChildCount; i++ {
			stack = append(stack, stackEntry{addr: node.ChildAddr[i], isPrim: node.ChildIsPrim[i]})
		}
	}
	return total
}
