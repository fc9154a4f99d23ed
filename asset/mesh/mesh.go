package mesh

import (
	"github.com/achilleasa/polaris-bvh/bvh"
	"github.com/achilleasa/polaris-bvh/types"
)

// A triangle primitive. MeshID identifies the instance the triangle belongs
// to and PrimID its face index inside the instanced mesh.
type Triangle struct {
	V0, V1, V2 types.Vec3
	MeshID     uint32
	PrimID     uint32
}

// Triangle bounding box.
func (t Triangle) Aabb() bvh.Aabb {
	return bvh.AabbFromPoints(t.V0, t.V1, t.V2)
}

// Triangle centroid.
func (t Triangle) Center() types.Vec3 {
	return t.V0.Add(t.V1).Add(t.V2).Mul(1.0 / 3.0)
}

// Triangle surface area.
func (t Triangle) Area() float32 {
	return t.V1.Sub(t.V0).Cross(t.V2.Sub(t.V0)).Len() * 0.5
}

// A named triangle mesh in object space.
type Mesh struct {
	Name     string
	Vertices []types.Vec3
	Faces    [][3]uint32
}

// Create an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// Get face i in object space.
func (m *Mesh) Face(i int) Triangle {
	f := m.Faces[i]
	return Triangle{
		V0:     m.Vertices[f[0]],
		V1:     m.Vertices[f[1]],
		V2:     m.Vertices[f[2]],
		PrimID: uint32(i),
	}
}

// A placement of a mesh in the world.
type Instance struct {
	Mesh      uint32
	Transform types.Mat4
}
