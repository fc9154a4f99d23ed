package mesh

import (
	"fmt"

	"github.com/achilleasa/polaris-bvh/bvh"
	"github.com/achilleasa/polaris-bvh/types"
)

type faceRef struct {
	instance uint32
	face     uint32
}

// The Store owns the geometry of a single build. It flattens the faces of all
// mesh instances into one primitive list addressed by a face index.
type Store struct {
	Meshes    []*Mesh
	Instances []Instance

	// Viewpoint parsed from the source file, if any.
	Camera *Camera

	faces []faceRef
}

// Create a store. If no instances are supplied, every mesh gets an instance
// with an identity transform.
func NewStore(meshes []*Mesh, instances []Instance) (*Store, error) {
	if len(instances) == 0 {
		for meshIndex := range meshes {
			instances = append(instances, Instance{Mesh: uint32(meshIndex), Transform: types.Ident4()})
		}
	}

	s := &Store{Meshes: meshes, Instances: instances}
	for instIndex, inst := range instances {
		if int(inst.Mesh) >= len(meshes) {
			return nil, fmt.Errorf("mesh: instance %d references unknown mesh %d", instIndex, inst.Mesh)
		}
		for faceIndex := range meshes[inst.Mesh].Faces {
			s.faces = append(s.faces, faceRef{instance: uint32(instIndex), face: uint32(faceIndex)})
		}
	}
	return s, nil
}

// Create a store holding a single mesh built from a triangle soup.
func FromTriangles(name string, tris [][3]types.Vec3) *Store {
	m := NewMesh(name)
	for _, tri := range tris {
		base := uint32(len(m.Vertices))
		m.Vertices = append(m.Vertices, tri[0], tri[1], tri[2])
		m.Faces = append(m.Faces, [3]uint32{base, base + 1, base + 2})
	}
	s, _ := NewStore([]*Mesh{m}, nil)
	return s
}

// Total number of faces across all instances.
func (s *Store) NumFaces() int {
	return len(s.faces)
}

// Get face i in world space.
func (s *Store) Face(i int) Triangle {
	ref := s.faces[i]
	inst := s.Instances[ref.instance]
	tri := s.Meshes[inst.Mesh].Face(int(ref.face))
	tri.MeshID = ref.instance
	if !inst.Transform.IsIdent() {
		tri.V0 = inst.Transform.TransformPoint(tri.V0)
		tri.V1 = inst.Transform.TransformPoint(tri.V1)
		tri.V2 = inst.Transform.TransformPoint(tri.V2)
	}
	return tri
}

// World-space bounds for every face, computed from the transformed vertices.
func (s *Store) FaceBounds() []bvh.Aabb {
	out := make([]bvh.Aabb, len(s.faces))
	for i := range s.faces {
		out[i] = s.Face(i).Aabb()
	}
	return out
}

// World-space bounds of the whole store.
func (s *Store) Bounds() bvh.Aabb {
	box := bvh.EmptyAabb()
	for _, b := range s.FaceBounds() {
		box = box.Grow(b)
	}
	return box
}
