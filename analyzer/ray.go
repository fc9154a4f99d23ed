package analyzer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/achilleasa/polaris-bvh/layout"
	"github.com/achilleasa/polaris-bvh/types"
)

// Size in bytes of a persisted ray.
const RaySize = 32

// A ray with a valid distance interval [MinT, MaxT].
type Ray struct {
	Origin    types.Vec3
	MinT      float32
	Direction types.Vec3
	MaxT      float32
}

// A ray query result. Misses have InstID set to layout.InvalidID.
type Hit struct {
	InstID uint32
	PrimID uint32
	UV     types.Vec2
	T      float32
}

// Returns true if the ray hit a primitive.
func (h Hit) IsHit() bool {
	return h.InstID != layout.InvalidID
}

func missHit() Hit {
	return Hit{InstID: layout.InvalidID, PrimID: layout.InvalidID}
}

// Decode count rays from data. Returns an error if data holds fewer rays.
func ReadRays(data []byte, count int) ([]Ray, error) {
	if len(data) < count*RaySize {
		return nil, fmt.Errorf("analyzer: expected at least %d bytes for %d rays; got %d", count*RaySize, count, len(data))
	}

	rays := make([]Ray, count)
	if err := binary.Read(bytes.NewReader(data[:count*RaySize]), binary.LittleEndian, rays); err != nil {
		return nil, fmt.Errorf("analyzer: could not read rays: %s", err)
	}
	return rays, nil
}

// Serialize rays in little-endian order.
func WriteRays(w io.Writer, rays []Ray) error {
	if err := binary.Write(w, binary.LittleEndian, rays); err != nil {
		return fmt.Errorf("analyzer: could not write rays: %s", err)
	}
	return nil
}
