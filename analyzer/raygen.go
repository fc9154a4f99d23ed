package analyzer

import (
	"fmt"

	"github.com/achilleasa/polaris-bvh/asset/mesh"
	"github.com/achilleasa/polaris-bvh/bvh"
	"github.com/achilleasa/polaris-bvh/types"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Default vertical field of view for fitted cameras.
const defaultFOV float32 = 45

// Create a camera that looks down the -Z axis at box and frames it.
func FitCamera(box bvh.Aabb) mesh.Camera {
	center := box.Center()
	radius := box.Extents().Len() * 0.5
	if radius == 0 {
		radius = 1
	}
	dist := radius / math32.Tan(mgl32.DegToRad(defaultFOV)*0.5)

	return mesh.Camera{
		Eye:  center.Add(types.XYZ(0, 0, dist+radius)),
		Look: center,
		Up:   types.XYZ(0, 1, 0),
		FOV:  defaultFOV,
	}
}

// Generate one primary ray per pixel for a pinhole camera. Rays are emitted
// row by row starting with the bottom row.
func GenerateRays(cam mesh.Camera, width, height int) ([]Ray, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("analyzer: invalid ray grid %dx%d", width, height)
	}
	if cam.Eye == cam.Look {
		return nil, fmt.Errorf("analyzer: camera eye and look points must differ")
	}

	camToWorld := mgl32.LookAtV(cam.Eye.Mgl(), cam.Look.Mgl(), cam.Up.Mgl()).Inv()
	tanHalfFOV := math32.Tan(mgl32.DegToRad(cam.FOV) * 0.5)
	aspect := float32(width) / float32(height)

	rays := make([]Ray, 0, width*height)
	for y := 0; y < height; y++ {
		ndcY := (2*(float32(y)+0.5)/float32(height) - 1) * tanHalfFOV
		for x := 0; x < width; x++ {
			ndcX := (2*(float32(x)+0.5)/float32(width) - 1) * tanHalfFOV * aspect
			dir := camToWorld.Mul4x1(mgl32.Vec4{ndcX, ndcY, -1, 0}).Vec3().Normalize()
			rays = append(rays, Ray{
				Origin:    cam.Eye,
				MinT:      0,
				Direction: types.FromMgl(dir),
				MaxT:      math32.MaxFloat32,
			})
		}
	}
	return rays, nil
}
