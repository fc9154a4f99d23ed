package mesh

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/polaris-bvh/asset"
	"github.com/achilleasa/polaris-bvh/log"
	"github.com/achilleasa/polaris-bvh/types"
)

// An optional viewpoint stored alongside the geometry.
type Camera struct {
	Eye  types.Vec3
	Look types.Vec3
	Up   types.Vec3

	// Vertical field of view in degrees.
	FOV float32
}

type wavefrontReader struct {
	logger log.Logger

	meshes    []*Mesh
	instances []Instance
	camera    *Camera

	// Global vertex list; faces reference it through 1-based indices.
	vertexList []types.Vec3

	// Maps a global vertex index to its index inside the current mesh.
	vertexRemap map[int]uint32

	// Statement types that were skipped while parsing.
	skipped map[string]int

	// An error stack that provides additional error information when
	// files include other files.
	errStack []string
}

// Parse a wavefront obj file into a geometry store. The reader understands
// vertex, face, object/group, include (call), instance and camera
// statements; normals, texture coordinates and materials are ignored.
func ReadWavefront(res *asset.Resource) (*Store, error) {
	r := &wavefrontReader{
		logger:  log.New("wavefront"),
		skipped: make(map[string]int),
	}

	r.logger.Noticef("parsing geometry from %s", res.Path())
	start := time.Now()

	if err := r.parse(res); err != nil {
		return nil, err
	}
	r.dropEmptyMesh()

	for stmt, count := range r.skipped {
		r.logger.Debugf(`skipped %d "%s" statements`, count, stmt)
	}

	store, err := NewStore(r.meshes, r.instances)
	if err != nil {
		return nil, err
	}
	store.Camera = r.camera

	r.logger.Noticef(
		"parsed %d meshes, %d instances and %d faces in %d ms",
		len(store.Meshes), len(store.Instances), store.NumFaces(), time.Since(start).Nanoseconds()/1e6,
	)
	return store, nil
}

// Generate an error message that also includes any data in the error stack.
func (r *wavefrontReader) emitError(file string, line int, msgFormat string, args ...interface{}) error {
	msg := fmt.Sprintf(msgFormat, args...)
	return fmt.Errorf("%s", strings.Trim(
		fmt.Sprintf("[%s: %d] error: %s\n%s", file, line, msg, strings.Join(r.errStack, "\n")),
		"\n",
	))
}

// Push a frame to the error stack.
func (r *wavefrontReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontReader) popFrame() {
	r.errStack = r.errStack[1:]
}

func (r *wavefrontReader) parse(res *asset.Resource) error {
	var lineNum int = 0
	var err error

	// Included files use 1-based indices relative to their own vertices.
	relVertexOffset := len(r.vertexList)

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "call":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "call"; expected 1 argument; got %d`, len(lineTokens)-1)
			}

			r.pushFrame(fmt.Sprintf("referenced from %s:%d [call]", res.Path(), lineNum))
			incRes, err := asset.NewResource(lineTokens[1], res)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			err = r.parse(incRes)
			incRes.Close()
			if err != nil {
				return err
			}
			r.popFrame()
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.vertexList = append(r.vertexList, v)
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			r.dropEmptyMesh()
			r.startMesh(lineTokens[1])
		case "f":
			if len(r.meshes) == 0 {
				r.startMesh("default")
			}
			if err = r.parseFace(lineTokens, relVertexOffset); err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "instance":
			inst, err := r.parseInstance(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
			r.instances = append(r.instances, inst)
		case "camera_fov":
			r.ensureCamera().FOV, err = parseFloat32(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_eye":
			r.ensureCamera().Eye, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_look":
			r.ensureCamera().Look, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		case "camera_up":
			r.ensureCamera().Up, err = parseVec3(lineTokens)
			if err != nil {
				return r.emitError(res.Path(), lineNum, "%s", err.Error())
			}
		default:
			r.skipped[lineTokens[0]]++
		}
	}

	return scanner.Err()
}

func (r *wavefrontReader) ensureCamera() *Camera {
	if r.camera == nil {
		r.camera = &Camera{Up: types.XYZ(0, 1, 0), FOV: 45}
	}
	return r.camera
}

func (r *wavefrontReader) startMesh(name string) {
	r.meshes = append(r.meshes, NewMesh(name))
	r.vertexRemap = make(map[int]uint32)
}

// Drop the last parsed mesh if it contains no faces.
func (r *wavefrontReader) dropEmptyMesh() {
	lastMeshIndex := len(r.meshes) - 1
	if lastMeshIndex >= 0 && len(r.meshes[lastMeshIndex].Faces) == 0 {
		r.logger.Warningf(`dropping mesh "%s" as it contains no polygons`, r.meshes[lastMeshIndex].Name)
		r.meshes = r.meshes[:lastMeshIndex]
	}
}

// Parse a face definition. Each face argument has the form
// vertexIndex[/uvIndex[/normalIndex]]; only the vertex index is used.
// Faces with more than three vertices are triangulated as a fan around the
// first vertex.
func (r *wavefrontReader) parseFace(lineTokens []string, relVertexOffset int) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	m := r.meshes[len(r.meshes)-1]
	indices := make([]uint32, len(lineTokens)-1)
	for arg := range indices {
		vTokens := strings.Split(lineTokens[arg+1], "/")
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		vOffset, err := selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset)
		if err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}

		local, exists := r.vertexRemap[vOffset]
		if !exists {
			local = uint32(len(m.Vertices))
			m.Vertices = append(m.Vertices, r.vertexList[vOffset])
			r.vertexRemap[vOffset] = local
		}
		indices[arg] = local
	}

	for i := 1; i+1 < len(indices); i++ {
		m.Faces = append(m.Faces, [3]uint32{indices[0], indices[i], indices[i+1]})
	}
	return nil
}

// Parse mesh instance definition. Definitions use the following format:
// instance mesh_name tX tY tZ yaw pitch roll sX sY sZ
// where:
// - tX, tY, tZ       : translation vector
// - yaw, pitch, roll : rotation angles in degrees
// - sX, sY, sZ	      : scale
func (r *wavefrontReader) parseInstance(lineTokens []string) (Instance, error) {
	if len(lineTokens) != 11 {
		return Instance{}, fmt.Errorf(`unsupported syntax for "instance"; expected 10 arguments: mesh_name tX tY tZ yaw pitch roll sX sY sZ; got %d`, len(lineTokens)-1)
	}

	meshName := lineTokens[1]
	meshIndex := -1
	for index, m := range r.meshes {
		if m.Name == meshName {
			meshIndex = index
			break
		}
	}
	if meshIndex == -1 {
		return Instance{}, fmt.Errorf(`unknown mesh with name "%s"`, meshName)
	}

	var args [9]float32
	for index := range args {
		v, err := strconv.ParseFloat(lineTokens[index+2], 32)
		if err != nil {
			return Instance{}, err
		}
		args[index] = float32(v)
	}

	translation := types.XYZ(args[0], args[1], args[2])
	rotation := types.XYZ(args[3], args[4], args[5]).Mul(math.Pi / 180.0)
	scale := types.XYZ(args[6], args[7], args[8])

	return Instance{
		Mesh:      uint32(meshIndex),
		Transform: types.TRS(translation, rotation, scale),
	}, nil
}

// Given an index for a face coord calculate the proper offset into the coord
// list. Wavefront format can also use negative indices to reference elements
// from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int = 0
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}

	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
