package analyzer

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/polaris-bvh/asset"
	"github.com/achilleasa/polaris-bvh/asset/config"
	"github.com/achilleasa/polaris-bvh/asset/mesh"
	"github.com/achilleasa/polaris-bvh/bvh"
	"github.com/achilleasa/polaris-bvh/layout"
	"github.com/achilleasa/polaris-bvh/types"
	"github.com/chewxy/math32"
)

func randomStore(count int, seed int64) *mesh.Store {
	rng := rand.New(rand.NewSource(seed))
	tris := make([][3]types.Vec3, count)
	for i := range tris {
		base := types.XYZ(rng.Float32()*20-10, rng.Float32()*20-10, rng.Float32()*20-10)
		for v := 0; v < 3; v++ {
			tris[i][v] = base.Add(types.XYZ(rng.Float32()*2, rng.Float32()*2, rng.Float32()*2))
		}
	}
	return mesh.FromTriangles("random", tris)
}

func encodeStore(t *testing.T, store *mesh.Store) *layout.Encoded {
	tree, err := bvh.BuildFrom(store, bvh.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	enc, err := layout.EncodeTree(tree, store)
	if err != nil {
		t.Fatal(err)
	}
	return enc
}

func binaryTree(t *testing.T, store *mesh.Store) *Tree {
	enc := encodeStore(t, store)
	tree, err := FromBinary(enc.Nodes, enc.InternalCount, enc.LeafCount)
	if err != nil {
		t.Fatal(err)
	}
	return tree
}

func unitTriangleTrees(t *testing.T) map[string]*Tree {
	store := mesh.FromTriangles("unit", [][3]types.Vec3{
		{types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), types.XYZ(0, 1, 0)},
	})
	enc := encodeStore(t, store)

	binTree, err := FromBinary(enc.Nodes, enc.InternalCount, enc.LeafCount)
	if err != nil {
		t.Fatal(err)
	}
	qnodes, err := layout.Translate(enc.Nodes)
	if err != nil {
		t.Fatal(err)
	}
	quadTree, err := FromQuad(qnodes)
	if err != nil {
		t.Fatal(err)
	}
	return map[string]*Tree{"binary": binTree, "quad": quadTree}
}

func TestUnitTriangleHitAndMiss(t *testing.T) {
	for name, tree := range unitTriangleTrees(t) {
		if !tree.RootIsPrim || len(tree.Nodes) != 0 || len(tree.Triangles) != 1 {
			t.Fatalf("[%s] expected a single leaf root; got %d nodes and %d triangles", name, len(tree.Nodes), len(tree.Triangles))
		}
		if !tree.IsValid() {
			t.Fatalf("[%s] expected single triangle tree to be valid", name)
		}
		if got := tree.CalculateSAH(1, 1); math32.Abs(got-1) > 1e-6 {
			t.Fatalf("[%s] expected SAH 1; got %f", name, got)
		}

		var stats TraversalStats
		hit := tree.Intersect(Ray{Origin: types.XYZ(0.25, 0.25, 1), Direction: types.XYZ(0, 0, -1), MaxT: 10}, ClosestHit, &stats)
		if !hit.IsHit() || hit.InstID != 0 || hit.PrimID != 0 {
			t.Fatalf("[%s] expected a hit on primitive 0 of instance 0; got %+v", name, hit)
		}
		if math32.Abs(hit.T-1) > 1e-6 || math32.Abs(hit.UV[0]-0.25) > 1e-6 || math32.Abs(hit.UV[1]-0.25) > 1e-6 {
			t.Fatalf("[%s] expected t = 1 and uv = (0.25, 0.25); got t = %f uv = %v", name, hit.T, hit.UV)
		}
		if stats.InternalNodeTests != 0 || stats.AabbTests != 0 || stats.TriangleTests != 1 || stats.LeafTests != 1 {
			t.Fatalf("[%s] unexpected traversal stats %+v", name, stats)
		}

		miss := tree.Intersect(Ray{Origin: types.XYZ(10, 10, 1), Direction: types.XYZ(0, 0, -1), MaxT: 10}, ClosestHit, nil)
		if miss.IsHit() || miss.InstID != layout.InvalidID {
			t.Fatalf("[%s] expected a miss; got %+v", name, miss)
		}

		short := tree.Intersect(Ray{Origin: types.XYZ(0.25, 0.25, -1), Direction: types.XYZ(0, 0, 1), MaxT: 0.5}, ClosestHit, nil)
		if short.IsHit() {
			t.Fatalf("[%s] expected a miss for a ray ending before the triangle; got %+v", name, short)
		}
	}
}

func TestFromBinarySingleTriangleErrors(t *testing.T) {
	leaf := layout.Node{Child0: layout.InvalidID}
	internal := layout.Node{Child0: 1, Child1: 2, Parent: layout.InvalidID}

	if _, err := FromBinary([]layout.Node{leaf, leaf}, 0, 2); err == nil {
		t.Fatal("expected an error for two triangles without internal nodes")
	}
	if _, err := FromBinary([]layout.Node{internal}, 0, 1); err == nil {
		t.Fatal("expected an error for a single-triangle tree whose root is not a leaf")
	}
}

func bruteForce(store *mesh.Store, ray Ray) Hit {
	hit := missHit()
	closest := ray.MaxT
	for i := 0; i < store.NumFaces(); i++ {
		tri := store.Face(i)
		if tHit, u, v, ok := intersectTriangle(ray, &tri, ray.MinT, closest); ok {
			closest = tHit
			hit = Hit{InstID: tri.MeshID, PrimID: tri.PrimID, UV: types.XY(u, v), T: tHit}
		}
	}
	return hit
}

func testRays(count int, seed int64) []Ray {
	rng := rand.New(rand.NewSource(seed))
	rays := make([]Ray, count)
	for i := range rays {
		origin := types.XYZ(rng.Float32()*40-20, rng.Float32()*40-20, -30)
		target := types.XYZ(rng.Float32()*20-10, rng.Float32()*20-10, rng.Float32()*20-10)
		rays[i] = Ray{Origin: origin, Direction: target.Sub(origin).Normalize(), MaxT: 1000}
	}
	return rays
}

func TestClosestHitMatchesBruteForce(t *testing.T) {
	store := randomStore(400, 21)
	binTree := binaryTree(t, store)

	qnodes, err := layout.Translate(encodeStore(t, store).Nodes)
	if err != nil {
		t.Fatal(err)
	}
	quadTree, err := FromQuad(qnodes)
	if err != nil {
		t.Fatal(err)
	}

	hits := 0
	for rayIndex, ray := range testRays(500, 4) {
		exp := bruteForce(store, ray)
		for _, tree := range []*Tree{binTree, quadTree} {
			got := tree.Intersect(ray, ClosestHit, nil)
			if got.IsHit() != exp.IsHit() {
				t.Fatalf("[ray %d, factor %d] expected hit = %t; got %t", rayIndex, tree.Factor, exp.IsHit(), got.IsHit())
			}
			if exp.IsHit() && (got.PrimID != exp.PrimID || got.T != exp.T) {
				t.Fatalf("[ray %d, factor %d] expected prim %d at t = %f; got prim %d at t = %f", rayIndex, tree.Factor, exp.PrimID, exp.T, got.PrimID, got.T)
			}

			any := tree.Intersect(ray, AnyHit, nil)
			if any.IsHit() != exp.IsHit() {
				t.Fatalf("[ray %d, factor %d] expected any-hit query to report hit = %t", rayIndex, tree.Factor, exp.IsHit())
			}
		}
		if exp.IsHit() {
			hits++
		}
	}
	if hits == 0 {
		t.Fatal("expected some rays to hit the geometry")
	}
}

func TestIsValid(t *testing.T) {
	store := randomStore(64, 2)

	tree := binaryTree(t, store)
	if !tree.IsValid() {
		t.Fatal("expected builder output to be valid")
	}

	qnodes, err := layout.Translate(encodeStore(t, store).Nodes)
	if err != nil {
		t.Fatal(err)
	}
	quadTree, err := FromQuad(qnodes)
	if err != nil {
		t.Fatal(err)
	}
	if !quadTree.IsValid() {
		t.Fatal("expected translated quad tree to be valid")
	}

	specs := []struct {
		name   string
		mutate func(tree *Tree)
	}{
		{"duplicate child", func(tree *Tree) {
			root := tree.Root()
			root.ChildAddr[1] = root.ChildAddr[0]
			root.ChildIsPrim[1] = root.ChildIsPrim[0]
		}},
		{"wrong parent", func(tree *Tree) {
			tree.Nodes[tree.Root().ChildAddr[0]].Parent = 42
		}},
		{"escaping child box", func(tree *Tree) {
			child := &tree.Nodes[tree.Root().ChildAddr[0]]
			child.ChildBounds[0].Max = child.ChildBounds[0].Max.Add(types.Splat(100))
		}},
		{"unreachable triangle", func(tree *Tree) {
			tree.Triangles = append(tree.Triangles, mesh.Triangle{})
		}},
	}

	for _, spec := range specs {
		broken := binaryTree(t, store)
		spec.mutate(broken)
		if broken.IsValid() {
			t.Fatalf("[%s] expected tree to be invalid", spec.name)
		}
	}
}

func TestIsValidRejectsSharedChild(t *testing.T) {
	store := randomStore(64, 3)
	enc := encodeStore(t, store)

	// Internal nodes occupy [0, InternalCount) so nodes 1 and 2 are the
	// internal children of the root.
	nodes := append([]layout.Node(nil), enc.Nodes...)
	nodes[2].Child0 = nodes[1].Child0

	tree, err := FromBinary(nodes, enc.InternalCount, enc.LeafCount)
	if err != nil {
		t.Fatal(err)
	}
	if tree.IsValid() {
		t.Fatal("expected a child shared by two parents to invalidate the tree")
	}

	tree, err = FromBinary(enc.Nodes, enc.InternalCount, enc.LeafCount)
	if err != nil {
		t.Fatal(err)
	}
	if !tree.IsValid() {
		t.Fatal("expected the unmodified tree to be valid")
	}
}

func TestCalculateSAH(t *testing.T) {
	// Root box is the unit cube; the triangles are flat unit squares' halves.
	tris := []mesh.Triangle{
		{V0: types.XYZ(0, 0, 0), V1: types.XYZ(1, 0, 0), V2: types.XYZ(0, 1, 0)},
		{V0: types.XYZ(0, 0, 1), V1: types.XYZ(1, 0, 1), V2: types.XYZ(0, 1, 1)},
	}
	root := Node{Parent: layout.InvalidID}
	root.addChild(0, tris[0].Aabb(), true)
	root.addChild(1, tris[1].Aabb(), true)
	tree := &Tree{Factor: 2, Nodes: []Node{root}, Triangles: tris}

	// Root contributes 1; each flat triangle box has area 2 out of 6.
	exp := float32(1 + 2.0/6.0*2)
	if got := tree.CalculateSAH(1, 1); math32.Abs(got-exp) > 1e-6 {
		t.Fatalf("expected SAH %f; got %f", exp, got)
	}
}

func TestCheckQuality(t *testing.T) {
	store := randomStore(300, 8)
	tree := binaryTree(t, store)
	rays := testRays(3000, 9)

	serial := tree.CheckQuality(rays, ClosestHit, 1)
	parallel := tree.CheckQuality(rays, ClosestHit, 4)

	if !serial.Stats.IsValid || serial.Stats.SAH <= 1 {
		t.Fatalf("unexpected stats %+v", serial.Stats)
	}
	if serial.Stats != parallel.Stats {
		t.Fatalf("expected serial and parallel stats to match; got %+v and %+v", serial.Stats, parallel.Stats)
	}
	if serial.Stats.Hits == 0 || serial.Stats.AvgNodeTests < 1 || serial.Stats.AvgAabbTests < 2 {
		t.Fatalf("unexpected traversal stats %+v", serial.Stats)
	}
	if len(parallel.Hits) != len(rays) || len(parallel.Traversal) != len(rays) {
		t.Fatal("expected one hit and traversal record per ray")
	}

	out := serial.Stats.String()
	for _, exp := range []string{"is_valid", "avg_primary_aabb_tests", "true"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("expected report to contain %q; got:\n%s", exp, out)
		}
	}

	tree.Root().ChildAddr[1] = tree.Root().ChildAddr[0]
	tree.Root().ChildIsPrim[1] = tree.Root().ChildIsPrim[0]
	invalid := tree.CheckQuality(rays, ClosestHit, 2)
	if invalid.Stats != (QualityStats{}) {
		t.Fatalf("expected all stats of an invalid tree to be zero; got %+v", invalid.Stats)
	}
}

func TestHeatmaps(t *testing.T) {
	hits := []Hit{missHit(), {InstID: 0, UV: types.XY(1, 0)}}
	img, err := HitImage(hits, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got := img.NRGBAAt(0, 0); got != missColor {
		t.Fatalf("expected miss color; got %v", got)
	}
	if got := img.NRGBAAt(1, 0); got.G != 255 || got.B != 0 {
		t.Fatalf("expected hit color to encode uv; got %v", got)
	}

	stats := []TraversalStats{{AabbTests: 3}, {AabbTests: 1000}}
	img, err = TestsImage(stats, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	// Ray row 0 is the bottom image row.
	if got := img.NRGBAAt(0, 1).R; got != 3 {
		t.Fatalf("expected bottom pixel to hold 3 tests; got %d", got)
	}
	if got := img.NRGBAAt(0, 0).R; got != 255 {
		t.Fatalf("expected saturated test count; got %d", got)
	}

	if _, err = HitImage(hits, 3, 3); err == nil {
		t.Fatal("expected an error for mismatched image dimensions")
	}
}

func TestGenerateRays(t *testing.T) {
	cam := mesh.Camera{Eye: types.XYZ(0, 0, 10), Look: types.XYZ(0, 0, 0), Up: types.XYZ(0, 1, 0), FOV: 45}
	rays, err := GenerateRays(cam, 3, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(rays) != 9 {
		t.Fatalf("expected 9 rays; got %d", len(rays))
	}

	center := rays[4].Direction
	if center.Sub(types.XYZ(0, 0, -1)).Len() > 1e-5 {
		t.Fatalf("expected center ray to point at the look point; got %v", center)
	}
	if rays[0].Direction[1] >= 0 || rays[8].Direction[1] <= 0 {
		t.Fatal("expected the first row to look down and the last row to look up")
	}

	fitted := FitCamera(bvh.NewAabb(types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1)))
	if fitted.Look != types.XYZ(0, 0, 0) || fitted.Eye[2] <= 1 {
		t.Fatalf("unexpected fitted camera %+v", fitted)
	}

	if _, err = GenerateRays(cam, 0, 3); err == nil {
		t.Fatal("expected an error for an empty grid")
	}
}

func TestLoadFromConfig(t *testing.T) {
	store := randomStore(50, 13)
	enc := encodeStore(t, store)
	rays := testRays(6, 1)
	dir := t.TempDir()

	var bvhBuf, rayBuf bytes.Buffer
	if err := layout.WriteNodes(&bvhBuf, enc.Nodes, layout.Dx12Bvh2); err != nil {
		t.Fatal(err)
	}
	if err := WriteRays(&rayBuf, rays); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scene.bvh"), bvhBuf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scene.rays"), rayBuf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Analyzer{
		BvhPath:       "scene.bvh",
		Type:          layout.Dx12Bvh2,
		InternalCount: enc.InternalCount,
		TriangleCount: enc.LeafCount,
		RaysPath:      "scene.rays",
		Width:         3,
		Height:        2,
	}
	relTo := asset.NewResourceFromStream(filepath.Join(dir, "scene.cfg"), strings.NewReader(""))

	tree, err := LoadTree(cfg, relTo)
	if err != nil {
		t.Fatal(err)
	}
	if !tree.IsValid() {
		t.Fatal("expected loaded tree to be valid")
	}

	loaded, err := LoadRays(cfg, relTo)
	if err != nil {
		t.Fatal(err)
	}
	if loaded[5] != rays[5] {
		t.Fatalf("expected ray %+v; got %+v", rays[5], loaded[5])
	}

	cfg.TriangleCount++
	if _, err = LoadTree(cfg, relTo); err == nil || !strings.Contains(err.Error(), "bvh file contains less nodes than declared") {
		t.Fatalf("expected a size error; got %v", err)
	}

	cfg.Height = 3
	if _, err = LoadRays(cfg, relTo); err == nil || !strings.Contains(err.Error(), "rays file contains less elements than declared") {
		t.Fatalf("expected a size error; got %v", err)
	}

	cfg.RaysPath = "missing.rays"
	if _, err = LoadRays(cfg, relTo); err == nil || !strings.Contains(err.Error(), "incorrect path to rays file") {
		t.Fatalf("expected a path error; got %v", err)
	}
}
