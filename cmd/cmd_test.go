package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/polaris-bvh/asset/config"
	"github.com/urfave/cli"
)

const testScene = `
o quad
v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
f 1 2 3
f 1 3 4

o floor
v -4 -2 -4
v 4 -2 -4
v 4 -2 4
f 5 6 7
`

func testApp() *cli.App {
	rayFlags := []cli.Flag{
		cli.IntFlag{Name: "width", Value: 16},
		cli.IntFlag{Name: "height", Value: 8},
	}

	app := cli.NewApp()
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "v"},
		cli.BoolFlag{Name: "vv"},
		cli.StringFlag{Name: "log-level"},
	}
	app.Commands = []cli.Command{
		{
			Name: "build",
			Flags: append([]cli.Flag{
				cli.StringFlag{Name: "config"},
				cli.StringFlag{Name: "format", Value: "vkbvh2"},
				cli.StringFlag{Name: "out"},
				cli.IntFlag{Name: "workers"},
				cli.IntFlag{Name: "bins"},
				cli.BoolFlag{Name: "median"},
			}, rayFlags...),
			Action: BuildBvh,
		},
		{
			Name: "analyze",
			Flags: []cli.Flag{
				cli.IntFlag{Name: "workers", Value: 2},
				cli.BoolFlag{Name: "any-hit"},
				cli.StringFlag{Name: "heatmaps"},
			},
			Action: Analyze,
		},
		{
			Name:   "info",
			Action: ShowInfo,
		},
	}
	return app
}

func writeTestScene(t *testing.T) (dir, objFile string) {
	dir = t.TempDir()
	objFile = filepath.Join(dir, "scene.obj")
	if err := os.WriteFile(objFile, []byte(testScene), 0644); err != nil {
		t.Fatal(err)
	}
	return dir, objFile
}

func TestBuildAndAnalyze(t *testing.T) {
	for _, format := range []string{"vkbvh2", "dx12bvh2", "qbvh"} {
		dir, objFile := writeTestScene(t)

		err := testApp().Run([]string{"polaris-bvh", "build", "--format", format, objFile})
		if err != nil {
			t.Fatalf("[%s] build failed: %v", format, err)
		}

		cfgFile := filepath.Join(dir, "scene.cfg")
		f, err := os.Open(cfgFile)
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := config.ReadAnalyzer(f)
		f.Close()
		if err != nil {
			t.Fatalf("[%s] could not parse generated config: %v", format, err)
		}
		if cfg.Type.String() != format {
			t.Fatalf("[%s] expected config type %q; got %q", format, format, cfg.Type.String())
		}
		if format != "qbvh" && (cfg.InternalCount != 2 || cfg.TriangleCount != 3) {
			t.Fatalf("[%s] expected 2 internal nodes and 3 triangles; got %d and %d", format, cfg.InternalCount, cfg.TriangleCount)
		}
		if cfg.Width != 16 || cfg.Height != 8 {
			t.Fatalf("[%s] expected a 16x8 ray grid; got %dx%d", format, cfg.Width, cfg.Height)
		}

		heatmaps := filepath.Join(dir, "heatmaps")
		err = testApp().Run([]string{"polaris-bvh", "analyze", "--heatmaps", heatmaps, cfgFile})
		if err != nil {
			t.Fatalf("[%s] analyze failed: %v", format, err)
		}
		for _, name := range []string{"isect_result.png", "isect_tests.png"} {
			if _, err := os.Stat(filepath.Join(heatmaps, name)); err != nil {
				t.Fatalf("[%s] expected heatmap %s to be written: %v", format, name, err)
			}
		}

		if err = testApp().Run([]string{"polaris-bvh", "info", cfgFile}); err != nil {
			t.Fatalf("[%s] info failed: %v", format, err)
		}
	}
}

func TestBuildErrors(t *testing.T) {
	dir, objFile := writeTestScene(t)
	badOpts := filepath.Join(dir, "opts.toml")
	if err := os.WriteFile(badOpts, []byte("num_bins = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	specs := []struct {
		args   []string
		expErr string
	}{
		{[]string{"build"}, "expected a single .obj file"},
		{[]string{"build", filepath.Join(dir, "scene.txt")}, "unsupported file"},
		{[]string{"build", "--format", "octree", objFile}, "octree"},
		{[]string{"build", "--config", badOpts, objFile}, "num_bins"},
		{[]string{"--log-level", "loud", "build", objFile}, "unknown level"},
		{[]string{"analyze", filepath.Join(dir, "missing.cfg")}, "missing.cfg"},
	}

	for specIndex, spec := range specs {
		err := testApp().Run(append([]string{"polaris-bvh"}, spec.args...))
		if err == nil || !strings.Contains(err.Error(), spec.expErr) {
			t.Fatalf("[spec %d] expected error containing %q; got %v", specIndex, spec.expErr, err)
		}
	}
}

func TestBuildSingleTriangle(t *testing.T) {
	dir := t.TempDir()
	objFile := filepath.Join(dir, "tri.obj")
	if err := os.WriteFile(objFile, []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, format := range []string{"vkbvh2", "qbvh"} {
		if err := testApp().Run([]string{"polaris-bvh", "build", "--format", format, objFile}); err != nil {
			t.Fatalf("[%s] build failed: %v", format, err)
		}

		cfgFile := filepath.Join(dir, "tri.cfg")
		data, err := os.ReadFile(cfgFile)
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := config.ReadAnalyzer(strings.NewReader(string(data)))
		if err != nil {
			t.Fatal(err)
		}
		if cfg.InternalCount != 0 || cfg.TriangleCount != 1 {
			t.Fatalf("[%s] expected 0 internal nodes and 1 triangle; got %d and %d", format, cfg.InternalCount, cfg.TriangleCount)
		}

		if err = testApp().Run([]string{"polaris-bvh", "analyze", cfgFile}); err != nil {
			t.Fatalf("[%s] analyze failed: %v", format, err)
		}
	}
}
