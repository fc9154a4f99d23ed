package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/achilleasa/polaris-bvh/analyzer"
	"github.com/achilleasa/polaris-bvh/asset/config"
	"github.com/achilleasa/polaris-bvh/asset/mesh"
	"github.com/achilleasa/polaris-bvh/bvh"
	"github.com/achilleasa/polaris-bvh/layout"
	"github.com/urfave/cli"
)

// Build a bvh for a wavefront obj file and write the encoded nodes, a
// primary ray grid and an analyzer config that references both.
func BuildBvh(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}
	if ctx.NArg() != 1 {
		return errors.New("build: expected a single .obj file argument")
	}

	opts, err := buildOptions(ctx)
	if err != nil {
		return err
	}
	format, err := layout.ParseFormat(ctx.String("format"))
	if err != nil {
		return err
	}

	objFile := ctx.Args().First()
	store, err := loadStore(objFile)
	if err != nil {
		return err
	}

	tree, err := bvh.BuildFrom(store, opts)
	if err != nil {
		return err
	}
	fmt.Print(tree.Stats.String())

	enc, err := layout.EncodeTree(tree, store)
	if err != nil {
		return err
	}

	cfg := &config.Analyzer{
		Type:          format,
		InternalCount: enc.InternalCount,
		TriangleCount: enc.LeafCount,
		Width:         uint32(ctx.Int("width")),
		Height:        uint32(ctx.Int("height")),
	}

	var qnodes []layout.QNode
	if format == layout.QBvh {
		if qnodes, err = layout.Translate(enc.Nodes); err != nil {
			return err
		}
		cfg.InternalCount, cfg.TriangleCount = countQNodes(qnodes)
	}
	fmt.Print(layout.Summary(enc, qnodes))

	base := ctx.String("out")
	if base == "" {
		base = strings.TrimSuffix(objFile, ".obj")
	}
	bvhFile := base + ".bvh"
	raysFile := base + ".rays"
	cfgFile := base + ".cfg"
	cfg.BvhPath = filepath.Base(bvhFile)
	cfg.RaysPath = filepath.Base(raysFile)

	err = writeFile(bvhFile, func(w io.Writer) error {
		if format == layout.QBvh {
			return layout.WriteQNodes(w, qnodes)
		}
		return layout.WriteNodes(w, enc.Nodes, format)
	})
	if err != nil {
		return err
	}
	logger.Noticef("wrote %s bvh to %s", format, bvhFile)

	if err = writeRayGrid(raysFile, store, ctx.Int("width"), ctx.Int("height")); err != nil {
		return err
	}

	if err = writeFile(cfgFile, cfg.Write); err != nil {
		return err
	}
	logger.Noticef("wrote analyzer config to %s", cfgFile)
	return nil
}

// Assemble build options from the defaults, an optional TOML file and the
// command flags, in that order.
func buildOptions(ctx *cli.Context) (bvh.Options, error) {
	opts := bvh.DefaultOptions()

	if optFile := ctx.String("config"); optFile != "" {
		f, err := os.Open(optFile)
		if err != nil {
			return opts, err
		}
		defer f.Close()

		if err = config.LoadBuildOptions(f, &opts); err != nil {
			return opts, err
		}
	}

	if ctx.IsSet("workers") {
		opts.Workers = ctx.Int("workers")
	}
	if ctx.Bool("median") {
		opts.UseSAH = false
	}
	if ctx.IsSet("bins") {
		opts.NumBins = ctx.Int("bins")
	}
	return opts, opts.Validate()
}

func countQNodes(qnodes []layout.QNode) (internal, leaves uint32) {
	for i := range qnodes {
		if qnodes[i].IsLeaf() {
			leaves++
		} else {
			internal++
		}
	}
	return internal, leaves
}

// Generate a ray grid for the store camera, or a camera that frames the
// store bounds when the obj file did not define one.
func writeRayGrid(raysFile string, store *mesh.Store, width, height int) error {
	var cam mesh.Camera
	if store.Camera != nil {
		cam = *store.Camera
	} else {
		cam = analyzer.FitCamera(store.Bounds())
	}

	rays, err := analyzer.GenerateRays(cam, width, height)
	if err != nil {
		return err
	}

	err = writeFile(raysFile, func(w io.Writer) error {
		return analyzer.WriteRays(w, rays)
	})
	if err != nil {
		return err
	}
	logger.Noticef("wrote %dx%d ray grid to %s", width, height, raysFile)
	return nil
}
