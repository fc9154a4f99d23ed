package cmd

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/achilleasa/polaris-bvh/analyzer"
	"github.com/achilleasa/polaris-bvh/asset"
	"github.com/achilleasa/polaris-bvh/asset/config"
	"github.com/urfave/cli"
)

// Load the analyzer config at path together with the tree it references.
func loadAnalyzerInput(path string) (*config.Analyzer, *asset.Resource, *analyzer.Tree, error) {
	res, err := asset.NewResource(path, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	defer res.Close()

	cfg, err := config.ReadAnalyzer(res)
	if err != nil {
		return nil, nil, nil, err
	}

	tree, err := analyzer.LoadTree(cfg, res)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, res, tree, nil
}

// Validate a persisted bvh and measure its traversal cost against a ray grid.
func Analyze(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}
	if ctx.NArg() != 1 {
		return errors.New("analyze: expected a single config file argument")
	}

	cfg, res, tree, err := loadAnalyzerInput(ctx.Args().First())
	if err != nil {
		return err
	}
	rays, err := analyzer.LoadRays(cfg, res)
	if err != nil {
		return err
	}

	query := analyzer.ClosestHit
	if ctx.Bool("any-hit") {
		query = analyzer.AnyHit
	}

	logger.Noticef("tracing %d rays against %s tree with %d workers", len(rays), cfg.Type, ctx.Int("workers"))
	result := tree.CheckQuality(rays, query, ctx.Int("workers"))
	fmt.Print(result.Stats.String())

	dir := ctx.String("heatmaps")
	if dir == "" || !result.Stats.IsValid {
		return nil
	}

	width, height := int(cfg.Width), int(cfg.Height)
	hitImg, err := analyzer.HitImage(result.Hits, width, height)
	if err != nil {
		return err
	}
	testsImg, err := analyzer.TestsImage(result.Traversal, width, height)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for name, img := range map[string]image.Image{
		"isect_result.png": hitImg,
		"isect_tests.png":  testsImg,
	} {
		img := img
		imgFile := filepath.Join(dir, name)
		err = writeFile(imgFile, func(w io.Writer) error {
			return png.Encode(w, img)
		})
		if err != nil {
			return err
		}
		logger.Noticef("wrote %s", imgFile)
	}
	return nil
}
