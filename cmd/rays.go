package cmd

import (
	"errors"
	"strings"

	"github.com/urfave/cli"
)

// Generate a primary ray grid for a wavefront obj file.
func GenerateRayFile(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}
	if ctx.NArg() != 1 {
		return errors.New("rays: expected a single .obj file argument")
	}

	objFile := ctx.Args().First()
	store, err := loadStore(objFile)
	if err != nil {
		return err
	}

	raysFile := ctx.String("out")
	if raysFile == "" {
		raysFile = strings.TrimSuffix(objFile, ".obj") + ".rays"
	}
	return writeRayGrid(raysFile, store, ctx.Int("width"), ctx.Int("height"))
}
