package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/achilleasa/polaris-bvh/asset"
	"github.com/achilleasa/polaris-bvh/asset/mesh"
)

// Load the geometry of a wavefront obj file.
func loadStore(objFile string) (*mesh.Store, error) {
	if !strings.HasSuffix(objFile, ".obj") {
		return nil, fmt.Errorf("unsupported file %s; expected a wavefront .obj file", objFile)
	}

	res, err := asset.NewResource(objFile, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return mesh.ReadWavefront(res)
}

// Create path and stream fn's output into it through a buffered writer.
func writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	if err = fn(w); err == nil {
		err = w.Flush()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("could not write %s: %s", path, err)
	}
	return nil
}
