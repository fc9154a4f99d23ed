package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/achilleasa/polaris-bvh/layout"
)

var errAnalyzerFormat = errors.New(
	"config: incorrect config format; expected one value per line:\n" +
		"bvh_path\nbvh_type\nnum_internal_nodes\nnum_triangles\nrays_path\nray_width\nray_height",
)

// Analyzer configuration. Paths are resolved relative to the config file.
//
// For quad trees, InternalCount and TriangleCount hold the number of
// internal and leaf quad nodes.
type Analyzer struct {
	BvhPath       string
	Type          layout.Format
	InternalCount uint32
	TriangleCount uint32
	RaysPath      string
	Width         uint32
	Height        uint32
}

// Number of nodes stored in the bvh file.
func (c *Analyzer) NodeCount() int {
	return int(c.InternalCount) + int(c.TriangleCount)
}

// Minimum size in bytes of the bvh file.
func (c *Analyzer) BvhSize() int {
	return c.NodeCount() * c.Type.NodeSize()
}

// Number of rays in the ray file.
func (c *Analyzer) RayCount() int {
	return int(c.Width) * int(c.Height)
}

// Parse an analyzer config. The config holds exactly seven values, one per
// line: bvh path, bvh type, internal node count, triangle count, rays path,
// ray grid width and ray grid height.
func ReadAnalyzer(r io.Reader) (*Analyzer, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() && len(lines) < 7 {
		lines = append(lines, strings.TrimSpace(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: could not read analyzer config: %s", err)
	}
	if len(lines) < 7 || lines[0] == "" || lines[4] == "" {
		return nil, errAnalyzerFormat
	}

	format, err := layout.ParseFormat(lines[1])
	if err != nil {
		return nil, errAnalyzerFormat
	}

	var counts [4]uint32
	for i, line := range []string{lines[2], lines[3], lines[5], lines[6]} {
		v, err := strconv.ParseUint(line, 10, 32)
		if err != nil {
			return nil, errAnalyzerFormat
		}
		counts[i] = uint32(v)
	}

	return &Analyzer{
		BvhPath:       lines[0],
		Type:          format,
		InternalCount: counts[0],
		TriangleCount: counts[1],
		RaysPath:      lines[4],
		Width:         counts[2],
		Height:        counts[3],
	}, nil
}

// Serialize the config in the format understood by ReadAnalyzer.
func (c *Analyzer) Write(w io.Writer) error {
	_, err := io.WriteString(w, c.String())
	return err
}

func (c *Analyzer) String() string {
	return fmt.Sprintf("%s\n%s\n%d\n%d\n%s\n%d\n%d\n",
		c.BvhPath, c.Type, c.InternalCount, c.TriangleCount, c.RaysPath, c.Width, c.Height,
	)
}
