package analyzer

import (
	"fmt"

	"github.com/achilleasa/polaris-bvh/asset"
	"github.com/achilleasa/polaris-bvh/asset/config"
	"github.com/achilleasa/polaris-bvh/layout"
)

// Load and decode the tree described by cfg. Relative paths are resolved
// against relTo.
func LoadTree(cfg *config.Analyzer, relTo *asset.Resource) (*Tree, error) {
	data, err := asset.ReadResource(cfg.BvhPath, relTo)
	if err != nil {
		return nil, fmt.Errorf("analyzer: incorrect path to bvh file: %s", err)
	}
	if len(data) < cfg.BvhSize() {
		return nil, fmt.Errorf("analyzer: bvh file contains less nodes than declared; expected %d bytes, got %d", cfg.BvhSize(), len(data))
	}

	if cfg.Type == layout.QBvh {
		qnodes, err := layout.ReadQNodes(data, cfg.NodeCount())
		if err != nil {
			return nil, err
		}
		return FromQuad(qnodes)
	}

	nodes, err := layout.ReadNodes(data, cfg.NodeCount(), cfg.Type)
	if err != nil {
		return nil, err
	}
	return FromBinary(nodes, cfg.InternalCount, cfg.TriangleCount)
}

// Load the ray grid described by cfg.
func LoadRays(cfg *config.Analyzer, relTo *asset.Resource) ([]Ray, error) {
	data, err := asset.ReadResource(cfg.RaysPath, relTo)
	if err != nil {
		return nil, fmt.Errorf("analyzer: incorrect path to rays file: %s", err)
	}
	if len(data) < cfg.RayCount()*RaySize {
		return nil, fmt.Errorf("analyzer: rays file contains less elements than declared; expected %d bytes, got %d", cfg.RayCount()*RaySize, len(data))
	}
	return ReadRays(data, cfg.RayCount())
}
