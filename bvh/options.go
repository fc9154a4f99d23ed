package bvh

import (
	"fmt"
	"runtime"
)

// Options control how the builder partitions primitives.
type Options struct {
	// Use the surface area heuristic for selecting split planes. When
	// false, the builder splits at the midpoint of the widest centroid axis.
	UseSAH bool `toml:"use_sah"`

	// Number of SAH bins per axis.
	NumBins int `toml:"num_bins"`

	// Cost of traversing an internal node relative to intersecting a primitive.
	TraversalCost float32 `toml:"traversal_cost"`

	// Cost of intersecting a single primitive stored in a leaf.
	LeafCost float32 `toml:"leaf_cost"`

	// Ranges with fewer than SAHLeafCap primitives become leaves when
	// numPrims * LeafCost does not exceed the best split cost. Zero keeps
	// every leaf at a single primitive.
	SAHLeafCap int `toml:"sah_leaf_cap"`

	// Number of build workers. Zero selects runtime.NumCPU().
	Workers int `toml:"workers"`

	// Right-hand split requests referencing more than this number of
	// primitives are handed back to the shared work pool.
	SplitThreshold int `toml:"split_threshold"`
}

// Get the default build options.
func DefaultOptions() Options {
	return Options{
		UseSAH:         true,
		NumBins:        64,
		TraversalCost:  10.0,
		LeafCost:       1.0,
		SAHLeafCap:     0,
		Workers:        0,
		SplitThreshold: 4096,
	}
}

// Validate options.
func (o Options) Validate() error {
	if o.UseSAH && o.NumBins < 2 {
		return fmt.Errorf("bvh: num_bins must be at least 2; got %d", o.NumBins)
	}
	if o.TraversalCost < 0 || o.LeafCost < 0 {
		return fmt.Errorf("bvh: traversal_cost and leaf_cost must be non-negative")
	}
	if o.SAHLeafCap < 0 {
		return fmt.Errorf("bvh: sah_leaf_cap must be non-negative; got %d", o.SAHLeafCap)
	}
	if o.Workers < 0 {
		return fmt.Errorf("bvh: workers must be non-negative; got %d", o.Workers)
	}
	if o.SplitThreshold < 1 {
		return fmt.Errorf("bvh: split_threshold must be positive; got %d", o.SplitThreshold)
	}
	return nil
}

func (o Options) workerCount() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}
