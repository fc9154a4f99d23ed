package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/achilleasa/polaris-bvh/bvh"
)

// Overlay build options from a TOML document onto opts. Keys that are not
// present keep their current value; unknown keys are rejected.
//
// Example:
//
//	use_sah = true
//	num_bins = 32
//	traversal_cost = 10.0
//	split_threshold = 4096
func LoadBuildOptions(r io.Reader, opts *bvh.Options) error {
	md, err := toml.NewDecoder(r).Decode(opts)
	if err != nil {
		return fmt.Errorf("config: could not parse build options: %s", err)
	}

	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return fmt.Errorf("config: unknown build options: %s", strings.Join(keys, ", "))
	}

	return opts.Validate()
}
