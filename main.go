package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/achilleasa/polaris-bvh/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	rayFlags := []cli.Flag{
		cli.IntFlag{
			Name:  "width",
			Value: 512,
			Usage: "ray grid width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 512,
			Usage: "ray grid height",
		},
	}

	app := cli.NewApp()
	app.Name = "polaris-bvh"
	app.Usage = "build, encode and analyze bounding volume hierarchies"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set log level (debug, info, notice, warning, error)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build a bvh for a wavefront obj file",
			Description: `
Parse geometry from a wavefront obj file, build a BVH tree over the triangles
of every mesh instance and encode it with one triangle per leaf.

The encoded nodes are written to <out>.bvh together with a primary ray grid
(<out>.rays) and an analyzer config (<out>.cfg) which can be supplied as an
argument to the analyze command.`,
			ArgsUsage: "scene.obj",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "config, c",
					Usage: "TOML file with build options",
				},
				cli.StringFlag{
					Name:  "format, f",
					Value: "vkbvh2",
					Usage: "node layout (vkbvh2, dx12bvh2, qbvh)",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output file prefix; defaults to the obj file name",
				},
				cli.IntFlag{
					Name:  "workers",
					Usage: "number of build workers; 0 uses all cpus",
				},
				cli.IntFlag{
					Name:  "bins",
					Usage: "number of SAH bins per axis",
				},
				cli.BoolFlag{
					Name:  "median",
					Usage: "split at the centroid midpoint instead of using SAH",
				},
			}, rayFlags...),
			Action: cmd.BuildBvh,
		},
		{
			Name:      "rays",
			Usage:     "generate a primary ray grid for a wavefront obj file",
			ArgsUsage: "scene.obj",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "ray file; defaults to the obj file name with a .rays extension",
				},
			}, rayFlags...),
			Action: cmd.GenerateRayFile,
		},
		{
			Name:  "analyze",
			Usage: "validate a bvh and measure its traversal cost",
			Description: `
Load the bvh and ray files referenced by an analyzer config, validate the tree,
estimate its SAH cost and trace every ray against it. Aggregate statistics are
printed to stdout.`,
			ArgsUsage: "analyzer.cfg",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "workers",
					Value: runtime.NumCPU(),
					Usage: "number of tracing workers",
				},
				cli.BoolFlag{
					Name:  "any-hit",
					Usage: "stop traversal at the first hit",
				},
				cli.StringFlag{
					Name:  "heatmaps",
					Usage: "write hit and aabb test images into this folder",
				},
			},
			Action: cmd.Analyze,
		},
		{
			Name:      "info",
			Usage:     "print a summary of the bvh referenced by an analyzer config",
			ArgsUsage: "analyzer.cfg",
			Action:    cmd.ShowInfo,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}
