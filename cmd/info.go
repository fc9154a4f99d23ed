package cmd

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/achilleasa/polaris-bvh/analyzer"
	"github.com/achilleasa/polaris-bvh/asset/config"
	"github.com/achilleasa/polaris-bvh/layout"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Print a summary of the tree referenced by an analyzer config.
func ShowInfo(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}
	if ctx.NArg() != 1 {
		return errors.New("info: expected a single config file argument")
	}

	cfg, _, tree, err := loadAnalyzerInput(ctx.Args().First())
	if err != nil {
		return err
	}

	fmt.Print(treeInfo(cfg, tree))
	return nil
}

func treeInfo(cfg *config.Analyzer, tree *analyzer.Tree) string {
	var buf bytes.Buffer

	root := tree.Bounds()
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Property", "Value"})
	table.Append([]string{"BVH file", cfg.BvhPath})
	table.Append([]string{"Format", cfg.Type.String()})
	table.Append([]string{"Size", layout.FormatBytes(cfg.BvhSize())})
	table.Append([]string{"Branching factor", fmt.Sprint(tree.Factor)})
	table.Append([]string{"Nodes", fmt.Sprint(len(tree.Nodes))})
	table.Append([]string{"Triangles", fmt.Sprint(len(tree.Triangles))})
	table.Append([]string{"Bounds min", fmt.Sprintf("%v", root.Min)})
	table.Append([]string{"Bounds max", fmt.Sprintf("%v", root.Max)})
	table.Append([]string{"Valid", fmt.Sprint(tree.IsValid())})
	table.Append([]string{"Rays", fmt.Sprintf("%dx%d (%s)", cfg.Width, cfg.Height, cfg.RaysPath)})
	table.Render()
	return buf.String()
}
