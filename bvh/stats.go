package bvh

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
)

// Build statistics.
type Stats struct {
	Primitives int
	Nodes      int
	Leaves     int
	Height     int
	Workers    int
	UseSAH     bool
	BuildTime  time.Duration
}

// Render statistics as a table.
func (s Stats) String() string {
	var buf bytes.Buffer

	strategy := "median"
	if s.UseSAH {
		strategy = "SAH"
	}

	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Stat", "Value"})
	table.Append([]string{"Primitives", fmt.Sprint(s.Primitives)})
	table.Append([]string{"Nodes", fmt.Sprint(s.Nodes)})
	table.Append([]string{"Leaves", fmt.Sprint(s.Leaves)})
	table.Append([]string{"Height", fmt.Sprint(s.Height)})
	table.Append([]string{"Split strategy", strategy})
	table.Append([]string{"Workers", fmt.Sprint(s.Workers)})
	table.SetFooter([]string{"Build time", s.BuildTime.String()})

	table.Render()
	return buf.String()
}
