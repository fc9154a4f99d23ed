package layout

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Render the size of an encoded tree and its optional quad translation.
func Summary(enc *Encoded, qnodes []QNode) string {
	var buf bytes.Buffer

	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Layout", "Nodes", "Size"})
	table.Append([]string{"Binary", fmt.Sprint(len(enc.Nodes)), fmtSize(enc.Nodes)})
	table.Append([]string{"", fmt.Sprintf("%d internal", enc.InternalCount), ""})
	table.Append([]string{"", fmt.Sprintf("%d leaves", enc.LeafCount), ""})
	if qnodes != nil {
		table.Append([]string{"Quad", fmt.Sprint(len(qnodes)), fmtSize(qnodes)})
	}
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtSize(enc.Nodes, qnodes), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of slices and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(items ...interface{}) string {
	totalBytes := 0
	for _, item := range items {
		t := reflect.TypeOf(item)
		v := reflect.ValueOf(item)
		if v.Len() == 0 {
			continue
		}

		totalBytes += int(t.Elem().Size()) * v.Len()
	}
	return FormatBytes(totalBytes)
}

// Format a byte count using the appropriate byte/kb/mb unit.
func FormatBytes(n int) string {
	if n < 1e3 {
		return fmt.Sprintf("%3d bytes", n)
	} else if n < 1e6 {
		return fmt.Sprintf("%3.1f kb", float32(n)/1e3)
	}
	return fmt.Sprintf("%5.1f mb", float32(n)/1e6)
}
