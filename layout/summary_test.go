package layout

import (
	"strings"
	"testing"
)

func TestFmtSize(t *testing.T) {
	specs := []struct {
		items []interface{}
		exp   string
	}{
		{[]interface{}{make([]Node, 3)}, "192 bytes"},
		{[]interface{}{make([]Node, 1)}, " 64 bytes"},
		{[]interface{}{make([]Node, 100), make([]QNode, 0)}, "6.4 kb"},
		{[]interface{}{make([]QNode, 20000)}, "  1.3 mb"},
	}

	for specIndex, spec := range specs {
		if got := fmtSize(spec.items...); got != spec.exp {
			t.Fatalf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}

func TestSummary(t *testing.T) {
	enc := &Encoded{Nodes: make([]Node, 5), InternalCount: 2, LeafCount: 3}
	out := Summary(enc, make([]QNode, 4))
	for _, exp := range []string{"Binary", "Quad", "2 internal", "576 bytes"} {
		if !strings.Contains(out, exp) {
			t.Fatalf("expected summary to contain %q; got:\n%s", exp, out)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	specs := []struct {
		n   int
		exp string
	}{
		{96, " 96 bytes"},
		{3200, "3.2 kb"},
		{1280000, "  1.3 mb"},
	}
	for specIndex, spec := range specs {
		if got := FormatBytes(spec.n); got != spec.exp {
			t.Fatalf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}
