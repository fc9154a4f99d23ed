package types

import (
	"math"
	"testing"
)

func TestMinMaxVec3(t *testing.T) {
	a := XYZ(1, -2, 3)
	b := XYZ(-1, 2, 3)

	if got, exp := MinVec3(a, b), XYZ(-1, -2, 3); got != exp {
		t.Fatalf("expected min to be %v; got %v", exp, got)
	}
	if got, exp := MaxVec3(a, b), XYZ(1, 2, 3); got != exp {
		t.Fatalf("expected max to be %v; got %v", exp, got)
	}
}

func TestRcp(t *testing.T) {
	r := XYZ(2, 0, -4).Rcp()
	if r[0] != 0.5 || r[2] != -0.25 {
		t.Fatalf("expected rcp to be [0.5 1e20 -0.25]; got %v", r)
	}
	if math.IsInf(float64(r[1]), 0) || r[1] < 1e19 {
		t.Fatalf("expected rcp of zero component to be a large finite value; got %v", r[1])
	}
}

func TestMaxDim(t *testing.T) {
	specs := []struct {
		in  Vec3
		exp int
	}{
		{XYZ(1, 0, 0), 0},
		{XYZ(0, 2, 1), 1},
		{XYZ(0, 2, 3), 2},
		{XYZ(1, 1, 1), 0},
	}

	for specIndex, spec := range specs {
		if got := spec.in.MaxDim(); got != spec.exp {
			t.Fatalf("[spec %d] expected max dim %d; got %d", specIndex, spec.exp, got)
		}
	}
}

func TestTransformPoint(t *testing.T) {
	m := TRS(XYZ(1, 2, 3), Vec3{}, Splat(2))
	got := m.TransformPoint(XYZ(1, 1, 1))
	exp := XYZ(3, 4, 5)
	if got.Sub(exp).Len() > 1e-5 {
		t.Fatalf("expected transformed point %v; got %v", exp, got)
	}

	dir := m.TransformDir(XYZ(0, 1, 0))
	if dir.Sub(XYZ(0, 2, 0)).Len() > 1e-5 {
		t.Fatalf("expected transformed direction to ignore translation; got %v", dir)
	}

	if !Ident4().IsIdent() {
		t.Fatal("expected Ident4 to be the identity")
	}
}
