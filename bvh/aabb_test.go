package bvh

import (
	"testing"

	"github.com/achilleasa/polaris-bvh/types"
)

func TestGrowEmptyByPoint(t *testing.T) {
	p := types.XYZ(1, -2, 3)
	box := EmptyAabb().GrowPoint(p)
	if box.Min != p || box.Max != p {
		t.Fatalf("expected box [%v, %v]; got [%v, %v]", p, p, box.Min, box.Max)
	}
	if box.IsEmpty() {
		t.Fatal("expected grown box not to be empty")
	}
	if !EmptyAabb().IsEmpty() {
		t.Fatal("expected EmptyAabb to be empty")
	}
}

func TestAreaAndUnion(t *testing.T) {
	a := NewAabb(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1))
	b := NewAabb(types.XYZ(1, 0, 0), types.XYZ(2, 1, 1))

	if got := a.Area(); got != 6 {
		t.Fatalf("expected unit cube area 6; got %f", got)
	}
	u := Union(a, b)
	if u.Min != types.XYZ(0, 0, 0) || u.Max != types.XYZ(2, 1, 1) {
		t.Fatalf("unexpected union [%v, %v]", u.Min, u.Max)
	}
	if got := u.Area(); got != 10 {
		t.Fatalf("expected union area 10; got %f", got)
	}
	if got := EmptyAabb().Area(); got != 0 {
		t.Fatalf("expected empty box area 0; got %f", got)
	}
	if got := u.MaxDim(); got != 0 {
		t.Fatalf("expected max dim 0; got %d", got)
	}
}

func TestIntersect(t *testing.T) {
	box := NewAabb(types.XYZ(-1, -1, -1), types.XYZ(1, 1, 1))

	type spec struct {
		origin, dir types.Vec3
		hit         bool
		tEntry      float32
	}
	specs := []spec{
		{types.XYZ(0, 0, -5), types.XYZ(0, 0, 1), true, 4},
		{types.XYZ(0, 0, 5), types.XYZ(0, 0, -1), true, 4},
		{types.XYZ(3, 0, -5), types.XYZ(0, 0, 1), false, 0},
		{types.XYZ(0, 0, 5), types.XYZ(0, 0, 1), false, 0},
	}

	for specIndex, s := range specs {
		invDir := s.dir.Rcp()
		oxInvDir := s.origin.MulVec(invDir).Neg()
		t0, t1 := box.Intersect(invDir, oxInvDir, 0, 1000)
		hit := t0 <= t1
		if hit != s.hit {
			t.Fatalf("[spec %d] expected hit = %t; got %t (t0 %f t1 %f)", specIndex, s.hit, hit, t0, t1)
		}
		if hit && t0 != s.tEntry {
			t.Fatalf("[spec %d] expected entry %f; got %f", specIndex, s.tEntry, t0)
		}
	}
}

func TestIncludes(t *testing.T) {
	outer := NewAabb(types.XYZ(0, 0, 0), types.XYZ(2, 2, 2))
	if !outer.Includes(NewAabb(types.XYZ(0, 0, 0), types.XYZ(2, 1, 1))) {
		t.Fatal("expected touching box to be included")
	}
	if outer.Includes(NewAabb(types.XYZ(0, 0, 0), types.XYZ(2.1, 1, 1))) {
		t.Fatal("expected overflowing box not to be included")
	}
}
