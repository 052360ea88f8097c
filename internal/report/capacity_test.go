package report

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPlanCapacity(t *testing.T) {
	l := DefaultLayout()
	cases := []struct {
		current, next int
		blocks        int
	}{
		{0, 0, 0},
		{73, 10, 0},
		{12, 73, 0},
		{74, 0, 1},
		{113, 0, 1},
		{0, 113, 1},
		{114, 20, 2},
		{153, 153, 2},
		{154, 0, 3},
	}
	for _, tc := range cases {
		exp, err := PlanCapacity(l, tc.current, tc.next)
		if err != nil {
			t.Fatalf("%d/%d: %v", tc.current, tc.next, err)
		}
		if len(exp.Blocks) != tc.blocks {
			t.Fatalf("%d/%d: expected %d blocks, got %d", tc.current, tc.next, tc.blocks, len(exp.Blocks))
		}
	}
}

func TestPlanCapacityPlacesBlocksAfterLastRow(t *testing.T) {
	exp, err := PlanCapacity(DefaultLayout(), 114, 0)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	want := []RowRange{{Start: 85, End: 124}, {Start: 125, End: 164}}
	if diff := cmp.Diff(want, exp.Blocks); diff != "" {
		t.Fatalf("blocks mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanCapacityRespectsLimit(t *testing.T) {
	l := DefaultLayout()
	l.MaxExtraBlocks = 2
	if _, err := PlanCapacity(l, 153, 0); err != nil {
		t.Fatalf("two blocks should fit: %v", err)
	}
	_, err := PlanCapacity(l, 154, 0)
	if !errors.Is(err, ErrContentTooLarge) {
		t.Fatalf("expected ErrContentTooLarge, got %v", err)
	}
}

func TestRowPoolExcludesProtectedRows(t *testing.T) {
	l := DefaultLayout()
	for _, needed := range []int{0, 200} {
		exp, err := PlanCapacity(l, needed, 0)
		if err != nil {
			t.Fatalf("plan: %v", err)
		}
		pool := NewRowPool(exp.Regions(l))
		if len(pool) != l.DefaultCapacity()+len(exp.Blocks)*l.BlockSize() {
			t.Fatalf("unexpected pool size %d", len(pool))
		}
		for i, row := range pool {
			if l.Protected.Rows.Contains(row) {
				t.Fatalf("protected row %d in pool", row)
			}
			if i > 0 && row <= pool[i-1] {
				t.Fatalf("pool not ascending at %d", i)
			}
		}
		if pool[0] != 7 || pool[32] != 39 || pool[33] != 45 {
			t.Fatalf("unexpected pool boundaries %d %d %d", pool[0], pool[32], pool[33])
		}
	}
}

func TestNewRowPoolSkipsProtectedOverlap(t *testing.T) {
	pool := NewRowPool([]TemplateRegion{
		{Rows: RowRange{Start: 1, End: 5}, Kind: RegionDataBlock},
		{Rows: RowRange{Start: 3, End: 4}, Kind: RegionProtected},
	})
	if diff := cmp.Diff(RowPool{1, 2, 5}, pool); diff != "" {
		t.Fatalf("pool mismatch (-want +got):\n%s", diff)
	}
}
