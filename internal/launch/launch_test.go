package launch

import (
	"sync/atomic"
	"testing"
)

func TestGrid1DRoundsUp(t *testing.T) {
	tests := []struct {
		total     int
		groupSize int
		groups    int
		workers   int
	}{
		{400, 1, 400, 400},
		{400, 32, 13, 416}, // Last group overshoots
		{400, 400, 1, 400},
		{1, 64, 1, 64},
		{0, 8, 0, 0},
	}

	for _, tt := range tests {
		g := Grid1D(tt.total, tt.groupSize)
		if g.Groups != tt.groups {
			t.Errorf("Grid1D(%d, %d).Groups = %d, want %d", tt.total, tt.groupSize, g.Groups, tt.groups)
		}
		if g.Workers() != tt.workers {
			t.Errorf("Grid1D(%d, %d).Workers() = %d, want %d", tt.total, tt.groupSize, g.Workers(), tt.workers)
		}
	}
}

func TestRunSequentialCoversAllIndices(t *testing.T) {
	grid := Grid1D(100, 16)
	seen := make([]bool, grid.Workers())

	err := Run(grid, Sequential(), func(idx int) {
		seen[idx] = true
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i, ok := range seen {
		if !ok {
			t.Fatalf("index %d never invoked", i)
		}
	}
}

func TestRunParallelInvokesEachIndexOnce(t *testing.T) {
	grid := Grid1D(10000, 64)
	counts := make([]atomic.Int32, grid.Workers())

	err := Run(grid, DefaultConfig(), func(idx int) {
		counts[idx].Add(1)
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for i := range counts {
		if n := counts[i].Load(); n != 1 {
			t.Fatalf("index %d invoked %d times", i, n)
		}
	}
}

func TestRunParallelMatchesSequential(t *testing.T) {
	grid := Grid1D(4096, 32)

	seq := make([]int32, grid.Workers())
	if err := Run(grid, Sequential(), func(idx int) {
		seq[idx] = int32(idx * 3)
	}); err != nil {
		t.Fatalf("sequential Run failed: %v", err)
	}

	par := make([]int32, grid.Workers())
	if err := Run(grid, DefaultConfig(), func(idx int) {
		par[idx] = int32(idx * 3)
	}); err != nil {
		t.Fatalf("parallel Run failed: %v", err)
	}

	for i := range seq {
		if seq[i] != par[i] {
			t.Fatalf("mismatch at %d: sequential %d, parallel %d", i, seq[i], par[i])
		}
	}
}

func TestRunEmptyGrid(t *testing.T) {
	invoked := false
	err := Run(Grid1D(0, 8), DefaultConfig(), func(idx int) {
		invoked = true
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if invoked {
		t.Error("kernel invoked on an empty grid")
	}
}
