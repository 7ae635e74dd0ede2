// Package launch maps a logical 1-D index space onto parallel execution groups.
package launch

import (
	"fmt"
	"runtime"
	"sync"
)

// Grid describes a 1-D launch: Groups execution groups of GroupSize logical
// workers each. Groups*GroupSize may overshoot the element count the kernel
// was sized for; kernels must ignore workers whose index is out of range.
type Grid struct {
	Groups    int
	GroupSize int
}

// Grid1D partitions total logical workers into groups of groupSize,
// rounding the group count up.
func Grid1D(total, groupSize int) Grid {
	if groupSize < 1 {
		groupSize = 1
	}
	return Grid{
		Groups:    (total + groupSize - 1) / groupSize,
		GroupSize: groupSize,
	}
}

// Workers returns the total number of logical workers in the grid.
func (g Grid) Workers() int {
	return g.Groups * g.GroupSize
}

// Config controls how a grid is executed on the host.
type Config struct {
	Parallel   bool // Whether groups run on multiple goroutines.
	NumWorkers int  // Number of worker goroutines to use.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Parallel:   n > 1,
		NumWorkers: n,
	}
}

// Sequential returns a config that runs every group on the calling goroutine,
// in logical index order. Used by the reference backend.
func Sequential() Config {
	return Config{Parallel: false, NumWorkers: 1}
}

// Run executes kernel(idx) for every logical worker index in the grid.
// Workers never synchronize with each other; each must write only its own
// disjoint output slot. With cfg.Parallel, whole groups are distributed
// across goroutines so a group never spans two of them.
func Run(grid Grid, cfg Config, kernel func(idx int)) error {
	if grid.Groups < 0 || grid.GroupSize < 1 {
		return fmt.Errorf("launch: invalid grid %+v", grid)
	}

	if !cfg.Parallel || grid.Groups <= 1 {
		for idx := 0; idx < grid.Workers(); idx++ {
			kernel(idx)
		}
		return nil
	}

	workers := cfg.NumWorkers
	if workers < 1 {
		workers = runtime.NumCPU()
	}

	var wg sync.WaitGroup
	groupChunk := (grid.Groups + workers - 1) / workers

	for start := 0; start < grid.Groups; start += groupChunk {
		end := min(start+groupChunk, grid.Groups)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for idx := s * grid.GroupSize; idx < e*grid.GroupSize; idx++ {
				kernel(idx)
			}
		}(start, end)
	}
	wg.Wait()
	return nil
}
