// Package parallel splits an index range across goroutines for per-row work
// on large tables.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultThreshold is the row count below which For runs inline.
const DefaultThreshold = 10000

// Ranges divides [0, items) into at most workers contiguous [start, end)
// ranges of near-equal size. workers <= 0 means runtime.NumCPU().
func Ranges(items, workers int) [][2]int {
	if items <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > items {
		workers = items
	}

	chunk := (items + workers - 1) / workers
	out := make([][2]int, 0, workers)
	for start := 0; start < items; start += chunk {
		end := start + chunk
		if end > items {
			end = items
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// For calls fn once per range of [0, items). Ranges run concurrently, one
// goroutine each, when items exceeds threshold; otherwise fn(0, items) runs
// on the calling goroutine. fn must only touch indices inside its range.
func For(items, threshold int, fn func(start, end int)) {
	if items <= 0 {
		return
	}
	if items <= threshold {
		fn(0, items)
		return
	}

	var wg sync.WaitGroup
	for _, r := range Ranges(items, 0) {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(r[0], r[1])
	}
	wg.Wait()
}
