package volume

import (
	"runtime"
	"sync"
)

// minSlabs is the smallest number of slabs worth splitting across workers.
const minSlabs = 8

// parallelFor runs fn over contiguous chunks of [0, n), one goroutine per
// chunk, and returns when all are done. Small ranges run inline.
func parallelFor(n, minChunk int, fn func(start, end int)) {
	workers := runtime.NumCPU()
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}
	workers = min(workers, n/minChunk)
	chunk := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
