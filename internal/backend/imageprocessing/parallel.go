package imageprocessing

import (
	"runtime"
	"sync"
)

// parallelFor runs fn(y) over y in [0, n) using up to GOMAXPROCS workers.
// Rows are distributed by striding so uneven rows do not pile up on one worker.
func parallelFor(n int, fn func(y int)) {
	if n <= 0 {
		return
	}
	workers := min(runtime.GOMAXPROCS(0), n)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Go(func() {
			for y := w; y < n; y += workers {
				fn(y)
			}
		})
	}
	wg.Wait()
}
