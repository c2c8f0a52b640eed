package images

import (
	"runtime"
	"sync"
)

// Parallel partitions [0, rows) across one goroutine per CPU core and calls
// fn with the bounds of each partition. Small inputs run serially since the
// goroutine overhead isn't worth it for a handful of rows.
func Parallel(rows int, fn func(partStart, partEnd int)) {
	workers := runtime.NumCPU()
	if rows < workers*2 {
		fn(0, rows)
		return
	}

	partSize := rows / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		start := i * partSize
		end := start + partSize
		// Last partition absorbs the remainder.
		if i == workers-1 {
			end = rows
		}
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}
