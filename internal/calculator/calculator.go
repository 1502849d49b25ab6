package calculator

import (
	"runtime"
	"sync"
)

// Chunk is the half-open index range [Start, End).
type Chunk struct {
	Start, End int
}

// Chunks splits total items into at most n contiguous ranges of near-equal size.
func Chunks(total, n int) []Chunk {
	if total <= 0 {
		return nil
	}
	if n < 1 {
		n = 1
	}
	chunkSize := (total + n - 1) / n

	out := make([]Chunk, 0, n)
	for start := 0; start < total; start += chunkSize {
		end := start + chunkSize
		if end > total {
			end = total
		}
		out = append(out, Chunk{Start: start, End: end})
	}
	return out
}

// Workers is the number of goroutines Parallel should be given chunks for.
func Workers() int {
	if n := runtime.NumCPU(); n > 1 {
		return n
	}
	return 1
}

// Parallel runs fn once per chunk, each on its own goroutine, and waits for
// all of them. i is the chunk's position so results can be stitched back in
// order.
func Parallel(chunks []Chunk, fn func(i int, c Chunk)) {
	var wg sync.WaitGroup
	for i, c := range chunks {
		wg.Add(1)
		go func(i int, c Chunk) {
			defer wg.Done()
			fn(i, c)
		}(i, c)
	}
	wg.Wait()
}
