package calculator

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunks(t *testing.T) {
	tests := []struct {
		name  string
		total int
		n     int
		want  []Chunk
	}{
		{"empty", 0, 4, nil},
		{"even", 8, 4, []Chunk{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"remainder", 10, 4, []Chunk{{0, 3}, {3, 6}, {6, 9}, {9, 10}}},
		{"fewer items than workers", 2, 8, []Chunk{{0, 1}, {1, 2}}},
		{"zero workers", 3, 0, []Chunk{{0, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunks(tt.total, tt.n))
		})
	}
}

func TestParallelCoversEveryIndexOnce(t *testing.T) {
	const total = 1000
	var seen [total]int32
	var sum atomic.Int64

	chunks := Chunks(total, Workers())
	Parallel(chunks, func(_ int, c Chunk) {
		for i := c.Start; i < c.End; i++ {
			atomic.AddInt32(&seen[i], 1)
			sum.Add(int64(i))
		}
	})

	assert.NotEmpty(t, chunks)
	for i := range seen {
		assert.Equal(t, int32(1), seen[i], "index %d", i)
	}
	assert.Equal(t, int64(total*(total-1)/2), sum.Load())
}
