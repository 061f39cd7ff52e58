package raster

import (
	"github.com/anthonynsimon/bild/parallel"
)

// Rows calls fn over contiguous bands of [0, height) concurrently. Each row
// is visited by exactly one call, so writes to disjoint rows never race.
func Rows(height int, fn func(start, end int)) {
	parallel.Line(height, fn)
}

// RowSums runs fn for every row concurrently and returns the per-row
// accumulators. fn receives the row index and the accumulator slot for that
// row. Summing the returned slice in order gives a result that does not
// depend on how rows were scheduled.
func RowSums[T any](height int, fn func(y int, acc *T)) []T {
	acc := make([]T, height)
	Rows(height, func(start, end int) {
		for y := start; y < end; y++ {
			fn(y, &acc[y])
		}
	})
	return acc
}
