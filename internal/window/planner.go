package window

import (
	"fmt"
	"image"
	"iter"
)

// Span is a half-open range [Start, Stop) along one axis.
type Span struct {
	Start int `json:"start"`
	Stop  int `json:"stop"`
}

// Len returns the number of pixels covered by the span.
func (s Span) Len() int { return s.Stop - s.Start }

// Count1D returns how many windows Slices1D yields for the same arguments:
// ceil(1 + max(0, stop-start-width) / shift).
func Count1D(width, shift, start, stop int) int {
	if shift <= 0 {
		panic(fmt.Sprintf("window: shift must be positive, got %d", shift))
	}
	rest := stop - start - width
	if rest <= 0 {
		return 1
	}
	return 1 + (rest+shift-1)/shift
}

// Slices1D yields the windows of width pixels, shifted by shift pixels, that
// cover [start, stop).
//
// Window i is [start + i*shift, min(start + width + i*shift, stop)), so the
// last window always ends exactly at stop and may be narrower than width.
// A width smaller than shift leaves gaps between windows; a width larger than
// shift makes consecutive windows overlap.
//
// The sequence is finite and can be ranged over any number of times.
// Slices1D panics if shift is not positive.
func Slices1D(width, shift, start, stop int) iter.Seq[Span] {
	n := Count1D(width, shift, start, stop)
	return func(yield func(Span) bool) {
		for i := 0; i < n; i++ {
			lo := start + i*shift
			if !yield(Span{Start: lo, Stop: min(lo+width, stop)}) {
				return
			}
		}
	}
}

// Slices2D is the row-major cross product of Slices1D along both axes.
//
// size, shift, start and stop carry the column parameter in X and the row
// parameter in Y. For each row span every column span is visited before moving
// to the next row. Each yielded rectangle spans
// [col_min, col_max) × [row_min, row_max).
func Slices2D(size, shift, start, stop image.Point) iter.Seq[image.Rectangle] {
	cols := Slices1D(size.X, shift.X, start.X, stop.X)
	rows := Slices1D(size.Y, shift.Y, start.Y, stop.Y)
	return func(yield func(image.Rectangle) bool) {
		for r := range rows {
			for c := range cols {
				if !yield(image.Rect(c.Start, r.Start, c.Stop, r.Stop)) {
					return
				}
			}
		}
	}
}
