package window

import (
	"fmt"
	"image"
	"iter"
)

// Pad is the number of pixels to synthesize before and after a window along
// one axis.
type Pad struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// IsZero reports whether no padding is needed along the axis.
func (p Pad) IsZero() bool { return p.Before == 0 && p.After == 0 }

// PadSpec holds the padding of a window along both axes.
type PadSpec struct {
	Rows Pad `json:"rows"`
	Cols Pad `json:"cols"`
}

// IsZero reports whether the window lies entirely inside the raster.
func (p PadSpec) IsZero() bool { return p.Rows.IsZero() && p.Cols.IsZero() }

// Tile is one unit of windowed work.
type Tile struct {
	// Read is the window to read from the source, clamped to the raster.
	Read image.Rectangle `json:"read"`

	// Pad is what the clamp removed from the unclamped window. Reading Read
	// and padding it by Pad gives an array the size of the unclamped window.
	Pad PadSpec `json:"pad"`

	// Write is the unclamped window shrunk by the overlap on each side. It is
	// where the cropped result lands in the output raster.
	Write image.Rectangle `json:"write"`
}

// Validate checks a tile size and overlap pair. The overlap must be
// non-negative and strictly smaller than half the tile on each axis.
func Validate(tile, overlap image.Point) error {
	if tile.X <= 0 || tile.Y <= 0 {
		return fmt.Errorf("tile size %dx%d must be positive", tile.X, tile.Y)
	}
	if overlap.X < 0 || overlap.Y < 0 {
		return fmt.Errorf("overlap (%d,%d) must not be negative", overlap.X, overlap.Y)
	}
	if 2*overlap.X >= tile.X || 2*overlap.Y >= tile.Y {
		return fmt.Errorf("overlap (%d,%d) must be less than half the tile size %dx%d",
			overlap.X, overlap.Y, tile.X, tile.Y)
	}
	return nil
}

// Sliding yields the tiles covering an image of the given size.
//
// Raw windows of the tile size are laid out by Slices2D starting at
// (-overlap.X, -overlap.Y), stopping at size+overlap, and shifted by
// tile-2*overlap, so that the write windows (raw windows shrunk by the overlap)
// tile the image with no gaps and no overlaps:
//
//	(-o,-o)
//	   +-----------+   ...   +---------+
//	   | (0,0)     |         |         |
//	   |   ********|*********|*****    |
//	   |   *       |         |    *    |
//	   +-----------+         +---------+
//	       *                      *
//	   +-----------+         +---------+
//	   |   *       |         |    *    |
//	   |   ********|*********|*****    |
//	   |           |         |  (w,h)  |
//	   +-----------+   ...   +---------+
//	                                 (w+o,h+o)
//
// The tiles depend only on the arguments; processing them in any order yields
// the same output. Sliding panics if Validate rejects tile and overlap.
func Sliding(size, tile, overlap image.Point) iter.Seq[Tile] {
	if err := Validate(tile, overlap); err != nil {
		panic("window: " + err.Error())
	}
	bounds := image.Rectangle{Max: size}
	raw := Slices2D(
		tile,
		tile.Sub(overlap.Mul(2)),
		image.Point{}.Sub(overlap),
		size.Add(overlap),
	)
	return func(yield func(Tile) bool) {
		for r := range raw {
			t := Tile{
				Read: r.Intersect(bounds),
				Pad: PadSpec{
					Rows: Pad{Before: max(0, -r.Min.Y), After: max(0, r.Max.Y-size.Y)},
					Cols: Pad{Before: max(0, -r.Min.X), After: max(0, r.Max.X-size.X)},
				},
				Write: image.Rectangle{Min: r.Min.Add(overlap), Max: r.Max.Sub(overlap)},
			}
			if !yield(t) {
				return
			}
		}
	}
}

// Tiles materializes Sliding into a slice.
func Tiles(size, tile, overlap image.Point) []Tile {
	var out []Tile
	for t := range Sliding(size, tile, overlap) {
		out = append(out, t)
	}
	return out
}
