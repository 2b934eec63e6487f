// Package window partitions raster extents into processing windows.
//
// The package has two layers:
//   - Slices1D and Slices2D plan ranges along one or two axes. They are pure
//     arithmetic and return lazy, restartable sequences.
//   - Sliding turns a 2D plan into Tiles: the window to read from the source,
//     the padding to synthesize where the window leaves the raster, and the
//     window the cropped result is written to.
//
// # Coordinate System
//
// Windows are image.Rectangle values in pixel space with the raster origin at
// (0,0): X is the column, Y is the row. Min is inclusive and Max is exclusive,
// so a window (row_offset, col_offset, height, width) is
// image.Rect(col_offset, row_offset, col_offset+width, row_offset+height).
//
// # Tiling Guarantee
//
// For an image of size W×H, a tile size T and an overlap O with 0 <= O < T/2 on
// both axes, the Write windows produced by Sliding are pairwise disjoint and
// their union is exactly [0,W)×[0,H). Every Read window is the Write window
// grown by O on each side and clamped to the raster, and every Pad records
// exactly what the clamp removed.
package window
