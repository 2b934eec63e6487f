// Package processing defines the per-window transformations run by the engine.
//
// A Unit bundles an Algorithm with the metadata the engine needs to run it:
// output data type and nodata, the processing Mode (whole stack or one band at
// a time) and the arguments the algorithm declares.
//
// # Algorithms
//
// An Algorithm receives an array of shape [bands, h, w] and the configured
// argument values, and returns an array with the same height and width. In
// WholeStack mode the band count must be preserved; in PerBand mode the
// algorithm receives and returns a single band. Unit.Compute enforces this
// contract and reports violations with ErrShapeMismatch.
//
// # Filters
//
// The package provides the filter units of the filtering tool:
//   - median, sum, mean: square kernel statistics
//   - adaptive_gaussian: edge-preserving recursive smoothing (per band)
//   - gaussian_blur, sharpen, dilate, erode: 8-bit image filters backed by
//     bild and imaging (per band)
//
// Every filter declares a kernel_size argument (default 8). Filters that read
// neighbours need an engine overlap of at least kernel_size/2 pixels for seams
// between windows to disappear.
package processing
