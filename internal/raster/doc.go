// Package raster provides the pixel containers and raster I/O used by the
// windowed processing engine.
//
// # Arrays
//
// Array is a band-major, row-major block of pixels stored as float64 together
// with the data type the values represent and an optional validity mask.
// Values are converted to their declared type with DType.Cast, which is how
// the engine reproduces the integer truncation and float32 rounding of the
// on-disk representation.
//
// # Drivers
//
// Rasters are opened through Driver implementations selected by path:
//   - "mem://name" selects the in-memory driver (tests, previews)
//   - ".tif", ".tiff", ".vrt" and ".img" select the GDAL driver when the binary
//     is built with the godal tag
//   - anything else uses the native ".rtr" file driver
//
// A Source reads windows; a Sink writes windows. Sources are cheap to open and
// each worker of the engine opens its own. Sinks are not safe for concurrent
// use and must be driven by a single goroutine.
//
// # Padding
//
// Pad extends an array beyond its edges with one of the PadMode policies
// (constant, edge, maximum, mean, median, minimum, reflect, symmetric, wrap).
// The mask, when present, is padded with the same policy.
package raster
