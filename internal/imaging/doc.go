// Package imaging bridges raster arrays and ordinary images.
//
// It converts image files (PNG, JPEG, GIF, BMP, TIFF) into rasters, converts
// single bands to and from 8-bit grayscale images for the image-based
// filters, and renders rasters as previews for humans and MCP clients.
//
// # Coordinate System
//
// As in the raster package, X is the column and Y the row, with (0,0) at the
// top-left corner. Regions are half-open: Min is inclusive, Max exclusive.
// Band numbers in PreviewOptions are 1-based like everywhere else in the
// public API; band indexes of in-memory arrays are 0-based.
//
// # Rendering
//
// Single bands are mapped through a colour Ramp after a percentile contrast
// stretch; three bands are rendered as an RGB composite. Masked and NaN
// pixels are transparent. Ramps blend their stops in CIE L*a*b* space using
// go-colorful.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The other functions are stateless.
package imaging
