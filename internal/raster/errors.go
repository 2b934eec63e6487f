package raster

import "errors"

// Common errors
var (
	ErrUnknownDType  = errors.New("unknown data type")
	ErrUnknownDriver = errors.New("no driver for path")
	ErrNotRaster     = errors.New("not a raster file")
	ErrOutOfBounds   = errors.New("window outside raster bounds")
	ErrBandIndex     = errors.New("band index out of range")
	ErrShape         = errors.New("array shape mismatch")
	ErrClosed        = errors.New("raster is closed")
	ErrNotFound      = errors.New("raster not found")
)
