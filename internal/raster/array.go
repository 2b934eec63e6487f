package raster

import (
	"fmt"
	"image"
	"math"
)

// Array is a block of raster pixels with shape [Bands, Height, Width].
//
// Data is band-major then row-major: the value of band b at row y and column
// x is Data[(b*Height+y)*Width+x]. Mask uses the same layout and marks
// invalid (nodata) pixels with true; a nil Mask means every pixel is valid.
//
// DType records which storage type the values represent. Operations that
// produce new values do not cast them; call Cast for that.
type Array struct {
	Bands  int
	Height int
	Width  int
	DType  DType
	Data   []float64
	Mask   []bool
}

// NewArray allocates a zeroed array without a mask.
func NewArray(bands, height, width int, dt DType) *Array {
	if bands < 0 || height < 0 || width < 0 {
		panic(fmt.Sprintf("raster: negative array shape [%d,%d,%d]", bands, height, width))
	}
	return &Array{
		Bands:  bands,
		Height: height,
		Width:  width,
		DType:  dt,
		Data:   make([]float64, bands*height*width),
	}
}

// Shape returns the array dimensions as [bands, height, width].
func (a *Array) Shape() [3]int { return [3]int{a.Bands, a.Height, a.Width} }

// Size returns the spatial size of the array (X = width, Y = height).
func (a *Array) Size() image.Point { return image.Pt(a.Width, a.Height) }

// Index returns the offset of (b, y, x) in Data and Mask.
func (a *Array) Index(b, y, x int) int { return (b*a.Height+y)*a.Width + x }

// At returns the value of band b at row y and column x.
func (a *Array) At(b, y, x int) float64 { return a.Data[a.Index(b, y, x)] }

// Set stores v at band b, row y, column x.
func (a *Array) Set(b, y, x int, v float64) { a.Data[a.Index(b, y, x)] = v }

// Masked reports whether the pixel is marked invalid.
func (a *Array) Masked(b, y, x int) bool {
	return a.Mask != nil && a.Mask[a.Index(b, y, x)]
}

// SetMasked marks or unmarks a pixel as invalid, allocating the mask on
// first use.
func (a *Array) SetMasked(b, y, x int, masked bool) {
	if a.Mask == nil {
		if !masked {
			return
		}
		a.Mask = make([]bool, len(a.Data))
	}
	a.Mask[a.Index(b, y, x)] = masked
}

// IsMasked reports whether at least one pixel is invalid.
func (a *Array) IsMasked() bool {
	for _, m := range a.Mask {
		if m {
			return true
		}
	}
	return false
}

// MaskValue marks every pixel equal to nodata as invalid. A NaN nodata masks
// NaN pixels.
func (a *Array) MaskValue(nodata float64) {
	nan := math.IsNaN(nodata)
	for i, v := range a.Data {
		if v == nodata || (nan && math.IsNaN(v)) {
			if a.Mask == nil {
				a.Mask = make([]bool, len(a.Data))
			}
			a.Mask[i] = true
		}
	}
}

// Clone returns a deep copy of the array.
func (a *Array) Clone() *Array {
	out := &Array{Bands: a.Bands, Height: a.Height, Width: a.Width, DType: a.DType}
	out.Data = append([]float64(nil), a.Data...)
	if a.Mask != nil {
		out.Mask = append([]bool(nil), a.Mask...)
	}
	return out
}

// Cast returns a copy of the array whose values are converted to dt.
func (a *Array) Cast(dt DType) *Array {
	out := a.Clone()
	out.DType = dt
	for i, v := range out.Data {
		out.Data[i] = dt.Cast(v)
	}
	return out
}

// Band returns a single-band copy of band b (0-based).
func (a *Array) Band(b int) *Array {
	if b < 0 || b >= a.Bands {
		panic(fmt.Sprintf("raster: band %d out of range [0,%d)", b, a.Bands))
	}
	n := a.Height * a.Width
	out := &Array{Bands: 1, Height: a.Height, Width: a.Width, DType: a.DType}
	out.Data = append([]float64(nil), a.Data[b*n:(b+1)*n]...)
	if a.Mask != nil {
		out.Mask = append([]bool(nil), a.Mask[b*n:(b+1)*n]...)
	}
	return out
}

// Crop returns a copy of the pixels inside r, expressed in array coordinates
// (X = column, Y = row). r must lie within the array.
func (a *Array) Crop(r image.Rectangle) (*Array, error) {
	if !r.In(image.Rectangle{Max: a.Size()}) {
		return nil, fmt.Errorf("%w: crop %v of %dx%d array", ErrOutOfBounds, r, a.Width, a.Height)
	}
	out := NewArray(a.Bands, r.Dy(), r.Dx(), a.DType)
	hasMask := a.Mask != nil
	if hasMask {
		out.Mask = make([]bool, len(out.Data))
	}
	for b := 0; b < a.Bands; b++ {
		for y := 0; y < out.Height; y++ {
			src := a.Index(b, r.Min.Y+y, r.Min.X)
			dst := out.Index(b, y, 0)
			copy(out.Data[dst:dst+out.Width], a.Data[src:src+out.Width])
			if hasMask {
				copy(out.Mask[dst:dst+out.Width], a.Mask[src:src+out.Width])
			}
		}
	}
	return out, nil
}

// Stack concatenates arrays of identical spatial size along the band axis.
// The result takes the data type of the first array.
func Stack(arrays ...*Array) (*Array, error) {
	if len(arrays) == 0 {
		return nil, fmt.Errorf("%w: nothing to stack", ErrShape)
	}
	h, w := arrays[0].Height, arrays[0].Width
	bands := 0
	masked := false
	for _, a := range arrays {
		if a.Height != h || a.Width != w {
			return nil, fmt.Errorf("%w: cannot stack %dx%d with %dx%d", ErrShape, a.Width, a.Height, w, h)
		}
		bands += a.Bands
		masked = masked || a.Mask != nil
	}
	out := NewArray(bands, h, w, arrays[0].DType)
	if masked {
		out.Mask = make([]bool, len(out.Data))
	}
	off := 0
	for _, a := range arrays {
		copy(out.Data[off:], a.Data)
		if a.Mask != nil {
			copy(out.Mask[off:], a.Mask)
		}
		off += len(a.Data)
	}
	return out, nil
}
