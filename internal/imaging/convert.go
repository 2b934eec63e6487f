package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// GrayBand converts band b (0-based) of a into an 8-bit grayscale image.
// Values are rounded and clamped to [0, 255]; NaN becomes 0.
func GrayBand(a *raster.Array, b int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, a.Width, a.Height))
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			img.Pix[y*img.Stride+x] = toByte(a.At(b, y, x))
		}
	}
	return img
}

// FromGray converts any image into a single uint8 band using its luminance.
func FromGray(img image.Image) *raster.Array {
	bounds := img.Bounds()
	out := raster.NewArray(1, bounds.Dy(), bounds.Dx(), raster.Uint8)
	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < out.Height; y++ {
			row := g.Pix[(y+bounds.Min.Y-g.Rect.Min.Y)*g.Stride+(bounds.Min.X-g.Rect.Min.X):]
			for x := 0; x < out.Width; x++ {
				out.Set(0, y, x, float64(row[x]))
			}
		}
		return out
	}
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c := color.GrayModel.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.Gray)
			out.Set(0, y, x, float64(c.Y))
		}
	}
	return out
}

// FromImage converts an image into a uint8 array with one band per channel:
// 1 for grayscale images, 3 for opaque colour images, 4 when an alpha channel
// carries transparency. Colour values are un-premultiplied.
func FromImage(img image.Image) *raster.Array {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return FromGray(img)
	}
	bounds := img.Bounds()
	bands := 3
	if !opaque(img) {
		bands = 4
	}
	out := raster.NewArray(bands, bounds.Dy(), bounds.Dx(), raster.Uint8)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(x+bounds.Min.X, y+bounds.Min.Y)).(color.NRGBA)
			out.Set(0, y, x, float64(c.R))
			out.Set(1, y, x, float64(c.G))
			out.Set(2, y, x, float64(c.B))
			if bands == 4 {
				out.Set(3, y, x, float64(c.A))
			}
		}
	}
	return out
}

func opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

func toByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}
