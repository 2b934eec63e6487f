package processing

import (
	"image"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"

	rimaging "github.com/ironsheep/raster-tools-mcp/internal/imaging"
	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// grayFilter runs an 8-bit image operation on a single band. Values are
// clamped to [0, 255] on the way in and masked pixels stay masked.
func grayFilter(op func(img *image.Gray, args Args) (image.Image, error)) AlgorithmFunc {
	return func(in *raster.Array, args Args) (*raster.Array, error) {
		out := raster.NewArray(in.Bands, in.Height, in.Width, raster.Uint8)
		for b := 0; b < in.Bands; b++ {
			res, err := op(rimaging.GrayBand(in, b), args)
			if err != nil {
				return nil, err
			}
			band := rimaging.FromGray(res)
			copy(out.Data[b*in.Height*in.Width:], band.Data)
		}
		if in.IsMasked() {
			out.Mask = append([]bool(nil), in.Mask...)
		}
		return out, nil
	}
}

func newImageFilter(name, help string, op func(img *image.Gray, args Args) (image.Image, error), extra ...Argument) *Unit {
	return NewUnit(name, grayFilter(op),
		WithMode(PerBand),
		WithDType(raster.Uint8),
		WithProcessingDType(raster.Uint8),
		WithArguments(append([]Argument{KernelSize}, extra...)...),
		WithDocumentation(help, help+" on 8-bit bands"),
	)
}

func radius(args Args) (float64, error) {
	k, err := kernelSize(args)
	if err != nil {
		return 0, err
	}
	return float64(k) / 2, nil
}

// NewGaussianBlur returns a gaussian blur with a radius of kernel_size/2.
func NewGaussianBlur() *Unit {
	return newImageFilter("gaussian_blur", "Apply gaussian blur", func(img *image.Gray, args Args) (image.Image, error) {
		r, err := radius(args)
		if err != nil {
			return nil, err
		}
		return blur.Gaussian(img, r), nil
	})
}

// NewSharpen returns an unsharp mask of strength sigma.
func NewSharpen() *Unit {
	return newImageFilter("sharpen", "Apply unsharp mask sharpening", func(img *image.Gray, args Args) (image.Image, error) {
		sigma, err := args.Float(Sigma.Name, 1)
		if err != nil {
			return nil, err
		}
		return imaging.Sharpen(img, sigma), nil
	}, Sigma)
}

// NewDilate returns a morphological dilation with a radius of kernel_size/2.
func NewDilate() *Unit {
	return newImageFilter("dilate", "Apply morphological dilation", func(img *image.Gray, args Args) (image.Image, error) {
		r, err := radius(args)
		if err != nil {
			return nil, err
		}
		return effect.Dilate(img, r), nil
	})
}

// NewErode returns a morphological erosion with a radius of kernel_size/2.
func NewErode() *Unit {
	return newImageFilter("erode", "Apply morphological erosion", func(img *image.Gray, args Args) (image.Image, error) {
		r, err := radius(args)
		if err != nil {
			return nil, err
		}
		return effect.Erode(img, r), nil
	})
}
