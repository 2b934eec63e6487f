package processing

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// KernelSize is the argument every filter declares.
var KernelSize = Argument{
	Name:    "kernel_size",
	Default: 8,
	Help:    "Kernel size of the filter function, e.g. 3 means a square of 3x3 pixels on which the filter function is computed",
}

// Sigma is the smoothing strength of adaptive_gaussian and sharpen.
var Sigma = Argument{
	Name:    "sigma",
	Default: 1.0,
	Help:    "Standard deviation of the gaussian weighting",
}

// filterNoData is the nodata value of filter outputs.
const filterNoData = -2.0

// NewFilter creates a filter unit with float32 output, nodata -2 and the
// kernel_size argument.
func NewFilter(name string, algorithm Algorithm, opts ...Option) *Unit {
	base := []Option{
		WithDType(raster.Float32),
		WithNoData(filterNoData),
		WithArguments(KernelSize),
		WithDocumentation("Apply "+name+" filter", "Apply "+name+" filter"),
	}
	return NewUnit(name, algorithm, append(base, opts...)...)
}

// Filters returns a fresh instance of every built-in filter.
func Filters() []*Unit {
	return []*Unit{
		NewFilter("median", AlgorithmFunc(Median),
			WithDocumentation("Apply median filter", "Apply a median filter over a square kernel")),
		NewFilter("sum", AlgorithmFunc(LocalSum),
			WithDocumentation("Apply local sum filter", "Apply a local sum filter using integral image method")),
		NewFilter("mean", AlgorithmFunc(LocalMean),
			WithDocumentation("Apply local mean filter", "Apply a local mean filter using integral image method")),
		NewFilter("adaptive_gaussian", AlgorithmFunc(AdaptiveGaussian),
			WithMode(PerBand),
			WithArguments(Sigma),
			WithDocumentation("Apply adaptive gaussian filter",
				"Apply an adaptive (Local gaussian of 3x3) recursive filter on the input image")),
		NewGaussianBlur(),
		NewSharpen(),
		NewDilate(),
		NewErode(),
	}
}

// LookupFilter returns a fresh instance of the filter with the given name or
// alias.
func LookupFilter(name string) (*Unit, error) {
	var names []string
	for _, f := range Filters() {
		if f.Name() == name || slices.Contains(f.aliases, name) {
			return f, nil
		}
		names = append(names, f.Name())
	}
	return nil, fmt.Errorf("unknown filter %q (valid: %s)", name, strings.Join(names, ", "))
}

func kernelSize(args Args) (int, error) {
	k, err := args.Int(KernelSize.Name, 8)
	if err != nil {
		return 0, err
	}
	if k < 1 {
		return 0, fmt.Errorf("kernel_size must be at least 1, got %d", k)
	}
	return k, nil
}

// Median replaces each pixel by the median of the k×k kernel around it. The
// kernel spans [-k/2, k-k/2) around the pixel and the image is mirrored
// (symmetric) beyond its edges. For even kernels the upper median is used.
func Median(in *raster.Array, args Args) (*raster.Array, error) {
	k, err := kernelSize(args)
	if err != nil {
		return nil, err
	}
	out := raster.NewArray(in.Bands, in.Height, in.Width, in.DType)
	lo := -(k / 2)
	values := make([]float64, 0, k*k)
	for b := 0; b < in.Bands; b++ {
		for y := 0; y < in.Height; y++ {
			for x := 0; x < in.Width; x++ {
				values = values[:0]
				for dy := lo; dy < lo+k; dy++ {
					yy := mirror(y+dy, in.Height)
					for dx := lo; dx < lo+k; dx++ {
						values = append(values, in.At(b, yy, mirror(x+dx, in.Width)))
					}
				}
				slices.Sort(values)
				out.Set(b, y, x, values[len(values)/2])
			}
		}
	}
	return out, nil
}

// LocalSum computes, for each pixel, the sum of the k×k kernel around it with
// an integral image. Pixels closer than the kernel to the border are set to 0;
// NaN and masked values count as 0.
func LocalSum(in *raster.Array, args Args) (*raster.Array, error) {
	k, err := kernelSize(args)
	if err != nil {
		return nil, err
	}
	return localSum(in, k, func(b, y, x int) float64 {
		v := in.At(b, y, x)
		if math.IsNaN(v) || in.Masked(b, y, x) {
			return 0
		}
		return v
	}), nil
}

// LocalMean divides the local sum by the number of valid pixels in the
// kernel. Where no pixel is valid the result is 0.
func LocalMean(in *raster.Array, args Args) (*raster.Array, error) {
	k, err := kernelSize(args)
	if err != nil {
		return nil, err
	}
	sum, err := LocalSum(in, args)
	if err != nil {
		return nil, err
	}
	if k == 1 {
		return sum, nil
	}
	var valid *raster.Array
	if in.IsMasked() {
		valid = localSum(in, k, func(b, y, x int) float64 {
			if in.Masked(b, y, x) {
				return 0
			}
			return 1
		})
	}
	out := raster.NewArray(in.Bands, in.Height, in.Width, in.DType)
	full := float64(k * k)
	for i, s := range sum.Data {
		n := full
		if valid != nil {
			n = valid.Data[i]
		}
		if n != 0 {
			out.Data[i] = s / n
		}
	}
	return out, nil
}

// localSum sums value(b, y, x) over k×k kernels. The kernel of pixel (y, x)
// covers rows y-(k+1)/2+1 .. y+k-(k+1)/2, and likewise for columns.
func localSum(in *raster.Array, k int, value func(b, y, x int) float64) *raster.Array {
	out := raster.NewArray(in.Bands, in.Height, in.Width, in.DType)
	if k == 1 {
		for b := 0; b < in.Bands; b++ {
			for y := 0; y < in.Height; y++ {
				for x := 0; x < in.Width; x++ {
					out.Set(b, y, x, value(b, y, x))
				}
			}
		}
		return out
	}

	h, w := in.Height, in.Width
	ii := make([]float64, h*w)
	posd := (k + 1) / 2
	posf := k - posd
	for b := 0; b < in.Bands; b++ {
		for y := 0; y < h; y++ {
			var line float64
			for x := 0; x < w; x++ {
				line += value(b, y, x)
				ii[y*w+x] = line
				if y > 0 {
					ii[y*w+x] += ii[(y-1)*w+x]
				}
			}
		}
		for y := posd; y < h-posf; y++ {
			for x := posd; x < w-posf; x++ {
				y0, x0 := y-posd, x-posd
				y1, x1 := y0+k, x0+k
				out.Set(b, y, x, ii[y0*w+x0]+ii[y1*w+x1]-ii[y0*w+x1]-ii[y1*w+x0])
			}
		}
	}
	return out
}

// AdaptiveGaussian applies an edge-preserving smoothing to a single band:
// each interior pixel is replaced, kernel_size times, by the mean of its 3×3
// neighbourhood weighted by exp(-(gx²+gy²)/(2σ²)), where gx and gy are the
// central differences of the input. Border pixels are left unchanged.
func AdaptiveGaussian(in *raster.Array, args Args) (*raster.Array, error) {
	if in.Bands != 1 {
		return nil, fmt.Errorf("adaptive_gaussian only accepts arrays with a single band, got %d", in.Bands)
	}
	k, err := kernelSize(args)
	if err != nil {
		return nil, err
	}
	sigma, err := args.Float(Sigma.Name, 1)
	if err != nil {
		return nil, err
	}
	out := in.Clone()
	h, w := in.Height-2, in.Width-2
	if h <= 0 || w <= 0 {
		return out, nil
	}

	weights := make([]float64, h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := in.At(0, y+1, x) - in.At(0, y+1, x+2)
			gy := in.At(0, y, x+1) - in.At(0, y+2, x+1)
			weights[y*w+x] = math.Exp(-(gx*gx + gy*gy) / (2 * sigma * sigma))
		}
	}
	wsum := box3(weights, h, w)
	eps := epsilon(in.DType)
	for i := range wsum {
		wsum[i] += eps
	}

	prod := make([]float64, h*w)
	for iter := 0; iter < k; iter++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				prod[y*w+x] = weights[y*w+x] * out.At(0, y+1, x+1)
			}
		}
		conv := box3(prod, h, w)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out.Set(0, y+1, x+1, conv[y*w+x]/wsum[y*w+x])
			}
		}
	}
	return out, nil
}

// box3 sums each 3×3 neighbourhood of an h×w grid, mirroring the edges.
func box3(values []float64, h, w int) []float64 {
	out := make([]float64, h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var s float64
			for dy := -1; dy <= 1; dy++ {
				yy := mirror(y+dy, h)
				for dx := -1; dx <= 1; dx++ {
					s += values[yy*w+mirror(x+dx, w)]
				}
			}
			out[y*w+x] = s
		}
	}
	return out
}

// mirror maps i onto [0, n) reflecting about the edges, edge pixel included.
func mirror(i, n int) int {
	period := 2 * n
	m := i % period
	if m < 0 {
		m += period
	}
	if m >= n {
		m = period - 1 - m
	}
	return m
}

func epsilon(dt raster.DType) float64 {
	if dt == raster.Float32 {
		return 0x1p-23
	}
	return 0x1p-52
}
