package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// Stop is one key colour of a Ramp, at a position in [0, 1].
type Stop struct {
	Pos   float64 `json:"pos"`
	Color string  `json:"color"` // Hex "#rrggbb"
}

// Ramp maps normalized values in [0, 1] to colours by blending between stops
// in the CIE L*a*b* space, which keeps perceived brightness monotonic.
type Ramp struct {
	Name  string `json:"name"`
	Stops []Stop `json:"stops"`

	colors []colorful.Color
}

var ramps = map[string]*Ramp{
	"gray":    mustRamp("gray", "#000000", "#ffffff"),
	"viridis": mustRamp("viridis", "#440154", "#3b528b", "#21918c", "#5ec962", "#fde725"),
	"terrain": mustRamp("terrain", "#333399", "#0099cc", "#00cc66", "#ffff99", "#996633", "#ffffff"),
	"ndvi":    mustRamp("ndvi", "#a50026", "#f46d43", "#fee08b", "#d9ef8b", "#66bd63", "#006837"),
}

// NewRamp builds a ramp from evenly spaced hex colours.
func NewRamp(name string, hex ...string) (*Ramp, error) {
	if len(hex) < 2 {
		return nil, fmt.Errorf("ramp %s needs at least 2 colours, got %d", name, len(hex))
	}
	r := &Ramp{Name: name}
	for i, h := range hex {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("ramp %s: invalid colour %q: %w", name, h, err)
		}
		pos := float64(i) / float64(len(hex)-1)
		r.colors = append(r.colors, c)
		r.Stops = append(r.Stops, Stop{Pos: pos, Color: c.Hex()})
	}
	return r, nil
}

func mustRamp(name string, hex ...string) *Ramp {
	r, err := NewRamp(name, hex...)
	if err != nil {
		panic(err)
	}
	return r
}

// RampNames returns the names of the built-in ramps, sorted.
func RampNames() []string {
	names := make([]string, 0, len(ramps))
	for n := range ramps {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LookupRamp returns the built-in ramp with the given name; "" selects gray.
func LookupRamp(name string) (*Ramp, error) {
	if name == "" {
		name = "gray"
	}
	r, ok := ramps[name]
	if !ok {
		return nil, fmt.Errorf("unknown colour ramp %q (valid: %v)", name, RampNames())
	}
	return r, nil
}

// At returns the colour for t, clamped to [0, 1].
func (r *Ramp) At(t float64) color.NRGBA {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	n := len(r.colors) - 1
	i := min(int(t*float64(n)), n-1)
	local := t*float64(n) - float64(i)
	c := r.colors[i].BlendLab(r.colors[i+1], local).Clamped()
	cr, cg, cb := c.RGB255()
	return color.NRGBA{R: cr, G: cg, B: cb, A: 255}
}

// Colorize renders band b (0-based) of a through the ramp, stretching
// [lo, hi] onto the full ramp. Masked and NaN pixels are transparent.
func Colorize(a *raster.Array, b int, r *Ramp, lo, hi float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, a.Width, a.Height))
	span := hi - lo
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			v := a.At(b, y, x)
			if a.Masked(b, y, x) || math.IsNaN(v) {
				continue
			}
			t := 0.0
			if span > 0 {
				t = (v - lo) / span
			}
			img.SetNRGBA(x, y, r.At(t))
		}
	}
	return img
}

// Composite renders three bands (0-based) as red, green and blue, each
// stretched linearly between its own [lo, hi]. A pixel masked in any of the
// three bands is transparent.
func Composite(a *raster.Array, bands [3]int, lo, hi [3]float64) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, a.Width, a.Height))
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			var rgb [3]uint8
			masked := false
			for i, b := range bands {
				v := a.At(b, y, x)
				if a.Masked(b, y, x) || math.IsNaN(v) {
					masked = true
					break
				}
				rgb[i] = stretch(v, lo[i], hi[i])
			}
			if masked {
				continue
			}
			img.SetNRGBA(x, y, color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255})
		}
	}
	return img
}

func stretch(v, lo, hi float64) uint8 {
	if hi <= lo {
		return 0
	}
	return toByte((v - lo) / (hi - lo) * 255)
}

// PercentileRange returns the p-th and (100-p)-th percentiles of the valid
// values of band b, for contrast stretching. With no valid value it returns
// (0, 0).
func PercentileRange(a *raster.Array, b int, p float64) (lo, hi float64) {
	n := a.Height * a.Width
	values := make([]float64, 0, n)
	for i := b * n; i < (b+1)*n; i++ {
		v := a.Data[i]
		if (a.Mask != nil && a.Mask[i]) || math.IsNaN(v) {
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return 0, 0
	}
	slices.Sort(values)
	at := func(q float64) float64 {
		i := int(math.Round(q / 100 * float64(len(values)-1)))
		return values[max(0, min(i, len(values)-1))]
	}
	return at(p), at(100 - p)
}
