package raster

import (
	"fmt"
	"image"
	"strconv"
)

// Profile describes a raster dataset: its size, band count, pixel type and
// storage layout. For an output raster it is fixed when the raster is created.
type Profile struct {
	Driver      string
	Width       int
	Height      int
	Count       int
	DType       DType
	NoData      *float64
	BlockWidth  int
	BlockHeight int
	Tiled       bool
	Compress    string
}

// Bounds returns the pixel extent [0,Width)×[0,Height).
func (p Profile) Bounds() image.Rectangle { return image.Rect(0, 0, p.Width, p.Height) }

// HasNoData reports whether a nodata value is defined.
func (p Profile) HasNoData() bool { return p.NoData != nil }

// Validate checks that the profile can describe a raster.
func (p Profile) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("invalid raster size %dx%d", p.Width, p.Height)
	}
	if p.Count <= 0 {
		return fmt.Errorf("invalid band count %d", p.Count)
	}
	if p.DType == Unknown || p.DType.Size() == 0 {
		return fmt.Errorf("%w: %v", ErrUnknownDType, p.DType)
	}
	if p.BlockWidth < 0 || p.BlockHeight < 0 {
		return fmt.Errorf("invalid block size %dx%d", p.BlockWidth, p.BlockHeight)
	}
	return nil
}

// checkWindow validates a band list (1-based) and a window against the profile.
func (p Profile) checkWindow(bands []int, win image.Rectangle) error {
	if len(bands) == 0 {
		return fmt.Errorf("%w: no band selected", ErrBandIndex)
	}
	for _, b := range bands {
		if b < 1 || b > p.Count {
			return fmt.Errorf("%w: band %d not in [1, %d]", ErrBandIndex, b, p.Count)
		}
	}
	if win.Empty() || !win.In(p.Bounds()) {
		return fmt.Errorf("%w: window %v, raster %dx%d", ErrOutOfBounds, win, p.Width, p.Height)
	}
	return nil
}

// AllBands returns the band list [1, 2, ..., Count].
func (p Profile) AllBands() []int {
	bands := make([]int, p.Count)
	for i := range bands {
		bands[i] = i + 1
	}
	return bands
}

// NoDataValue returns a pointer to a copy of v, for use in Profile.NoData.
func NoDataValue(v float64) *float64 { return &v }

// FormatNoData renders a nodata value, or "none" when unset.
func FormatNoData(nd *float64) string {
	if nd == nil {
		return "none"
	}
	return strconv.FormatFloat(*nd, 'g', -1, 64)
}

// ParseNoData is the inverse of FormatNoData. "nan" is accepted.
func ParseNoData(s string) (*float64, error) {
	if s == "" || s == "none" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid nodata %q: %w", s, err)
	}
	return &v, nil
}

// HighestPowerOf2 returns the largest power of two not greater than n (n >= 1).
func HighestPowerOf2(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}
