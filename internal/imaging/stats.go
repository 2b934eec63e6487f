package imaging

import (
	"fmt"
	"math"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// BandStats summarizes the valid pixels of one band.
type BandStats struct {
	Band  int     `json:"band"` // 1-based
	Valid int     `json:"valid"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// Stats computes per-band statistics, ignoring masked and NaN pixels. Bands
// without a valid pixel report zeros.
func Stats(a *raster.Array) []BandStats {
	n := a.Height * a.Width
	out := make([]BandStats, a.Bands)
	for b := range out {
		s := BandStats{Band: b + 1, Min: math.Inf(1), Max: math.Inf(-1)}
		var sum float64
		for i := b * n; i < (b+1)*n; i++ {
			v := a.Data[i]
			if (a.Mask != nil && a.Mask[i]) || math.IsNaN(v) {
				continue
			}
			s.Valid++
			sum += v
			s.Min = math.Min(s.Min, v)
			s.Max = math.Max(s.Max, v)
		}
		if s.Valid == 0 {
			s.Min, s.Max = 0, 0
		} else {
			s.Mean = sum / float64(s.Valid)
		}
		out[b] = s
	}
	return out
}

// CompareResult describes how two arrays differ.
type CompareResult struct {
	// Identical is true when every value and mask bit match exactly.
	Identical bool `json:"identical"`

	// PixelsDifferent counts values whose absolute difference exceeds the
	// tolerance, or whose mask bits differ.
	PixelsDifferent int `json:"pixels_different"`

	TotalPixels int     `json:"total_pixels"`
	MaxAbsDiff  float64 `json:"max_abs_diff"`
	MeanAbsDiff float64 `json:"mean_abs_diff"`

	// SimilarityScore is 1 - PixelsDifferent/TotalPixels.
	SimilarityScore float64 `json:"similarity_score"`
}

// Compare compares two arrays of the same shape value by value. Pixels
// masked in both arrays are equal; NaN equals NaN.
func Compare(a, b *raster.Array, tolerance float64) (*CompareResult, error) {
	if a.Shape() != b.Shape() {
		return nil, fmt.Errorf("%w: cannot compare %v with %v", raster.ErrShape, a.Shape(), b.Shape())
	}
	res := &CompareResult{TotalPixels: len(a.Data)}
	var total float64
	counted := 0
	for i := range a.Data {
		ma, mb := a.Mask != nil && a.Mask[i], b.Mask != nil && b.Mask[i]
		if ma || mb {
			if ma != mb {
				res.PixelsDifferent++
			}
			continue
		}
		va, vb := a.Data[i], b.Data[i]
		if math.IsNaN(va) || math.IsNaN(vb) {
			if math.IsNaN(va) != math.IsNaN(vb) {
				res.PixelsDifferent++
			}
			continue
		}
		d := math.Abs(va - vb)
		total += d
		counted++
		res.MaxAbsDiff = math.Max(res.MaxAbsDiff, d)
		if d > tolerance {
			res.PixelsDifferent++
		}
	}
	if counted > 0 {
		res.MeanAbsDiff = total / float64(counted)
	}
	res.Identical = res.PixelsDifferent == 0 && res.MaxAbsDiff == 0
	if res.TotalPixels > 0 {
		res.SimilarityScore = math.Round((1-float64(res.PixelsDifferent)/float64(res.TotalPixels))*1000) / 1000
	} else {
		res.SimilarityScore = 1
	}
	return res, nil
}
