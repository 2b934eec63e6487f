package raster

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/ironsheep/raster-tools-mcp/internal/window"
)

// PadMode selects how pixels outside an array are synthesized.
type PadMode uint8

const (
	// PadConstant fills with zero.
	PadConstant PadMode = iota
	// PadEdge repeats the nearest edge pixel.
	PadEdge
	// PadMaximum fills with the maximum of the line.
	PadMaximum
	// PadMean fills with the mean of the line.
	PadMean
	// PadMedian fills with the median of the line.
	PadMedian
	// PadMinimum fills with the minimum of the line.
	PadMinimum
	// PadReflect mirrors the line around its edge pixel, which is not repeated.
	PadReflect
	// PadSymmetric mirrors the line including its edge pixel.
	PadSymmetric
	// PadWrap continues with the opposite end of the line.
	PadWrap
)

var padModeNames = [...]string{
	PadConstant:  "constant",
	PadEdge:      "edge",
	PadMaximum:   "maximum",
	PadMean:      "mean",
	PadMedian:    "median",
	PadMinimum:   "minimum",
	PadReflect:   "reflect",
	PadSymmetric: "symmetric",
	PadWrap:      "wrap",
}

// PadModes returns the names of every pad mode.
func PadModes() []string { return append([]string(nil), padModeNames[:]...) }

// String implements fmt.Stringer.
func (m PadMode) String() string {
	if int(m) < len(padModeNames) {
		return padModeNames[m]
	}
	return fmt.Sprintf("PadMode(%d)", m)
}

// ParsePadMode parses a pad mode name. "none" is an alias of "constant".
func ParsePadMode(s string) (PadMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "none" || name == "" {
		return PadConstant, nil
	}
	for i, n := range padModeNames {
		if n == name {
			return PadMode(i), nil
		}
	}
	return PadConstant, fmt.Errorf("unknown pad mode %q (valid: none, %s)", s, strings.Join(padModeNames[:], ", "))
}

// MarshalText implements encoding.TextMarshaler.
func (m PadMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *PadMode) UnmarshalText(b []byte) error {
	v, err := ParsePadMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Pad returns a copy of a extended by spec on each side. Rows are padded
// first, then columns over the row-padded result, so corners take the column
// policy applied to already padded rows.
//
// Statistic modes (maximum, mean, median, minimum) use the whole original
// line. Mean and median are rounded half to even for integer data types.
// The mask, when present, is padded with the same mode; a synthesized mask
// value is invalid whenever the policy yields a non-zero result.
//
// When spec is zero, a is returned unchanged.
func Pad(a *Array, spec window.PadSpec, mode PadMode) *Array {
	if spec.IsZero() {
		return a
	}
	r, c := spec.Rows, spec.Cols
	out := NewArray(a.Bands, a.Height+r.Before+r.After, a.Width+c.Before+c.After, a.DType)
	var mask []float64
	if a.Mask != nil {
		mask = make([]float64, len(out.Data))
	}

	for b := 0; b < a.Bands; b++ {
		for y := 0; y < a.Height; y++ {
			for x := 0; x < a.Width; x++ {
				i := out.Index(b, y+r.Before, x+c.Before)
				out.Data[i] = a.At(b, y, x)
				if mask != nil && a.Masked(b, y, x) {
					mask[i] = 1
				}
			}
		}
	}

	integer := a.DType.IsInteger()
	line := make([]float64, out.Height)
	for b := 0; b < out.Bands; b++ {
		for x := c.Before; x < c.Before+a.Width; x++ {
			padColumn(out.Data, out, b, x, line, r, a.Height, mode, integer)
			if mask != nil {
				padColumn(mask, out, b, x, line, r, a.Height, mode, false)
			}
		}
	}

	for b := 0; b < out.Bands; b++ {
		for y := 0; y < out.Height; y++ {
			start := out.Index(b, y, 0)
			padLine(out.Data[start:start+out.Width], c.Before, a.Width, mode, integer)
			if mask != nil {
				padLine(mask[start:start+out.Width], c.Before, a.Width, mode, false)
			}
		}
	}

	if mask != nil {
		out.Mask = make([]bool, len(mask))
		for i, m := range mask {
			out.Mask[i] = m != 0
		}
	}
	return out
}

// padColumn pads one column of values stored with the layout of out.
func padColumn(values []float64, out *Array, b, x int, line []float64, p window.Pad, n int, mode PadMode, integer bool) {
	if p.IsZero() {
		return
	}
	for y := range line {
		line[y] = values[out.Index(b, y, x)]
	}
	padLine(line, p.Before, n, mode, integer)
	for y := range line {
		values[out.Index(b, y, x)] = line[y]
	}
}

// padLine fills line[:before] and line[before+n:] from the n values stored at
// line[before:before+n].
func padLine(line []float64, before, n int, mode PadMode, integer bool) {
	after := len(line) - before - n
	if (before == 0 && after == 0) || n == 0 {
		return
	}
	inner := line[before : before+n]

	switch mode {
	case PadConstant:
		fillEnds(line, before, n, 0, 0)
	case PadEdge:
		fillEnds(line, before, n, inner[0], inner[n-1])
	case PadMaximum:
		v := slices.Max(inner)
		fillEnds(line, before, n, v, v)
	case PadMinimum:
		v := slices.Min(inner)
		fillEnds(line, before, n, v, v)
	case PadMean:
		var sum float64
		for _, v := range inner {
			sum += v
		}
		v := roundStat(sum/float64(n), integer)
		fillEnds(line, before, n, v, v)
	case PadMedian:
		sorted := slices.Clone(inner)
		slices.Sort(sorted)
		v := sorted[n/2]
		if n%2 == 0 {
			v = (sorted[n/2-1] + sorted[n/2]) / 2
		}
		v = roundStat(v, integer)
		fillEnds(line, before, n, v, v)
	case PadReflect, PadSymmetric, PadWrap:
		for i := 0; i < before; i++ {
			line[i] = inner[periodicIndex(i-before, n, mode)]
		}
		for i := before + n; i < len(line); i++ {
			line[i] = inner[periodicIndex(i-before, n, mode)]
		}
	}
}

func fillEnds(line []float64, before, n int, lo, hi float64) {
	for i := 0; i < before; i++ {
		line[i] = lo
	}
	for i := before + n; i < len(line); i++ {
		line[i] = hi
	}
}

func roundStat(v float64, integer bool) float64 {
	if integer {
		return math.RoundToEven(v)
	}
	return v
}

// periodicIndex maps an index relative to the start of a line of n values to
// the index of the value the mirror or wrap policy places there.
func periodicIndex(i, n int, mode PadMode) int {
	switch mode {
	case PadReflect:
		if n == 1 {
			return 0
		}
		period := 2 * (n - 1)
		m := mod(i, period)
		if m >= n {
			m = period - m
		}
		return m
	case PadSymmetric:
		period := 2 * n
		m := mod(i, period)
		if m >= n {
			m = period - 1 - m
		}
		return m
	}
	return mod(i, n)
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
