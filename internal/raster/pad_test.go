package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/raster-tools-mcp/internal/window"
)

// row builds a 1×1×n array.
func row(dt DType, values ...float64) *Array {
	a := NewArray(1, 1, len(values), dt)
	copy(a.Data, values)
	return a
}

func colPad(before, after int) window.PadSpec {
	return window.PadSpec{Cols: window.Pad{Before: before, After: after}}
}

func TestPad_Modes(t *testing.T) {
	tests := []struct {
		mode PadMode
		dt   DType
		in   []float64
		want []float64
	}{
		{PadConstant, Float32, []float64{1, 2, 3}, []float64{0, 0, 1, 2, 3, 0, 0}},
		{PadEdge, Float32, []float64{1, 2, 3}, []float64{1, 1, 1, 2, 3, 3, 3}},
		{PadMaximum, Float32, []float64{1, 5, 3}, []float64{5, 5, 1, 5, 3, 5, 5}},
		{PadMinimum, Float32, []float64{4, 2, 3}, []float64{2, 2, 4, 2, 3, 2, 2}},
		{PadMean, Float32, []float64{1, 2, 4}, []float64{7.0 / 3, 7.0 / 3, 1, 2, 4, 7.0 / 3, 7.0 / 3}},
		{PadMean, Int16, []float64{1, 2, 4}, []float64{2, 2, 1, 2, 4, 2, 2}},
		{PadMedian, Float32, []float64{1, 9, 2, 4}, []float64{3, 3, 1, 9, 2, 4, 3, 3}},
		{PadMedian, Uint8, []float64{1, 2, 4, 9}, []float64{3, 3, 1, 2, 4, 9, 3, 3}},
		{PadReflect, Float32, []float64{1, 2, 3}, []float64{3, 2, 1, 2, 3, 2, 1}},
		{PadSymmetric, Float32, []float64{1, 2, 3}, []float64{2, 1, 1, 2, 3, 3, 2}},
		{PadWrap, Float32, []float64{1, 2, 3}, []float64{2, 3, 1, 2, 3, 1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String()+"/"+tt.dt.String(), func(t *testing.T) {
			out := Pad(row(tt.dt, tt.in...), colPad(2, 2), tt.mode)
			require.Equal(t, [3]int{1, 1, len(tt.want)}, out.Shape())
			assert.InDeltaSlice(t, tt.want, out.Data, 1e-9)
		})
	}
}

func TestPad_ReflectLongerThanLine(t *testing.T) {
	out := Pad(row(Float32, 1, 2, 3), colPad(5, 0), PadReflect)
	assert.Equal(t, []float64{2, 1, 2, 3, 2, 1, 2, 3}, out.Data)

	out = Pad(row(Float32, 7), colPad(2, 2), PadReflect)
	assert.Equal(t, []float64{7, 7, 7, 7, 7}, out.Data)
}

func TestPad_RowsThenColumns(t *testing.T) {
	a := NewArray(1, 2, 2, Float32)
	copy(a.Data, []float64{
		1, 2,
		3, 4,
	})
	spec := window.PadSpec{
		Rows: window.Pad{Before: 1},
		Cols: window.Pad{After: 1},
	}
	out := Pad(a, spec, PadEdge)
	require.Equal(t, [3]int{1, 3, 3}, out.Shape())
	assert.Equal(t, []float64{
		1, 2, 2,
		1, 2, 2,
		3, 4, 4,
	}, out.Data)
}

func TestPad_ZeroSpecReturnsInput(t *testing.T) {
	a := row(Float32, 1, 2)
	assert.Same(t, a, Pad(a, window.PadSpec{}, PadEdge))
}

func TestPad_Mask(t *testing.T) {
	a := row(Float32, 1, 2, 3)
	a.SetMasked(0, 0, 0, true)

	out := Pad(a, colPad(2, 1), PadEdge)
	assert.Equal(t, []bool{true, true, true, false, false, false}, out.Mask)

	out = Pad(a, colPad(2, 1), PadConstant)
	assert.Equal(t, []bool{false, false, true, false, false, false}, out.Mask)
}

func TestPad_MultiBand(t *testing.T) {
	a := NewArray(2, 1, 2, Float32)
	copy(a.Data, []float64{1, 2, 10, 20})
	out := Pad(a, colPad(1, 1), PadWrap)
	assert.Equal(t, []float64{2, 1, 2, 1, 20, 10, 20, 10}, out.Data)
}

func TestParsePadMode(t *testing.T) {
	for _, name := range PadModes() {
		m, err := ParsePadMode(name)
		require.NoError(t, err)
		assert.Equal(t, name, m.String())
	}
	m, err := ParsePadMode("none")
	require.NoError(t, err)
	assert.Equal(t, PadConstant, m)

	_, err = ParsePadMode("mirror")
	assert.Error(t, err)
}
