package processing

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

func TestUnit_Defaults(t *testing.T) {
	u := NewUnit("noop", nil)
	assert.Equal(t, "noop", u.Name())
	assert.Equal(t, WholeStack, u.Mode())
	assert.Equal(t, raster.Unknown, u.DType())
	assert.Equal(t, raster.Unknown, u.ProcessingDType())
	assert.Nil(t, u.NoData())
	assert.Empty(t, u.Compress())
	assert.Empty(t, u.Arguments())

	in := raster.NewArray(1, 2, 2, raster.Uint8)
	out, err := u.Compute(in)
	require.NoError(t, err)
	assert.Same(t, in, out)
}

func TestUnit_Options(t *testing.T) {
	u := NewUnit("x", nil,
		WithMode(PerBand),
		WithDType(raster.Int16),
		WithProcessingDType(raster.Float64),
		WithNoData(-1),
		WithCompress("deflate"),
		WithDocumentation("help", "desc", "alias"),
	)
	assert.Equal(t, PerBand, u.Mode())
	assert.Equal(t, "per-band", u.Mode().String())
	assert.Equal(t, raster.Int16, u.DType())
	assert.Equal(t, raster.Float64, u.ProcessingDType())
	require.NotNil(t, u.NoData())
	assert.Equal(t, -1.0, *u.NoData())
	assert.Equal(t, "deflate", u.Compress())
	assert.Equal(t, "help", u.Help())
	assert.Equal(t, "desc", u.Description())
	assert.Equal(t, []string{"alias"}, u.Aliases())

	id := Identity(raster.Uint16)
	assert.Equal(t, raster.Uint16, id.ProcessingDType(), "processing type falls back to the output type")
}

func TestUnit_Configure(t *testing.T) {
	u := NewUnit("x", nil, WithArguments(KernelSize, Sigma))
	assert.Equal(t, Args{"kernel_size": 8, "sigma": 1.0}, u.Args())

	u.Configure(map[string]any{"kernel_size": 5, "unknown": "ignored"})
	args := u.Args()
	assert.Equal(t, 5, args["kernel_size"])
	assert.NotContains(t, args, "unknown")

	args["kernel_size"] = 99
	assert.Equal(t, 5, u.Args()["kernel_size"], "Args must return a copy")

	assert.Contains(t, u.Usage(), "kernel_size (default 8)")
}

func TestUnit_ComputeContract(t *testing.T) {
	in := raster.NewArray(2, 3, 4, raster.Float32)

	tests := []struct {
		name string
		fn   AlgorithmFunc
	}{
		{"nil result", func(*raster.Array, Args) (*raster.Array, error) { return nil, nil }},
		{"height", func(a *raster.Array, _ Args) (*raster.Array, error) {
			return raster.NewArray(a.Bands, a.Height+1, a.Width, a.DType), nil
		}},
		{"width", func(a *raster.Array, _ Args) (*raster.Array, error) {
			return raster.NewArray(a.Bands, a.Height, a.Width-1, a.DType), nil
		}},
		{"bands", func(a *raster.Array, _ Args) (*raster.Array, error) {
			return raster.NewArray(1, a.Height, a.Width, a.DType), nil
		}},
		{"data length", func(a *raster.Array, _ Args) (*raster.Array, error) {
			out := a.Clone()
			out.Data = out.Data[:3]
			return out, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUnit("bad", tt.fn).Compute(in)
			assert.ErrorIs(t, err, ErrShapeMismatch)
			assert.ErrorContains(t, err, "bad")
		})
	}

	boom := errors.New("boom")
	_, err := NewUnit("failing", AlgorithmFunc(func(*raster.Array, Args) (*raster.Array, error) {
		return nil, boom
	})).Compute(in)
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "failing: boom")
}

func TestArgs(t *testing.T) {
	args := Args{
		"int":    3,
		"float":  3.0,
		"frac":   3.5,
		"string": "4",
		"number": json.Number("6"),
		"bad":    []int{1},
		"nil":    nil,
	}

	for _, name := range []string{"int", "float"} {
		v, err := args.Int(name, 0)
		require.NoError(t, err, name)
		assert.Equal(t, 3, v, name)
	}
	v, err := args.Int("string", 0)
	require.NoError(t, err)
	assert.Equal(t, 4, v)
	v, err = args.Int("number", 0)
	require.NoError(t, err)
	assert.Equal(t, 6, v)
	v, err = args.Int("missing", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	v, err = args.Int("nil", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = args.Int("frac", 0)
	assert.ErrorContains(t, err, "not an integer")
	_, err = args.Float("bad", 0)
	assert.ErrorContains(t, err, "argument bad")

	f, err := args.Float("frac", 0)
	require.NoError(t, err)
	assert.Equal(t, 3.5, f)
}
