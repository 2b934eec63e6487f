package raster

import (
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ramp builds an array whose value at (b, y, x) is b*1000 + y*w + x.
func ramp(bands, h, w int, dt DType) *Array {
	a := NewArray(bands, h, w, dt)
	for b := 0; b < bands; b++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				a.Set(b, y, x, float64(b*1000+y*w+x))
			}
		}
	}
	return a
}

func testProfile(dt DType) Profile {
	return Profile{Width: 7, Height: 5, Count: 2, DType: dt, BlockWidth: 4, BlockHeight: 4, Tiled: true, Compress: "lzw"}
}

func TestDrivers_WindowRoundTrip(t *testing.T) {
	paths := map[string]string{
		"native": filepath.Join(t.TempDir(), "out.rtr"),
		"memory": MemPrefix + t.Name(),
	}
	for name, path := range paths {
		t.Run(name, func(t *testing.T) {
			p := testProfile(Int32)
			require.NoError(t, Create(path, p))

			dst, err := Update(path)
			require.NoError(t, err)
			full := ramp(2, 5, 7, Int32)
			// write the raster as two disjoint windows
			left, err := full.Crop(image.Rect(0, 0, 3, 5))
			require.NoError(t, err)
			right, err := full.Crop(image.Rect(3, 0, 7, 5))
			require.NoError(t, err)
			require.NoError(t, dst.Write([]int{1, 2}, image.Rect(0, 0, 3, 5), left))
			require.NoError(t, dst.Write([]int{1, 2}, image.Rect(3, 0, 7, 5), right))
			require.NoError(t, dst.Close())

			src, err := Open(path)
			require.NoError(t, err)
			defer src.Close()

			got := src.Profile()
			assert.Equal(t, 7, got.Width)
			assert.Equal(t, 5, got.Height)
			assert.Equal(t, 2, got.Count)
			assert.Equal(t, Int32, got.DType)

			all, err := src.Read([]int{1, 2}, got.Bounds())
			require.NoError(t, err)
			assert.Equal(t, full.Data, all.Data)
			assert.Nil(t, all.Mask)

			sub, err := src.Read([]int{2}, image.Rect(1, 2, 4, 4))
			require.NoError(t, err)
			assert.Equal(t, [3]int{1, 2, 3}, sub.Shape())
			assert.Equal(t, []float64{1015, 1016, 1017, 1022, 1023, 1024}, sub.Data)
		})
	}
}

func TestDrivers_NoDataAndMask(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nodata.rtr")
	p := Profile{Width: 3, Height: 1, Count: 1, DType: Float32, NoData: NoDataValue(-9999)}
	require.NoError(t, Create(path, p))

	src, err := Open(path)
	require.NoError(t, err)
	unwritten, err := src.Read([]int{1}, p.Bounds())
	require.NoError(t, err)
	require.NoError(t, src.Close())
	assert.Equal(t, []float64{-9999, -9999, -9999}, unwritten.Data)
	assert.Equal(t, []bool{true, true, true}, unwritten.Mask)

	data := NewArray(1, 1, 3, Float32)
	copy(data.Data, []float64{1.5, 2.5, 3.5})
	data.SetMasked(0, 0, 1, true)

	dst, err := Update(path)
	require.NoError(t, err)
	require.NoError(t, dst.Write([]int{1}, p.Bounds(), data))
	require.NoError(t, dst.Close())

	got, _, err := ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -9999, 3.5}, got.Data)
	assert.Equal(t, []bool{false, true, false}, got.Mask)
}

func TestDrivers_NaNNoData(t *testing.T) {
	path := MemPrefix + t.Name()
	defer Memory.Evict(path)

	a := NewArray(1, 1, 2, Float64)
	a.Data[0] = math.NaN()
	a.Data[1] = 4
	Memory.Put(path, Profile{NoData: NoDataValue(math.NaN())}, a)

	got, p, err := ReadAll(path)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(*p.NoData))
	assert.Equal(t, []bool{true, false}, got.Mask)
}

func TestDrivers_WriteCastsValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cast.rtr")
	a := NewArray(1, 1, 4, Float64)
	copy(a.Data, []float64{-3.7, 12.9, 300, 255.5})
	require.NoError(t, WriteAll(path, Profile{DType: Uint8}, a))

	got, p, err := ReadAll(path)
	require.NoError(t, err)
	assert.Equal(t, Uint8, p.DType)
	assert.Equal(t, []float64{0, 12, 255, 255}, got.Data)
}

func TestDrivers_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "err.rtr")
	p := testProfile(Float32)
	require.NoError(t, Create(path, p))

	src, err := Open(path)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Read([]int{3}, image.Rect(0, 0, 1, 1))
	assert.ErrorIs(t, err, ErrBandIndex)
	_, err = src.Read([]int{1}, image.Rect(5, 0, 8, 1))
	assert.ErrorIs(t, err, ErrOutOfBounds)

	dst, err := Update(path)
	require.NoError(t, err)
	err = dst.Write([]int{1}, image.Rect(0, 0, 2, 2), NewArray(1, 3, 2, Float32))
	assert.ErrorIs(t, err, ErrShape)
	require.NoError(t, dst.Close())
	assert.ErrorIs(t, dst.Write([]int{1}, image.Rect(0, 0, 1, 1), NewArray(1, 1, 1, Float32)), ErrClosed)

	notRaster := filepath.Join(t.TempDir(), "plain.rtr")
	require.NoError(t, os.WriteFile(notRaster, []byte("hello world"), 0o644))
	_, err = Open(notRaster)
	assert.ErrorIs(t, err, ErrNotRaster)

	_, err = Open(MemPrefix + "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, Create(path, Profile{Width: 0, Height: 1, Count: 1, DType: Uint8}))
}

func TestLookup(t *testing.T) {
	assert.Equal(t, "MEM", Lookup("mem://x").Name())
	assert.Equal(t, "RTR", Lookup("/tmp/x.rtr").Name())
	assert.Contains(t, Drivers(), "RTR")
	assert.Contains(t, Drivers(), "MEM")
}

func TestMemStore_LoadEvictClear(t *testing.T) {
	s := NewMemStore()
	s.Put("a", Profile{}, ramp(1, 2, 2, Uint16))
	s.Put("b", Profile{}, ramp(1, 2, 2, Uint16))

	a, p, ok := s.Load("a")
	require.True(t, ok)
	assert.Equal(t, Uint16, p.DType)
	assert.Equal(t, []float64{0, 1, 2, 3}, a.Data)

	// Load returns a copy.
	a.Data[0] = 42
	again, _, _ := s.Load("a")
	assert.Equal(t, float64(0), again.Data[0])

	s.Evict("a")
	_, _, ok = s.Load("a")
	assert.False(t, ok)

	s.Clear()
	_, _, ok = s.Load("b")
	assert.False(t, ok)
}
