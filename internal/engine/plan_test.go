package engine

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/raster-tools-mcp/internal/processing"
	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

func TestPlan_WholeStack(t *testing.T) {
	size := image.Pt(10, 7)
	items := Plan(size, image.Pt(4, 4), 1, []int{1, 2, 3}, processing.WholeStack)

	// columns: 1 + ceil((12-4)/2) = 5, rows: 1 + ceil((9-4)/2) = 4
	require.Len(t, items, 20)

	cover := make([]int, size.X*size.Y)
	for i, it := range items {
		assert.Equal(t, i, it.Index)
		assert.Equal(t, []int{1, 2, 3}, it.Bands)
		assert.Equal(t, []int{1, 2, 3}, it.OutBands)
		for y := it.Tile.Write.Min.Y; y < it.Tile.Write.Max.Y; y++ {
			for x := it.Tile.Write.Min.X; x < it.Tile.Write.Max.X; x++ {
				cover[y*size.X+x]++
			}
		}
	}
	for i, n := range cover {
		assert.Equal(t, 1, n, "pixel (%d,%d)", i%size.X, i/size.X)
	}
}

func TestPlan_PerBand(t *testing.T) {
	items := Plan(image.Pt(8, 8), image.Pt(4, 4), 0, []int{3, 1}, processing.PerBand)
	require.Len(t, items, 8)

	for i, it := range items {
		assert.Equal(t, i, it.Index)
		require.Len(t, it.Bands, 1)
		require.Len(t, it.OutBands, 1)
	}
	// each window is exploded in band order before moving on
	assert.Equal(t, []int{3}, items[0].Bands)
	assert.Equal(t, []int{1}, items[0].OutBands)
	assert.Equal(t, []int{1}, items[1].Bands)
	assert.Equal(t, []int{2}, items[1].OutBands)
	assert.Equal(t, items[0].Tile, items[1].Tile)
	assert.NotEqual(t, items[1].Tile, items[2].Tile)
}

func TestPlan_BandsAreNotShared(t *testing.T) {
	bands := []int{1, 2}
	items := Plan(image.Pt(4, 4), image.Pt(2, 2), 0, bands, processing.WholeStack)
	items[0].Bands[0] = 9
	assert.Equal(t, 1, bands[0])
	assert.Equal(t, 1, items[1].Bands[0])
}

func TestOutputProfile(t *testing.T) {
	src := raster.Profile{Width: 300, Height: 100, Count: 4, DType: raster.Int16, NoData: raster.NoDataValue(7)}

	t.Run("defaults", func(t *testing.T) {
		p := OutputProfile(src, processing.Identity(raster.Unknown), 2, image.Pt(256, 256))
		assert.Equal(t, 300, p.Width)
		assert.Equal(t, 100, p.Height)
		assert.Equal(t, 2, p.Count)
		assert.Equal(t, raster.Float32, p.DType)
		require.NotNil(t, p.NoData)
		assert.Equal(t, 7.0, *p.NoData)
		assert.Equal(t, 256, p.BlockWidth)
		assert.Equal(t, 64, p.BlockHeight)
		assert.True(t, p.Tiled)
		assert.Equal(t, DefaultCompress, p.Compress)
	})

	t.Run("unit settings win", func(t *testing.T) {
		u := processing.NewUnit("custom", nil,
			processing.WithDType(raster.Uint8),
			processing.WithNoData(255),
			processing.WithCompress("deflate"))
		p := OutputProfile(src, u, 1, image.Pt(64, 32))
		assert.Equal(t, raster.Uint8, p.DType)
		assert.Equal(t, 255.0, *p.NoData)
		assert.Equal(t, 64, p.BlockWidth)
		assert.Equal(t, 32, p.BlockHeight)
		assert.Equal(t, "deflate", p.Compress)
	})

	t.Run("source nodata is copied", func(t *testing.T) {
		p := OutputProfile(src, processing.Identity(raster.Int16), 1, image.Pt(16, 16))
		*p.NoData = 0
		assert.Equal(t, 7.0, *src.NoData)
	})

	t.Run("no nodata", func(t *testing.T) {
		s := src
		s.NoData = nil
		p := OutputProfile(s, processing.Identity(raster.Int16), 1, image.Pt(512, 512))
		assert.Nil(t, p.NoData)
		assert.Equal(t, 256, p.BlockWidth)
		assert.Equal(t, 64, p.BlockHeight)
	})
}
