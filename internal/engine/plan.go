package engine

import (
	"image"

	"github.com/ironsheep/raster-tools-mcp/internal/processing"
	"github.com/ironsheep/raster-tools-mcp/internal/raster"
	"github.com/ironsheep/raster-tools-mcp/internal/window"
)

// DefaultCompress is the output compression when the unit sets none.
const DefaultCompress = "lzw"

// WorkItem is one tile of work: a window and the bands it covers. Items are
// created once by Plan and never modified.
type WorkItem struct {
	Index int         `json:"index"`
	Tile  window.Tile `json:"tile"`

	// Bands are the 1-based source bands read for the item.
	Bands []int `json:"bands"`

	// OutBands are the 1-based output bands written by the item, one per
	// entry of Bands.
	OutBands []int `json:"out_bands"`
}

// Plan lists the work items covering an image of the given size. In PerBand
// mode every window is exploded into one item per band; output band i holds
// the result for bands[i-1].
func Plan(size, tile image.Point, overlap int, bands []int, mode processing.Mode) []WorkItem {
	var items []WorkItem
	for t := range window.Sliding(size, tile, image.Pt(overlap, overlap)) {
		switch mode {
		case processing.PerBand:
			for i, b := range bands {
				items = append(items, WorkItem{
					Index:    len(items),
					Tile:     t,
					Bands:    []int{b},
					OutBands: []int{i + 1},
				})
			}
		default:
			out := make([]int, len(bands))
			for i := range out {
				out[i] = i + 1
			}
			items = append(items, WorkItem{
				Index:    len(items),
				Tile:     t,
				Bands:    append([]int(nil), bands...),
				OutBands: out,
			})
		}
	}
	return items
}

// OutputProfile derives the profile of the output raster.
//
// The output has one band per selected band and the source size. Its type is
// the unit's, or float32; its nodata is the unit's, or the source's. Blocks
// match the window size, except along an axis where the raster is not larger
// than the window: there the block is the largest power of two that fits.
// Compression is the unit's, or LZW.
func OutputProfile(src raster.Profile, unit *processing.Unit, bands int, win image.Point) raster.Profile {
	p := raster.Profile{
		Width:       src.Width,
		Height:      src.Height,
		Count:       bands,
		DType:       unit.DType(),
		NoData:      unit.NoData(),
		BlockWidth:  win.X,
		BlockHeight: win.Y,
		Tiled:       true,
		Compress:    unit.Compress(),
	}
	if p.DType == raster.Unknown {
		p.DType = raster.Float32
	}
	if p.NoData == nil && src.NoData != nil {
		p.NoData = raster.NoDataValue(*src.NoData)
	}
	if src.Width <= win.X {
		p.BlockWidth = raster.HighestPowerOf2(src.Width)
	}
	if src.Height <= win.Y {
		p.BlockHeight = raster.HighestPowerOf2(src.Height)
	}
	if p.Compress == "" {
		p.Compress = DefaultCompress
	}
	return p
}
