package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"

	"github.com/lucasb-eyer/go-colorful"
)

// OverlayWindows draws the outline of each window onto a copy of img.
//
// Windows are given in raster pixel coordinates; size is the raster size that
// img depicts, so outlines are scaled when img is a reduced preview. When
// showIndex is true each window is labelled with its position in the list.
// An invalid lineHex falls back to opaque red.
func OverlayWindows(img image.Image, size image.Point, windows []image.Rectangle, showIndex bool, lineHex string) (*image.NRGBA, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", size.X, size.Y)
	}
	bounds := img.Bounds()
	result := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)

	lineColor, err := parseHexColor(lineHex)
	if err != nil {
		lineColor = color.NRGBA{R: 255, A: 255}
	}

	sx := float64(bounds.Dx()) / float64(size.X)
	sy := float64(bounds.Dy()) / float64(size.Y)
	scale := func(r image.Rectangle) image.Rectangle {
		return image.Rect(
			int(float64(r.Min.X)*sx), int(float64(r.Min.Y)*sy),
			int(float64(r.Max.X)*sx), int(float64(r.Max.Y)*sy),
		)
	}

	labelColor := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	bgColor := color.NRGBA{A: 180}
	for i, w := range windows {
		r := scale(w).Intersect(result.Bounds())
		if r.Empty() {
			continue
		}
		for x := r.Min.X; x < r.Max.X; x++ {
			result.SetNRGBA(x, r.Min.Y, lineColor)
			result.SetNRGBA(x, r.Max.Y-1, lineColor)
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			result.SetNRGBA(r.Min.X, y, lineColor)
			result.SetNRGBA(r.Max.X-1, y, lineColor)
		}
		if showIndex {
			drawLabel(result, r.Min.X+2, r.Min.Y+2, strconv.Itoa(i), labelColor, bgColor)
		}
	}
	return result, nil
}

// parseHexColor parses "#rrggbb" colours.
func parseHexColor(hex string) (color.NRGBA, error) {
	if hex == "" {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, err
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// drawLabel draws digits with a 3x5 pixel font on a filled background.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
	}

	bounds := img.Bounds()
	in := func(px, py int) bool { return image.Pt(px, py).In(bounds) }
	const charWidth = 4

	for dy := -1; dy < 6; dy++ {
		for dx := -1; dx < len(text)*charWidth; dx++ {
			if in(x+dx, y+dy) {
				img.SetNRGBA(x+dx, y+dy, bg)
			}
		}
	}

	cx := x
	for _, ch := range text {
		for row, line := range glyphs[ch] {
			for col, pixel := range line {
				if pixel == '1' && in(cx+col, y+row) {
					img.SetNRGBA(cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
