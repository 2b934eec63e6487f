package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// memRaster stores a gradient raster in memory and returns its path.
func memRaster(t *testing.T, bands, height, width int) string {
	t.Helper()
	path := raster.MemPrefix + t.Name()
	a := raster.NewArray(bands, height, width, raster.Float32)
	for b := 0; b < bands; b++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				a.Set(b, y, x, float64(x+y+b))
			}
		}
	}
	if err := raster.WriteAll(path, raster.Profile{}, a); err != nil {
		t.Fatalf("WriteAll failed: %v", err)
	}
	t.Cleanup(func() { raster.Memory.Evict(path) })
	return path
}

func TestPreview_SingleBand(t *testing.T) {
	path := memRaster(t, 1, 40, 100)
	clip := 0.0

	res, err := Preview(path, PreviewOptions{Ramp: "viridis", MaxSize: 50, Clip: &clip})
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if res.Width != 50 || res.Height != 20 {
		t.Errorf("size: got %dx%d, want 50x20", res.Width, res.Height)
	}
	if res.MimeType != "image/png" || res.Ramp != "viridis" {
		t.Errorf("unexpected result %+v", res)
	}
	if res.Min[0] != 0 || res.Max[0] != 138 {
		t.Errorf("range: got [%v, %v], want [0, 138]", res.Min[0], res.Max[0])
	}

	data, err := base64.StdEncoding.DecodeString(res.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	if img.Bounds().Dx() != 50 {
		t.Errorf("decoded width: got %d, want 50", img.Bounds().Dx())
	}
}

func TestPreview_DefaultsToComposite(t *testing.T) {
	path := memRaster(t, 4, 8, 8)
	res, err := Preview(path, PreviewOptions{})
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if len(res.Bands) != 3 || res.Bands[2] != 3 {
		t.Errorf("bands: got %v, want [1 2 3]", res.Bands)
	}
	if res.Ramp != "" {
		t.Errorf("composite should not report a ramp, got %s", res.Ramp)
	}
	if res.Width != 8 || res.Height != 8 {
		t.Errorf("small rasters should not be resized, got %dx%d", res.Width, res.Height)
	}
}

func TestPreview_Region(t *testing.T) {
	path := memRaster(t, 1, 10, 10)
	res, err := Preview(path, PreviewOptions{Region: image.Rect(2, 2, 6, 5)})
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if res.Width != 4 || res.Height != 3 {
		t.Errorf("size: got %dx%d, want 4x3", res.Width, res.Height)
	}
}

func TestPreview_Errors(t *testing.T) {
	path := memRaster(t, 2, 10, 10)
	bad := 60.0

	tests := []struct {
		name string
		opts PreviewOptions
	}{
		{"two bands", PreviewOptions{Bands: []int{1, 2}}},
		{"band out of range", PreviewOptions{Bands: []int{5}}},
		{"region outside", PreviewOptions{Region: image.Rect(5, 5, 20, 20)}},
		{"clip", PreviewOptions{Clip: &bad}},
		{"ramp", PreviewOptions{Ramp: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Preview(path, tt.opts); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := Preview(raster.MemPrefix+"missing", PreviewOptions{}); err == nil {
		t.Error("Preview should fail for a missing raster")
	}
}

func TestSavePreview(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 5, 4))
	img.SetNRGBA(1, 1, color.NRGBA{R: 200, A: 255})
	dir := t.TempDir()
	cache := NewImageCache()

	for _, name := range []string{"p.png", "p.tif", "sub/p.jpg"} {
		path := filepath.Join(dir, name)
		if err := SavePreview(path, img); err != nil {
			t.Fatalf("SavePreview(%s) failed: %v", name, err)
		}
		back, err := cache.Load(path)
		if err != nil {
			t.Fatalf("reloading %s failed: %v", name, err)
		}
		if back.Bounds().Dx() != 5 || back.Bounds().Dy() != 4 {
			t.Errorf("%s: got %v", name, back.Bounds())
		}
	}

	if err := SavePreview(filepath.Join(dir, "p.unknown"), img); err == nil {
		t.Error("SavePreview should fail for an unsupported extension")
	}
}

func TestOverlayWindows(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	windows := []image.Rectangle{image.Rect(0, 0, 50, 50), image.Rect(50, 50, 100, 100)}

	out, err := OverlayWindows(base, image.Pt(100, 100), windows, true, "#00ff00")
	if err != nil {
		t.Fatalf("OverlayWindows failed: %v", err)
	}
	green := color.NRGBA{G: 255, A: 255}
	if got := out.NRGBAAt(10, 0); got != green {
		t.Errorf("top edge of window 0: got %v", got)
	}
	if got := out.NRGBAAt(25, 49); got != green {
		t.Errorf("bottom edge of window 1: got %v", got)
	}
	if got := out.NRGBAAt(15, 15); got.A != 0 {
		t.Errorf("interior should be untouched, got %v", got)
	}
	// Label background sits just inside the top-left corner.
	if got := out.NRGBAAt(2, 2); got == (color.NRGBA{}) {
		t.Error("expected a label at the window corner")
	}

	out, _ = OverlayWindows(base, image.Pt(50, 50), windows[:1], false, "bad")
	if got := out.NRGBAAt(0, 10); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("invalid colour should fall back to red, got %v", got)
	}

	if _, err := OverlayWindows(base, image.Point{}, windows, false, ""); err == nil {
		t.Error("expected an error for an empty raster size")
	}
}

func TestStats(t *testing.T) {
	a := raster.NewArray(2, 1, 4, raster.Float32)
	copy(a.Data, []float64{1, 2, 3, 100, 0, 0, 0, 0})
	a.SetMasked(0, 0, 3, true)
	a.MaskValue(0)

	s := Stats(a)
	if s[0].Valid != 3 || s[0].Min != 1 || s[0].Max != 3 || s[0].Mean != 2 {
		t.Errorf("band 1: got %+v", s[0])
	}
	if s[1].Band != 2 || s[1].Valid != 0 || s[1].Min != 0 || s[1].Max != 0 {
		t.Errorf("band 2: got %+v", s[1])
	}
}

func TestCompare(t *testing.T) {
	a := raster.NewArray(1, 2, 2, raster.Float32)
	copy(a.Data, []float64{1, 2, 3, 4})
	b := a.Clone()

	res, err := Compare(a, b, 0)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if !res.Identical || res.SimilarityScore != 1 {
		t.Errorf("identical arrays: got %+v", res)
	}

	b.Data[1] = 2.5
	b.SetMasked(0, 1, 1, true)
	res, _ = Compare(a, b, 0.1)
	if res.Identical || res.PixelsDifferent != 2 || res.MaxAbsDiff != 0.5 {
		t.Errorf("different arrays: got %+v", res)
	}
	if res.SimilarityScore != 0.5 {
		t.Errorf("similarity: got %v, want 0.5", res.SimilarityScore)
	}

	if _, err := Compare(a, raster.NewArray(1, 2, 3, raster.Float32), 0); err == nil {
		t.Error("Compare should fail for different shapes")
	}
}
