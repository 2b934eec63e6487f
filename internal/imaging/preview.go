package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/tiff"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// PreviewOptions controls how a raster is rendered.
type PreviewOptions struct {
	// Bands lists the 1-based bands to render: one band goes through Ramp,
	// three bands make an RGB composite. Empty selects band 1, or bands 1-3
	// when the raster has at least three.
	Bands []int

	// Ramp names the colour ramp of single-band previews (default "gray").
	Ramp string

	// Clip is the percentage of darkest and brightest values saturated by
	// the contrast stretch (default 2, 0 stretches min to max).
	Clip *float64

	// MaxSize bounds the longest side of the preview (default 512). Smaller
	// rasters are not enlarged.
	MaxSize int

	// Region optionally restricts the preview to a pixel window.
	Region image.Rectangle

	// SavePath, when set, also writes the preview to this file.
	SavePath string
}

// PreviewResult contains a rendered raster encoded as base64 PNG.
type PreviewResult struct {
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	ImageBase64 string    `json:"image_base64"`
	MimeType    string    `json:"mime_type"`
	Bands       []int     `json:"bands"`
	Ramp        string    `json:"ramp,omitempty"`
	Min         []float64 `json:"min"`
	Max         []float64 `json:"max"`
	SavedTo     string    `json:"saved_to,omitempty"`
}

func (o *PreviewOptions) normalize(p raster.Profile) error {
	if len(o.Bands) == 0 {
		o.Bands = []int{1}
		if p.Count >= 3 {
			o.Bands = []int{1, 2, 3}
		}
	}
	if len(o.Bands) != 1 && len(o.Bands) != 3 {
		return fmt.Errorf("preview needs 1 or 3 bands, got %d", len(o.Bands))
	}
	if o.MaxSize <= 0 {
		o.MaxSize = 512
	}
	if o.Clip == nil {
		clip := 2.0
		o.Clip = &clip
	}
	if *o.Clip < 0 || *o.Clip >= 50 {
		return fmt.Errorf("clip percentage must be in [0, 50), got %v", *o.Clip)
	}
	if o.Region.Empty() {
		o.Region = p.Bounds()
	}
	if !o.Region.In(p.Bounds()) {
		return fmt.Errorf("%w: region (%d,%d)-(%d,%d) outside raster %dx%d", raster.ErrOutOfBounds,
			o.Region.Min.X, o.Region.Min.Y, o.Region.Max.X, o.Region.Max.Y, p.Width, p.Height)
	}
	return nil
}

// Render reads the selected bands of src and renders them according to opts.
func Render(src raster.Source, opts PreviewOptions) (image.Image, *PreviewResult, error) {
	if err := opts.normalize(src.Profile()); err != nil {
		return nil, nil, err
	}
	a, err := src.Read(opts.Bands, opts.Region)
	if err != nil {
		return nil, nil, err
	}

	res := &PreviewResult{Bands: opts.Bands}
	var img image.Image
	if len(opts.Bands) == 1 {
		ramp, err := LookupRamp(opts.Ramp)
		if err != nil {
			return nil, nil, err
		}
		lo, hi := PercentileRange(a, 0, *opts.Clip)
		img = Colorize(a, 0, ramp, lo, hi)
		res.Ramp = ramp.Name
		res.Min, res.Max = []float64{lo}, []float64{hi}
	} else {
		var lo, hi [3]float64
		for i := range 3 {
			lo[i], hi[i] = PercentileRange(a, i, *opts.Clip)
		}
		img = Composite(a, [3]int{0, 1, 2}, lo, hi)
		res.Min, res.Max = lo[:], hi[:]
	}

	b := img.Bounds()
	if b.Dx() > opts.MaxSize || b.Dy() > opts.MaxSize {
		img = imaging.Fit(img, opts.MaxSize, opts.MaxSize, imaging.Lanczos)
	}
	res.Width, res.Height = img.Bounds().Dx(), img.Bounds().Dy()
	return img, res, nil
}

// Preview renders the raster at path and encodes it as base64 PNG. The
// preview is also saved when opts.SavePath is set.
func Preview(path string, opts PreviewOptions) (*PreviewResult, error) {
	src, err := raster.Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	img, res, err := Render(src, opts)
	if err != nil {
		return nil, err
	}
	if opts.SavePath != "" {
		if err := SavePreview(opts.SavePath, img); err != nil {
			return nil, err
		}
		res.SavedTo = opts.SavePath
	}

	res.ImageBase64, err = EncodePNG(img)
	if err != nil {
		return nil, err
	}
	res.MimeType = "image/png"
	return res, nil
}

// EncodePNG encodes img as base64 PNG.
func EncodePNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode preview: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SavePreview writes img to path. TIFF files are deflate-compressed; other
// formats are chosen from the extension (png, jpg, gif, bmp).
func SavePreview(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create preview directory: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create preview: %w", err)
		}
		if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
			f.Close()
			return fmt.Errorf("failed to encode preview: %w", err)
		}
		return f.Close()
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save preview: %w", err)
	}
	return nil
}
