package imaging

import (
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff" // Register TIFF format decoder

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// ImageCache provides thread-safe caching of decoded image files.
//
// Images are keyed by the exact path string given to Load. Cached images stay
// in memory until Evict or Clear is called.
//
// ImageCache is safe for concurrent use by multiple goroutines.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or decodes it from disk.
//
// Supported formats are PNG, JPEG, GIF, BMP and TIFF. EXIF orientation is
// applied to JPEG images so the pixel grid matches what a viewer shows.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format detected from the file extension ("png", "jpeg",
	// "gif", "tiff", "bmp"), or "unknown".
	Format string `json:"format"`

	// Bands is the number of bands an import produces: 1, 3 or 4.
	Bands int `json:"bands"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	// Imported rasters are always 8-bit.
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through the cache and describes it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(f.String())
	}

	hasAlpha := false
	colorDepth := "8-bit"
	bands := 3
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray:
		bands = 1
	case *image.Gray16:
		bands = 1
		colorDepth = "16-bit"
	}
	if bands == 3 && !opaque(img) {
		bands = 4
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		Bands:         bands,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}

// Import converts the image at path into a uint8 raster at dst (see
// FromImage for the band layout) and returns the profile of the new raster.
// The raster is tiled with the largest power-of-two block that fits in 256
// pixels and the image size.
func Import(cache *ImageCache, path, dst string, nodata *float64) (raster.Profile, error) {
	img, err := cache.Load(path)
	if err != nil {
		return raster.Profile{}, err
	}
	a := FromImage(img)
	p := raster.Profile{
		DType:       raster.Uint8,
		NoData:      nodata,
		BlockWidth:  raster.HighestPowerOf2(min(a.Width, 256)),
		BlockHeight: raster.HighestPowerOf2(min(a.Height, 256)),
		Tiled:       true,
		Compress:    "lzw",
	}
	if err := raster.WriteAll(dst, p, a); err != nil {
		return raster.Profile{}, err
	}
	src, err := raster.Open(dst)
	if err != nil {
		return raster.Profile{}, err
	}
	defer src.Close()
	return src.Profile(), nil
}
