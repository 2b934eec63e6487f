package engine

import (
	"errors"
	"fmt"
	"image"
	"runtime"

	"github.com/go-playground/validator/v10"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
	"github.com/ironsheep/raster-tools-mcp/internal/window"
)

// DefaultWindowSize is the tile size used when none is configured.
const DefaultWindowSize = 1024

// Options configures a run. Use DefaultOptions and the With functions rather
// than building it by hand.
type Options struct {
	// WindowSize is the tile size (X = width, Y = height).
	WindowSize image.Point

	// Overlap is the number of context pixels read around each tile on every
	// side. It must be less than half of each tile dimension.
	Overlap int `validate:"gte=0"`

	// PadMode synthesizes pixels outside the raster.
	PadMode raster.PadMode

	// Bands lists the 1-based source bands to process. Empty means all.
	Bands []int `validate:"omitempty,dive,gte=1"`

	// Workers is the number of worker goroutines; 0 means one per CPU.
	Workers int `validate:"gte=0"`

	// DisableProgress turns off progress log lines.
	DisableProgress bool

	// Progress, when set, is called by the writer after each tile with the
	// number of written and total work items.
	Progress func(done, total int)

	// Metrics records per-tile metrics; nil disables them.
	Metrics *Metrics
}

// Option modifies Options.
type Option func(*Options)

// DefaultOptions returns 1024×1024 windows, no overlap, edge padding, all
// bands and one worker per CPU.
func DefaultOptions() Options {
	return Options{
		WindowSize: image.Pt(DefaultWindowSize, DefaultWindowSize),
		PadMode:    raster.PadEdge,
	}
}

// WithWindowSize sets a square tile size.
func WithWindowSize(n int) Option {
	return func(o *Options) { o.WindowSize = image.Pt(n, n) }
}

// WithWindow sets a tile size of width×height.
func WithWindow(width, height int) Option {
	return func(o *Options) { o.WindowSize = image.Pt(width, height) }
}

// WithOverlap sets the overlap in pixels.
func WithOverlap(n int) Option {
	return func(o *Options) { o.Overlap = n }
}

// WithPadMode sets the boundary extension policy.
func WithPadMode(m raster.PadMode) Option {
	return func(o *Options) { o.PadMode = m }
}

// WithBands restricts processing to the given 1-based bands.
func WithBands(bands ...int) Option {
	return func(o *Options) { o.Bands = append([]int(nil), bands...) }
}

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithoutProgress disables progress log lines.
func WithoutProgress() Option {
	return func(o *Options) { o.DisableProgress = true }
}

// WithProgress registers a progress callback.
func WithProgress(fn func(done, total int)) Option {
	return func(o *Options) { o.Progress = fn }
}

// WithMetrics records tile metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}

var validate = validator.New()

// Check validates the options against the source profile and resolves the
// band list and worker count. Bands must lie in [1, count] and the overlap
// must be below half of each tile dimension. Run calls it before creating
// any output.
func (o *Options) Check(p raster.Profile) error {
	if err := validate.Struct(o); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fe := ve[0]
			return configErrorf(fe.Namespace(), "must satisfy %s=%s, got %v", fe.Tag(), fe.Param(), fe.Value())
		}
		return configErrorf("options", "%v", err)
	}
	if o.WindowSize.X <= 0 || o.WindowSize.Y <= 0 {
		return configErrorf("window_size", "must be positive, got %dx%d", o.WindowSize.X, o.WindowSize.Y)
	}
	if err := window.Validate(o.WindowSize, image.Pt(o.Overlap, o.Overlap)); err != nil {
		return configErrorf("overlap", "%v", err)
	}
	if int(o.PadMode) >= len(raster.PadModes()) {
		return configErrorf("pad_mode", "unknown mode %d", o.PadMode)
	}
	if len(o.Bands) == 0 {
		o.Bands = p.AllBands()
	}
	for _, b := range o.Bands {
		if b < 1 || b > p.Count {
			return configErrorf("bands", "band %d not in [1, %d]", b, p.Count)
		}
	}
	if o.Workers == 0 {
		o.Workers = runtime.NumCPU()
	}
	return nil
}

// String summarizes the options for logs.
func (o Options) String() string {
	return fmt.Sprintf("window=%dx%d overlap=%d pad=%s bands=%v workers=%d",
		o.WindowSize.X, o.WindowSize.Y, o.Overlap, o.PadMode, o.Bands, o.Workers)
}
