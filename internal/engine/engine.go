package engine

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/ironsheep/raster-tools-mcp/internal/processing"
	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

const tracerName = "github.com/ironsheep/raster-tools-mcp/internal/engine"

// Report describes a completed run.
type Report struct {
	RunID    string         `json:"run_id"`
	Unit     string         `json:"unit"`
	Output   raster.Profile `json:"output"`
	Items    int            `json:"items"`
	Workers  int            `json:"workers"`
	Options  string         `json:"options"`
	Duration time.Duration  `json:"duration"`
}

// Run applies unit to the raster at src and writes the result to dst.
//
// Configuration problems are reported as *ConfigError before the output is
// created. Failures while processing a tile are reported as *TileError and
// abort the run; dst is then incomplete. Cancelling ctx also aborts the run.
func Run(ctx context.Context, src, dst string, unit *processing.Unit, opts ...Option) (*Report, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if unit == nil {
		return nil, configErrorf("unit", "must not be nil")
	}

	runID := uuid.NewString()
	log := logger().With(slog.String("run", runID), slog.String("unit", unit.Name()))

	ctx, span := otel.Tracer(tracerName).Start(ctx, "engine.Run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.unit", unit.Name()),
			attribute.String("run.source", src),
			attribute.String("run.destination", dst),
			attribute.Int("run.window.width", o.WindowSize.X),
			attribute.Int("run.window.height", o.WindowSize.Y),
			attribute.Int("run.overlap", o.Overlap),
			attribute.String("run.pad_mode", o.PadMode.String()),
		),
	)
	defer span.End()

	start := time.Now()
	rep, err := run(ctx, log, src, dst, unit, o)
	o.Metrics.finished(unit.Name(), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error("run failed", slog.String("error", err.Error()), slog.Duration("elapsed", time.Since(start)))
		return nil, err
	}
	rep.RunID = runID
	rep.Duration = time.Since(start)
	span.SetAttributes(attribute.Int("run.items", rep.Items), attribute.Int("run.workers", rep.Workers))
	span.SetStatus(codes.Ok, "")
	log.Info("run completed", slog.Int("items", rep.Items), slog.Duration("elapsed", rep.Duration))
	return rep, nil
}

func run(ctx context.Context, log *slog.Logger, src, dst string, unit *processing.Unit, o Options) (*Report, error) {
	in, err := raster.Open(src)
	if err != nil {
		return nil, err
	}
	srcProfile := in.Profile()
	in.Close()

	if err := o.Check(srcProfile); err != nil {
		return nil, err
	}
	if err := checkDestination(dst); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := OutputProfile(srcProfile, unit, len(o.Bands), o.WindowSize)
	if err := raster.Create(dst, out); err != nil {
		return nil, err
	}

	items := Plan(srcProfile.Bounds().Size(), o.WindowSize, o.Overlap, o.Bands, unit.Mode())
	workers := max(1, min(o.Workers, len(items)))
	procType := unit.ProcessingDType()
	if procType == raster.Unknown {
		procType = out.DType
	}

	log.Info("run started",
		slog.String("source", src),
		slog.String("destination", dst),
		slog.String("mode", unit.Mode().String()),
		slog.String("options", o.String()),
		slog.Int("items", len(items)),
		slog.Int("workers", workers))

	e := &executor{
		src:      src,
		dst:      dst,
		unit:     unit,
		opts:     o,
		items:    items,
		workers:  workers,
		procType: procType,
		log:      log,
	}
	if err := e.execute(ctx); err != nil {
		return nil, err
	}
	return &Report{
		Unit:    unit.Name(),
		Output:  out,
		Items:   len(items),
		Workers: workers,
		Options: o.String(),
	}, nil
}

// checkDestination verifies that the directory of dst exists and accepts new
// files. In-memory destinations always pass.
func checkDestination(dst string) error {
	if strings.HasPrefix(dst, raster.MemPrefix) {
		return nil
	}
	dir := filepath.Dir(dst)
	info, err := os.Stat(dir)
	if err != nil {
		return configErrorf("destination", "output directory %s: %v", dir, err)
	}
	if !info.IsDir() {
		return configErrorf("destination", "%s is not a directory", dir)
	}
	f, err := os.CreateTemp(dir, ".rastertools-*")
	if err != nil {
		return configErrorf("destination", "output directory %s is not writable: %v", dir, err)
	}
	f.Close()
	os.Remove(f.Name())
	return nil
}

type executor struct {
	src, dst string
	unit     *processing.Unit
	opts     Options
	items    []WorkItem
	workers  int
	procType raster.DType
	log      *slog.Logger
}

// tile is a computed result on its way to the writer.
type tile struct {
	item WorkItem
	data *raster.Array
}

func (e *executor) execute(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	feed := make(chan WorkItem)
	tiles := make(chan tile, e.workers)

	g.Go(func() error {
		defer close(feed)
		for _, it := range e.items {
			select {
			case feed <- it:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var wg sync.WaitGroup
	wg.Add(e.workers)
	for range e.workers {
		g.Go(func() error {
			defer wg.Done()
			return e.work(ctx, feed, tiles)
		})
	}
	g.Go(func() error {
		wg.Wait()
		close(tiles)
		return nil
	})

	g.Go(func() error { return e.write(tiles) })

	return g.Wait()
}

// work processes items with a private read handle until feed is closed.
func (e *executor) work(ctx context.Context, feed <-chan WorkItem, tiles chan<- tile) error {
	src, err := raster.Open(e.src)
	if err != nil {
		return err
	}
	defer src.Close()

	for it := range feed {
		data, err := e.process(src, it)
		if err != nil {
			return err
		}
		select {
		case tiles <- tile{item: it, data: data}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (e *executor) fail(it WorkItem, s State, err error) error {
	e.opts.Metrics.failed(e.unit.Name(), s)
	return &TileError{Item: it.Index, Stage: s, Window: it.Tile.Write, Err: err}
}

// process reads, pads, casts, computes and crops one item.
func (e *executor) process(src raster.Source, it WorkItem) (*raster.Array, error) {
	start := time.Now()
	a, err := src.Read(it.Bands, it.Tile.Read)
	if err != nil {
		return nil, e.fail(it, Reading, err)
	}
	a = raster.Pad(a, it.Tile.Pad, e.opts.PadMode)
	if a.DType != e.procType {
		a = a.Cast(e.procType)
	}
	e.opts.Metrics.observe(Reading, time.Since(start))

	start = time.Now()
	out, err := e.unit.Compute(a)
	if err != nil {
		return nil, e.fail(it, Computing, err)
	}
	o := e.opts.Overlap
	out, err = out.Crop(image.Rect(o, o, out.Width-o, out.Height-o))
	if err != nil {
		return nil, e.fail(it, Computing, err)
	}
	if out.Size() != it.Tile.Write.Size() {
		return nil, e.fail(it, Computing, fmt.Errorf("%w: cropped tile %dx%d for write window %v",
			raster.ErrShape, out.Width, out.Height, it.Tile.Write))
	}
	e.opts.Metrics.observe(Computing, time.Since(start))
	return out, nil
}

// write owns the output raster: it is the only goroutine writing to it.
func (e *executor) write(tiles <-chan tile) error {
	dst, err := raster.Update(e.dst)
	if err != nil {
		return err
	}

	total := len(e.items)
	done := 0
	progress := rate.Sometimes{Interval: time.Second}
	for t := range tiles {
		start := time.Now()
		if err := dst.Write(t.item.OutBands, t.item.Tile.Write, t.data); err != nil {
			dst.Close()
			return e.fail(t.item, Writing, err)
		}
		e.opts.Metrics.observe(Writing, time.Since(start))
		e.opts.Metrics.written(e.unit.Name())
		done++

		e.log.Debug("work item done",
			slog.Int("item", t.item.Index),
			slog.Any("bands", t.item.Bands),
			slog.String("window", t.item.Tile.Write.String()))
		if e.opts.Progress != nil {
			e.opts.Progress(done, total)
		}
		if !e.opts.DisableProgress {
			progress.Do(func() {
				e.log.Info("progress", slog.Int("done", done), slog.Int("total", total),
					slog.Float64("percent", float64(done)*100/float64(total)))
			})
		}
	}
	return dst.Close()
}
