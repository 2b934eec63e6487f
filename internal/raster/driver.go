package raster

import (
	"fmt"
	"image"
	"sync"
)

// Source reads windows from a raster.
type Source interface {
	// Profile describes the raster.
	Profile() Profile

	// Read returns the pixels of the 1-based bands inside win. Pixels equal to
	// the raster's nodata value are masked. The array's DType is the raster's.
	Read(bands []int, win image.Rectangle) (*Array, error)

	Close() error
}

// Sink writes windows into a raster created with a fixed Profile.
type Sink interface {
	Profile() Profile

	// Write stores data, whose band count matches len(bands) and whose size
	// matches win, into the 1-based bands at the window offset. Values are
	// cast to the raster's DType; masked pixels are written as the raster's
	// nodata value when it has one.
	Write(bands []int, win image.Rectangle, data *Array) error

	Close() error
}

// Driver opens and creates rasters of one storage kind.
type Driver interface {
	Name() string

	// Match reports whether the driver handles path.
	Match(path string) bool

	Open(path string) (Source, error)

	// Create makes an empty raster with the given profile, replacing any
	// existing one. Pixels not yet written read as nodata, or zero when the
	// profile has none.
	Create(path string, p Profile) error

	// Update opens an existing raster for writing.
	Update(path string) (Sink, error)
}

var (
	driversMu sync.RWMutex
	drivers   []Driver
)

// Register adds a driver. Drivers registered later take precedence when
// several match a path; the native driver is always the fallback.
func Register(d Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers = append([]Driver{d}, drivers...)
}

// Drivers returns the names of the registered drivers, native last.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers)+1)
	for _, d := range drivers {
		names = append(names, d.Name())
	}
	return append(names, nativeDriver{}.Name())
}

// Lookup returns the driver that handles path.
func Lookup(path string) Driver {
	driversMu.RLock()
	defer driversMu.RUnlock()
	for _, d := range drivers {
		if d.Match(path) {
			return d
		}
	}
	return nativeDriver{}
}

// Open opens path for reading with the matching driver.
func Open(path string) (Source, error) {
	src, err := Lookup(path).Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s: %w", path, err)
	}
	return src, nil
}

// Create creates an empty raster at path.
func Create(path string, p Profile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("failed to create raster %s: %w", path, err)
	}
	d := Lookup(path)
	if p.Driver == "" {
		p.Driver = d.Name()
	}
	if err := d.Create(path, p); err != nil {
		return fmt.Errorf("failed to create raster %s: %w", path, err)
	}
	return nil
}

// Update opens an existing raster at path for writing.
func Update(path string) (Sink, error) {
	dst, err := Lookup(path).Update(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open raster %s for update: %w", path, err)
	}
	return dst, nil
}

// ReadAll reads every band of the raster at path.
func ReadAll(path string) (*Array, Profile, error) {
	src, err := Open(path)
	if err != nil {
		return nil, Profile{}, err
	}
	defer src.Close()
	p := src.Profile()
	a, err := src.Read(p.AllBands(), p.Bounds())
	if err != nil {
		return nil, Profile{}, fmt.Errorf("failed to read raster %s: %w", path, err)
	}
	return a, p, nil
}

// WriteAll creates a raster at path holding a. The profile's size, band count
// and data type are taken from a.
func WriteAll(path string, p Profile, a *Array) error {
	p.Width, p.Height, p.Count = a.Width, a.Height, a.Bands
	if p.DType == Unknown {
		p.DType = a.DType
	}
	if err := Create(path, p); err != nil {
		return err
	}
	dst, err := Update(path)
	if err != nil {
		return err
	}
	if err := dst.Write(p.AllBands(), p.Bounds(), a); err != nil {
		dst.Close()
		return fmt.Errorf("failed to write raster %s: %w", path, err)
	}
	return dst.Close()
}

// encodeValue returns the value stored for pixel i of data: nodata for a
// masked pixel when the raster has one, the cast value otherwise.
func encodeValue(p Profile, data *Array, i int) float64 {
	if p.NoData != nil && data.Mask != nil && data.Mask[i] {
		return *p.NoData
	}
	return p.DType.Cast(data.Data[i])
}

// checkData validates an array about to be written into win.
func checkData(bands []int, win image.Rectangle, data *Array) error {
	if data.Bands != len(bands) || data.Width != win.Dx() || data.Height != win.Dy() {
		return fmt.Errorf("%w: array [%d,%d,%d] for %d bands in window %v",
			ErrShape, data.Bands, data.Height, data.Width, len(bands), win)
	}
	return nil
}
