//go:build godal

package raster

import (
	"fmt"
	"image"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/airbusgeo/godal"
)

// The GDAL driver reads and writes GeoTIFF and VRT rasters through godal.
// It is only compiled with the godal build tag because it links against
// libgdal.

func init() {
	godal.RegisterAll()
	Register(gdalDriver{})
}

type gdalDriver struct{}

func (gdalDriver) Name() string { return "GTiff" }

func (gdalDriver) Match(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff", ".vrt", ".img":
		return true
	}
	return false
}

var gdalTypes = map[DType]godal.DataType{
	Uint8:   godal.Byte,
	Uint16:  godal.UInt16,
	Int16:   godal.Int16,
	Uint32:  godal.UInt32,
	Int32:   godal.Int32,
	Float32: godal.Float32,
	Float64: godal.Float64,
}

func fromGDALType(dt godal.DataType) (DType, error) {
	for k, v := range gdalTypes {
		if v == dt {
			return k, nil
		}
	}
	return Unknown, fmt.Errorf("%w: %s", ErrUnknownDType, dt)
}

func (gdalDriver) Create(path string, p Profile) error {
	dt, ok := gdalTypes[p.DType]
	if !ok {
		return fmt.Errorf("%w: %s not supported by GDAL", ErrUnknownDType, p.DType)
	}
	opts := []string{}
	if p.Tiled {
		opts = append(opts, "TILED=YES")
	}
	if p.BlockWidth > 0 {
		opts = append(opts, "BLOCKXSIZE="+strconv.Itoa(p.BlockWidth))
	}
	if p.BlockHeight > 0 {
		opts = append(opts, "BLOCKYSIZE="+strconv.Itoa(p.BlockHeight))
	}
	if p.Compress != "" {
		opts = append(opts, "COMPRESS="+strings.ToUpper(p.Compress))
	}

	ds, err := godal.Create(godal.GTiff, path, p.Count, dt, p.Width, p.Height, godal.CreationOption(opts...))
	if err != nil {
		return err
	}
	if p.NoData != nil {
		if err := ds.SetNoData(*p.NoData); err != nil {
			ds.Close()
			return fmt.Errorf("failed to set nodata: %w", err)
		}
	}
	return ds.Close()
}

func (gdalDriver) Open(path string) (Source, error) {
	ds, err := godal.Open(path, godal.RasterOnly())
	if err != nil {
		return nil, err
	}
	return newGDALRaster(ds)
}

func (gdalDriver) Update(path string) (Sink, error) {
	ds, err := godal.Open(path, godal.RasterOnly(), godal.Update())
	if err != nil {
		return nil, err
	}
	return newGDALRaster(ds)
}

type gdalRaster struct {
	mu      sync.Mutex
	ds      *godal.Dataset
	profile Profile
}

func newGDALRaster(ds *godal.Dataset) (*gdalRaster, error) {
	st := ds.Structure()
	dt, err := fromGDALType(st.DataType)
	if err != nil {
		ds.Close()
		return nil, err
	}
	p := Profile{
		Driver:      "GTiff",
		Width:       st.SizeX,
		Height:      st.SizeY,
		Count:       st.NBands,
		DType:       dt,
		BlockWidth:  st.BlockSizeX,
		BlockHeight: st.BlockSizeY,
		Tiled:       st.BlockSizeX < st.SizeX,
	}
	if bands := ds.Bands(); len(bands) > 0 {
		if nd, ok := bands[0].NoData(); ok {
			p.NoData = &nd
		}
	}
	return &gdalRaster{ds: ds, profile: p}, nil
}

func (r *gdalRaster) Profile() Profile { return r.profile }

// gdalBands converts 1-based band indexes to the 0-based ones godal expects.
func gdalBands(bands []int) []int {
	out := make([]int, len(bands))
	for i, b := range bands {
		out[i] = b - 1
	}
	return out
}

func (r *gdalRaster) Read(bands []int, win image.Rectangle) (*Array, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ds == nil {
		return nil, ErrClosed
	}
	if err := r.profile.checkWindow(bands, win); err != nil {
		return nil, err
	}
	out := NewArray(len(bands), win.Dy(), win.Dx(), r.profile.DType)
	err := r.ds.Read(win.Min.X, win.Min.Y, out.Data, win.Dx(), win.Dy(),
		godal.Bands(gdalBands(bands)...), godal.BandInterleaved())
	if err != nil {
		return nil, err
	}
	if r.profile.NoData != nil {
		out.MaskValue(*r.profile.NoData)
	}
	return out, nil
}

func (r *gdalRaster) Write(bands []int, win image.Rectangle, data *Array) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ds == nil {
		return ErrClosed
	}
	if err := r.profile.checkWindow(bands, win); err != nil {
		return err
	}
	if err := checkData(bands, win, data); err != nil {
		return err
	}
	buf := make([]float64, len(data.Data))
	for i := range buf {
		buf[i] = encodeValue(r.profile, data, i)
	}
	return r.ds.Write(win.Min.X, win.Min.Y, buf, win.Dx(), win.Dy(),
		godal.Bands(gdalBands(bands)...), godal.BandInterleaved())
}

func (r *gdalRaster) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ds == nil {
		return nil
	}
	err := r.ds.Close()
	r.ds = nil
	return err
}
