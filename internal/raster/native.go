package raster

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"sync"
)

// Native raster file layout:
//
//	offset 0   magic "RTR1"
//	offset 4   uint32 little-endian header length n
//	offset 8   n bytes of JSON header
//	offset 8+n pixel data, band-sequential, row-major, little-endian
//
// Compression is recorded in the header for downstream converters; the pixel
// data itself is stored uncompressed so windows can be written in place.
const nativeMagic = "RTR1"

type nativeHeader struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Count       int    `json:"count"`
	DType       DType  `json:"dtype"`
	NoData      string `json:"nodata"`
	BlockWidth  int    `json:"block_width"`
	BlockHeight int    `json:"block_height"`
	Tiled       bool   `json:"tiled"`
	Compress    string `json:"compress,omitempty"`
}

type nativeDriver struct{}

func (nativeDriver) Name() string { return "RTR" }

func (nativeDriver) Match(string) bool { return true }

func (nativeDriver) Create(path string, p Profile) error {
	hdr, err := json.Marshal(nativeHeader{
		Width:       p.Width,
		Height:      p.Height,
		Count:       p.Count,
		DType:       p.DType,
		NoData:      FormatNoData(p.NoData),
		BlockWidth:  p.BlockWidth,
		BlockHeight: p.BlockHeight,
		Tiled:       p.Tiled,
		Compress:    p.Compress,
	})
	if err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var prefix [8]byte
	copy(prefix[:4], nativeMagic)
	binary.LittleEndian.PutUint32(prefix[4:], uint32(len(hdr)))
	if _, err := f.Write(prefix[:]); err != nil {
		return err
	}
	if _, err := f.Write(hdr); err != nil {
		return err
	}

	offset := int64(len(prefix) + len(hdr))
	size := int64(p.Width) * int64(p.Height) * int64(p.Count) * int64(p.DType.Size())
	if err := f.Truncate(offset + size); err != nil {
		return err
	}

	// Unwritten pixels must read as nodata.
	if p.NoData != nil {
		row := make([]byte, p.Width*p.DType.Size())
		for x := 0; x < p.Width; x++ {
			p.DType.Put(row[x*p.DType.Size():], p.DType.Cast(*p.NoData))
		}
		if !bytes.Equal(row, make([]byte, len(row))) {
			for line := 0; line < p.Height*p.Count; line++ {
				if _, err := f.WriteAt(row, offset+int64(line)*int64(len(row))); err != nil {
					return err
				}
			}
		}
	}
	return f.Sync()
}

func (nativeDriver) Open(path string) (Source, error) {
	r, err := openNative(path, os.O_RDONLY)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (nativeDriver) Update(path string) (Sink, error) {
	r, err := openNative(path, os.O_RDWR)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// nativeRaster is both the Source and the Sink of a native file.
type nativeRaster struct {
	mu      sync.Mutex
	f       *os.File
	profile Profile
	offset  int64
}

func openNative(path string, flag int) (*nativeRaster, error) {
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return nil, err
	}
	p, offset, err := readNativeHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &nativeRaster{f: f, profile: p, offset: offset}, nil
}

func readNativeHeader(r io.ReaderAt) (Profile, int64, error) {
	var prefix [8]byte
	if _, err := r.ReadAt(prefix[:], 0); err != nil {
		return Profile{}, 0, fmt.Errorf("%w: %v", ErrNotRaster, err)
	}
	if string(prefix[:4]) != nativeMagic {
		return Profile{}, 0, ErrNotRaster
	}
	n := binary.LittleEndian.Uint32(prefix[4:])
	buf := make([]byte, n)
	if _, err := r.ReadAt(buf, int64(len(prefix))); err != nil {
		return Profile{}, 0, fmt.Errorf("%w: truncated header: %v", ErrNotRaster, err)
	}
	var hdr nativeHeader
	if err := json.Unmarshal(buf, &hdr); err != nil {
		return Profile{}, 0, fmt.Errorf("%w: bad header: %v", ErrNotRaster, err)
	}
	nodata, err := ParseNoData(hdr.NoData)
	if err != nil {
		return Profile{}, 0, fmt.Errorf("%w: %v", ErrNotRaster, err)
	}
	p := Profile{
		Driver:      nativeDriver{}.Name(),
		Width:       hdr.Width,
		Height:      hdr.Height,
		Count:       hdr.Count,
		DType:       hdr.DType,
		NoData:      nodata,
		BlockWidth:  hdr.BlockWidth,
		BlockHeight: hdr.BlockHeight,
		Tiled:       hdr.Tiled,
		Compress:    hdr.Compress,
	}
	if err := p.Validate(); err != nil {
		return Profile{}, 0, fmt.Errorf("%w: %v", ErrNotRaster, err)
	}
	return p, int64(len(prefix)) + int64(n), nil
}

func (r *nativeRaster) Profile() Profile { return r.profile }

// rowOffset returns the file offset of pixel (x, y) of 1-based band b.
func (r *nativeRaster) rowOffset(b, y, x int) int64 {
	p := r.profile
	pixel := (int64(b-1)*int64(p.Height)+int64(y))*int64(p.Width) + int64(x)
	return r.offset + pixel*int64(p.DType.Size())
}

func (r *nativeRaster) Read(bands []int, win image.Rectangle) (*Array, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil, ErrClosed
	}
	p := r.profile
	if err := p.checkWindow(bands, win); err != nil {
		return nil, err
	}

	out := NewArray(len(bands), win.Dy(), win.Dx(), p.DType)
	size := p.DType.Size()
	row := make([]byte, out.Width*size)
	for i, b := range bands {
		for y := 0; y < out.Height; y++ {
			if _, err := r.f.ReadAt(row, r.rowOffset(b, win.Min.Y+y, win.Min.X)); err != nil {
				return nil, fmt.Errorf("failed to read band %d row %d: %w", b, win.Min.Y+y, err)
			}
			base := out.Index(i, y, 0)
			for x := 0; x < out.Width; x++ {
				out.Data[base+x] = p.DType.Get(row[x*size:])
			}
		}
	}
	if p.NoData != nil {
		out.MaskValue(*p.NoData)
	}
	return out, nil
}

func (r *nativeRaster) Write(bands []int, win image.Rectangle, data *Array) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return ErrClosed
	}
	p := r.profile
	if err := p.checkWindow(bands, win); err != nil {
		return err
	}
	if err := checkData(bands, win, data); err != nil {
		return err
	}

	size := p.DType.Size()
	row := make([]byte, data.Width*size)
	for i, b := range bands {
		for y := 0; y < data.Height; y++ {
			base := data.Index(i, y, 0)
			for x := 0; x < data.Width; x++ {
				p.DType.Put(row[x*size:], encodeValue(p, data, base+x))
			}
			if _, err := r.f.WriteAt(row, r.rowOffset(b, win.Min.Y+y, win.Min.X)); err != nil {
				return fmt.Errorf("failed to write band %d row %d: %w", b, win.Min.Y+y, err)
			}
		}
	}
	return nil
}

func (r *nativeRaster) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
