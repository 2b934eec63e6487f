package raster

import (
	"fmt"
	"image"
	"strings"
	"sync"
)

// MemPrefix is the path prefix handled by the in-memory driver.
const MemPrefix = "mem://"

// MemStore holds in-memory rasters keyed by path.
//
// MemStore is safe for concurrent use. Rasters stay in memory until removed
// with Evict or Clear, so long-running processes should clean up the rasters
// they no longer need.
type MemStore struct {
	mu      sync.RWMutex
	rasters map[string]*memRaster
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{rasters: make(map[string]*memRaster)}
}

// Memory is the store behind "mem://" paths.
var Memory = NewMemStore()

type memRaster struct {
	mu      sync.RWMutex
	profile Profile
	data    *Array
}

// Put stores a copy of a under path with the given profile. The profile's
// size, band count and data type are taken from a.
func (s *MemStore) Put(path string, p Profile, a *Array) {
	p.Width, p.Height, p.Count = a.Width, a.Height, a.Bands
	if p.DType == Unknown {
		p.DType = a.DType
	}
	p.Driver = memDriver{}.Name()
	data := a.Cast(p.DType)
	data.Mask = nil
	if p.NoData != nil && a.Mask != nil {
		for i, m := range a.Mask {
			if m {
				data.Data[i] = *p.NoData
			}
		}
	}
	s.mu.Lock()
	s.rasters[path] = &memRaster{profile: p, data: data}
	s.mu.Unlock()
}

// Load returns a copy of the pixels stored under path.
func (s *MemStore) Load(path string) (*Array, Profile, bool) {
	s.mu.RLock()
	r, ok := s.rasters[path]
	s.mu.RUnlock()
	if !ok {
		return nil, Profile{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data.Clone(), r.profile, true
}

// Evict removes the raster stored under path. Unknown paths are ignored.
func (s *MemStore) Evict(path string) {
	s.mu.Lock()
	delete(s.rasters, path)
	s.mu.Unlock()
}

// Clear removes every raster.
func (s *MemStore) Clear() {
	s.mu.Lock()
	s.rasters = make(map[string]*memRaster)
	s.mu.Unlock()
}

func (s *MemStore) get(path string) (*memRaster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rasters[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return r, nil
}

type memDriver struct{ store *MemStore }

func init() {
	Register(memDriver{store: Memory})
}

func (memDriver) Name() string { return "MEM" }

func (memDriver) Match(path string) bool { return strings.HasPrefix(path, MemPrefix) }

func (d memDriver) Create(path string, p Profile) error {
	a := NewArray(p.Count, p.Height, p.Width, p.DType)
	if p.NoData != nil {
		v := p.DType.Cast(*p.NoData)
		for i := range a.Data {
			a.Data[i] = v
		}
	}
	p.Driver = d.Name()
	d.store.mu.Lock()
	d.store.rasters[path] = &memRaster{profile: p, data: a}
	d.store.mu.Unlock()
	return nil
}

func (d memDriver) Open(path string) (Source, error) {
	r, err := d.store.get(path)
	if err != nil {
		return nil, err
	}
	return &memHandle{r: r}, nil
}

func (d memDriver) Update(path string) (Sink, error) {
	r, err := d.store.get(path)
	if err != nil {
		return nil, err
	}
	return &memHandle{r: r}, nil
}

// memHandle gives one caller access to a stored raster.
type memHandle struct {
	r      *memRaster
	closed bool
}

func (h *memHandle) Profile() Profile { return h.r.profile }

func (h *memHandle) Read(bands []int, win image.Rectangle) (*Array, error) {
	if h.closed {
		return nil, ErrClosed
	}
	h.r.mu.RLock()
	defer h.r.mu.RUnlock()
	p := h.r.profile
	if err := p.checkWindow(bands, win); err != nil {
		return nil, err
	}
	out := NewArray(len(bands), win.Dy(), win.Dx(), p.DType)
	for i, b := range bands {
		for y := 0; y < out.Height; y++ {
			src := h.r.data.Index(b-1, win.Min.Y+y, win.Min.X)
			dst := out.Index(i, y, 0)
			copy(out.Data[dst:dst+out.Width], h.r.data.Data[src:src+out.Width])
		}
	}
	if p.NoData != nil {
		out.MaskValue(*p.NoData)
	}
	return out, nil
}

func (h *memHandle) Write(bands []int, win image.Rectangle, data *Array) error {
	if h.closed {
		return ErrClosed
	}
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	p := h.r.profile
	if err := p.checkWindow(bands, win); err != nil {
		return err
	}
	if err := checkData(bands, win, data); err != nil {
		return err
	}
	for i, b := range bands {
		for y := 0; y < data.Height; y++ {
			for x := 0; x < data.Width; x++ {
				h.r.data.Set(b-1, win.Min.Y+y, win.Min.X+x, encodeValue(p, data, data.Index(i, y, x)))
			}
		}
	}
	return nil
}

func (h *memHandle) Close() error {
	h.closed = true
	return nil
}
