package processing

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

// ErrShapeMismatch is returned when an algorithm breaks the output shape
// contract.
var ErrShapeMismatch = errors.New("algorithm output shape mismatch")

// Mode selects what a single algorithm call receives.
type Mode uint8

const (
	// WholeStack passes every selected band in one array.
	WholeStack Mode = iota
	// PerBand passes one band at a time; the engine creates one work item per
	// band and window.
	PerBand
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == PerBand {
		return "per-band"
	}
	return "whole-stack"
}

// Algorithm transforms one window of pixels.
type Algorithm interface {
	Compute(in *raster.Array, args Args) (*raster.Array, error)
}

// AlgorithmFunc adapts a function to the Algorithm interface.
type AlgorithmFunc func(in *raster.Array, args Args) (*raster.Array, error)

// Compute calls f(in, args).
func (f AlgorithmFunc) Compute(in *raster.Array, args Args) (*raster.Array, error) {
	return f(in, args)
}

// Argument declares a parameter consumed by an algorithm.
type Argument struct {
	Name    string `json:"name"`
	Default any    `json:"default"`
	Help    string `json:"help,omitempty"`
}

// Unit is a named transformation with its execution metadata.
//
// A Unit is configured once and then shared read-only by every engine worker;
// Configure must not be called while a run is in progress.
type Unit struct {
	name        string
	algorithm   Algorithm
	mode        Mode
	dtype       raster.DType
	procDType   raster.DType
	nodata      *float64
	compress    string
	aliases     []string
	help        string
	description string
	arguments   []Argument
	values      Args
}

// Option configures a Unit.
type Option func(*Unit)

// WithMode sets the processing mode.
func WithMode(m Mode) Option {
	return func(u *Unit) { u.mode = m }
}

// WithDType sets the data type of the output raster.
func WithDType(dt raster.DType) Option {
	return func(u *Unit) { u.dtype = dt }
}

// WithProcessingDType sets the type windows are cast to before compute.
// It defaults to the output data type.
func WithProcessingDType(dt raster.DType) Option {
	return func(u *Unit) { u.procDType = dt }
}

// WithNoData sets the nodata value of the output raster.
func WithNoData(v float64) Option {
	return func(u *Unit) { u.nodata = &v }
}

// WithCompress sets the output compression name (e.g. "lzw", "deflate").
func WithCompress(c string) Option {
	return func(u *Unit) { u.compress = c }
}

// WithDocumentation sets the help line, long description and aliases.
func WithDocumentation(help, description string, aliases ...string) Option {
	return func(u *Unit) {
		u.help = help
		u.description = description
		u.aliases = aliases
	}
}

// WithArguments declares algorithm arguments. Their defaults become the
// initial configured values.
func WithArguments(args ...Argument) Option {
	return func(u *Unit) {
		for _, a := range args {
			u.declare(a)
		}
	}
}

// NewUnit creates a unit. A nil algorithm makes Compute return its input.
func NewUnit(name string, algorithm Algorithm, opts ...Option) *Unit {
	u := &Unit{
		name:      name,
		algorithm: algorithm,
		values:    Args{},
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Identity returns a unit that copies its input, keeping the given output type.
func Identity(dt raster.DType) *Unit {
	return NewUnit("identity", nil, WithDType(dt),
		WithDocumentation("Copy the input", "Copy the input raster window by window"))
}

func (u *Unit) declare(a Argument) {
	i := slices.IndexFunc(u.arguments, func(x Argument) bool { return x.Name == a.Name })
	if i >= 0 {
		u.arguments[i] = a
	} else {
		u.arguments = append(u.arguments, a)
	}
	u.values[a.Name] = a.Default
}

// Name returns the display name of the unit.
func (u *Unit) Name() string { return u.name }

// String implements fmt.Stringer.
func (u *Unit) String() string { return u.name }

// Mode returns the processing mode.
func (u *Unit) Mode() Mode { return u.mode }

// DType returns the output data type, or raster.Unknown when the unit does
// not set one.
func (u *Unit) DType() raster.DType { return u.dtype }

// ProcessingDType returns the type windows are cast to before compute, or
// raster.Unknown when the unit does not set one.
func (u *Unit) ProcessingDType() raster.DType {
	if u.procDType != raster.Unknown {
		return u.procDType
	}
	return u.dtype
}

// NoData returns the output nodata value, or nil.
func (u *Unit) NoData() *float64 { return u.nodata }

// Compress returns the output compression, or "".
func (u *Unit) Compress() string { return u.compress }

// Help returns the one-line help.
func (u *Unit) Help() string { return u.help }

// Description returns the long description.
func (u *Unit) Description() string { return u.description }

// Aliases returns the alternative names of the unit.
func (u *Unit) Aliases() []string { return slices.Clone(u.aliases) }

// Arguments returns the declared arguments.
func (u *Unit) Arguments() []Argument { return slices.Clone(u.arguments) }

// Args returns a copy of the configured argument values.
func (u *Unit) Args() Args { return maps.Clone(u.values) }

// Configure sets the values of declared arguments. Keys that the unit did not
// declare are ignored.
func (u *Unit) Configure(values map[string]any) {
	for _, a := range u.arguments {
		if v, ok := values[a.Name]; ok {
			u.values[a.Name] = v
		}
	}
}

// Compute runs the algorithm on one window. It returns in unchanged when the
// unit has no algorithm, and fails with ErrShapeMismatch when the result does
// not keep the input height and width, or the band count required by the mode.
func (u *Unit) Compute(in *raster.Array) (*raster.Array, error) {
	if u.algorithm == nil {
		return in, nil
	}
	out, err := u.algorithm.Compute(in, u.values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", u.name, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%s: %w: nil result", u.name, ErrShapeMismatch)
	}
	if out.Height != in.Height || out.Width != in.Width {
		return nil, fmt.Errorf("%s: %w: got %dx%d, want %dx%d",
			u.name, ErrShapeMismatch, out.Width, out.Height, in.Width, in.Height)
	}
	if out.Bands != in.Bands {
		return nil, fmt.Errorf("%s: %w: got %d bands, want %d (%s)",
			u.name, ErrShapeMismatch, out.Bands, in.Bands, u.mode)
	}
	if len(out.Data) != out.Bands*out.Height*out.Width {
		return nil, fmt.Errorf("%s: %w: %d values for shape %v", u.name, ErrShapeMismatch, len(out.Data), out.Shape())
	}
	return out, nil
}

// Usage renders the unit's help and arguments on several lines.
func (u *Unit) Usage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", u.name, u.help)
	for _, a := range u.arguments {
		fmt.Fprintf(&b, "  %s (default %v): %s\n", a.Name, a.Default, a.Help)
	}
	return b.String()
}
