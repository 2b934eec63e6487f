package imaging

import (
	"image/color"
	"math"
	"testing"

	"github.com/ironsheep/raster-tools-mcp/internal/raster"
)

func TestLookupRamp(t *testing.T) {
	r, err := LookupRamp("")
	if err != nil {
		t.Fatalf("LookupRamp(\"\") failed: %v", err)
	}
	if r.Name != "gray" {
		t.Errorf("default ramp: got %s, want gray", r.Name)
	}

	if _, err := LookupRamp("rainbow"); err == nil {
		t.Error("LookupRamp should fail for unknown ramp")
	}

	names := RampNames()
	if len(names) != 4 || names[0] != "gray" {
		t.Errorf("RampNames: got %v", names)
	}
}

func TestRamp_At(t *testing.T) {
	gray, _ := LookupRamp("gray")

	tests := []struct {
		name string
		t    float64
		want color.NRGBA
	}{
		{"start", 0, color.NRGBA{0, 0, 0, 255}},
		{"end", 1, color.NRGBA{255, 255, 255, 255}},
		{"below", -3, color.NRGBA{0, 0, 0, 255}},
		{"above", 7, color.NRGBA{255, 255, 255, 255}},
		{"nan", math.NaN(), color.NRGBA{0, 0, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := gray.At(tt.t); got != tt.want {
				t.Errorf("At(%v): got %v, want %v", tt.t, got, tt.want)
			}
		})
	}

	// Lab blending keeps a gray ramp gray and increasing.
	prev := -1
	for i := 0; i <= 10; i++ {
		c := gray.At(float64(i) / 10)
		if c.R != c.G || c.G != c.B {
			t.Errorf("At(%v) not gray: %v", float64(i)/10, c)
		}
		if int(c.R) <= prev {
			t.Errorf("At(%v) = %d not increasing after %d", float64(i)/10, c.R, prev)
		}
		prev = int(c.R)
	}
}

func TestNewRamp_Invalid(t *testing.T) {
	if _, err := NewRamp("one", "#ffffff"); err == nil {
		t.Error("NewRamp should require two colours")
	}
	if _, err := NewRamp("bad", "#ffffff", "blue"); err == nil {
		t.Error("NewRamp should reject invalid hex colours")
	}
}

func TestColorize(t *testing.T) {
	gray, _ := LookupRamp("gray")
	a := raster.NewArray(1, 1, 4, raster.Float32)
	copy(a.Data, []float64{10, 20, math.NaN(), 5})
	a.SetMasked(0, 0, 3, true)

	img := Colorize(a, 0, gray, 10, 20)
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("lo pixel: got %v", got)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("hi pixel: got %v", got)
	}
	if img.NRGBAAt(2, 0).A != 0 {
		t.Error("NaN pixel should be transparent")
	}
	if img.NRGBAAt(3, 0).A != 0 {
		t.Error("masked pixel should be transparent")
	}
}

func TestComposite(t *testing.T) {
	a := raster.NewArray(3, 1, 2, raster.Uint8)
	copy(a.Data, []float64{0, 100, 50, 100, 100, 0})
	a.SetMasked(2, 0, 1, true)

	img := Composite(a, [3]int{0, 1, 2}, [3]float64{0, 0, 0}, [3]float64{100, 100, 100})
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{0, 128, 255, 255}) {
		t.Errorf("pixel 0: got %v, want {0 128 255 255}", got)
	}
	if img.NRGBAAt(1, 0).A != 0 {
		t.Error("pixel masked in the blue band should be transparent")
	}
}

func TestPercentileRange(t *testing.T) {
	a := raster.NewArray(1, 1, 101, raster.Float64)
	for i := range a.Data {
		a.Data[i] = float64(i)
	}
	a.SetMasked(0, 0, 100, true)

	lo, hi := PercentileRange(a, 0, 0)
	if lo != 0 || hi != 99 {
		t.Errorf("0%%: got [%v, %v], want [0, 99]", lo, hi)
	}
	lo, hi = PercentileRange(a, 0, 10)
	if lo != 10 || hi != 89 {
		t.Errorf("10%%: got [%v, %v], want [10, 89]", lo, hi)
	}

	empty := raster.NewArray(1, 1, 2, raster.Float64)
	empty.MaskValue(0)
	if lo, hi := PercentileRange(empty, 0, 2); lo != 0 || hi != 0 {
		t.Errorf("all masked: got [%v, %v], want [0, 0]", lo, hi)
	}
}
