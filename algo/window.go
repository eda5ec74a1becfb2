package algo

import (
	"fmt"

	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/registry"
	"github.com/dudk/timbre/standard"
)

// windows maps window names to functions which multiply sequence by the
// window in place.
var windows = map[string]func([]float64) []float64{
	"hann":           window.Hann,
	"hamming":        window.Hamming,
	"triangular":     window.Triangular,
	"square":         window.Rectangular,
	"blackman":       window.Blackman,
	"blackmanharris": window.BlackmanHarris,
}

// WindowingDescriptor describes windowing.
var WindowingDescriptor = registry.Descriptor{
	Name:        "Windowing",
	Category:    Standard,
	Description: "Applies a window function to the frame and optionally pads it with zeros.",
	Parameters: []param.Spec{
		{
			Name:       "type",
			Kind:       param.String,
			Constraint: param.Choice{"hann", "hamming", "triangular", "square", "blackman", "blackmanharris"},
			Default:    "hann",
		},
		{
			Name:        "zeroPadding",
			Description: "number of zeros added to the windowed frame",
			Kind:        param.Integer,
			Constraint:  param.MustRange("[0,inf)"),
			Default:     0,
		},
		{
			Name:        "zeroPhase",
			Description: "whether to center the window around the first sample",
			Kind:        param.Bool,
			Default:     true,
		},
		{
			Name:        "normalized",
			Description: "whether to scale the window so its area is 2",
			Kind:        param.Bool,
			Default:     true,
		},
	},
	Inputs:  []registry.PortSpec{{Name: "frame", Type: timbre.RealVec}},
	Outputs: []registry.PortSpec{{Name: "frame", Type: timbre.RealVec}},
}

// Windowing multiplies frame by window function.
type Windowing struct {
	apply       func([]float64) []float64
	zeroPadding int
	zeroPhase   bool
	normalized  bool
	// coefficients are cached for the last frame size.
	coefficients []float64
}

// Configure implements standard.Algorithm.
func (a *Windowing) Configure(p param.Set) error {
	apply, ok := windows[p.String("type")]
	if !ok {
		return fmt.Errorf("%w: window %s", timbre.ErrNotFound, p.String("type"))
	}
	a.apply = apply
	a.zeroPadding = p.Int("zeroPadding")
	a.zeroPhase = p.Bool("zeroPhase")
	a.normalized = p.Bool("normalized")
	a.coefficients = nil
	return nil
}

// Reset implements standard.Algorithm.
func (a *Windowing) Reset() {}

// Compute implements standard.Algorithm.
func (a *Windowing) Compute(in standard.Inputs) (standard.Outputs, error) {
	frame, err := input[[]float64](in, "frame")
	if err != nil {
		return nil, err
	}
	n := len(frame)
	if n < 2 {
		return nil, fmt.Errorf("%w: window of %d samples", timbre.ErrInvalidInput, n)
	}
	w := a.window(n)
	out := make([]float64, n+a.zeroPadding)
	if !a.zeroPhase {
		floats.MulTo(out[:n], frame, w)
		return standard.Outputs{"frame": out}, nil
	}
	// second half of the windowed frame goes first, first half goes last.
	half := n / 2
	floats.MulTo(out[:n-half], frame[half:], w[half:])
	floats.MulTo(out[len(out)-half:], frame[:half], w[:half])
	return standard.Outputs{"frame": out}, nil
}

func (a *Windowing) window(n int) []float64 {
	if len(a.coefficients) == n {
		return a.coefficients
	}
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	a.apply(w)
	if a.normalized {
		floats.Scale(2/floats.Sum(w), w)
	}
	a.coefficients = w
	return w
}
