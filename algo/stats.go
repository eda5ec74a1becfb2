package algo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/registry"
	"github.com/dudk/timbre/standard"
)

var (
	// EnergyDescriptor describes energy.
	EnergyDescriptor = registry.Descriptor{
		Name:        "Energy",
		Category:    Statistics,
		Description: "Computes the sum of squared values of an array.",
		Inputs:      []registry.PortSpec{{Name: "array", Type: timbre.RealVec}},
		Outputs:     []registry.PortSpec{{Name: "energy", Type: timbre.Real}},
	}

	// RMSDescriptor describes root mean square.
	RMSDescriptor = registry.Descriptor{
		Name:        "RMS",
		Category:    Statistics,
		Description: "Computes the root mean square of an array.",
		Inputs:      []registry.PortSpec{{Name: "array", Type: timbre.RealVec}},
		Outputs:     []registry.PortSpec{{Name: "rms", Type: timbre.Real}},
	}

	// CentroidDescriptor describes centroid.
	CentroidDescriptor = registry.Descriptor{
		Name:        "Centroid",
		Category:    Statistics,
		Description: "Computes the center of mass of an array scaled to the range.",
		Parameters: []param.Spec{
			{
				Name:        "range",
				Description: "the range of the array indices",
				Kind:        param.Real,
				Constraint:  param.MustRange("(0,inf)"),
				Default:     1.0,
			},
		},
		Inputs:  []registry.PortSpec{{Name: "array", Type: timbre.RealVec}},
		Outputs: []registry.PortSpec{{Name: "centroid", Type: timbre.Real}},
	}

	// ZeroCrossingRateDescriptor describes zero crossing rate.
	ZeroCrossingRateDescriptor = registry.Descriptor{
		Name:        "ZeroCrossingRate",
		Category:    Temporal,
		Description: "Computes the rate of sign changes of a signal.",
		Parameters: []param.Spec{
			{
				Name:        "threshold",
				Description: "values with smaller magnitude are treated as zero",
				Kind:        param.Real,
				Constraint:  param.MustRange("[0,inf]"),
				Default:     0.0,
			},
		},
		Inputs:  []registry.PortSpec{{Name: "signal", Type: timbre.RealVec}},
		Outputs: []registry.PortSpec{{Name: "zeroCrossingRate", Type: timbre.Real}},
	}
)

// Energy computes sum of squares.
type Energy struct{}

// Configure implements standard.Algorithm.
func (*Energy) Configure(param.Set) error { return nil }

// Reset implements standard.Algorithm.
func (*Energy) Reset() {}

// Compute implements standard.Algorithm.
func (*Energy) Compute(in standard.Inputs) (standard.Outputs, error) {
	array, err := nonEmpty(in, "array")
	if err != nil {
		return nil, err
	}
	return standard.Outputs{"energy": floats.Dot(array, array)}, nil
}

// RMS computes root mean square.
type RMS struct{}

// Configure implements standard.Algorithm.
func (*RMS) Configure(param.Set) error { return nil }

// Reset implements standard.Algorithm.
func (*RMS) Reset() {}

// Compute implements standard.Algorithm.
func (*RMS) Compute(in standard.Inputs) (standard.Outputs, error) {
	array, err := nonEmpty(in, "array")
	if err != nil {
		return nil, err
	}
	return standard.Outputs{"rms": math.Sqrt(floats.Dot(array, array) / float64(len(array)))}, nil
}

// Centroid computes center of mass of array.
type Centroid struct {
	scale float64
}

// Configure implements standard.Algorithm.
func (a *Centroid) Configure(p param.Set) error {
	a.scale = p.Real("range")
	return nil
}

// Reset implements standard.Algorithm.
func (a *Centroid) Reset() {}

// Compute implements standard.Algorithm. Centroid of array with zero sum or
// of a single element is zero.
func (a *Centroid) Compute(in standard.Inputs) (standard.Outputs, error) {
	array, err := nonEmpty(in, "array")
	if err != nil {
		return nil, err
	}
	sum := floats.Sum(array)
	if sum == 0 || len(array) == 1 {
		return standard.Outputs{"centroid": 0.0}, nil
	}
	var weighted float64
	for i, v := range array {
		weighted += float64(i) * v
	}
	step := a.scale / float64(len(array)-1)
	return standard.Outputs{"centroid": weighted / sum * step}, nil
}

// ZeroCrossingRate counts sign changes per sample.
type ZeroCrossingRate struct {
	threshold float64
}

// Configure implements standard.Algorithm.
func (a *ZeroCrossingRate) Configure(p param.Set) error {
	a.threshold = p.Real("threshold")
	return nil
}

// Reset implements standard.Algorithm.
func (a *ZeroCrossingRate) Reset() {}

// Compute implements standard.Algorithm.
func (a *ZeroCrossingRate) Compute(in standard.Inputs) (standard.Outputs, error) {
	signal, err := nonEmpty(in, "signal")
	if err != nil {
		return nil, err
	}
	positive := a.positive(signal[0])
	var crossings int
	for _, v := range signal[1:] {
		if p := a.positive(v); p != positive {
			crossings++
			positive = p
		}
	}
	return standard.Outputs{"zeroCrossingRate": float64(crossings) / float64(len(signal))}, nil
}

func (a *ZeroCrossingRate) positive(v float64) bool {
	if math.Abs(v) < a.threshold {
		return false
	}
	return v > 0
}

func nonEmpty(in standard.Inputs, name string) ([]float64, error) {
	array, err := input[[]float64](in, name)
	if err != nil {
		return nil, err
	}
	if len(array) == 0 {
		return nil, fmt.Errorf("%w: empty %s", timbre.ErrInvalidInput, name)
	}
	return array, nil
}
