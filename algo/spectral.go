package algo

import (
	"fmt"
	"math/cmplx"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/fft"
	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/registry"
	"github.com/dudk/timbre/standard"
	"github.com/dudk/timbre/stream"
)

var sizeParameter = param.Spec{
	Name:        "size",
	Description: "expected size of the input frame, used to create the plan in advance",
	Kind:        param.Integer,
	Constraint:  param.MustRange("[2,inf)"),
	Default:     1024,
}

var (
	// FFTDescriptor describes forward transform.
	FFTDescriptor = registry.Descriptor{
		Name:        "FFT",
		Category:    Standard,
		Description: "Computes the positive frequencies of the discrete Fourier transform of a real frame.",
		Parameters:  []param.Spec{sizeParameter},
		Inputs:      []registry.PortSpec{{Name: "frame", Type: timbre.RealVec, Description: "the input frame of even size"}},
		Outputs:     []registry.PortSpec{{Name: "fft", Type: timbre.ComplexVec, Description: "size/2+1 complex coefficients"}},
	}

	// IFFTDescriptor describes inverse transform.
	IFFTDescriptor = registry.Descriptor{
		Name:        "IFFT",
		Category:    Standard,
		Description: "Computes the real frame of positive frequencies of the discrete Fourier transform.",
		Parameters: []param.Spec{
			sizeParameter,
			{
				Name:        "normalize",
				Description: "whether to divide the frame by its size",
				Kind:        param.Bool,
				Default:     true,
			},
		},
		Inputs:  []registry.PortSpec{{Name: "fft", Type: timbre.ComplexVec}},
		Outputs: []registry.PortSpec{{Name: "frame", Type: timbre.RealVec}},
	}

	// MagnitudeDescriptor describes magnitude.
	MagnitudeDescriptor = registry.Descriptor{
		Name:        "Magnitude",
		Category:    Standard,
		Description: "Computes the absolute values of complex vector.",
		Inputs:      []registry.PortSpec{{Name: "complex", Type: timbre.ComplexVec}},
		Outputs:     []registry.PortSpec{{Name: "magnitude", Type: timbre.RealVec}},
	}

	// SpectrumDescriptor describes magnitude spectrum.
	SpectrumDescriptor = registry.Descriptor{
		Name:        "Spectrum",
		Category:    Spectral,
		Description: "Computes the magnitude spectrum of a real frame.",
		Parameters:  []param.Spec{sizeParameter},
		Inputs:      []registry.PortSpec{{Name: "frame", Type: timbre.RealVec}},
		Outputs:     []registry.PortSpec{{Name: "spectrum", Type: timbre.RealVec}},
	}
)

// transform holds a plan cache which is created on first use.
type transform struct {
	subsystem *fft.Subsystem
	cache     *fft.Cache
	// hint is the capacity of the first plan.
	hint int
}

func (t *transform) configure(p param.Set) error {
	size := p.Int("size")
	if size%2 != 0 {
		return fmt.Errorf("%w: size %d must be even", timbre.ErrInvalidSize, size)
	}
	t.hint = size
	return nil
}

func (t *transform) plan(size int) (*fft.Plan, error) {
	if t.cache == nil {
		c, err := t.subsystem.NewCache()
		if err != nil {
			return nil, err
		}
		t.cache = c
		if t.hint > size {
			if _, err := c.Plan(t.hint); err != nil {
				return nil, err
			}
		}
	}
	return t.cache.Plan(size)
}

// Close releases cached plan.
func (t *transform) Close() error {
	if t.cache == nil {
		return nil
	}
	return t.cache.Close()
}

// FFT computes forward transform of real frame.
type FFT struct {
	transform
}

// NewFFT returns forward transform which takes plans from subsystem.
func NewFFT(s *fft.Subsystem) *FFT {
	return &FFT{transform: transform{subsystem: s}}
}

// Configure implements standard.Algorithm.
func (a *FFT) Configure(p param.Set) error {
	return a.configure(p)
}

// Reset implements standard.Algorithm.
func (a *FFT) Reset() {}

// Compute implements standard.Algorithm.
func (a *FFT) Compute(in standard.Inputs) (standard.Outputs, error) {
	frame, err := input[[]float64](in, "frame")
	if err != nil {
		return nil, err
	}
	p, err := a.plan(len(frame))
	if err != nil {
		return nil, err
	}
	coefficients, err := p.Forward(nil, frame)
	if err != nil {
		return nil, err
	}
	return standard.Outputs{"fft": coefficients}, nil
}

// IFFT computes real frame from positive frequencies.
type IFFT struct {
	transform
	normalize bool
}

// NewIFFT returns inverse transform which takes plans from subsystem.
func NewIFFT(s *fft.Subsystem) *IFFT {
	return &IFFT{transform: transform{subsystem: s}}
}

// Configure implements standard.Algorithm.
func (a *IFFT) Configure(p param.Set) error {
	a.normalize = p.Bool("normalize")
	return a.configure(p)
}

// Reset implements standard.Algorithm.
func (a *IFFT) Reset() {}

// Compute implements standard.Algorithm.
func (a *IFFT) Compute(in standard.Inputs) (standard.Outputs, error) {
	coefficients, err := input[[]complex128](in, "fft")
	if err != nil {
		return nil, err
	}
	if len(coefficients) < 2 {
		return nil, fmt.Errorf("%w: ifft of %d coefficients", timbre.ErrInvalidInput, len(coefficients))
	}
	p, err := a.plan(2 * (len(coefficients) - 1))
	if err != nil {
		return nil, err
	}
	frame, err := p.Inverse(nil, coefficients, a.normalize)
	if err != nil {
		return nil, err
	}
	return standard.Outputs{"frame": frame}, nil
}

// Magnitude computes absolute values of complex vector.
type Magnitude struct{}

// Configure implements standard.Algorithm.
func (*Magnitude) Configure(param.Set) error { return nil }

// Reset implements standard.Algorithm.
func (*Magnitude) Reset() {}

// Compute implements standard.Algorithm.
func (*Magnitude) Compute(in standard.Inputs) (standard.Outputs, error) {
	c, err := input[[]complex128](in, "complex")
	if err != nil {
		return nil, err
	}
	return standard.Outputs{"magnitude": magnitude(c)}, nil
}

func magnitude(c []complex128) []float64 {
	m := make([]float64, len(c))
	for i := range c {
		m[i] = cmplx.Abs(c[i])
	}
	return m
}

// Spectrum computes magnitude spectrum of real frame.
type Spectrum struct {
	transform
}

// NewSpectrum returns spectrum which takes plans from subsystem.
func NewSpectrum(s *fft.Subsystem) *Spectrum {
	return &Spectrum{transform: transform{subsystem: s}}
}

// Configure implements standard.Algorithm.
func (a *Spectrum) Configure(p param.Set) error {
	return a.configure(p)
}

// Reset implements standard.Algorithm.
func (a *Spectrum) Reset() {}

// Compute implements standard.Algorithm.
func (a *Spectrum) Compute(in standard.Inputs) (standard.Outputs, error) {
	frame, err := input[[]float64](in, "frame")
	if err != nil {
		return nil, err
	}
	p, err := a.plan(len(frame))
	if err != nil {
		return nil, err
	}
	coefficients, err := p.Forward(nil, frame)
	if err != nil {
		return nil, err
	}
	return standard.Outputs{"spectrum": magnitude(coefficients)}, nil
}

// StreamingSpectrum is a composite of FFT and Magnitude.
type StreamingSpectrum struct {
	stream.Composite
	FFT       *stream.Wrapper
	Magnitude *stream.Wrapper
}

// NewStreamingSpectrum returns composite spectrum which takes plans from
// subsystem.
func NewStreamingSpectrum(s *fft.Subsystem) *StreamingSpectrum {
	a := &StreamingSpectrum{
		FFT:       stream.Wrap(FFTDescriptor, NewFFT(s)),
		Magnitude: stream.Wrap(MagnitudeDescriptor, &Magnitude{}),
	}
	a.Init(a, SpectrumDescriptor)
	a.Adopt(a.FFT, a.Magnitude)
	a.SetName(SpectrumDescriptor.Name)

	out, _ := a.FFT.Output("fft")
	in, _ := a.Magnitude.Input("complex")
	// ports are declared by descriptors above.
	_ = stream.Connect(out, in)
	frame, _ := a.FFT.Input("frame")
	spectrum, _ := a.Magnitude.Output("magnitude")
	_ = a.ProxyInput("frame", frame)
	_ = a.ProxyOutput("spectrum", spectrum)
	return a
}

// SetName names composite and its children after it.
func (a *StreamingSpectrum) SetName(name string) {
	a.Composite.SetName(name)
	a.FFT.SetName(name + ".fft")
	a.Magnitude.SetName(name + ".magnitude")
}

// Configure passes size to transform.
func (a *StreamingSpectrum) Configure(p param.Set) error {
	params, err := param.Resolve(FFTDescriptor.Parameters, param.Map{"size": p.Int("size")})
	if err != nil {
		return err
	}
	return a.FFT.Configure(params)
}

// Close releases transform plan.
func (a *StreamingSpectrum) Close() error {
	return a.FFT.Close()
}

// input returns typed value of required input.
func input[T any](in standard.Inputs, name string) (T, error) {
	var zero T
	raw, ok := in[name]
	if !ok {
		return zero, fmt.Errorf("%w: input %s", timbre.ErrNotFound, name)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("%w: input %s got %T", timbre.ErrTypeMismatch, name, raw)
	}
	return v, nil
}
