/*
Package algo provides leaf algorithms of both flavors.

Most algorithms are standard ones: they compute outputs from a single set
of inputs. Their streaming versions are produced with stream.Wrap and
consume one token per input on every step. A few algorithms are streaming
only: VectorInput generates chunks of a vector, FrameCutter slices chunked
signal into overlapping frames and Spectrum is a composite of FFT and
Magnitude.

Transform algorithms take plans from the fft subsystem provided to
Register. Every instance owns its cache and releases it on Close.
*/
package algo

import (
	"github.com/dudk/timbre/fft"
	"github.com/dudk/timbre/registry"
	"github.com/dudk/timbre/standard"
	"github.com/dudk/timbre/stream"
)

// Algorithm categories.
const (
	Spectral   = "Spectral"
	Statistics = "Statistics"
	Temporal   = "Temporal"
	Standard   = "Standard"
	Streaming  = "Streaming"
)

// Register adds algorithms to registries. Every standard algorithm except
// PoolAggregator is also registered as streaming one. Transform algorithms
// take their plans from provided subsystem.
func Register(std *registry.Registry[standard.Algorithm], str *registry.Registry[stream.Algorithm], transforms *fft.Subsystem) {
	constructors := []struct {
		descriptor  registry.Descriptor
		constructor registry.Constructor[standard.Algorithm]
	}{
		{FFTDescriptor, func(registry.Descriptor) standard.Algorithm { return NewFFT(transforms) }},
		{IFFTDescriptor, func(registry.Descriptor) standard.Algorithm { return NewIFFT(transforms) }},
		{SpectrumDescriptor, func(registry.Descriptor) standard.Algorithm { return NewSpectrum(transforms) }},
		{MagnitudeDescriptor, func(registry.Descriptor) standard.Algorithm { return &Magnitude{} }},
		{WindowingDescriptor, func(registry.Descriptor) standard.Algorithm { return &Windowing{} }},
		{EnergyDescriptor, func(registry.Descriptor) standard.Algorithm { return &Energy{} }},
		{RMSDescriptor, func(registry.Descriptor) standard.Algorithm { return &RMS{} }},
		{CentroidDescriptor, func(registry.Descriptor) standard.Algorithm { return &Centroid{} }},
		{ZeroCrossingRateDescriptor, func(registry.Descriptor) standard.Algorithm { return &ZeroCrossingRate{} }},
	}
	for _, c := range constructors {
		std.Register(c.descriptor, c.constructor)
		str.Register(c.descriptor, stream.WrapConstructor(c.constructor))
	}
	std.Register(PoolAggregatorDescriptor, func(registry.Descriptor) standard.Algorithm {
		return &PoolAggregator{}
	})

	str.Register(VectorInputDescriptor, func(registry.Descriptor) stream.Algorithm {
		return NewVectorInput()
	})
	str.Register(FrameCutterDescriptor, func(registry.Descriptor) stream.Algorithm {
		return NewFrameCutter()
	})
	registerOutputs(str)
	// composite replaces wrapped spectrum.
	str.Register(SpectrumDescriptor, func(registry.Descriptor) stream.Algorithm {
		return NewStreamingSpectrum(transforms)
	})
}
