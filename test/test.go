// Package test contains helper functions useful for testing timbre packages.
package test

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Properties of generated fixtures.
const (
	SampleRate = 44100
	BitDepth   = 16
)

// Sine returns n samples of sine wave with provided frequency and
// amplitude.
func Sine(frequency, amplitude float64, sampleRate, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = amplitude * math.Sin(2*math.Pi*frequency*float64(i)/float64(sampleRate))
	}
	return s
}

// Ramp returns n samples which grow linearly from zero by step.
func Ramp(step float64, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = float64(i) * step
	}
	return s
}

// WriteWav writes 16 bit wav file. Every channel must have the same length.
func WriteWav(path string, sampleRate int, channels ...[]float64) error {
	return write(path, func(f *os.File) encoder {
		return wav.NewEncoder(f, sampleRate, BitDepth, len(channels), 1)
	}, sampleRate, channels)
}

// WriteAiff writes 16 bit aiff file. Every channel must have the same
// length.
func WriteAiff(path string, sampleRate int, channels ...[]float64) error {
	return write(path, func(f *os.File) encoder {
		return aiff.NewEncoder(f, sampleRate, BitDepth, len(channels))
	}, sampleRate, channels)
}

// Quantize returns the value which sample has after it's written with
// fixture bit depth and read back.
func Quantize(sample float64) float64 {
	return float64(toInt(sample)) / scale
}

const scale = 1 << (BitDepth - 1)

type encoder interface {
	Write(*audio.IntBuffer) error
	Close() error
}

func write(path string, newEncoder func(*os.File) encoder, sampleRate int, channels [][]float64) error {
	if len(channels) == 0 {
		return fmt.Errorf("no channels to write to %s", path)
	}
	frames := len(channels[0])
	data := make([]int, 0, frames*len(channels))
	for i := 0; i < frames; i++ {
		for _, c := range channels {
			if len(c) != frames {
				return fmt.Errorf("channels of %s have different length", path)
			}
			data = append(data, toInt(c[i]))
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	e := newEncoder(f)
	err = e.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: len(channels), SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: BitDepth,
	})
	if err != nil {
		f.Close()
		return err
	}
	if err := e.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func toInt(sample float64) int {
	v := math.Round(sample * scale)
	if v > scale-1 {
		v = scale - 1
	}
	if v < -scale {
		v = -scale
	}
	return int(v)
}
