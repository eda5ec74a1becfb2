// Package audiofile provides streaming generator which loads audio files.
//
// WAV and AIFF files with 8, 16, 24 or 32 bit integer samples are supported.
// Format is chosen by file extension. Channels are mixed down to mono.
package audiofile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/registry"
	"github.com/dudk/timbre/stream"
)

var (
	// ErrUnsupportedFormat is returned when file extension is not known.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrUnsupportedBitDepth is returned when samples have unsupported bit depth.
	ErrUnsupportedBitDepth = errors.New("only 8, 16, 24 and 32 bit depth is supported")
	// ErrInvalidFile is returned when file content doesn't match its format.
	ErrInvalidFile = errors.New("invalid audio file")
)

// Descriptor describes audio loader.
var Descriptor = registry.Descriptor{
	Name:        "AudioLoader",
	Category:    "Input/Output",
	Description: "Loads WAV or AIFF file and emits its mono mix in chunks.",
	Parameters: []param.Spec{
		{
			Name:        "filename",
			Description: "path to the file, extension defines the format",
			Kind:        param.String,
		},
		{
			Name:        "bufferSize",
			Description: "the number of frames in every chunk",
			Kind:        param.Integer,
			Constraint:  param.MustRange("[1,inf)"),
			Default:     1024,
		},
	},
	Outputs: []registry.PortSpec{
		{Name: "audio", Type: timbre.RealVec, Description: "chunks of mono signal"},
		{Name: "sampleRate", Type: timbre.Real, Description: "emitted once before the first chunk"},
		{Name: "numberChannels", Type: timbre.Integer, Description: "emitted once before the first chunk"},
	},
}

// Register adds audio loader to registry.
func Register(r *registry.Registry[stream.Algorithm]) {
	r.Register(Descriptor, func(registry.Descriptor) stream.Algorithm {
		return NewLoader()
	})
}

type decoder interface {
	PCMBuffer(*audio.IntBuffer) (int, error)
}

// Loader reads audio file. File is opened on the first step after reset
// and closed when it's read.
type Loader struct {
	stream.Base
	filename   string
	bufferSize int

	file     *os.File
	decoder  decoder
	buffer   *audio.IntBuffer
	channels int
	bitDepth int
}

// NewLoader returns not configured loader.
func NewLoader() *Loader {
	l := &Loader{}
	l.Init(l, Descriptor)
	return l
}

// Configure implements stream.Algorithm.
func (l *Loader) Configure(p param.Set) error {
	if !p.IsConfigured("filename") || p.String("filename") == "" {
		return fmt.Errorf("%w: filename is not set", timbre.ErrConfiguration)
	}
	if _, err := format(p.String("filename")); err != nil {
		return err
	}
	l.filename = p.String("filename")
	l.bufferSize = p.Int("bufferSize")
	return l.Close()
}

// Reset closes the file, the next step opens it again.
func (l *Loader) Reset() {
	// file was opened for reading.
	_ = l.Close()
}

// Close closes the file if it's open.
func (l *Loader) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.decoder = nil
	return err
}

// Process emits next chunk of mono signal.
func (l *Loader) Process() (stream.Status, error) {
	if l.decoder == nil {
		if err := l.open(); err != nil {
			return stream.Finished, err
		}
	}
	n, err := l.decoder.PCMBuffer(l.buffer)
	if err != nil && err != io.EOF {
		return stream.Finished, fmt.Errorf("read %s: %w", l.filename, err)
	}
	if n > 0 {
		l.Outputs()[0].Push(mix(l.buffer.Data[:n], l.channels, l.bitDepth))
	}
	if n < len(l.buffer.Data) {
		return stream.Finished, l.Close()
	}
	return stream.Continue, nil
}

// open opens the file and emits its properties.
func (l *Loader) open() error {
	f, err := format(l.filename)
	if err != nil {
		return err
	}
	file, err := os.Open(l.filename)
	if err != nil {
		return err
	}
	var (
		d          decoder
		valid      bool
		sampleRate int
	)
	// decoders keep reading from the position where info was parsed.
	switch f {
	case wavFormat:
		wd := wav.NewDecoder(file)
		valid = wd.IsValidFile()
		if valid {
			wd.ReadInfo()
			sampleRate, l.channels, l.bitDepth = int(wd.SampleRate), int(wd.NumChans), int(wd.BitDepth)
		}
		d = wd
	case aiffFormat:
		ad := aiff.NewDecoder(file)
		valid = ad.IsValidFile()
		if valid {
			ad.ReadInfo()
			sampleRate, l.channels, l.bitDepth = ad.SampleRate, int(ad.NumChans), int(ad.BitDepth)
		}
		d = ad
	}
	if !valid || l.channels == 0 {
		return closeWith(file, fmt.Errorf("%w: %s", ErrInvalidFile, l.filename))
	}
	switch l.bitDepth {
	case 8, 16, 24, 32:
	default:
		return closeWith(file, fmt.Errorf("%w: %s has %d bits", ErrUnsupportedBitDepth, l.filename, l.bitDepth))
	}
	l.file = file
	l.decoder = d
	l.buffer = &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: l.channels, SampleRate: sampleRate},
		Data:           make([]int, l.bufferSize*l.channels),
		SourceBitDepth: l.bitDepth,
	}
	l.Outputs()[1].Push(float64(sampleRate))
	l.Outputs()[2].Push(l.channels)
	return nil
}

func closeWith(file *os.File, err error) error {
	if cerr := file.Close(); cerr != nil {
		return timbre.Errors{err, cerr}
	}
	return err
}

type fileFormat int

const (
	wavFormat fileFormat = iota
	aiffFormat
)

func format(filename string) (fileFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav", ".wave":
		return wavFormat, nil
	case ".aif", ".aiff":
		return aiffFormat, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
}

// mix converts interleaved integer samples into mono float samples in
// range [-1, 1).
func mix(data []int, channels, bitDepth int) []float64 {
	scale := float64(int64(1) << uint(bitDepth-1))
	frames := len(data) / channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(data[i*channels+c])
		}
		mono[i] = sum / float64(channels) / scale
	}
	return mono
}
