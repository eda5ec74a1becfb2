package algo

import (
	"fmt"
	"math"

	"github.com/dudk/timbre"
	"github.com/dudk/timbre/param"
	"github.com/dudk/timbre/registry"
	"github.com/dudk/timbre/stream"
)

var (
	// VectorInputDescriptor describes vector input.
	VectorInputDescriptor = registry.Descriptor{
		Name:        "VectorInput",
		Category:    Streaming,
		Description: "Emits a vector in chunks.",
		Parameters: []param.Spec{
			{
				Name:    "data",
				Kind:    param.RealVec,
				Default: []float64{},
			},
			{
				Name:        "bufferSize",
				Description: "the number of samples in every chunk",
				Kind:        param.Integer,
				Constraint:  param.MustRange("[1,inf)"),
				Default:     1024,
			},
		},
		Outputs: []registry.PortSpec{{Name: "data", Type: timbre.RealVec}},
	}

	// FrameCutterDescriptor describes frame cutter.
	FrameCutterDescriptor = registry.Descriptor{
		Name:        "FrameCutter",
		Category:    Streaming,
		Description: "Slices chunked signal into overlapping frames.",
		Parameters: []param.Spec{
			{
				Name:       "frameSize",
				Kind:       param.Integer,
				Constraint: param.MustRange("[1,inf)"),
				Default:    1024,
			},
			{
				Name:        "hopSize",
				Description: "the number of samples between starts of consecutive frames",
				Kind:        param.Integer,
				Constraint:  param.MustRange("[1,inf)"),
				Default:     512,
			},
			{
				Name:        "startFromZero",
				Description: "whether the first frame starts at the first sample or is centered on it",
				Kind:        param.Bool,
				Default:     false,
			},
			{
				Name:        "lastFrameToEndOfFile",
				Description: "whether frames starting from zero continue until the last hop reaches the end",
				Kind:        param.Bool,
				Default:     false,
			},
			{
				Name:        "validFrameThresholdRatio",
				Description: "frames with fewer samples than this ratio of frame size are dropped",
				Kind:        param.Real,
				Constraint:  param.MustRange("[0,1]"),
				Default:     0.0,
			},
		},
		Inputs:  []registry.PortSpec{{Name: "signal", Type: timbre.RealVec}},
		Outputs: []registry.PortSpec{{Name: "frame", Type: timbre.RealVec}},
	}
)

// VectorInput is a generator which emits vector in chunks of buffer size.
type VectorInput struct {
	stream.Base
	data       []float64
	bufferSize int
	position   int
}

// NewVectorInput returns generator of empty vector.
func NewVectorInput() *VectorInput {
	v := &VectorInput{bufferSize: 1024}
	v.Init(v, VectorInputDescriptor)
	return v
}

// Configure implements stream.Algorithm.
func (v *VectorInput) Configure(p param.Set) error {
	v.data = p.Reals("data")
	v.bufferSize = p.Int("bufferSize")
	v.position = 0
	return nil
}

// SetData replaces emitted vector and rewinds generator.
func (v *VectorInput) SetData(data []float64) {
	v.data = append([]float64(nil), data...)
	v.position = 0
}

// Reset rewinds generator.
func (v *VectorInput) Reset() {
	v.position = 0
}

// Process emits next chunk.
func (v *VectorInput) Process() (stream.Status, error) {
	if v.position >= len(v.data) {
		return stream.Finished, nil
	}
	end := v.position + v.bufferSize
	if end > len(v.data) {
		end = len(v.data)
	}
	v.Outputs()[0].Push(append([]float64(nil), v.data[v.position:end]...))
	v.position = end
	if v.position == len(v.data) {
		return stream.Finished, nil
	}
	return stream.Continue, nil
}

// FrameCutter slices chunked signal into frames. Frames are emitted as
// soon as all their samples are received. Frames which depend on the end of
// signal are emitted on flush.
type FrameCutter struct {
	stream.Base
	frameSize     int
	hopSize       int
	startFromZero bool
	toEnd         bool
	// threshold is the minimal number of samples in the frame.
	threshold int

	// buffer holds samples starting from offset.
	buffer []float64
	offset int
	start  int
	// emitted is set after the first frame.
	emitted bool
	last    bool
}

// NewFrameCutter returns not configured frame cutter.
func NewFrameCutter() *FrameCutter {
	c := &FrameCutter{}
	c.Init(c, FrameCutterDescriptor)
	return c
}

// Configure implements stream.Algorithm.
func (c *FrameCutter) Configure(p param.Set) error {
	ratio := p.Real("validFrameThresholdRatio")
	startFromZero := p.Bool("startFromZero")
	if !startFromZero && ratio > 0.5 {
		return fmt.Errorf("%w: validFrameThresholdRatio %v can't exceed 0.5 for frames centered on the first sample", timbre.ErrConfiguration, ratio)
	}
	c.frameSize = p.Int("frameSize")
	c.hopSize = p.Int("hopSize")
	c.startFromZero = startFromZero
	c.toEnd = p.Bool("lastFrameToEndOfFile")
	c.threshold = int(math.Round(ratio * float64(c.frameSize)))
	c.Reset()
	return nil
}

// Reset drops received samples.
func (c *FrameCutter) Reset() {
	c.buffer = c.buffer[:0]
	c.offset = 0
	c.start = 0
	if !c.startFromZero {
		c.start = -(c.frameSize + 1) / 2
	}
	c.emitted = false
	c.last = false
}

// Process consumes one chunk and emits every complete frame.
func (c *FrameCutter) Process() (stream.Status, error) {
	v, err := c.Inputs()[0].Pop()
	if err != nil {
		return stream.NoInput, nil
	}
	c.buffer = append(c.buffer, v.([]float64)...)
	if c.emit(false) == 0 {
		return stream.NoOutput, nil
	}
	return stream.Continue, nil
}

// Flush emits frames which reach the end of signal.
func (c *FrameCutter) Flush() error {
	c.emit(true)
	return nil
}

func (c *FrameCutter) emit(eos bool) int {
	var n int
	out := c.Outputs()[0]
	for {
		frame := c.next(eos)
		if frame == nil {
			return n
		}
		out.Push(frame)
		n++
	}
}

// next returns the next frame or nil. Until the end of signal only
// complete frames are returned.
func (c *FrameCutter) next(eos bool) []float64 {
	if c.last {
		return nil
	}
	c.trim()
	size := c.offset + len(c.buffer)
	if !eos {
		if c.start+c.frameSize > size {
			return nil
		}
	} else {
		if c.emitted && c.isLast(c.start-c.hopSize, size) {
			c.last = true
			return nil
		}
		if size == 0 || c.start >= size {
			c.last = true
			return nil
		}
	}

	frame := make([]float64, c.frameSize)
	filled := 0
	if c.start < 0 {
		filled = min(-c.start, c.frameSize)
	}
	n := min(c.frameSize, size-c.start) - filled
	copy(frame[filled:filled+n], c.buffer[c.start+filled-c.offset:])
	filled += n
	if filled < c.threshold {
		c.last = true
		return nil
	}
	c.emitted = true
	c.start += c.hopSize
	return frame
}

// isLast reports if frame starting at start is the last one of signal of
// provided size.
func (c *FrameCutter) isLast(start, size int) bool {
	switch {
	case !c.startFromZero:
		return start+c.frameSize/2 >= size
	case c.toEnd:
		return start >= size-c.hopSize
	}
	return start+c.frameSize >= size
}

// trim drops samples before the next frame.
func (c *FrameCutter) trim() {
	drop := c.start - c.offset
	if drop <= 0 {
		return
	}
	if drop > len(c.buffer) {
		drop = len(c.buffer)
	}
	c.buffer = c.buffer[:copy(c.buffer, c.buffer[drop:])]
	c.offset += drop
}
