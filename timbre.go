package timbre

import (
	"github.com/rs/xid"
)

// Type is a tag of the value carried by connectors and stored in pools.
// The set of tags is closed: every value passed between algorithms has
// exactly one of them.
type Type int

// Supported value types.
const (
	Undefined Type = iota
	Real
	Integer
	String
	Complex
	StereoSampleType
	Pool
	RealVec
	StringVec
	ComplexVec
	StereoSampleVec
	RealMatrix
	StringMatrix
	ComplexMatrix
)

var typeNames = map[Type]string{
	Undefined:        "Undefined",
	Real:             "Real",
	Integer:          "Integer",
	String:           "String",
	Complex:          "Complex",
	StereoSampleType: "StereoSample",
	Pool:             "Pool",
	RealVec:          "RealVec",
	StringVec:        "StringVec",
	ComplexVec:       "ComplexVec",
	StereoSampleVec:  "StereoSampleVec",
	RealMatrix:       "RealMatrix",
	StringMatrix:     "StringMatrix",
	ComplexMatrix:    "ComplexMatrix",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return typeNames[Undefined]
}

// IsVector returns true for types which hold a sequence of elements.
func (t Type) IsVector() bool {
	switch t {
	case RealVec, StringVec, ComplexVec, StereoSampleVec, RealMatrix, StringMatrix, ComplexMatrix:
		return true
	}
	return false
}

// StereoSample is a pair of left and right channel samples.
type StereoSample struct {
	Left  float64
	Right float64
}

// Aggregator is implemented by values which are carried with Pool tag.
type Aggregator interface {
	DescriptorNames() []string
}

// Of returns a type tag of the provided value. False is returned if
// value doesn't belong to the supported set.
func Of(v interface{}) (Type, bool) {
	switch v.(type) {
	case float64:
		return Real, true
	case int:
		return Integer, true
	case string:
		return String, true
	case complex128:
		return Complex, true
	case StereoSample:
		return StereoSampleType, true
	case []float64:
		return RealVec, true
	case []string:
		return StringVec, true
	case []complex128:
		return ComplexVec, true
	case []StereoSample:
		return StereoSampleVec, true
	case [][]float64:
		return RealMatrix, true
	case [][]string:
		return StringMatrix, true
	case [][]complex128:
		return ComplexMatrix, true
	case Aggregator:
		return Pool, true
	}
	return Undefined, false
}

// NewUID returns new unique id value.
func NewUID() string {
	return xid.New().String()
}
