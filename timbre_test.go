package timbre_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudk/timbre"
)

type aggregator struct{}

func (aggregator) DescriptorNames() []string { return nil }

func TestOf(t *testing.T) {
	var tests = []struct {
		value    interface{}
		expected timbre.Type
		vector   bool
	}{
		{value: 1.0, expected: timbre.Real},
		{value: 1, expected: timbre.Integer},
		{value: "a", expected: timbre.String},
		{value: 1i, expected: timbre.Complex},
		{value: timbre.StereoSample{Left: 1}, expected: timbre.StereoSampleType},
		{value: aggregator{}, expected: timbre.Pool},
		{value: []float64{}, expected: timbre.RealVec, vector: true},
		{value: []string{}, expected: timbre.StringVec, vector: true},
		{value: []complex128{}, expected: timbre.ComplexVec, vector: true},
		{value: []timbre.StereoSample{}, expected: timbre.StereoSampleVec, vector: true},
		{value: [][]float64{}, expected: timbre.RealMatrix, vector: true},
		{value: [][]string{}, expected: timbre.StringMatrix, vector: true},
		{value: [][]complex128{}, expected: timbre.ComplexMatrix, vector: true},
	}
	for _, tt := range tests {
		typ, ok := timbre.Of(tt.value)
		assert.True(t, ok, "%T", tt.value)
		assert.Equal(t, tt.expected, typ, "%T", tt.value)
		assert.Equal(t, tt.vector, typ.IsVector(), "%T", tt.value)
	}

	for _, v := range []interface{}{nil, float32(1), []int{1}, struct{}{}} {
		typ, ok := timbre.Of(v)
		assert.False(t, ok, "%T", v)
		assert.Equal(t, timbre.Undefined, typ, "%T", v)
	}
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "RealVec", timbre.RealVec.String())
	assert.Equal(t, "StereoSample", timbre.StereoSampleType.String())
	assert.Equal(t, "Undefined", timbre.Type(-1).String())
}

func TestErrors(t *testing.T) {
	errClose := errors.New("close failed")
	var errs timbre.Errors
	assert.Nil(t, errs.Ret())

	errs = append(errs, fmt.Errorf("%w: algorithm Gain", timbre.ErrNotFound), errClose)
	err := errs.Ret()
	assert.ErrorIs(t, err, timbre.ErrNotFound)
	assert.ErrorIs(t, err, errClose)
	assert.False(t, errors.Is(err, timbre.ErrGraph))
	assert.Equal(t, "not found: algorithm Gain, close failed", err.Error())
}

func TestNewUID(t *testing.T) {
	a, b := timbre.NewUID(), timbre.NewUID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
