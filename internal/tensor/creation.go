package tensor

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	b := tensor.Zeros(tensor.Shape{3, 4}, tensor.Float32)
func Zeros(shape Shape, dtype DataType) *RawTensor {
	return MustRaw(shape, dtype)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape, dtype DataType) *RawTensor {
	return Full(shape, 1, dtype)
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float64, dtype DataType) *RawTensor {
	t := MustRaw(shape, dtype)
	switch dtype {
	case Float32:
		data := t.AsFloat32()
		for i := range data {
			data[i] = float32(value)
		}
	case Float64:
		data := t.AsFloat64()
		for i := range data {
			data[i] = value
		}
	}
	return t
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T Float](data []T, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d",
			ErrShapeMismatch, shape, shape.NumElements(), len(data))
	}

	t, err := NewRaw(shape, DataTypeOf[T]())
	if err != nil {
		return nil, err
	}
	copy(Data[T](t), data)
	return t, nil
}

// FromFloat64s creates a tensor of the given dtype from float64 values.
func FromFloat64s(data []float64, shape Shape, dtype DataType) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("%w: shape %v requires %d elements, but got %d",
			ErrShapeMismatch, shape, shape.NumElements(), len(data))
	}
	t, err := NewRaw(shape, dtype)
	if err != nil {
		return nil, err
	}
	t.SetFloat64s(data)
	return t, nil
}

// Randn creates a tensor of independent draws from N(0, scale²).
//
// Samples come from a gonum normal distribution driven by src, so two calls
// with identically seeded sources produce identical tensors. A nil src uses
// the global math/rand/v2 generator.
//
// Example:
//
//	src := rand.NewPCG(42, 42)
//	w := tensor.Randn(tensor.Shape{32, 3, 7, 7}, tensor.Float32, 1e-3, src)
func Randn(shape Shape, dtype DataType, scale float64, src rand.Source) *RawTensor {
	t := MustRaw(shape, dtype)
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	values := make([]float64, t.NumElements())
	for i := range values {
		values[i] = scale * dist.Rand()
	}
	t.SetFloat64s(values)
	return t
}
