// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand/v2"

	"github.com/born-ml/convnet/internal/tensor"
)

// Type aliases for public API

// Float is a constraint for the element types a tensor can hold.
type Float = tensor.Float

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Shape represents tensor dimensions.
type Shape = tensor.Shape

// RawTensor is the dense tensor representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType()
//   - Type-safe data access via AsFloat32(), AsFloat64()
//   - Dtype-independent access via At(), Set(), Float64s()
//   - Deep copies via Clone()
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32)
//	data := raw.AsFloat32()
//	clone := raw.Clone()
type RawTensor = tensor.RawTensor

// Errors returned by tensor constructors.
var (
	ErrUnsupportedDType = tensor.ErrUnsupportedDType
	ErrShapeMismatch    = tensor.ErrShapeMismatch
)

// NewRaw allocates a zero-filled tensor.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// ParseDataType parses "float32"/"f32" or "float64"/"f64".
func ParseDataType(name string) (DataType, error) {
	return tensor.ParseDataType(name)
}

// Zeros creates a tensor filled with zeros.
func Zeros(shape Shape, dtype DataType) *RawTensor {
	return tensor.Zeros(shape, dtype)
}

// Ones creates a tensor filled with ones.
func Ones(shape Shape, dtype DataType) *RawTensor {
	return tensor.Ones(shape, dtype)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float64, dtype DataType) *RawTensor {
	return tensor.Full(shape, value, dtype)
}

// FromSlice creates a tensor that takes ownership of data.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
func FromSlice[T Float](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// FromFloat64s copies data into a new tensor of the given dtype.
func FromFloat64s(data []float64, shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.FromFloat64s(data, shape, dtype)
}

// Randn creates a tensor of normal samples with standard deviation scale.
// A nil src uses the global generator.
func Randn(shape Shape, dtype DataType, scale float64, src rand.Source) *RawTensor {
	return tensor.Randn(shape, dtype, scale, src)
}

// Data returns the backing slice of r as []T. It panics if T does not match
// the tensor's dtype.
func Data[T Float](r *RawTensor) []T {
	return tensor.Data[T](r)
}
