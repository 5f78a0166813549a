package tensor

import (
	"fmt"
)

// RawTensor is the untyped tensor representation used at package boundaries.
// It stores a dense row-major buffer whose element type is chosen at runtime,
// so one model can be configured for float32 or float64 without generics
// leaking into every signature.
type RawTensor struct {
	shape  Shape    // Tensor dimensions
	stride []int    // Memory strides (row-major)
	dtype  DataType // Runtime type information
	f32    []float32
	f64    []float64
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is zero-initialized.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	r := &RawTensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
	}
	switch dtype {
	case Float32:
		r.f32 = make([]float32, shape.NumElements())
	case Float64:
		r.f64 = make([]float64, shape.NumElements())
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, dtype)
	}
	return r, nil
}

// MustRaw is NewRaw for shapes already known to be valid.
// It panics on error and is intended for kernels and tests.
func MustRaw(shape Shape, dtype DataType) *RawTensor {
	r, err := NewRaw(shape, dtype)
	if err != nil {
		panic(err)
	}
	return r
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// AsFloat32 returns the backing []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	return r.f32
}

// AsFloat64 returns the backing []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	return r.f64
}

// Data returns the backing slice typed as T (zero-copy).
// Panics if T does not match the tensor's dtype.
func Data[T Float](r *RawTensor) []T {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return any(r.AsFloat32()).([]T)
	case float64:
		return any(r.AsFloat64()).([]T)
	default:
		panic("unsupported type")
	}
}

// At returns the element at the given indices as float64.
func (r *RawTensor) At(indices ...int) float64 {
	off := r.offset(indices)
	if r.dtype == Float32 {
		return float64(r.f32[off])
	}
	return r.f64[off]
}

// Set stores v at the given indices, converting to the tensor's dtype.
func (r *RawTensor) Set(v float64, indices ...int) {
	off := r.offset(indices)
	if r.dtype == Float32 {
		r.f32[off] = float32(v)
		return
	}
	r.f64[off] = v
}

func (r *RawTensor) offset(indices []int) int {
	if len(indices) != len(r.shape) {
		panic(fmt.Sprintf("expected %d indices, got %d", len(r.shape), len(indices)))
	}
	off := 0
	for i, idx := range indices {
		if idx < 0 || idx >= r.shape[i] {
			panic(fmt.Sprintf("index %d out of bounds for dimension %d (size %d)", idx, i, r.shape[i]))
		}
		off += idx * r.stride[i]
	}
	return off
}

// Float64s returns a float64 copy of the tensor's elements.
func (r *RawTensor) Float64s() []float64 {
	out := make([]float64, r.NumElements())
	if r.dtype == Float64 {
		copy(out, r.f64)
		return out
	}
	for i, v := range r.f32 {
		out[i] = float64(v)
	}
	return out
}

// SetFloat64s overwrites the tensor's elements from src, converting as needed.
// Panics if len(src) differs from NumElements.
func (r *RawTensor) SetFloat64s(src []float64) {
	if len(src) != r.NumElements() {
		panic(fmt.Sprintf("SetFloat64s: got %d values for %d elements", len(src), r.NumElements()))
	}
	if r.dtype == Float64 {
		copy(r.f64, src)
		return
	}
	for i, v := range src {
		r.f32[i] = float32(v)
	}
}

// Clone returns a deep copy of the tensor.
func (r *RawTensor) Clone() *RawTensor {
	c := &RawTensor{
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
	}
	if r.f32 != nil {
		c.f32 = append([]float32(nil), r.f32...)
	}
	if r.f64 != nil {
		c.f64 = append([]float64(nil), r.f64...)
	}
	return c
}

// Reshape returns a view with a new shape sharing the same storage.
// The number of elements must be unchanged.
func (r *RawTensor) Reshape(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("reshape: %w", err)
	}
	if shape.NumElements() != r.NumElements() {
		return nil, fmt.Errorf("%w: cannot reshape %v into %v", ErrShapeMismatch, r.shape, shape)
	}
	return &RawTensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  r.dtype,
		f32:    r.f32,
		f64:    r.f64,
	}, nil
}

// MustReshape is Reshape for callers that already validated the element count.
func (r *RawTensor) MustReshape(shape Shape) *RawTensor {
	v, err := r.Reshape(shape)
	if err != nil {
		panic(err)
	}
	return v
}

// Cast returns a copy of the tensor converted to dtype.
// The receiver is cloned when it already has the requested dtype.
func (r *RawTensor) Cast(dtype DataType) (*RawTensor, error) {
	if dtype == r.dtype {
		return r.Clone(), nil
	}
	out, err := NewRaw(r.shape, dtype)
	if err != nil {
		return nil, err
	}
	out.SetFloat64s(r.Float64s())
	return out, nil
}

// String returns a human-readable representation of the tensor.
func (r *RawTensor) String() string {
	return fmt.Sprintf("Tensor[%s]%v", r.dtype, r.shape)
}
