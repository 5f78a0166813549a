// Package tensor provides the dense tensor type shared by the convnet packages.
package tensor

import (
	"fmt"
	"strings"
)

// Float is the constraint satisfied by the element types a RawTensor can hold.
type Float interface {
	~float32 | ~float64
}

// DataType represents the runtime element type of a tensor.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// Valid reports whether dt is one of the supported data types.
func (dt DataType) Valid() bool {
	return dt == Float32 || dt == Float64
}

// ParseDataType converts a name such as "float32" into a DataType.
func ParseDataType(name string) (DataType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "float32", "f32":
		return Float32, nil
	case "float64", "f64":
		return Float64, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedDType, name)
	}
}

// MarshalYAML encodes the data type by name.
func (dt DataType) MarshalYAML() (any, error) {
	if !dt.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedDType, int(dt))
	}
	return dt.String(), nil
}

// UnmarshalYAML decodes a data type from its name.
func (dt *DataType) UnmarshalYAML(unmarshal func(any) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	parsed, err := ParseDataType(name)
	if err != nil {
		return err
	}
	*dt = parsed
	return nil
}

// DataTypeOf infers the DataType matching the type parameter T.
func DataTypeOf[T Float]() DataType {
	var dummy T
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	default:
		panic("unsupported type")
	}
}
