package tensor

import "errors"

// Common errors.
var (
	ErrUnsupportedDType = errors.New("unsupported data type")
	ErrShapeMismatch    = errors.New("shape mismatch")
)
