package convnet

import "github.com/pkg/errors"

// Error kinds returned by the package. Callers classify with errors.Is.
var (
	// ErrConfig reports an invalid configuration, detected at construction.
	ErrConfig = errors.New("invalid configuration")

	// ErrShape reports an input, label or gradient tensor that does not
	// match the model's configuration.
	ErrShape = errors.New("shape mismatch")

	// ErrSequence reports a backward pass given a missing, foreign or
	// already consumed cache.
	ErrSequence = errors.New("invalid forward/backward sequence")
)
