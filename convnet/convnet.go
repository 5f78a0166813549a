// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package convnet

import (
	"math/rand/v2"

	"github.com/born-ml/convnet/internal/convnet"
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// Model is a three-layer convolutional classifier.
type Model = convnet.Model

// Configuration types.
type (
	Config          = convnet.Config
	InputShape      = convnet.InputShape
	BatchNormConfig = convnet.BatchNormConfig
	Geometry        = convnet.Geometry
)

// Round-trip types.
type (
	Params    = convnet.Params
	NormState = convnet.NormState
	Cache     = convnet.Cache
	Result    = convnet.Result
	Variant   = convnet.Variant
	Option    = convnet.Option
)

// Mode selects training or evaluation behavior of normalization layers.
type Mode = nn.Mode

// Modes.
const (
	Train Mode = nn.Train
	Eval  Mode = nn.Eval
)

// Pipeline variants.
const (
	Plain      Variant = convnet.Plain
	Normalized Variant = convnet.Normalized
)

// Parameter keys.
const (
	KeyW1     = convnet.KeyW1
	KeyB1     = convnet.KeyB1
	KeyW2     = convnet.KeyW2
	KeyB2     = convnet.KeyB2
	KeyW3     = convnet.KeyW3
	KeyB3     = convnet.KeyB3
	KeyGamma1 = convnet.KeyGamma1
	KeyBeta1  = convnet.KeyBeta1
	KeyGamma2 = convnet.KeyGamma2
	KeyBeta2  = convnet.KeyBeta2
)

// Errors. Classify with errors.Is.
var (
	ErrConfig   = convnet.ErrConfig
	ErrShape    = convnet.ErrShape
	ErrSequence = convnet.ErrSequence
)

// New validates cfg and builds a model with freshly initialized parameters.
func New(cfg Config, opts ...Option) (*Model, error) {
	return convnet.New(cfg, opts...)
}

// DefaultConfig returns the default configuration: 3x32x32 input, 32 7x7
// filters, 100 hidden units, 10 classes, float32, no normalization.
func DefaultConfig() Config {
	return convnet.DefaultConfig()
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	return convnet.LoadConfig(path)
}

// ParseConfig parses YAML on top of DefaultConfig.
func ParseConfig(data []byte) (Config, error) {
	return convnet.ParseConfig(data)
}

// NewGeometry derives the layer sizes for cfg.
func NewGeometry(cfg Config) (Geometry, error) {
	return convnet.NewGeometry(cfg)
}

// WithBackend sets the kernels the model computes with.
func WithBackend(be nn.Backend) Option {
	return convnet.WithBackend(be)
}

// WithSource sets the random source used to initialize weights.
func WithSource(src rand.Source) Option {
	return convnet.WithSource(src)
}

// RegLoss returns 0.5 * reg * the sum of squared W1, W2 and W3 entries.
func RegLoss(p *Params, reg float64) float64 {
	return convnet.RegLoss(p, reg)
}

// Argmax returns the highest-scoring class of every row of scores.
func Argmax(scores *tensor.RawTensor) []int {
	return convnet.Argmax(scores)
}
