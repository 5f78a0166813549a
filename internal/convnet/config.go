package convnet

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// InputShape is the (channels, height, width) of one input sample.
type InputShape struct {
	Channels int `yaml:"channels"`
	Height   int `yaml:"height"`
	Width    int `yaml:"width"`
}

// BatchNormConfig holds the normalization hyperparameters.
type BatchNormConfig struct {
	Momentum float64 `yaml:"momentum"`
	Eps      float64 `yaml:"eps"`
}

// Config describes the network. It is immutable once a Model is built.
type Config struct {
	Input        InputShape      `yaml:"input"`
	NumFilters   int             `yaml:"num_filters"`
	FilterSize   int             `yaml:"filter_size"`
	HiddenDim    int             `yaml:"hidden_dim"`
	NumClasses   int             `yaml:"num_classes"`
	WeightScale  float64         `yaml:"weight_scale"`
	Reg          float64         `yaml:"reg"`
	DType        tensor.DataType `yaml:"dtype"`
	UseBatchNorm bool            `yaml:"use_batchnorm"`
	BatchNorm    BatchNormConfig `yaml:"batchnorm"`

	// Seed makes parameter initialization reproducible. Zero draws a
	// random seed.
	Seed uint64 `yaml:"seed"`
}

// DefaultConfig returns the configuration for 32x32 RGB images and ten
// classes.
func DefaultConfig() Config {
	return Config{
		Input:       InputShape{Channels: 3, Height: 32, Width: 32},
		NumFilters:  32,
		FilterSize:  7,
		HiddenDim:   100,
		NumClasses:  10,
		WeightScale: 1e-3,
		Reg:         0,
		DType:       tensor.Float32,
		BatchNorm: BatchNormConfig{
			Momentum: nn.DefaultMomentum,
			Eps:      nn.DefaultEps,
		},
	}
}

// Validate reports the first configuration error, wrapped in ErrConfig.
// It also checks that the derived feature geometry agrees with what the
// convolution and pooling kernels produce.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"input channels", c.Input.Channels},
		{"input height", c.Input.Height},
		{"input width", c.Input.Width},
		{"num filters", c.NumFilters},
		{"filter size", c.FilterSize},
		{"hidden dim", c.HiddenDim},
		{"num classes", c.NumClasses},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return errors.Wrapf(ErrConfig, "%s must be positive, got %d", p.name, p.value)
		}
	}
	if c.FilterSize%2 == 0 {
		return errors.Wrapf(ErrConfig, "filter size must be odd, got %d", c.FilterSize)
	}
	if !c.DType.Valid() {
		return errors.Wrapf(ErrConfig, "unsupported dtype %s", c.DType)
	}
	if c.WeightScale < 0 {
		return errors.Wrapf(ErrConfig, "weight scale must be non-negative, got %g", c.WeightScale)
	}
	if c.Reg < 0 {
		return errors.Wrapf(ErrConfig, "regularization must be non-negative, got %g", c.Reg)
	}
	if c.UseBatchNorm {
		if c.BatchNorm.Momentum < 0 || c.BatchNorm.Momentum >= 1 {
			return errors.Wrapf(ErrConfig, "batchnorm momentum must be in [0, 1), got %g", c.BatchNorm.Momentum)
		}
		if c.BatchNorm.Eps <= 0 {
			return errors.Wrapf(ErrConfig, "batchnorm eps must be positive, got %g", c.BatchNorm.Eps)
		}
	}

	_, err := NewGeometry(c)
	return err
}

// LoadConfig reads a YAML configuration file. Fields missing from the file
// keep their DefaultConfig values; unknown fields are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read config")
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML configuration overlaid onto DefaultConfig and
// validates it.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrapf(ErrConfig, "decode config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
