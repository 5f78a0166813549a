package convnet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/tensor"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, InputShape{Channels: 3, Height: 32, Width: 32}, cfg.Input)
	assert.Equal(t, 32, cfg.NumFilters)
	assert.Equal(t, 7, cfg.FilterSize)
	assert.Equal(t, 100, cfg.HiddenDim)
	assert.Equal(t, 10, cfg.NumClasses)
	assert.Equal(t, 1e-3, cfg.WeightScale)
	assert.Equal(t, 0.0, cfg.Reg)
	assert.Equal(t, tensor.Float32, cfg.DType)
	assert.False(t, cfg.UseBatchNorm)
	assert.Equal(t, 0.9, cfg.BatchNorm.Momentum)
	assert.Equal(t, 1e-5, cfg.BatchNorm.Eps)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"even filter", func(c *Config) { c.FilterSize = 4 }},
		{"zero filters", func(c *Config) { c.NumFilters = 0 }},
		{"negative height", func(c *Config) { c.Input.Height = -1 }},
		{"zero channels", func(c *Config) { c.Input.Channels = 0 }},
		{"zero hidden", func(c *Config) { c.HiddenDim = 0 }},
		{"zero classes", func(c *Config) { c.NumClasses = 0 }},
		{"unknown dtype", func(c *Config) { c.DType = tensor.DataType(9) }},
		{"negative reg", func(c *Config) { c.Reg = -1 }},
		{"negative scale", func(c *Config) { c.WeightScale = -1 }},
		{"odd conv output", func(c *Config) { c.Input.Height = 5 }},
		{"conv output below window", func(c *Config) { c.Input = InputShape{Channels: 3, Height: 1, Width: 1} }},
		{"momentum", func(c *Config) { c.UseBatchNorm = true; c.BatchNorm.Momentum = 1 }},
		{"eps", func(c *Config) { c.UseBatchNorm = true; c.BatchNorm.Eps = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, ErrConfig)

			_, err = New(cfg)
			require.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
input:
  channels: 1
  height: 8
  width: 6
num_filters: 4
filter_size: 3
dtype: float64
use_batchnorm: true
batchnorm:
  momentum: 0.5
seed: 7
`))
	require.NoError(t, err)

	assert.Equal(t, InputShape{Channels: 1, Height: 8, Width: 6}, cfg.Input)
	assert.Equal(t, 4, cfg.NumFilters)
	assert.Equal(t, 3, cfg.FilterSize)
	assert.Equal(t, tensor.Float64, cfg.DType)
	assert.True(t, cfg.UseBatchNorm)
	assert.Equal(t, 0.5, cfg.BatchNorm.Momentum)
	assert.Equal(t, uint64(7), cfg.Seed)
	// Unset fields keep their defaults.
	assert.Equal(t, 100, cfg.HiddenDim)
	assert.Equal(t, 1e-5, cfg.BatchNorm.Eps)
}

func TestParseConfigErrors(t *testing.T) {
	_, err := ParseConfig([]byte("hiden_dim: 3\n"))
	require.ErrorIs(t, err, ErrConfig, "unknown field")

	_, err = ParseConfig([]byte("dtype: int8\n"))
	require.ErrorIs(t, err, ErrConfig)

	_, err = ParseConfig([]byte("filter_size: 6\n"))
	require.ErrorIs(t, err, ErrConfig)

	cfg, err := ParseConfig(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("hidden_dim: 16\nreg: 0.25\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.HiddenDim)
	assert.Equal(t, 0.25, cfg.Reg)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
