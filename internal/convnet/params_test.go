package convnet

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/tensor"
)

func TestInitParamsShapes(t *testing.T) {
	cfg := DefaultConfig()
	geom, err := NewGeometry(cfg)
	require.NoError(t, err)

	p := InitParams(cfg, geom, rand.NewPCG(1, 2))

	assert.Equal(t, []string{KeyW1, KeyB1, KeyW2, KeyB2, KeyW3, KeyB3}, p.Keys())
	assert.Equal(t, map[string]tensor.Shape{
		KeyW1: {32, 3, 7, 7},
		KeyB1: {32},
		KeyW2: {8192, 100},
		KeyB2: {100},
		KeyW3: {100, 10},
		KeyB3: {10},
	}, p.Shapes())

	for _, k := range p.Keys() {
		v, ok := p.Get(k)
		require.True(t, ok)
		assert.Equal(t, tensor.Float32, v.DType(), k)
	}
}

func TestInitParamsBatchNorm(t *testing.T) {
	cfg := smallConfig(true)
	geom, err := NewGeometry(cfg)
	require.NoError(t, err)

	p := InitParams(cfg, geom, rand.NewPCG(1, 2))

	assert.Equal(t, []string{KeyW1, KeyB1, KeyW2, KeyB2, KeyW3, KeyB3, KeyGamma1, KeyBeta1, KeyGamma2, KeyBeta2}, p.Keys())
	assert.Equal(t, []float64{1, 1}, p.Gamma1.AsFloat64())
	assert.Equal(t, []float64{0, 0}, p.Beta1.AsFloat64())
	assert.Equal(t, []float64{1, 1, 1, 1, 1}, p.Gamma2.AsFloat64())
	assert.Equal(t, tensor.Shape{5}, p.Beta2.Shape())

	for _, b := range []*tensor.RawTensor{p.B1, p.B2, p.B3} {
		assert.Equal(t, 0.0, tensor.SumSquares(b))
	}
}

func TestInitParamsDeterministic(t *testing.T) {
	cfg := smallConfig(false)
	geom, err := NewGeometry(cfg)
	require.NoError(t, err)

	a := InitParams(cfg, geom, rand.NewPCG(5, 5))
	b := InitParams(cfg, geom, rand.NewPCG(5, 5))
	c := InitParams(cfg, geom, rand.NewPCG(6, 5))

	assert.Equal(t, a.W2.AsFloat64(), b.W2.AsFloat64())
	assert.NotEqual(t, a.W2.AsFloat64(), c.W2.AsFloat64())
}

func TestInitParamsZeroScale(t *testing.T) {
	cfg := smallConfig(false)
	cfg.WeightScale = 0
	geom, err := NewGeometry(cfg)
	require.NoError(t, err)

	p := InitParams(cfg, geom, rand.NewPCG(1, 1))
	for _, w := range p.weights() {
		assert.Equal(t, 0.0, tensor.SumSquares(w))
	}
}

func TestParamsMapSharesTensors(t *testing.T) {
	m := newModel(t, smallConfig(false))
	p := m.Params()

	p.Map()[KeyB3].AsFloat64()[0] = 42
	assert.Equal(t, 42.0, p.B3.AsFloat64()[0])

	_, ok := p.Get(KeyGamma1)
	assert.False(t, ok, "plain model has no gamma1")
	_, ok = p.Get("W4")
	assert.False(t, ok)
}

func TestParamsClone(t *testing.T) {
	m := newModel(t, smallConfig(true))
	c := m.Params().Clone()

	c.W1.AsFloat64()[0] = 1e9
	assert.NotEqual(t, 1e9, m.Params().W1.AsFloat64()[0])
	assert.Equal(t, m.Params().Keys(), c.Keys())
	assert.Contains(t, c.String(), "gamma2  (5,)")
}
