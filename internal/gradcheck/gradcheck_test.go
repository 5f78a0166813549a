package gradcheck

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/internal/tensor"
)

func TestNumeric(t *testing.T) {
	f := func(x []float64) float64 { return x[0]*x[0] + 3*x[1] + math.Sin(x[2]) }

	g := Numeric(f, []float64{2, -1, 0.5}, 0)

	assert.InDelta(t, 4, g[0], 1e-8)
	assert.InDelta(t, 3, g[1], 1e-8)
	assert.InDelta(t, math.Cos(0.5), g[2], 1e-8)
}

func TestRelError(t *testing.T) {
	assert.Equal(t, 0.0, RelError([]float64{0, 0}, []float64{0, 0}))
	assert.InDelta(t, 0.1/2.1, RelError([]float64{1, 0.5}, []float64{1.1, 0.5}), 1e-12)
	assert.Panics(t, func() { RelError([]float64{1}, nil) })
}

// quadratic builds the loss Σ c_i w_i² with gradient 2 c_i w_i.
func quadratic(w *tensor.RawTensor, c []float64, wrong bool) LossFunc {
	return func() (float64, map[string]*tensor.RawTensor, error) {
		vals := w.AsFloat64()
		loss := 0.0
		grad := make([]float64, len(vals))
		for i, v := range vals {
			loss += c[i] * v * v
			grad[i] = 2 * c[i] * v
			if wrong {
				grad[i] = c[i] * v
			}
		}
		g, err := tensor.FromFloat64s(grad, w.Shape(), tensor.Float64)
		return loss, map[string]*tensor.RawTensor{"w": g}, err
	}
}

func TestCheck(t *testing.T) {
	w, err := tensor.FromFloat64s([]float64{1, -2, 0.5}, tensor.Shape{3}, tensor.Float64)
	require.NoError(t, err)
	c := []float64{1, 2, 3}

	report, err := Check(map[string]*tensor.RawTensor{"w": w}, quadratic(w, c, false), DefaultStep)
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Less(t, report[0].RelError, 1e-7)
	assert.True(t, report.Passed(1e-6, 0))

	// Parameters are restored.
	assert.Equal(t, []float64{1, -2, 0.5}, w.AsFloat64())

	report, err = Check(map[string]*tensor.RawTensor{"w": w}, quadratic(w, c, true), DefaultStep)
	require.NoError(t, err)
	assert.False(t, report.Passed(1e-3, 1e-8))
	assert.Equal(t, "w", report.Worst().Key)
}

func TestCheckRejectsFloat32(t *testing.T) {
	w := tensor.Zeros(tensor.Shape{2}, tensor.Float32)
	loss := func() (float64, map[string]*tensor.RawTensor, error) {
		return 0, map[string]*tensor.RawTensor{"w": w}, nil
	}

	_, err := Check(map[string]*tensor.RawTensor{"w": w}, loss, 0)
	require.ErrorIs(t, err, ErrGradCheck)
}
