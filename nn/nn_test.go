// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/backend/cpu"
	"github.com/born-ml/convnet/nn"
	"github.com/born-ml/convnet/tensor"
)

func TestConvReLUPoolShapes(t *testing.T) {
	be := cpu.New()
	x := tensor.Randn(tensor.Shape{2, 3, 8, 8}, tensor.Float32, 1, nil)
	w := tensor.Randn(tensor.Shape{4, 3, 3, 3}, tensor.Float32, 0.1, nil)
	b := tensor.Zeros(tensor.Shape{4}, tensor.Float32)

	out, cache := nn.ConvReLUPoolForward(be, x, w, b, nn.ConvParam{Stride: 1, Padding: 1}, nn.PoolParam{Height: 2, Width: 2, Stride: 2})
	require.Equal(t, tensor.Shape{2, 4, 4, 4}, out.Shape())

	dx, dw, db := nn.ConvReLUPoolBackward(be, tensor.Ones(out.Shape(), tensor.Float32), cache)
	assert.Equal(t, x.Shape(), dx.Shape())
	assert.Equal(t, w.Shape(), dw.Shape())
	assert.Equal(t, b.Shape(), db.Shape())
}

func TestAffineBNReLUEvalLeavesState(t *testing.T) {
	be := cpu.New()
	x := tensor.Randn(tensor.Shape{5, 6}, tensor.Float64, 1, nil)
	w := tensor.Randn(tensor.Shape{6, 3}, tensor.Float64, 1, nil)
	b := tensor.Zeros(tensor.Shape{3}, tensor.Float64)
	gamma := tensor.Ones(tensor.Shape{3}, tensor.Float64)
	beta := tensor.Zeros(tensor.Shape{3}, tensor.Float64)

	state := nn.NewBatchNormState(3, tensor.Float64, nn.DefaultMomentum, nn.DefaultEps)
	out, _ := nn.AffineBNReLUForward(be, x, w, b, gamma, beta, state, nn.Eval)

	assert.Equal(t, tensor.Shape{5, 3}, out.Shape())
	assert.Equal(t, []float64{0, 0, 0}, state.RunningMean.Float64s())
	assert.Equal(t, []float64{1, 1, 1}, state.RunningVar.Float64s())
	assert.Equal(t, "eval", nn.Eval.String())
}
