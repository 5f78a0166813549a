// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/convnet/tensor"
)

// TestRawTensorAPI verifies RawTensor type alias exposes expected API.
func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32)
	require.NoError(t, err)

	assert.True(t, raw.Shape().Equal(tensor.Shape{2, 3}))
	assert.Equal(t, tensor.Float32, raw.DType())
	assert.Equal(t, 6, raw.NumElements())
	assert.Len(t, raw.AsFloat32(), 6)

	raw.Set(4, 1, 2)
	assert.Equal(t, 4.0, raw.At(1, 2))
	assert.Equal(t, float32(4), tensor.Data[float32](raw)[5])
}

func TestConstructors(t *testing.T) {
	x, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2})
	require.NoError(t, err)
	assert.Equal(t, tensor.Float64, x.DType())

	_, err = tensor.FromFloat64s([]float64{1, 2, 3}, tensor.Shape{2, 2}, tensor.Float32)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))

	assert.Equal(t, []float64{7, 7}, tensor.Full(tensor.Shape{2}, 7, tensor.Float64).Float64s())
	assert.Equal(t, []float64{1, 1}, tensor.Ones(tensor.Shape{2}, tensor.Float32).Float64s())
	assert.Equal(t, []float64{0, 0}, tensor.Zeros(tensor.Shape{2}, tensor.Float32).Float64s())
	assert.Equal(t, 24, tensor.Randn(tensor.Shape{2, 3, 4}, tensor.Float32, 1, nil).NumElements())

	dt, err := tensor.ParseDataType("f64")
	require.NoError(t, err)
	assert.Equal(t, tensor.Float64, dt)
}
