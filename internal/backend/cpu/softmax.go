package cpu

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/convnet/internal/tensor"
)

// SoftmaxCrossEntropy computes the mean softmax cross-entropy of scores
// [N, C] against integer class labels, and its gradient w.r.t. the scores.
//
// The per-row normalizer is computed with gonum's floats.LogSumExp, so large
// scores do not overflow. The returned gradient is (softmax - onehot) / N in
// the dtype of scores. The loss is always float64.
func (cpu *CPUBackend) SoftmaxCrossEntropy(scores *tensor.RawTensor, labels []int) (float64, *tensor.RawTensor) {
	requireRank("SoftmaxCrossEntropy", "scores", scores, 2)
	n, c := scores.Shape()[0], scores.Shape()[1]
	if len(labels) != n {
		panic(fmt.Sprintf("SoftmaxCrossEntropy: %d labels for %d rows", len(labels), n))
	}

	values := scores.Float64s()
	grad := make([]float64, n*c)
	loss := 0.0
	for i, y := range labels {
		if y < 0 || y >= c {
			panic(fmt.Sprintf("SoftmaxCrossEntropy: label %d out of range [0, %d)", y, c))
		}
		row := values[i*c : (i+1)*c]
		lse := floats.LogSumExp(row)
		loss += lse - row[y]

		g := grad[i*c : (i+1)*c]
		for j, v := range row {
			g[j] = math.Exp(v-lse) / float64(n)
		}
		g[y] -= 1 / float64(n)
	}

	dscores := newLike("SoftmaxCrossEntropy", scores.Shape(), scores.DType())
	dscores.SetFloat64s(grad)
	return loss / float64(n), dscores
}
