package nn

import "github.com/born-ml/convnet/internal/tensor"

// SoftmaxLoss returns the mean softmax cross-entropy of scores [N, C] for
// labels in [0, C) and its gradient w.r.t. scores.
func SoftmaxLoss(be Backend, scores *tensor.RawTensor, labels []int) (float64, *tensor.RawTensor) {
	return be.SoftmaxCrossEntropy(scores, labels)
}
