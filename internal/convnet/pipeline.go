package convnet

import (
	"github.com/pkg/errors"

	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// Cache carries the intermediates of one forward pass to the matching
// backward pass. It is opaque and can be consumed exactly once.
type Cache struct {
	owner    *Model
	variant  Variant
	batch    int
	spatial  any
	hidden   any
	head     *nn.AffineCache
	consumed bool
}

// Variant returns the pipeline variant that produced the cache.
func (c *Cache) Variant() Variant { return c.variant }

// Consumed reports whether a backward pass has already used the cache.
func (c *Cache) Consumed() bool { return c.consumed }

// pipeline threads a batch through the three stages.
type pipeline struct {
	be      nn.Backend
	variant Variant
	spatial spatialStage
	hidden  hiddenStage
}

// forward returns the class scores (N, classes) and the cache.
func (pl *pipeline) forward(x *tensor.RawTensor, p *Params, mode nn.Mode) (*tensor.RawTensor, *Cache) {
	features, spatialCache := pl.spatial.forward(pl.be, x, p, mode)
	hidden, hiddenCache := pl.hidden.forward(pl.be, features, p, mode)
	scores, headCache := nn.AffineForward(pl.be, hidden, p.W3, p.B3)

	return scores, &Cache{
		variant: pl.variant,
		batch:   x.Shape()[0],
		spatial: spatialCache,
		hidden:  hiddenCache,
		head:    headCache,
	}
}

// backward replays the cache in reverse and returns the gradient of every
// parameter, including the L2 term reg*W on W1, W2 and W3.
func (pl *pipeline) backward(dscores *tensor.RawTensor, cache *Cache, p *Params, reg float64) (*Params, error) {
	grads := &Params{}

	dhidden, dW3, db3 := nn.AffineBackward(pl.be, dscores, cache.head)
	grads.W3, grads.B3 = dW3, db3

	dfeatures, err := pl.hidden.backward(pl.be, dhidden, cache.hidden, grads)
	if err != nil {
		return nil, err
	}
	if err := pl.spatial.backward(pl.be, dfeatures, cache.spatial, grads); err != nil {
		return nil, err
	}

	if reg != 0 {
		tensor.AddScaled(grads.W1, reg, p.W1)
		tensor.AddScaled(grads.W2, reg, p.W2)
		tensor.AddScaled(grads.W3, reg, p.W3)
	}
	return grads, nil
}

// RegLoss returns 0.5 * reg * (‖W1‖² + ‖W2‖² + ‖W3‖²).
func RegLoss(p *Params, reg float64) float64 {
	if reg == 0 {
		return 0
	}
	sum := 0.0
	for _, w := range p.weights() {
		sum += tensor.SumSquares(w)
	}
	return 0.5 * reg * sum
}

// composeLoss combines the softmax data loss with the L2 penalty and
// returns the data loss, the penalty and the score gradient.
func (pl *pipeline) composeLoss(scores *tensor.RawTensor, labels []int, p *Params, reg float64) (dataLoss, regLoss float64, dscores *tensor.RawTensor) {
	dataLoss, dscores = nn.SoftmaxLoss(pl.be, scores, labels)
	return dataLoss, RegLoss(p, reg), dscores
}

func checkCache(cache *Cache, owner *Model, variant Variant) error {
	switch {
	case cache == nil:
		return errors.Wrap(ErrSequence, "nil cache")
	case cache.variant != variant:
		return errors.Wrapf(ErrSequence, "%s cache given to a %s model", cache.variant, variant)
	case cache.owner != owner:
		return errors.Wrap(ErrSequence, "cache was produced by a different model")
	case cache.consumed:
		return errors.Wrap(ErrSequence, "cache already consumed")
	}
	return nil
}
