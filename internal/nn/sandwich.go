package nn

import "github.com/born-ml/convnet/internal/tensor"

// ConvReLUPoolCache bundles the caches of ConvReLUPoolForward.
type ConvReLUPoolCache struct {
	conv *ConvCache
	relu *ReLUCache
	pool *PoolCache
}

// ConvReLUPoolForward runs conv -> ReLU -> max pool.
func ConvReLUPoolForward(be Backend, x, w, b *tensor.RawTensor, conv ConvParam, pool PoolParam) (*tensor.RawTensor, *ConvReLUPoolCache) {
	a, convCache := ConvForward(be, x, w, b, conv)
	s, reluCache := ReLUForward(be, a)
	out, poolCache := MaxPoolForward(be, s, pool)
	return out, &ConvReLUPoolCache{conv: convCache, relu: reluCache, pool: poolCache}
}

// ConvReLUPoolBackward is the backward pass of ConvReLUPoolForward.
func ConvReLUPoolBackward(be Backend, dout *tensor.RawTensor, cache *ConvReLUPoolCache) (dx, dw, db *tensor.RawTensor) {
	ds := MaxPoolBackward(be, dout, cache.pool)
	da := ReLUBackward(be, ds, cache.relu)
	return ConvBackward(be, da, cache.conv)
}

// ConvBNReLUPoolCache bundles the caches of ConvBNReLUPoolForward.
type ConvBNReLUPoolCache struct {
	conv *ConvCache
	bn   *SpatialBatchNormCache
	relu *ReLUCache
	pool *PoolCache
}

// ConvBNReLUPoolForward runs conv -> spatial batchnorm -> ReLU -> max pool.
func ConvBNReLUPoolForward(be Backend, x, w, b, gamma, beta *tensor.RawTensor, conv ConvParam, pool PoolParam,
	state *BatchNormState, mode Mode,
) (*tensor.RawTensor, *ConvBNReLUPoolCache) {
	a, convCache := ConvForward(be, x, w, b, conv)
	an, bnCache := SpatialBatchNormForward(be, a, gamma, beta, state, mode)
	s, reluCache := ReLUForward(be, an)
	out, poolCache := MaxPoolForward(be, s, pool)
	return out, &ConvBNReLUPoolCache{conv: convCache, bn: bnCache, relu: reluCache, pool: poolCache}
}

// ConvBNReLUPoolBackward is the backward pass of ConvBNReLUPoolForward.
func ConvBNReLUPoolBackward(be Backend, dout *tensor.RawTensor, cache *ConvBNReLUPoolCache) (dx, dw, db, dgamma, dbeta *tensor.RawTensor) {
	ds := MaxPoolBackward(be, dout, cache.pool)
	dan := ReLUBackward(be, ds, cache.relu)
	da, dgamma, dbeta := SpatialBatchNormBackward(be, dan, cache.bn)
	dx, dw, db = ConvBackward(be, da, cache.conv)
	return dx, dw, db, dgamma, dbeta
}

// AffineReLUCache bundles the caches of AffineReLUForward.
type AffineReLUCache struct {
	fc   *AffineCache
	relu *ReLUCache
}

// AffineReLUForward runs affine -> ReLU.
func AffineReLUForward(be Backend, x, w, b *tensor.RawTensor) (*tensor.RawTensor, *AffineReLUCache) {
	a, fcCache := AffineForward(be, x, w, b)
	out, reluCache := ReLUForward(be, a)
	return out, &AffineReLUCache{fc: fcCache, relu: reluCache}
}

// AffineReLUBackward is the backward pass of AffineReLUForward.
func AffineReLUBackward(be Backend, dout *tensor.RawTensor, cache *AffineReLUCache) (dx, dw, db *tensor.RawTensor) {
	da := ReLUBackward(be, dout, cache.relu)
	return AffineBackward(be, da, cache.fc)
}

// AffineBNReLUCache bundles the caches of AffineBNReLUForward.
type AffineBNReLUCache struct {
	fc   *AffineCache
	bn   *BatchNormCache
	relu *ReLUCache
}

// AffineBNReLUForward runs affine -> batchnorm -> ReLU.
func AffineBNReLUForward(be Backend, x, w, b, gamma, beta *tensor.RawTensor, state *BatchNormState, mode Mode) (*tensor.RawTensor, *AffineBNReLUCache) {
	a, fcCache := AffineForward(be, x, w, b)
	an, bnCache := BatchNormForward(be, a, gamma, beta, state, mode)
	out, reluCache := ReLUForward(be, an)
	return out, &AffineBNReLUCache{fc: fcCache, bn: bnCache, relu: reluCache}
}

// AffineBNReLUBackward is the backward pass of AffineBNReLUForward.
func AffineBNReLUBackward(be Backend, dout *tensor.RawTensor, cache *AffineBNReLUCache) (dx, dw, db, dgamma, dbeta *tensor.RawTensor) {
	dan := ReLUBackward(be, dout, cache.relu)
	da, dgamma, dbeta := BatchNormBackward(be, dan, cache.bn)
	dx, dw, db = AffineBackward(be, da, cache.fc)
	return dx, dw, db, dgamma, dbeta
}
