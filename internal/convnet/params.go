package convnet

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/born-ml/convnet/internal/tensor"
)

// Parameter keys.
const (
	KeyW1     = "W1"
	KeyB1     = "b1"
	KeyW2     = "W2"
	KeyB2     = "b2"
	KeyW3     = "W3"
	KeyB3     = "b3"
	KeyGamma1 = "gamma1"
	KeyBeta1  = "beta1"
	KeyGamma2 = "gamma2"
	KeyBeta2  = "beta2"
)

// Params holds the learnable tensors of the network. Gradients use the same
// type, so a gradient set always has the key set of the parameters it was
// computed for.
//
// Gamma1, Beta1, Gamma2 and Beta2 are nil unless batch normalization is
// enabled.
type Params struct {
	W1, B1 *tensor.RawTensor // (F, C, fh, fw), (F,)
	W2, B2 *tensor.RawTensor // (features, hidden), (hidden,)
	W3, B3 *tensor.RawTensor // (hidden, classes), (classes,)

	Gamma1, Beta1 *tensor.RawTensor // (F,)
	Gamma2, Beta2 *tensor.RawTensor // (hidden,)
}

// InitParams allocates and initializes the parameters for cfg. Weights are
// N(0, 1) draws scaled by cfg.WeightScale, biases and shifts are zero and
// scales are one.
func InitParams(cfg Config, geom Geometry, src rand.Source) *Params {
	dt := cfg.DType
	f, hidden, classes := cfg.NumFilters, cfg.HiddenDim, cfg.NumClasses

	p := &Params{
		W1: tensor.Randn(tensor.Shape{f, cfg.Input.Channels, cfg.FilterSize, cfg.FilterSize}, dt, cfg.WeightScale, src),
		B1: tensor.Zeros(tensor.Shape{f}, dt),
		W2: tensor.Randn(tensor.Shape{geom.Features, hidden}, dt, cfg.WeightScale, src),
		B2: tensor.Zeros(tensor.Shape{hidden}, dt),
		W3: tensor.Randn(tensor.Shape{hidden, classes}, dt, cfg.WeightScale, src),
		B3: tensor.Zeros(tensor.Shape{classes}, dt),
	}
	if cfg.UseBatchNorm {
		p.Gamma1 = tensor.Ones(tensor.Shape{f}, dt)
		p.Beta1 = tensor.Zeros(tensor.Shape{f}, dt)
		p.Gamma2 = tensor.Ones(tensor.Shape{hidden}, dt)
		p.Beta2 = tensor.Zeros(tensor.Shape{hidden}, dt)
	}
	return p
}

// Keys returns the keys of the non-nil entries in a fixed order.
func (p *Params) Keys() []string {
	keys := make([]string, 0, 10)
	for _, e := range p.entries() {
		if *e.t != nil {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Map returns a key -> tensor view of the non-nil entries. The tensors are
// shared, so in-place updates through the map (for example by an
// optimizer) modify p.
func (p *Params) Map() map[string]*tensor.RawTensor {
	m := make(map[string]*tensor.RawTensor, 10)
	for _, e := range p.entries() {
		if *e.t != nil {
			m[e.key] = *e.t
		}
	}
	return m
}

// Get returns the tensor stored under key.
func (p *Params) Get(key string) (*tensor.RawTensor, bool) {
	for _, e := range p.entries() {
		if e.key == key {
			return *e.t, *e.t != nil
		}
	}
	return nil, false
}

// Shapes returns the shape of every entry, keyed like Map.
func (p *Params) Shapes() map[string]tensor.Shape {
	shapes := make(map[string]tensor.Shape, 10)
	for k, t := range p.Map() {
		shapes[k] = t.Shape()
	}
	return shapes
}

// Clone returns a deep copy.
func (p *Params) Clone() *Params {
	c := &Params{}
	src, dst := p.entries(), c.entries()
	for i := range src {
		if *src[i].t != nil {
			*dst[i].t = (*src[i].t).Clone()
		}
	}
	return c
}

// NumElements returns the total number of scalars across all entries.
func (p *Params) NumElements() int {
	n := 0
	for _, t := range p.Map() {
		n += t.NumElements()
	}
	return n
}

// String lists every entry with its shape, one per line.
func (p *Params) String() string {
	var b strings.Builder
	for _, k := range p.Keys() {
		t, _ := p.Get(k)
		fmt.Fprintf(&b, "%-7s %v\n", k, t.Shape())
	}
	return b.String()
}

type entry struct {
	key string
	t   **tensor.RawTensor
}

func (p *Params) entries() []entry {
	return []entry{
		{KeyW1, &p.W1}, {KeyB1, &p.B1},
		{KeyW2, &p.W2}, {KeyB2, &p.B2},
		{KeyW3, &p.W3}, {KeyB3, &p.B3},
		{KeyGamma1, &p.Gamma1}, {KeyBeta1, &p.Beta1},
		{KeyGamma2, &p.Gamma2}, {KeyBeta2, &p.Beta2},
	}
}

// weights returns the tensors that carry the L2 penalty.
func (p *Params) weights() []*tensor.RawTensor {
	return []*tensor.RawTensor{p.W1, p.W2, p.W3}
}
