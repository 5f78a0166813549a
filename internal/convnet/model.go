// Package convnet implements a three-layer convolutional classifier:
//
//	conv - [batchnorm] - relu - 2x2 max pool - affine - [batchnorm] - relu - affine - softmax
//
// A Model owns its parameters and, when batch normalization is enabled, the
// running statistics of both normalized stages. It computes class scores and
// the gradients of an L2-regularized softmax loss w.r.t. every parameter.
// Training loops and optimizers live outside the package and update the
// parameters in place between round trips.
package convnet

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/born-ml/convnet/internal/backend/cpu"
	"github.com/born-ml/convnet/internal/nn"
	"github.com/born-ml/convnet/internal/tensor"
)

// Model is a three-layer convolutional classifier.
//
// A Model serializes its own calls; concurrent callers wait for each other
// rather than racing on the running statistics.
type Model struct {
	mu sync.Mutex

	cfg    Config
	geom   Geometry
	params *Params
	state  *NormState
	pl     *pipeline
}

// Option configures a Model at construction.
type Option func(*options)

type options struct {
	backend nn.Backend
	source  rand.Source
}

// WithBackend sets the kernels the model computes with. The default is the
// CPU backend.
func WithBackend(be nn.Backend) Option {
	return func(o *options) { o.backend = be }
}

// WithSource sets the random source used to initialize weights, overriding
// Config.Seed.
func WithSource(src rand.Source) Option {
	return func(o *options) { o.source = src }
}

// New validates cfg and builds a model with freshly initialized parameters.
//
// Example:
//
//	cfg := convnet.DefaultConfig()
//	cfg.UseBatchNorm = true
//	model, err := convnet.New(cfg)
func New(cfg Config, opts ...Option) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	geom, err := NewGeometry(cfg)
	if err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.backend == nil {
		o.backend = cpu.New()
	}
	if o.source == nil {
		seed := cfg.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		o.source = rand.NewPCG(seed, seed)
	}

	m := &Model{
		cfg:    cfg,
		geom:   geom,
		params: InitParams(cfg, geom, o.source),
	}
	variant := Plain
	if cfg.UseBatchNorm {
		variant = Normalized
		m.state = newNormState(cfg)
	}
	spatial, hidden := newStages(cfg, geom, m.state)
	m.pl = &pipeline{be: o.backend, variant: variant, spatial: spatial, hidden: hidden}
	return m, nil
}

// Config returns the model's configuration.
func (m *Model) Config() Config { return m.cfg }

// Geometry returns the stage-1 geometry derived from the configuration.
func (m *Model) Geometry() Geometry { return m.geom }

// Variant reports whether the model uses batch normalization.
func (m *Model) Variant() Variant { return m.pl.variant }

// Params returns the parameter store. The tensors are shared with the
// model; optimizers update them in place between round trips.
func (m *Model) Params() *Params { return m.params }

// State returns the running statistics, or nil for a plain model. The
// statistics are shared with the model.
func (m *Model) State() *NormState { return m.state }

// Forward computes the class scores of x (N, C, H, W) and returns them with
// the cache Backward needs. In nn.Train mode the running statistics of a
// normalized model are updated.
func (m *Model) Forward(x *tensor.RawTensor, mode nn.Mode) (*tensor.RawTensor, *Cache, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkInput(x); err != nil {
		return nil, nil, err
	}
	if err := checkMode(mode); err != nil {
		return nil, nil, err
	}
	scores, cache := m.pl.forward(x, m.params, mode)
	cache.owner = m
	return scores, cache, nil
}

// Backward returns the gradient of every parameter given the gradient of
// the loss w.r.t. the scores and the cache of the matching Forward call.
// The L2 term reg*W is included for W1, W2 and W3. The cache is consumed.
func (m *Model) Backward(dscores *tensor.RawTensor, cache *Cache) (*Params, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.backward(dscores, cache)
}

func (m *Model) backward(dscores *tensor.RawTensor, cache *Cache) (*Params, error) {
	if err := checkCache(cache, m, m.pl.variant); err != nil {
		return nil, err
	}
	want := tensor.Shape{cache.batch, m.cfg.NumClasses}
	if dscores == nil || !dscores.Shape().Equal(want) || dscores.DType() != m.cfg.DType {
		return nil, errors.Wrapf(ErrShape, "score gradient must be %s%v", m.cfg.DType, want)
	}
	cache.consumed = true
	return m.pl.backward(dscores, cache, m.params, m.cfg.Reg)
}

// Scores computes the class scores of x without a cache.
func (m *Model) Scores(x *tensor.RawTensor, mode nn.Mode) (*tensor.RawTensor, error) {
	scores, _, err := m.Forward(x, mode)
	return scores, err
}

// Result is the outcome of Loss.
type Result struct {
	Scores   *tensor.RawTensor
	DataLoss float64 // mean softmax cross-entropy
	RegLoss  float64 // 0.5 * reg * Σ‖W‖²
	Loss     float64 // DataLoss + RegLoss
	Grads    *Params
}

// Loss runs a full round trip: forward, softmax loss with the L2 penalty,
// and backward. With nil labels it only computes the scores, and Result
// carries Scores alone.
func (m *Model) Loss(x *tensor.RawTensor, labels []int, mode nn.Mode) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkInput(x); err != nil {
		return nil, err
	}
	if err := checkMode(mode); err != nil {
		return nil, err
	}
	if labels != nil {
		if err := m.checkLabels(labels, x.Shape()[0]); err != nil {
			return nil, err
		}
	}

	scores, cache := m.pl.forward(x, m.params, mode)
	cache.owner = m
	if labels == nil {
		return &Result{Scores: scores}, nil
	}

	dataLoss, regLoss, dscores := m.pl.composeLoss(scores, labels, m.params, m.cfg.Reg)
	grads, err := m.backward(dscores, cache)
	if err != nil {
		return nil, err
	}
	return &Result{
		Scores:   scores,
		DataLoss: dataLoss,
		RegLoss:  regLoss,
		Loss:     dataLoss + regLoss,
		Grads:    grads,
	}, nil
}

// Predict returns the arg-max class of every sample, scoring in nn.Eval
// mode.
func (m *Model) Predict(x *tensor.RawTensor) ([]int, error) {
	scores, err := m.Scores(x, nn.Eval)
	if err != nil {
		return nil, err
	}
	return Argmax(scores), nil
}

// Accuracy returns the fraction of samples whose predicted class matches
// the label.
func (m *Model) Accuracy(x *tensor.RawTensor, labels []int) (float64, error) {
	if len(labels) == 0 {
		return 0, errors.Wrap(ErrShape, "no labels")
	}
	if err := m.checkLabels(labels, len(labels)); err != nil {
		return 0, err
	}
	pred, err := m.Predict(x)
	if err != nil {
		return 0, err
	}
	if len(pred) != len(labels) {
		return 0, errors.Wrapf(ErrShape, "%d labels for %d samples", len(labels), len(pred))
	}
	hits := 0
	for i, p := range pred {
		if p == labels[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(labels)), nil
}

// Argmax returns the index of the largest score in every row of a
// (N, classes) tensor. Ties go to the lowest index.
func Argmax(scores *tensor.RawTensor) []int {
	n, c := scores.Shape()[0], scores.Shape()[1]
	values := scores.Float64s()
	out := make([]int, n)
	for i := range out {
		row := values[i*c : (i+1)*c]
		best := 0
		for j, v := range row {
			if v > row[best] {
				best = j
			}
		}
		out[i] = best
	}
	return out
}

// String summarizes the architecture.
func (m *Model) String() string {
	var b strings.Builder
	c := m.cfg
	fmt.Fprintf(&b, "ThreeLayerConvNet(%s, %s)\n", m.pl.variant, c.DType)
	fmt.Fprintf(&b, "  input:  (N, %d, %d, %d)\n", c.Input.Channels, c.Input.Height, c.Input.Width)
	fmt.Fprintf(&b, "  stage1: %s, %d filters %dx%d pad %d (%s)\n",
		m.pl.spatial.describe(), c.NumFilters, c.FilterSize, c.FilterSize, m.geom.Padding, m.geom)
	fmt.Fprintf(&b, "  stage2: %s, %d -> %d\n", m.pl.hidden.describe(), m.geom.Features, c.HiddenDim)
	fmt.Fprintf(&b, "  stage3: affine, %d -> %d\n", c.HiddenDim, c.NumClasses)
	fmt.Fprintf(&b, "  params: %d", m.params.NumElements())
	return b.String()
}

func (m *Model) checkInput(x *tensor.RawTensor) error {
	if x == nil {
		return errors.Wrap(ErrShape, "nil input")
	}
	in := m.cfg.Input
	s := x.Shape()
	if len(s) != 4 || s[1] != in.Channels || s[2] != in.Height || s[3] != in.Width {
		return errors.Wrapf(ErrShape, "input shape %v, want (N, %d, %d, %d)", s, in.Channels, in.Height, in.Width)
	}
	if s[0] == 0 {
		return errors.Wrap(ErrShape, "empty batch")
	}
	if x.DType() != m.cfg.DType {
		return errors.Wrapf(ErrShape, "input dtype %s, model dtype %s", x.DType(), m.cfg.DType)
	}
	return nil
}

func (m *Model) checkLabels(labels []int, n int) error {
	if len(labels) != n {
		return errors.Wrapf(ErrShape, "%d labels for %d samples", len(labels), n)
	}
	for i, y := range labels {
		if y < 0 || y >= m.cfg.NumClasses {
			return errors.Wrapf(ErrShape, "label %d at index %d outside [0, %d)", y, i, m.cfg.NumClasses)
		}
	}
	return nil
}

func checkMode(mode nn.Mode) error {
	if mode != nn.Train && mode != nn.Eval {
		return errors.Errorf("unknown mode %d", int(mode))
	}
	return nil
}
