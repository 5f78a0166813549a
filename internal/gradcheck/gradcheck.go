// Package gradcheck compares analytic gradients against central finite
// differences.
package gradcheck

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/diff/fd"

	"github.com/born-ml/convnet/internal/tensor"
)

// ErrGradCheck reports parameters that cannot be checked.
var ErrGradCheck = errors.New("gradient check")

// DefaultStep is the finite-difference step.
const DefaultStep = 1e-6

// Numeric returns the central-difference gradient of f at x.
func Numeric(f func(x []float64) float64, x []float64, step float64) []float64 {
	if step <= 0 {
		step = DefaultStep
	}
	return fd.Gradient(nil, f, x, &fd.Settings{Formula: fd.Central, Step: step})
}

// RelError returns max|a-b| / max(|a|+|b|) over all elements, with the
// denominator floored at 1e-8. It is zero for two all-zero vectors.
func RelError(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("gradcheck: length mismatch")
	}
	num, den := 0.0, 0.0
	for i := range a {
		num = math.Max(num, math.Abs(a[i]-b[i]))
		den = math.Max(den, math.Abs(a[i])+math.Abs(b[i]))
	}
	return num / math.Max(den, 1e-8)
}

// MaxAbsError returns max|a-b|.
func MaxAbsError(a, b []float64) float64 {
	out := 0.0
	for i := range a {
		out = math.Max(out, math.Abs(a[i]-b[i]))
	}
	return out
}

// LossFunc evaluates a scalar loss and the analytic gradients at the current
// parameter values.
type LossFunc func() (float64, map[string]*tensor.RawTensor, error)

// Entry is the result of checking one parameter.
type Entry struct {
	Key      string
	RelError float64
	AbsError float64
}

// Passed reports whether the entry is within tol relative error, or within
// absTol absolute error when both gradients are essentially zero.
func (e Entry) Passed(tol, absTol float64) bool {
	return e.RelError <= tol || e.AbsError <= absTol
}

// Report lists the entries in key order.
type Report []Entry

// Worst returns the entry with the largest relative error.
func (r Report) Worst() Entry {
	var worst Entry
	for _, e := range r {
		if e.RelError >= worst.RelError {
			worst = e
		}
	}
	return worst
}

// Passed reports whether every entry passed.
func (r Report) Passed(tol, absTol float64) bool {
	for _, e := range r {
		if !e.Passed(tol, absTol) {
			return false
		}
	}
	return true
}

// Check perturbs every float64 tensor in params in place, one at a time,
// and compares the numeric gradient of loss with the analytic one it
// returns at the unperturbed point. The parameters are restored before
// Check returns.
func Check(params map[string]*tensor.RawTensor, loss LossFunc, step float64) (Report, error) {
	_, analytic, err := loss()
	if err != nil {
		return nil, errors.WithMessage(err, "analytic gradient")
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	report := make(Report, 0, len(keys))
	for _, k := range keys {
		p := params[k]
		if p.DType() != tensor.Float64 {
			return nil, errors.Wrapf(ErrGradCheck, "parameter %s is %s, want float64", k, p.DType())
		}
		g, ok := analytic[k]
		if !ok || !g.Shape().Equal(p.Shape()) {
			return nil, errors.Wrapf(ErrGradCheck, "no gradient of shape %v for %s", p.Shape(), k)
		}

		data := p.AsFloat64()
		orig := append([]float64(nil), data...)
		var evalErr error
		num := Numeric(func(v []float64) float64 {
			copy(data, v)
			l, _, err := loss()
			if err != nil && evalErr == nil {
				evalErr = err
			}
			return l
		}, orig, step)
		copy(data, orig)
		if evalErr != nil {
			return nil, errors.WithMessagef(evalErr, "numeric gradient of %s", k)
		}

		a := g.Float64s()
		report = append(report, Entry{Key: k, RelError: RelError(a, num), AbsError: MaxAbsError(a, num)})
	}
	return report, nil
}
