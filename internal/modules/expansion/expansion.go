// Package expansion builds truncated polynomial approximations of smooth
// potentials.
//
// The Taylor coefficients are obtained from a Chebyshev interpolant sampled
// over [center-scale, center+scale]. Sampling wide (several zero-point
// widths) keeps the truncated polynomial accurate over the whole support of
// the oscillator wavefunctions, which a pointwise derivative would not.
package expansion

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultDegree is the polynomial degree kept after truncation.
	DefaultDegree = 40
	// DefaultScale is the half-width of the sampled interval.
	DefaultScale = 9 * math.Pi
	// DefaultOrderPadding is added to the degree to get the number of samples.
	DefaultOrderPadding = 10

	// NonlinearMinimumDegree is the lowest degree for which the nonlinear
	// remainder keeps at least one even (Kerr-producing) term.
	NonlinearMinimumDegree = 4
)

// Options configures Expand. Zero values select the defaults.
type Options struct {
	Degree int
	Scale  float64
	// Order is the number of interpolation nodes. It must exceed Degree.
	Order int

	// Center is the expansion point, or the anchor of the minimum search
	// when Shift is set.
	Center float64
	// Window is the half-width of the minimum search bracket. Defaults to Scale.
	Window float64

	Shift     bool
	Normalize bool
	Nonlinear bool

	Minimizer MinimizeSettings
}

func (o Options) withDefaults() Options {
	if o.Degree == 0 {
		o.Degree = DefaultDegree
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	if o.Order == 0 {
		o.Order = o.Degree + DefaultOrderPadding
	}
	if o.Window <= 0 {
		o.Window = o.Scale
	}
	return o
}

func (o Options) validate() error {
	if o.Degree < 0 {
		return &InvalidDegreeError{Degree: o.Degree, Minimum: 0, Reason: "negative degree"}
	}
	if o.Order <= o.Degree || o.Order < 2 {
		return &InvalidDegreeError{Degree: o.Degree, Minimum: o.Degree + 1, Reason: fmt.Sprintf("order %d must exceed the degree", o.Order)}
	}
	if o.Normalize && o.Degree < 2 {
		return &InvalidDegreeError{Degree: o.Degree, Minimum: 2, Reason: "normalization needs the quadratic term"}
	}
	if o.Nonlinear && o.Degree < NonlinearMinimumDegree {
		return &InvalidDegreeError{Degree: o.Degree, Minimum: NonlinearMinimumDegree, Reason: "nonlinear remainder would vanish"}
	}
	return nil
}

// TruncatedPotential is a polynomial in the displacement x - Offset.
// Coefficients[k] multiplies (x - Offset)^k.
type TruncatedPotential struct {
	Coefficients []float64
	Degree       int
	Scale        float64
	Offset       float64

	Shifted       bool
	Normalized    bool
	NonlinearOnly bool
}

// Expand approximates fn by a polynomial of opts.Degree.
func Expand(fn func(float64) float64, opts Options) (*TruncatedPotential, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	center := opts.Center
	if opts.Shift {
		minimum, err := Minimize(fn, center-opts.Window, center+opts.Window, center, opts.Minimizer)
		if err != nil {
			return nil, err
		}
		center = minimum
	}

	coeffs, err := taylorCoefficients(fn, center, opts.Degree, opts.Scale, opts.Order)
	if err != nil {
		return nil, err
	}

	if opts.Shift {
		// The expansion point is a minimum: no constant offset, no force.
		coeffs[0] = 0
		if len(coeffs) > 1 {
			coeffs[1] = 0
		}
	}

	if opts.Normalize {
		c2 := coeffs[2]
		if !(c2 > 0) {
			return nil, fmt.Errorf("expansion: cannot normalize, quadratic coefficient %g at %g is not positive", c2, center)
		}
		for k := range coeffs {
			coeffs[k] /= 2 * c2
		}
	}

	p := &TruncatedPotential{
		Coefficients: coeffs,
		Degree:       opts.Degree,
		Scale:        opts.Scale,
		Offset:       center,
		Shifted:      opts.Shift,
		Normalized:   opts.Normalize,
	}
	if opts.Nonlinear {
		return p.Remainder()
	}
	return p, nil
}

// Eval evaluates the polynomial at displacement x from Offset.
func (p *TruncatedPotential) Eval(x float64) float64 {
	var v float64
	for k := len(p.Coefficients) - 1; k >= 0; k-- {
		v = v*x + p.Coefficients[k]
	}
	return v
}

// Coefficient returns the coefficient of order k, zero beyond the degree.
func (p *TruncatedPotential) Coefficient(k int) float64 {
	if k < 0 || k >= len(p.Coefficients) {
		return 0
	}
	return p.Coefficients[k]
}

// Remainder returns a copy without the orders 0, 1 and 2.
func (p *TruncatedPotential) Remainder() (*TruncatedPotential, error) {
	if p.Degree < NonlinearMinimumDegree {
		return nil, &InvalidDegreeError{Degree: p.Degree, Minimum: NonlinearMinimumDegree, Reason: "nonlinear remainder would vanish"}
	}
	coeffs := make([]float64, len(p.Coefficients))
	copy(coeffs[3:], p.Coefficients[3:])

	out := *p
	out.Coefficients = coeffs
	out.NonlinearOnly = true
	return &out, nil
}

// MaxAbsCoefficient returns the largest |c_k| for k >= from.
func (p *TruncatedPotential) MaxAbsCoefficient(from int) float64 {
	var m float64
	for k := from; k < len(p.Coefficients); k++ {
		m = math.Max(m, math.Abs(p.Coefficients[k]))
	}
	return m
}

// taylorCoefficients interpolates fn on Chebyshev-Lobatto nodes of
// [center-scale, center+scale] and returns the monomial coefficients of the
// interpolant about center, truncated to degree.
func taylorCoefficients(fn func(float64) float64, center float64, degree int, scale float64, order int) ([]float64, error) {
	m := float64(order - 1)
	vander := mat.NewDense(order, order, nil)
	samples := mat.NewVecDense(order, nil)

	for i := 0; i < order; i++ {
		t := math.Cos(math.Pi * float64(i) / m)
		samples.SetVec(i, fn(center+scale*t))

		prev, cur := 1.0, t
		vander.Set(i, 0, prev)
		vander.Set(i, 1, cur)
		for j := 2; j < order; j++ {
			prev, cur = cur, 2*t*cur-prev
			vander.Set(i, j, cur)
		}
	}

	var cheb mat.VecDense
	if err := cheb.SolveVec(vander, samples); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("expansion: chebyshev interpolation failed: %w", err)
		}
	}

	weights := make([]float64, order)
	for j := range weights {
		weights[j] = cheb.AtVec(j)
	}
	mono := chebyshevToMonomial(weights)

	out := make([]float64, degree+1)
	pow := 1.0
	for k := 0; k <= degree; k++ {
		out[k] = mono[k] / pow
		pow *= scale
	}
	return out, nil
}

// chebyshevToMonomial converts Σ a_j T_j(t) into Σ b_k t^k.
func chebyshevToMonomial(a []float64) []float64 {
	n := len(a)
	b := make([]float64, n)
	if n == 0 {
		return b
	}

	prev := []float64{1}
	b[0] += a[0]
	if n == 1 {
		return b
	}
	cur := []float64{0, 1}
	b[1] += a[1]

	for j := 2; j < n; j++ {
		next := make([]float64, j+1)
		for k, c := range cur {
			next[k+1] += 2 * c
		}
		for k, c := range prev {
			next[k] -= c
		}
		for k, c := range next {
			b[k] += a[j] * c
		}
		prev, cur = cur, next
	}
	return b
}
