// Package element models the nonlinear Josephson element of the ancilla: a
// SNAIL loop of n large junctions in parallel with one small junction of
// relative size alpha, threaded by an external flux.
package element

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/aristath/snailsolver/internal/modules/expansion"
	"github.com/aristath/snailsolver/internal/units"
)

var validate = validator.New()

// Parameters defines the shape of the SNAIL potential.
type Parameters struct {
	N      int     `json:"n" yaml:"n" validate:"gte=1"`
	Alpha  float64 `json:"alpha" yaml:"alpha" validate:"gt=0,lt=1"`
	PhiExt float64 `json:"phi_ext" yaml:"phi_ext"`
}

// Validate checks the parameters against their documented ranges.
func (p Parameters) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("element: invalid SNAIL parameters: %w", err)
	}
	if math.IsNaN(p.PhiExt) || math.IsInf(p.PhiExt, 0) {
		return fmt.Errorf("element: invalid SNAIL parameters: phi_ext %g is not finite", p.PhiExt)
	}
	return nil
}

// SNAIL is immutable once constructed. Energies are in Hz.
type SNAIL struct {
	params Parameters
	ej     float64
}

// NewSNAIL builds a SNAIL with a known Josephson energy ej (Hz). An ej of
// zero leaves the energy scale undetermined; the normalized potential and its
// expansion are still available.
func NewSNAIL(params Parameters, ej float64) (*SNAIL, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if ej < 0 || math.IsNaN(ej) {
		return nil, fmt.Errorf("element: josephson energy must be non-negative, got %g", ej)
	}
	return &SNAIL{params: params, ej: ej}, nil
}

// NewSNAILFromInductance builds a SNAIL whose Josephson energy gives the
// effective linear inductance lj (H) at its potential minimum.
func NewSNAILFromInductance(params Parameters, lj float64, opts expansion.Options) (*SNAIL, error) {
	s, err := NewSNAIL(params, 0)
	if err != nil {
		return nil, err
	}
	ej, err := s.CalculateEjFromLj(lj, opts)
	if err != nil {
		return nil, err
	}
	return s.WithJosephsonEnergy(ej), nil
}

// Parameters returns the potential shape parameters.
func (s *SNAIL) Parameters() Parameters {
	return s.params
}

// String identifies the potential shape in logs and errors.
func (s *SNAIL) String() string {
	return fmt.Sprintf("n=%d alpha=%g phi_ext=%g", s.params.N, s.params.Alpha, s.params.PhiExt)
}

// JosephsonEnergy returns Ej in Hz.
func (s *SNAIL) JosephsonEnergy() float64 {
	return s.ej
}

// WithJosephsonEnergy returns a copy with a different Ej.
func (s *SNAIL) WithJosephsonEnergy(ej float64) *SNAIL {
	out := *s
	out.ej = ej
	return &out
}

// NormalizedPotential is U(phi)/Ej = -[alpha cos(phi - phi_ext) + n cos(phi/n)].
func (s *SNAIL) NormalizedPotential(phi float64) float64 {
	n := float64(s.params.N)
	return -(s.params.Alpha*math.Cos(phi-s.params.PhiExt) + n*math.Cos(phi/n))
}

// Potential is U(phi) in Hz.
func (s *SNAIL) Potential(phi float64) float64 {
	return s.ej * s.NormalizedPotential(phi)
}

// Minimum locates the potential minimum within one period (2πn) centred on
// phi_ext. When several minima are equally deep the one closest to phi_ext
// is returned.
func (s *SNAIL) Minimum() (float64, error) {
	return s.minimum(expansion.MinimizeSettings{})
}

func (s *SNAIL) minimum(settings expansion.MinimizeSettings) (float64, error) {
	halfPeriod := float64(s.params.N) * math.Pi
	phiMin, err := expansion.Minimize(s.NormalizedPotential, s.params.PhiExt-halfPeriod, s.params.PhiExt+halfPeriod, s.params.PhiExt, settings)
	if err != nil {
		return 0, fmt.Errorf("element: locating SNAIL minimum (n=%d alpha=%g phi_ext=%g): %w",
			s.params.N, s.params.Alpha, s.params.PhiExt, err)
	}
	return phiMin, nil
}

// Expansion expands the normalized potential around its minimum. The centre,
// search window and shift in opts are overridden; degree, scale, order,
// normalization and the nonlinear flag are honoured.
func (s *SNAIL) Expansion(opts expansion.Options) (*expansion.TruncatedPotential, error) {
	phiMin, err := s.minimum(opts.Minimizer)
	if err != nil {
		return nil, err
	}

	// The minimum is already known; a narrow window keeps Expand from
	// re-scanning the full period.
	opts.Center = phiMin
	opts.Window = 1e-3
	opts.Shift = true

	p, err := expansion.Expand(s.NormalizedPotential, opts)
	if err != nil {
		return nil, fmt.Errorf("element: expanding SNAIL potential: %w", err)
	}
	return p, nil
}

// SolveExpansion returns the minimum location and the normalized Taylor
// coefficients up to degree.
func (s *SNAIL) SolveExpansion(degree int) (float64, []float64, error) {
	p, err := s.Expansion(expansion.Options{Degree: degree})
	if err != nil {
		return 0, nil, err
	}
	return p.Offset, p.Coefficients, nil
}

// AnalyticCoefficients returns the exact Taylor coefficients of the
// normalized potential around phi0, from the closed-form cosine derivatives.
func (s *SNAIL) AnalyticCoefficients(phi0 float64, degree int) []float64 {
	n := float64(s.params.N)
	out := make([]float64, degree+1)
	fact := 1.0
	for k := 0; k <= degree; k++ {
		if k > 0 {
			fact *= float64(k)
		}
		quarter := float64(k) * math.Pi / 2
		d := s.params.Alpha*math.Cos(phi0-s.params.PhiExt+quarter) + math.Pow(n, float64(1-k))*math.Cos(phi0/n+quarter)
		out[k] = -d / fact
	}
	return out
}

// CalculateEjFromLj returns the Ej (Hz) for which the SNAIL has effective
// inductance lj (H) at its minimum.
func (s *SNAIL) CalculateEjFromLj(lj float64, opts expansion.Options) (float64, error) {
	if !(lj > 0) {
		return 0, fmt.Errorf("element: inductance must be positive, got %g", lj)
	}
	opts.Normalize = false
	opts.Nonlinear = false
	p, err := s.Expansion(opts)
	if err != nil {
		return 0, err
	}
	a2 := p.Coefficient(2)
	if !(a2 > 0) {
		return 0, fmt.Errorf("element: quadratic coefficient %g is not positive (n=%d alpha=%g phi_ext=%g)",
			a2, s.params.N, s.params.Alpha, s.params.PhiExt)
	}
	return JosephsonEnergyFromInductance(lj, a2), nil
}

// EffectiveInductance returns the linear inductance (H) of the SNAIL at its
// minimum for the current Ej.
func (s *SNAIL) EffectiveInductance(opts expansion.Options) (float64, error) {
	if !(s.ej > 0) {
		return 0, fmt.Errorf("element: josephson energy not set")
	}
	opts.Normalize = false
	opts.Nonlinear = false
	p, err := s.Expansion(opts)
	if err != nil {
		return 0, err
	}
	return InductanceFromJosephsonEnergy(s.ej, p.Coefficient(2)), nil
}

// JosephsonEnergyFromInductance inverts the quadratic term a2 of U/Ej:
// Ej = (Φ0/2π)² / (2 h Lj a2), in Hz.
func JosephsonEnergyFromInductance(lj, a2 float64) float64 {
	return units.ReducedFluxQuantum * units.ReducedFluxQuantum / (2 * units.Planck * lj * a2)
}

// InductanceFromJosephsonEnergy is the inverse of JosephsonEnergyFromInductance.
func InductanceFromJosephsonEnergy(ej, a2 float64) float64 {
	return units.ReducedFluxQuantum * units.ReducedFluxQuantum / (2 * units.Planck * ej * a2)
}
