package element

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/snailsolver/internal/modules/expansion"
)

func referenceParameters() Parameters {
	return Parameters{N: 3, Alpha: 0.32, PhiExt: 0.47 * 2 * math.Pi}
}

func TestParametersValidate(t *testing.T) {
	require.NoError(t, referenceParameters().Validate())

	bad := []Parameters{
		{N: 0, Alpha: 0.3},
		{N: 3, Alpha: 0},
		{N: 3, Alpha: 1},
		{N: 3, Alpha: -0.2},
		{N: 3, Alpha: 0.3, PhiExt: math.NaN()},
	}
	for _, p := range bad {
		assert.Error(t, p.Validate(), "%+v", p)
	}
}

func TestNewSNAILRejectsNegativeEnergy(t *testing.T) {
	_, err := NewSNAIL(referenceParameters(), -1)
	assert.Error(t, err)
}

func TestSNAILString(t *testing.T) {
	s, err := NewSNAIL(Parameters{N: 3, Alpha: 0.32, PhiExt: 1.5}, 0)
	require.NoError(t, err)
	assert.Equal(t, "n=3 alpha=0.32 phi_ext=1.5", s.String())
}

func TestMinimumReferenceDevice(t *testing.T) {
	s, err := NewSNAIL(referenceParameters(), 0)
	require.NoError(t, err)

	phiMin, err := s.Minimum()
	require.NoError(t, err)
	assert.InDelta(t, 0.82521, phiMin, 1e-4)

	// Nothing lower on a fine scan of the period.
	uMin := s.NormalizedPotential(phiMin)
	p := referenceParameters()
	for i := 0; i <= 5000; i++ {
		phi := p.PhiExt - 3*math.Pi + float64(i)*6*math.Pi/5000
		assert.GreaterOrEqual(t, s.NormalizedPotential(phi), uMin-1e-9)
	}
}

func TestSolveExpansionReferenceCoefficients(t *testing.T) {
	s, err := NewSNAIL(referenceParameters(), 0)
	require.NoError(t, err)

	phiMin, coeffs, err := s.SolveExpansion(expansion.DefaultDegree)
	require.NoError(t, err)
	require.Len(t, coeffs, expansion.DefaultDegree+1)

	assert.Zero(t, coeffs[0])
	assert.Zero(t, coeffs[1])
	assert.InEpsilon(t, 0.0758065, coeffs[2], 1e-4)
	assert.InEpsilon(t, 0.0402394, coeffs[3], 1e-4)
	assert.InEpsilon(t, 0.00556434, coeffs[4], 1e-3)

	analytic := s.AnalyticCoefficients(phiMin, 6)
	for k := 2; k <= 6; k++ {
		assert.InEpsilon(t, analytic[k], coeffs[k], 1e-5, "order %d", k)
	}
}

func TestAnalyticCoefficientsMatchPotential(t *testing.T) {
	s, err := NewSNAIL(referenceParameters(), 0)
	require.NoError(t, err)

	phi0 := 0.4
	c := s.AnalyticCoefficients(phi0, 20)
	var v float64
	dx := 0.05
	for k := len(c) - 1; k >= 0; k-- {
		v = v*dx + c[k]
	}
	assert.InDelta(t, s.NormalizedPotential(phi0+dx), v, 1e-12)
}

func TestSmallAlphaKillsOddTerms(t *testing.T) {
	s, err := NewSNAIL(Parameters{N: 3, Alpha: 1e-9, PhiExt: 0.3}, 0)
	require.NoError(t, err)

	phiMin, coeffs, err := s.SolveExpansion(expansion.DefaultDegree)
	require.NoError(t, err)
	assert.InDelta(t, 0, phiMin, 1e-6)
	assert.InDelta(t, 0, coeffs[3], 1e-8)
	assert.InDelta(t, 0, coeffs[5], 1e-8)
	assert.InEpsilon(t, 1.0/(2*3), coeffs[2], 1e-6)
}

func TestNormalizedNonlinearExpansion(t *testing.T) {
	s, err := NewSNAIL(referenceParameters(), 0)
	require.NoError(t, err)

	p, err := s.Expansion(expansion.Options{Normalize: true, Nonlinear: true})
	require.NoError(t, err)
	assert.True(t, p.NonlinearOnly)
	assert.Zero(t, p.Coefficient(2))
	assert.InEpsilon(t, 0.0402394/(2*0.0758065), p.Coefficient(3), 1e-3)

	_, err = s.Expansion(expansion.Options{Degree: 3, Nonlinear: true})
	var degErr *expansion.InvalidDegreeError
	assert.ErrorAs(t, err, &degErr)
}

func TestJosephsonEnergyRoundTrip(t *testing.T) {
	const lj = 11e-9
	s, err := NewSNAILFromInductance(referenceParameters(), lj, expansion.Options{})
	require.NoError(t, err)
	assert.InEpsilon(t, 9.8014e10, s.JosephsonEnergy(), 1e-3)

	back, err := s.EffectiveInductance(expansion.Options{})
	require.NoError(t, err)
	assert.InEpsilon(t, lj, back, 1e-3)

	assert.InEpsilon(t, lj, InductanceFromJosephsonEnergy(JosephsonEnergyFromInductance(lj, 0.07), 0.07), 1e-12)
}

func TestCalculateEjRejectsBadInductance(t *testing.T) {
	s, err := NewSNAIL(referenceParameters(), 0)
	require.NoError(t, err)
	_, err = s.CalculateEjFromLj(0, expansion.Options{})
	assert.Error(t, err)

	_, err = s.EffectiveInductance(expansion.Options{})
	assert.Error(t, err)
}

func TestWithJosephsonEnergyCopies(t *testing.T) {
	s, err := NewSNAIL(referenceParameters(), 1)
	require.NoError(t, err)
	t2 := s.WithJosephsonEnergy(5)
	assert.Equal(t, 1.0, s.JosephsonEnergy())
	assert.Equal(t, 5.0, t2.JosephsonEnergy())
	assert.InDelta(t, 5*s.NormalizedPotential(0.2), t2.Potential(0.2), 1e-12)
}
