package circuit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/snailsolver/internal/modules/ancilla"
	"github.com/aristath/snailsolver/internal/modules/element"
	"github.com/aristath/snailsolver/internal/modules/expansion"
	"github.com/aristath/snailsolver/internal/modules/fock"
)

func testAncilla(t *testing.T, fockTrunc int) *ancilla.Ancilla {
	t.Helper()
	snail, err := element.NewSNAIL(element.Parameters{N: 3, Alpha: 0.32, PhiExt: 0.47 * 2 * math.Pi}, 0)
	require.NoError(t, err)
	a, err := ancilla.FromFrequencyAndInductance(snail, 5.19381e9, 11e-9, ancilla.Options{FockTrunc: fockTrunc})
	require.NoError(t, err)
	return a
}

func linearPotential() *expansion.TruncatedPotential {
	return &expansion.TruncatedPotential{Coefficients: make([]float64, 6), Degree: 5, NonlinearOnly: true}
}

func TestSingleModeMatchesAncilla(t *testing.T) {
	a := testAncilla(t, 10)
	c, err := New(a, []float64{a.Frequency()}, []float64{a.ReducedZPF()})
	require.NoError(t, err)

	want, err := a.Spectrum()
	require.NoError(t, err)
	got, err := c.Spectrum()
	require.NoError(t, err)

	require.Equal(t, want.Len(), got.Len())
	for i := range want.Values {
		assert.InDelta(t, want.Values[i], got.Values[i], 1e-6*a.Frequency())
	}

	// Cached.
	again, err := c.Spectrum()
	require.NoError(t, err)
	assert.Same(t, got, again)
}

func TestLinearCircuitLadders(t *testing.T) {
	modes := []Mode{
		{Frequency: 5e9, ReducedZPF: 0.3, Truncation: 4},
		{Frequency: 7e9, ReducedZPF: 0.05, Truncation: 5},
	}
	c, err := NewFromModes(linearPotential(), 1e11, modes)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, c.Dims())

	ladder, err := c.ModeLadder(1, 4)
	require.NoError(t, err)
	for i, e := range ladder {
		assert.InDelta(t, 7e9*float64(i), e, 1)
	}

	e, vec, err := c.GetEigenstate(map[int]int{0: 2, 1: 1})
	require.NoError(t, err)
	assert.InDelta(t, 17e9, e, 1)
	assert.Len(t, vec, 20)

	chi, err := c.CrossKerr(0, 1)
	require.NoError(t, err)
	assert.InDelta(t, 0, chi, 1)
}

func TestCoupledCircuitCrossKerr(t *testing.T) {
	a := testAncilla(t, 6)
	c, err := New(a, []float64{a.Frequency(), 7.2e9}, []float64{a.ReducedZPF(), 0.04})
	require.NoError(t, err)

	ground, _, err := c.GetEigenstate(nil)
	require.NoError(t, err)
	s, err := c.Spectrum()
	require.NoError(t, err)
	assert.Equal(t, s.Values[0], ground)

	cavity, _, err := c.GetEigenstate(map[int]int{1: 1})
	require.NoError(t, err)
	assert.InEpsilon(t, 7.2e9, cavity-ground, 0.05)

	chi, err := c.CrossKerr(0, 1)
	require.NoError(t, err)
	assert.NotZero(t, chi)
	assert.Less(t, math.Abs(chi), 1e9)
}

func TestCoupledHamiltonianIsHermitian(t *testing.T) {
	a := testAncilla(t, 6)
	c, err := New(a, []float64{a.Frequency(), 7.2e9}, []float64{a.ReducedZPF(), 0.04})
	require.NoError(t, err)

	h, err := c.Hamiltonian()
	require.NoError(t, err)
	assert.Equal(t, 36, h.SymmetricDim())
	assert.True(t, fock.IsHermitian(h, 1e-12))
}

func TestDominantOccupation(t *testing.T) {
	modes := []Mode{
		{Frequency: 5e9, ReducedZPF: 0.3, Truncation: 3},
		{Frequency: 7e9, ReducedZPF: 0.05, Truncation: 3},
	}
	c, err := NewFromModes(linearPotential(), 1e11, modes)
	require.NoError(t, err)

	occ, err := c.DominantOccupation(0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, occ)
	// Ladder 0, 5, 7, 10 GHz.
	occ, err = c.DominantOccupation(1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, occ)
	occ, err = c.DominantOccupation(2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, occ)
	occ, err = c.DominantOccupation(3)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, occ)

	_, err = c.DominantOccupation(9)
	assert.Error(t, err)
}

func TestInvalidInputs(t *testing.T) {
	_, err := NewFromModes(linearPotential(), 1e11, []Mode{{Frequency: 5e9, ReducedZPF: 0.1, Truncation: 1}})
	assert.Error(t, err)
	_, err = NewFromModes(linearPotential(), 1e11, nil)
	assert.Error(t, err)
	_, err = NewFromModes(linearPotential(), 0, []Mode{{Frequency: 5e9, ReducedZPF: 0.1, Truncation: 3}})
	assert.Error(t, err)
	_, err = New(testAncilla(t, 4), []float64{5e9}, nil)
	assert.Error(t, err)

	c, err := NewFromModes(linearPotential(), 1e11, []Mode{{Frequency: 5e9, ReducedZPF: 0.1, Truncation: 3}})
	require.NoError(t, err)
	_, _, err = c.GetEigenstate(map[int]int{1: 0})
	assert.Error(t, err)
	_, _, err = c.GetEigenstate(map[int]int{0: 3})
	assert.Error(t, err)
	_, err = c.CrossKerr(0, 0)
	assert.Error(t, err)
}
